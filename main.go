package main

import "github.com/lepinkainen/catalogue/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
