package cmd

import (
	"fmt"

	"github.com/lepinkainen/catalogue/internal/config"
	"github.com/lepinkainen/catalogue/internal/stats"
	"github.com/lepinkainen/catalogue/internal/store"
)

// StatsCmd prints collection statistics
type StatsCmd struct{}

func (s *StatsCmd) Run() error {
	records, err := store.New(config.StorePath).Load()
	if err != nil {
		return err
	}

	st := stats.Compute(records)
	_, _ = fmt.Fprintf(stdout, "Collection: %s\n", config.StorePath)
	printStats(stdout, st)
	return nil
}
