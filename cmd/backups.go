package cmd

import (
	"fmt"
	"log/slog"

	"github.com/lepinkainen/catalogue/internal/config"
	"github.com/lepinkainen/catalogue/internal/store"
)

// BackupsCmd groups backup subcommands
type BackupsCmd struct {
	List    BackupsListCmd    `cmd:"" help:"List backups, newest first"`
	Restore BackupsRestoreCmd `cmd:"" help:"Replace the collection with a backup"`
}

// BackupsListCmd lists backups of the collection
type BackupsListCmd struct{}

func (b *BackupsListCmd) Run() error {
	backups, err := store.New(config.StorePath).Backups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		_, _ = fmt.Fprintln(stdout, "No backups found")
		return nil
	}
	printBackups(stdout, backups)
	return nil
}

// BackupsRestoreCmd restores a backup over the collection
type BackupsRestoreCmd struct {
	File string `arg:"" help:"Backup file to restore" type:"existingfile"`
}

func (b *BackupsRestoreCmd) Run() error {
	lock, err := store.AcquireLock(lockPath(), "restore")
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	previous, err := store.New(config.StorePath).Restore(b.File)
	if err != nil {
		return err
	}
	slog.Info("Backup restored", "from", b.File, "store", config.StorePath, "previous_state", previous)
	return nil
}

func lockPath() string {
	if config.LockFile != "" {
		return config.LockFile
	}
	return store.LockPath(config.StorePath)
}
