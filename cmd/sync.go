package cmd

import (
	"context"
	"log/slog"

	"github.com/lepinkainen/catalogue/internal/config"
	"github.com/lepinkainen/catalogue/internal/pipeline"
)

// SyncCmd runs one fetch-merge-save cycle
type SyncCmd struct {
	DryRun   bool `help:"Merge and report without writing the collection"`
	MaxItems int  `help:"Maximum records per source (overrides sources.max_items)"`
}

func (s *SyncCmd) Run(ctx context.Context) error {
	s.apply()

	summary, err := runPipeline(ctx, pipeline.OptionsFromConfig())
	if err != nil {
		return err
	}

	printSummary(stdout, summary)
	return nil
}

func (s *SyncCmd) apply() {
	if s.DryRun {
		config.SetDryRun(true)
	}
	if s.MaxItems > 0 {
		config.MaxItems = s.MaxItems
	}
	slog.Debug("Sync settings", "store", config.StorePath, "max_items", config.MaxItems, "dry_run", config.DryRun)
}
