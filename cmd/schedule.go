package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/lepinkainen/catalogue/internal/pipeline"
	"github.com/lepinkainen/catalogue/internal/schedule"
	"github.com/spf13/viper"
)

// ScheduleCmd runs sync repeatedly until interrupted
type ScheduleCmd struct {
	Every    time.Duration `help:"Interval between runs (overrides schedule.every)"`
	Cron     string        `help:"Five-field cron expression (overrides schedule.cron and --every)"`
	MaxItems int           `help:"Maximum records per source (overrides sources.max_items)"`
	Now      bool          `help:"Run once immediately before waiting for the first tick"`
}

var runSchedule = schedule.Run

func (s *ScheduleCmd) Run(ctx context.Context) error {
	every := s.Every
	if every == 0 {
		every = viper.GetDuration("schedule.every")
	}
	cronSpec := s.Cron
	if cronSpec == "" && s.Every == 0 {
		cronSpec = viper.GetString("schedule.cron")
	}

	sched, err := schedule.Parse(every, cronSpec)
	if err != nil {
		return err
	}

	syncCmd := SyncCmd{MaxItems: s.MaxItems}
	syncCmd.apply()

	runner := schedule.NewRunner(func(jobCtx context.Context) {
		summary, err := runPipeline(jobCtx, pipeline.OptionsFromConfig())
		if err != nil {
			slog.Error("Scheduled run failed", "error", err)
			return
		}
		printSummary(stdout, summary)
	}, slog.Default())

	slog.Info("Scheduler started", "every", every, "cron", cronSpec, "next", sched.Next(time.Now()).Format(time.RFC3339))
	runSchedule(ctx, sched, runner, s.Now)
	slog.Info("Scheduler stopped", "skipped_ticks", runner.Skipped())
	return nil
}
