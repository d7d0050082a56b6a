package cli

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"rssdigest/internal/interfaces/config"
)

func serveCmd() *cobra.Command {
	var (
		schedule string
		runNow   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run digest batches on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if schedule == "" {
				schedule = cfg.Schedule
			}
			if schedule == "" {
				return fmt.Errorf("no schedule configured: set SCHEDULE or pass --schedule")
			}
			logger := newLogger(cfg)

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(cmd.Context(), a, schedule, runNow, logger)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression (defaults to SCHEDULE)")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "run one batch immediately before waiting for the schedule")
	return cmd
}

// serve runs a batch on every tick of schedule until ctx is done. A batch
// still running when the next tick fires causes that tick to be skipped.
func serve(ctx context.Context, a *app, schedule string, runNow bool, logger zerolog.Logger) error {
	job := func() {
		if err := a.runBatch(ctx); err != nil {
			logger.Error().Err(err).Msg("digest batch failed")
		}
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	if runNow {
		job()
	}

	c.Start()
	logger.Info().Str("schedule", schedule).Msg("scheduler started")

	<-ctx.Done()
	logger.Info().Msg("shutting down, waiting for running batch")
	<-c.Stop().Done()
	return nil
}
