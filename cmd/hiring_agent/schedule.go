package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-agent/internal/pipeline"
)

var scheduleServe bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run every pass on the configured schedule",
	Long: `Runs the sheet refresh, review, envelope, background check and onboarding issue passes once at
startup and then on the config's cron schedule. A file lock keeps two agents on the same host from
running a cycle at the same time. With --serve the webhook server runs alongside.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleServe, "serve", false, "Also serve webhooks")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
		fileLock := flock.New(a.cfg.LockFile)

		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{a.logger})))
		if _, err := c.AddFunc(a.cfg.Schedule, func() { a.cycle(ctx, fileLock) }); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", a.cfg.Schedule, err)
		}

		errCh := make(chan error, 1)
		if scheduleServe {
			srv := a.server()
			go func() { errCh <- srv.Start(ctx) }()
		}

		a.cycle(ctx, fileLock)
		c.Start()
		a.logger.Info("scheduler started", "schedule", a.cfg.Schedule)

		var err error
		select {
		case <-ctx.Done():
		case err = <-errCh:
		}
		<-c.Stop().Done()
		a.logger.Info("scheduler stopped")
		if scheduleServe && err == nil {
			err = <-errCh
		}
		return err
	})
}

// cycle runs every pass in order. A pass that fails is logged and the
// next one still runs.
func (a *app) cycle(ctx context.Context, fileLock *flock.Flock) {
	locked, err := fileLock.TryLock()
	if err != nil {
		a.logger.Error("failed to take lock file", "path", fileLock.Path(), "error", err)
		return
	}
	if !locked {
		a.logger.Warn("another agent holds the lock file, skipping cycle", "path", fileLock.Path())
		return
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			a.logger.Warn("failed to release lock file", "path", fileLock.Path(), "error", err)
		}
	}()

	passes := []struct {
		name string
		run  func(context.Context) error
	}{
		{pipeline.PassSheets, func(ctx context.Context) error { _, err := a.refresher.Refresh(ctx); return err }},
		{pipeline.PassReviews, func(ctx context.Context) error { _, err := a.refresher.Reviews(ctx); return err }},
		{pipeline.PassEnvelopes, func(ctx context.Context) error {
			if a.envelopes == nil {
				return nil
			}
			_, err := a.refresher.Envelopes(ctx)
			return err
		}},
		{"background_checks", func(ctx context.Context) error {
			if a.checks == nil {
				return nil
			}
			return a.checks.Refresh(ctx)
		}},
		{"onboarding_issues", func(ctx context.Context) error {
			if a.onboarding == nil {
				return nil
			}
			return a.onboarding.SyncAll(ctx)
		}},
	}

	for _, p := range passes {
		if ctx.Err() != nil {
			return
		}
		if err := p.run(ctx); err != nil {
			a.logger.Error("pass failed", "pass", p.name, "error", err)
		}
	}
}

// cronLogger sends cron's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
