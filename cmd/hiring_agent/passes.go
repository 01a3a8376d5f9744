package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-agent/internal/pipeline"
)

var (
	refreshSheet     string
	refreshWriteBack bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh every applicant on the role spreadsheets",
	Long: `Reads each role's form response sheet, reconciles every row with the workspace and the database,
derives statuses and runs the side effects. Use --sheet to refresh a single spreadsheet.`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Count new reviews for every applicant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			res, err := a.refresher.Reviews(ctx)
			printResult(cmd.OutOrStdout(), pipeline.PassReviews, res)
			return err
		})
	},
}

var envelopesCmd = &cobra.Command{
	Use:   "envelopes",
	Short: "Create and follow offer and agreements envelopes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			res, err := a.refresher.Envelopes(ctx)
			printResult(cmd.OutOrStdout(), pipeline.PassEnvelopes, res)
			return err
		})
	},
}

var backgroundChecksCmd = &cobra.Command{
	Use:   "background-checks",
	Short: "Pull background check reports for onboarding applicants",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			if a.checks == nil {
				return errors.New("CHECKR_API_KEY is required but not set")
			}
			return a.checks.Refresh(ctx)
		})
	},
}

var onboardingIssuesCmd = &cobra.Command{
	Use:   "onboarding-issues",
	Short: "Open, update and close onboarding issues",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			if a.onboarding == nil {
				return errors.New("issue_repo is not configured")
			}
			return a.onboarding.SyncAll(ctx)
		})
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract <file-id-or-url>",
	Short: "Print the text extracted from a stored document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
			text, err := a.extractor.Extract(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		})
	},
}

func init() {
	refreshCmd.Flags().StringVar(&refreshSheet, "sheet", "", "Refresh only this spreadsheet id")
	refreshCmd.Flags().BoolVar(&refreshWriteBack, "write-back", false, "Write derived statuses into the status column")

	rootCmd.AddCommand(refreshCmd, reviewsCmd, envelopesCmd, backgroundChecksCmd, onboardingIssuesCmd, extractCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, appOptions{WriteBackStatus: refreshWriteBack}, func(ctx context.Context, a *app) error {
		var (
			res pipeline.Result
			err error
		)
		if refreshSheet != "" {
			s, ok := a.refresher.SheetByID(refreshSheet)
			if !ok {
				return fmt.Errorf("sheet %s is not mapped to a role", refreshSheet)
			}
			res, err = a.refresher.RefreshSheet(ctx, s)
		} else {
			res, err = a.refresher.Refresh(ctx)
		}
		printResult(cmd.OutOrStdout(), pipeline.PassSheets, res)
		return err
	})
}

// withApp loads the config, wires the services and runs fn until it
// returns or the process is interrupted.
func withApp(cmd *cobra.Command, opts appOptions, fn func(context.Context, *app) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, opts, slog.Default())
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func printResult(w io.Writer, pass string, res pipeline.Result) {
	fmt.Fprintf(w, "%s: %d processed, %d failed (run %s)\n", pass, res.Processed, res.Failed, res.RunID)
}
