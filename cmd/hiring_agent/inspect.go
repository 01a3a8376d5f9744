package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-agent/internal/db"
	"github.com/jonathan/hiring-agent/internal/observability"
)

var runsLimit int

var showCmd = &cobra.Command{
	Use:   "show <email> <sheet-id>",
	Short: "Print an applicant as stored in the database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, store *db.DB) error {
			a, err := store.GetApplicant(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if a == nil {
				return fmt.Errorf("no applicant %s on sheet %s", args[0], args[1])
			}
			observability.NewPrinter(cmd.OutOrStdout()).PrintApplicant(a)
			return nil
		})
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Print the most recent refresh runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(cmd, func(ctx context.Context, store *db.DB) error {
			runs, err := store.ListRuns(ctx, runsLimit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return err
			}
			observability.NewPrinter(cmd.OutOrStdout()).PrintRuns(runs)
			return nil
		})
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "Number of runs to print")
	rootCmd.AddCommand(showCmd, runsCmd)
}

// withDB connects to the database only.
func withDB(cmd *cobra.Command, fn func(context.Context, *db.DB) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Secrets.Require("DATABASE_URL"); err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := db.Connect(ctx, cfg.Secrets.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, store)
}
