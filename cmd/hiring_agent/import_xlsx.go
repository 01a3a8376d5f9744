package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-agent/internal/pipeline"
	"github.com/jonathan/hiring-agent/internal/sheets"
)

var importRole string

var importXLSXCmd = &cobra.Command{
	Use:   "import-xlsx <workbook>",
	Short: "Refresh applicants from a form responses workbook",
	Long: `Reads applicants from an exported .xlsx workbook instead of the live spreadsheet and refreshes them
as the sheet refresh would. The workbook's rows are attributed to --role.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportXLSX,
}

func init() {
	importXLSXCmd.Flags().StringVar(&importRole, "role", "", "Role the workbook's applicants applied for (required)")
	rootCmd.AddCommand(importXLSXCmd)
}

func runImportXLSX(cmd *cobra.Command, args []string) error {
	if importRole == "" {
		return errors.New("--role is required")
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	opts := appOptions{
		Source: sheets.NewXLSXSource(),
		Sheets: []pipeline.Sheet{{Role: importRole, SheetID: path}},
	}
	return withApp(cmd, opts, func(ctx context.Context, a *app) error {
		res, err := a.refresher.Refresh(ctx)
		printResult(cmd.OutOrStdout(), pipeline.PassSheets, res)
		return err
	})
}
