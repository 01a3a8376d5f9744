// Package sheets reads application form responses from spreadsheets and
// turns each row into the spreadsheet's view of an applicant.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonathan/hiring-agent/internal/types"
)

// DefaultRange covers every response of a form-linked sheet.
const DefaultRange = "Form Responses 1!A1:Z1000"

// Source is a spreadsheet that can be read as a grid and written cell by
// cell.
type Source interface {
	ReadRows(ctx context.Context, sheetID, rng string) ([][]string, error)
	WriteCell(ctx context.Context, sheetID, cellRef, value string) error
}

// Row is one parsed form response. Index is the zero-based row in the
// sheet, header included.
type Row struct {
	Index     int
	Applicant *types.Applicant
	Err       error
}

// ReadApplicants reads the sheet and parses every response row. Reading
// stops at the first row without an email, which is where the form's
// responses end. A row that fails to parse is returned with its error so
// the caller can skip it and carry on.
func ReadApplicants(ctx context.Context, src Source, rng string, opts RowOptions, logger *slog.Logger) ([]Row, Columns, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if rng == "" {
		rng = DefaultRange
	}

	grid, err := src.ReadRows(ctx, opts.SheetID, rng)
	if err != nil {
		return nil, Columns{}, fmt.Errorf("failed to read sheet %s: %w", opts.SheetID, err)
	}
	if len(grid) == 0 {
		return nil, Columns{}, nil
	}

	cols := DetectColumns(grid[0])
	if cols.Email < 0 {
		return nil, cols, fmt.Errorf("sheet %s has no email address column", opts.SheetID)
	}

	var rows []Row
	for i, raw := range grid[1:] {
		if cols.Email >= len(raw) || strings.TrimSpace(raw[cols.Email]) == "" {
			break
		}
		a, err := ParseRow(raw, cols, opts)
		if err != nil {
			logger.Warn("failed to parse applicant row", "sheet_id", opts.SheetID, "row", i+1, "error", err)
		}
		rows = append(rows, Row{Index: i + 1, Applicant: a, Err: err})
	}
	return rows, cols, nil
}

// SheetName returns the tab name of an A1 range such as
// "Form Responses 1!A1:Z1000".
func SheetName(rng string) string {
	if i := strings.Index(rng, "!"); i >= 0 {
		return strings.Trim(rng[:i], "'")
	}
	return ""
}
