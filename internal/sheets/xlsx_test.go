package sheets

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jonathan/hiring-agent/internal/status"
)

func writeWorkbook(t *testing.T, tab string, rows ...[]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", tab))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		require.NoError(t, f.SetSheetRow(tab, cell, &values))
	}

	path := filepath.Join(t.TempDir(), "responses.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestXLSXSource_ReadApplicants(t *testing.T) {
	path := writeWorkbook(t, "Form Responses 1", formHeader, formRow())
	src := NewXLSXSource()
	opts := rowOptions()
	opts.SheetID = path

	rows, cols, err := ReadApplicants(context.Background(), src, DefaultRange, opts, nil)
	require.NoError(t, err)

	assert.Equal(t, 12, cols.Status)
	require.Len(t, rows, 1)
	require.NoError(t, rows[0].Err)
	assert.Equal(t, 1, rows[0].Index)
	assert.Equal(t, "Ada Lovelace", rows[0].Applicant.Name)
	assert.Equal(t, status.Interviewing, rows[0].Applicant.Status)
}

func TestXLSXSource_FallsBackToFirstTab(t *testing.T) {
	path := writeWorkbook(t, "Export", []string{"Email Address"}, []string{"ada@example.com"})

	grid, err := NewXLSXSource().ReadRows(context.Background(), path, DefaultRange)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Email Address"}, {"ada@example.com"}}, grid)
}

func TestXLSXSource_WriteCell(t *testing.T) {
	path := writeWorkbook(t, "Form Responses 1", formHeader, formRow())
	src := NewXLSXSource()
	ctx := context.Background()

	require.NoError(t, src.WriteCell(ctx, path, CellRef("Form Responses 1", 12, 1), "Giving offer"))

	grid, err := src.ReadRows(ctx, path, DefaultRange)
	require.NoError(t, err)
	assert.Equal(t, "Giving offer", grid[1][12])
}

func TestXLSXSource_MissingWorkbook(t *testing.T) {
	_, err := NewXLSXSource().ReadRows(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"), DefaultRange)
	assert.Error(t, err)
}
