package sheets

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads form responses exported to a local workbook. The sheet
// id is the workbook path and the range's tab name selects the worksheet.
type XLSXSource struct {
	mu sync.Mutex
}

// NewXLSXSource creates a workbook-backed Source.
func NewXLSXSource() *XLSXSource {
	return &XLSXSource{}
}

// ReadRows returns every row of the tab named in rng, or of the first tab
// when rng names none.
func (x *XLSXSource) ReadRows(_ context.Context, path, rng string) ([][]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet, err := resolveSheet(f, rng)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	return rows, nil
}

// WriteCell updates one cell and saves the workbook.
func (x *XLSXSource) WriteCell(_ context.Context, path, cellRef, value string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet, err := resolveSheet(f, cellRef)
	if err != nil {
		return err
	}
	cell := cellRef
	if i := strings.Index(cellRef, "!"); i >= 0 {
		cell = cellRef[i+1:]
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", cellRef, err)
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// resolveSheet picks the tab named in ref, or the first tab when ref names
// none or names one the workbook does not have.
func resolveSheet(f *excelize.File, ref string) (string, error) {
	list := f.GetSheetList()
	if len(list) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if name := SheetName(ref); name != "" && slices.Contains(list, name) {
		return name, nil
	}
	return list[0], nil
}
