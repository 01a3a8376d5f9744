package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// GoogleSource reads and writes Google Sheets.
type GoogleSource struct {
	svc *gsheets.Service
}

// NewGoogleSource creates a Sheets client from the given client options,
// typically option.WithCredentialsFile.
func NewGoogleSource(ctx context.Context, opts ...option.ClientOption) (*GoogleSource, error) {
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &GoogleSource{svc: svc}, nil
}

// ReadRows returns the formatted values of the range.
func (g *GoogleSource) ReadRows(ctx context.Context, sheetID, rng string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(sheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get values: %w", err)
	}

	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		grid[i] = make([]string, len(row))
		for j, v := range row {
			grid[i][j] = fmt.Sprint(v)
		}
	}
	return grid, nil
}

// WriteCell sets one cell as if a person had typed the value.
func (g *GoogleSource) WriteCell(ctx context.Context, sheetID, cellRef, value string) error {
	vr := &gsheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := g.svc.Spreadsheets.Values.Update(sheetID, cellRef, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", cellRef, err)
	}
	return nil
}
