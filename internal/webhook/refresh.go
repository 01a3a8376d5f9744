package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/sheets"
)

type workspaceRecordEvent struct {
	RecordID string `json:"record_id"`
}

// workspaceRecord refreshes an applicant someone edited in the workspace.
// The record stands in for the spreadsheet row.
func (d *Dispatcher) workspaceRecord(ctx context.Context, payload []byte) error {
	var ev workspaceRecordEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return &apperr.FormatError{Name: "workspace record event", Message: err.Error()}
	}

	parsed, err := d.workspace.GetApplicantByRecordID(ctx, ev.RecordID)
	if err != nil {
		return err
	}
	if parsed == nil {
		return &apperr.NotFoundError{Kind: "workspace record", Key: ev.RecordID}
	}

	a, err := d.refresher.RefreshOne(ctx, parsed)
	if err != nil {
		return err
	}
	d.logger.Info("refreshed applicant from workspace", "email", a.Email, "record_id", ev.RecordID, "status", a.Status.String())
	return nil
}

type sheetRowEvent struct {
	SheetID     string              `json:"sheet_id"`
	NamedValues map[string][]string `json:"named_values"`
}

// sheetRow refreshes the applicant of a submitted or edited form row.
func (d *Dispatcher) sheetRow(ctx context.Context, payload []byte) error {
	var ev sheetRowEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return &apperr.FormatError{Name: "sheet row event", Message: err.Error()}
	}

	s, ok := d.refresher.SheetByID(ev.SheetID)
	if !ok {
		return &apperr.NotFoundError{Kind: "sheet", Key: ev.SheetID}
	}

	header, row := sheets.FromNamedValues(ev.NamedValues)
	cols := sheets.DetectColumns(header)
	if cols.Email < 0 {
		return &apperr.FormatError{Name: "sheet row event", Message: "no email address column"}
	}
	parsed, err := sheets.ParseRow(row, cols, d.refresher.RowOptions(s))
	if err != nil {
		return fmt.Errorf("failed to parse row of sheet %s: %w", ev.SheetID, err)
	}
	if parsed.Email == "" {
		return &apperr.FormatError{Name: "sheet row event", Message: "row has no email address"}
	}

	a, err := d.refresher.RefreshOne(ctx, parsed)
	if err != nil {
		return err
	}
	d.logger.Info("refreshed applicant from sheet", "email", a.Email, "sheet_id", ev.SheetID, "status", a.Status.String())
	return nil
}
