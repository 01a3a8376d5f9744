package checkr

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/backgroundcheck"
)

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			Object string `json:"object"`
			report
		} `json:"object"`
	} `json:"data"`
}

// ParseEvent reads a webhook delivery. Only report events carry a report;
// for anything else the report is nil.
func ParseEvent(body []byte) (string, *backgroundcheck.Report, error) {
	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", nil, &apperr.FormatError{Name: "background check event", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if ev.Data.Object.Object != "report" {
		return ev.Type, nil, nil
	}
	r := ev.Data.Object.report
	return ev.Type, &backgroundcheck.Report{
		ID:          r.ID,
		CandidateID: r.CandidateID,
		Package:     r.Package,
		Status:      r.Status,
	}, nil
}
