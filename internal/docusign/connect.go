package docusign

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/envelope"
)

type connectEvent struct {
	Event string `json:"event"`
	Data  struct {
		EnvelopeID      string            `json:"envelopeId"`
		EnvelopeSummary *envelopeResponse `json:"envelopeSummary"`
	} `json:"data"`
}

// ParseEvent reads a Connect notification. Without an envelope summary only
// the id is known and Status is empty.
func ParseEvent(body []byte) (*envelope.Envelope, error) {
	var ev connectEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, &apperr.FormatError{Name: "envelope event", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if ev.Data.EnvelopeSummary == nil {
		return &envelope.Envelope{ID: ev.Data.EnvelopeID}, nil
	}
	env := ev.Data.EnvelopeSummary.envelope()
	env.ID = ev.Data.EnvelopeID
	return env, nil
}
