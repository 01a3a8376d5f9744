package types

import "time"

// Envelope statuses reported by the e-signature provider.
const (
	EnvelopeStatusCreated   = "created"
	EnvelopeStatusSent      = "sent"
	EnvelopeStatusDelivered = "delivered"
	EnvelopeStatusCompleted = "completed"
	EnvelopeStatusDeclined  = "declined"
	EnvelopeStatusVoided    = "voided"
)

// Envelope is the applicant-side record of one e-signature workflow.
type Envelope struct {
	ID          string     `json:"envelope_id,omitempty"`
	Status      string     `json:"envelope_status,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Started reports whether an envelope has been sent for this record.
func (e Envelope) Started() bool {
	return e.ID != ""
}

// Completed reports whether every party has signed.
func (e Envelope) Completed() bool {
	return e.Status == EnvelopeStatusCompleted
}

func (e Envelope) clone() Envelope {
	e.CreatedAt = cloneTime(e.CreatedAt)
	e.CompletedAt = cloneTime(e.CompletedAt)
	return e
}
