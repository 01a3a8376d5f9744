// Package envelope drives the offer and employee agreements e-signature
// envelopes of applicants who are being given an offer.
package envelope

import (
	"context"
	"time"

	"github.com/jonathan/hiring-agent/internal/types"
)

// Kind is one of the two envelopes every hire signs.
type Kind int

const (
	KindOffer Kind = iota
	KindAgreements
)

func (k Kind) String() string {
	switch k {
	case KindOffer:
		return "offer"
	case KindAgreements:
		return "employee agreements"
	default:
		return "unknown"
	}
}

// Kinds lists the envelopes in the order they are sent.
var Kinds = []Kind{KindOffer, KindAgreements}

// record returns the applicant's sub-record for k.
func (k Kind) record(a *types.Applicant) *types.Envelope {
	if k == KindAgreements {
		return &a.Agreements
	}
	return &a.Offer
}

// Recipient is one party of an envelope. Recipients sign in RoutingOrder.
type Recipient struct {
	RoleName     string
	Name         string
	Email        string
	RoutingOrder int
	EmailSubject string
	EmailBody    string
}

// Request creates an envelope from a server-side template.
type Request struct {
	TemplateID   string
	EmailSubject string
	Status       string
	Recipients   []Recipient
}

// Document is one signed file of a completed envelope. PDF is empty when
// the provider did not inline it.
type Document struct {
	ID   string
	Name string
	PDF  []byte
}

// Envelope is the provider's view of an envelope.
type Envelope struct {
	ID          string
	Status      string
	CreatedAt   *time.Time
	CompletedAt *time.Time
	Documents   []Document
}

// FormField is one field the signers filled in.
type FormField struct {
	Name  string
	Value string
}

// Template is a reusable envelope definition at the provider.
type Template struct {
	ID   string
	Name string
}

// Provider is an e-signature service.
type Provider interface {
	CreateEnvelope(ctx context.Context, req Request) (*Envelope, error)
	GetEnvelope(ctx context.Context, id string) (*Envelope, error)
	GetDocument(ctx context.Context, envelopeID, documentID string) ([]byte, error)
	GetFormData(ctx context.Context, envelopeID string) ([]FormField, error)
	ListTemplates(ctx context.Context) ([]Template, error)
}

// Filer stores signed documents in per-applicant folders of a shared drive.
type Filer interface {
	EnsureFolder(ctx context.Context, driveName, folderName string) (folderID string, err error)
	Upload(ctx context.Context, folderID, name, mimeType string, data []byte) error
}

// Store persists applicants and the employees seeded from their offers.
type Store interface {
	GetApplicant(ctx context.Context, email, sheetID string) (*types.Applicant, error)
	UpsertApplicant(ctx context.Context, a *types.Applicant) error
	GetEmployeeByRecoveryEmail(ctx context.Context, email string) (*types.Employee, error)
	UpdateEmployee(ctx context.Context, e *types.Employee) error
}

// Notifier announces envelope progress.
type Notifier interface {
	StatusChanged(ctx context.Context, a *types.Applicant) error
	OfferStatusChanged(ctx context.Context, a *types.Applicant) error
	AgreementsStatusChanged(ctx context.Context, a *types.Applicant) error
	StartDateChanged(ctx context.Context, a *types.Applicant) error
}

// BackgroundChecker invites a new hire to a background check.
type BackgroundChecker interface {
	Request(ctx context.Context, a *types.Applicant) error
}
