// Package backgroundcheck invites new hires to a background check and
// mirrors the report statuses onto their applicant record.
package backgroundcheck

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

// Packages ordered from the provider.
const (
	PackageCriminal     = "premium_criminal"
	PackageMotorVehicle = "motor_vehicle"
)

// StatusRequested is recorded once the invitation is sent.
const StatusRequested = "requested"

// Candidate is a person known to the provider.
type Candidate struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	ReportIDs []string
}

// Name is the full name as the provider has it.
func (c Candidate) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Report is one screening of a candidate.
type Report struct {
	ID          string
	CandidateID string
	Package     string
	Status      string
}

// Provider is a background check service.
type Provider interface {
	ListCandidates(ctx context.Context, email string) ([]Candidate, error)
	GetCandidate(ctx context.Context, id string) (*Candidate, error)
	CreateCandidate(ctx context.Context, a *types.Applicant) (*Candidate, error)
	CreateInvitation(ctx context.Context, candidateID, pkg string) error
	GetReport(ctx context.Context, id string) (*Report, error)
}

// Store reads and saves applicants.
type Store interface {
	ListApplicantsByStatus(ctx context.Context, s status.Status) ([]*types.Applicant, error)
	UpsertApplicant(ctx context.Context, a *types.Applicant) error
}

// Notifier announces background check progress.
type Notifier interface {
	BackgroundCheckStatusChanged(ctx context.Context, a *types.Applicant) error
}

// Service requests and follows background checks.
type Service struct {
	provider Provider
	store    Store
	notifier Notifier
	logger   *slog.Logger
}

// New creates a Service.
func New(provider Provider, store Store, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{provider: provider, store: store, notifier: notifier, logger: logger}
}

// Request invites a to a criminal background check unless one was already
// requested. An existing candidate with the same email is reused.
func (s *Service) Request(ctx context.Context, a *types.Applicant) error {
	if a.CriminalBackgroundCheckStatus != "" {
		return nil
	}

	candidates, err := s.provider.ListCandidates(ctx, a.Email)
	if err != nil {
		return fmt.Errorf("failed to list candidates: %w", err)
	}

	var candidateID string
	for _, c := range candidates {
		if strings.EqualFold(c.Email, a.Email) {
			candidateID = c.ID
			break
		}
	}
	if candidateID == "" {
		c, err := s.provider.CreateCandidate(ctx, a)
		if err != nil {
			return fmt.Errorf("failed to create candidate for %s: %w", a.Email, err)
		}
		candidateID = c.ID
	}

	if err := s.provider.CreateInvitation(ctx, candidateID, PackageCriminal); err != nil {
		return fmt.Errorf("failed to invite %s to a background check: %w", a.Email, err)
	}

	a.CriminalBackgroundCheckStatus = StatusRequested
	if err := s.store.UpsertApplicant(ctx, a); err != nil {
		return fmt.Errorf("failed to save background check status for %s: %w", a.Email, err)
	}
	s.logger.Info("sent background check invitation", "email", a.Email)
	s.notify(ctx, a)
	return nil
}

// Refresh pulls every report of the onboarding applicants' candidates.
// Candidates are matched by email, then by full name.
func (s *Service) Refresh(ctx context.Context) error {
	applicants, err := s.store.ListApplicantsByStatus(ctx, status.Onboarding)
	if err != nil {
		return fmt.Errorf("failed to list onboarding applicants: %w", err)
	}
	if len(applicants) == 0 {
		return nil
	}

	candidates, err := s.provider.ListCandidates(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list candidates: %w", err)
	}

	for _, c := range candidates {
		a := match(applicants, c)
		if a == nil {
			s.logger.Debug("no onboarding applicant for candidate", "candidate_id", c.ID, "email", c.Email)
			continue
		}
		for _, id := range c.ReportIDs {
			report, err := s.provider.GetReport(ctx, id)
			if err != nil {
				s.logger.Error("failed to get background check report", "email", a.Email, "report_id", id, "error", err)
				continue
			}
			if err := s.apply(ctx, a, report); err != nil {
				s.logger.Error("failed to apply background check report", "email", a.Email, "report_id", id, "error", err)
			}
		}
	}
	return nil
}

// ApplyReport records a report delivered by the provider's webhook.
func (s *Service) ApplyReport(ctx context.Context, report *Report) error {
	c, err := s.provider.GetCandidate(ctx, report.CandidateID)
	if err != nil {
		return fmt.Errorf("failed to get candidate %s: %w", report.CandidateID, err)
	}
	applicants, err := s.store.ListApplicantsByStatus(ctx, status.Onboarding)
	if err != nil {
		return fmt.Errorf("failed to list onboarding applicants: %w", err)
	}
	a := match(applicants, *c)
	if a == nil {
		s.logger.Info("no onboarding applicant for report", "report_id", report.ID, "email", c.Email)
		return nil
	}
	return s.apply(ctx, a, report)
}

func (s *Service) apply(ctx context.Context, a *types.Applicant, r *Report) error {
	changed := false
	if strings.Contains(r.Package, PackageCriminal) {
		changed = a.CriminalBackgroundCheckStatus != r.Status
		a.CriminalBackgroundCheckStatus = r.Status
	}
	if strings.Contains(r.Package, PackageMotorVehicle) {
		a.MotorVehicleBackgroundCheckStatus = r.Status
	}

	if err := s.store.UpsertApplicant(ctx, a); err != nil {
		return fmt.Errorf("failed to save background check status for %s: %w", a.Email, err)
	}
	if changed {
		s.notify(ctx, a)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, a *types.Applicant) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BackgroundCheckStatusChanged(ctx, a); err != nil {
		s.logger.Warn("failed to send notification", "email", a.Email, "error", err)
	}
}

// match finds the applicant a candidate belongs to. Two hires with the same
// name in one batch would be ambiguous; email is tried first.
func match(applicants []*types.Applicant, c Candidate) *types.Applicant {
	for _, a := range applicants {
		if strings.EqualFold(a.Email, c.Email) {
			return a
		}
	}
	name := c.Name()
	if name == "" {
		return nil
	}
	for _, a := range applicants {
		if strings.EqualFold(strings.TrimSpace(a.Name), name) {
			return a
		}
	}
	return nil
}
