// Package onboarding keeps one issue per new hire in the IT configuration
// repository, open while they are onboarding and closed otherwise.
package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

// Issue states.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

const checkedBox = "[x]"

// Issue is a tracker issue.
type Issue struct {
	Number int
	Title  string
	Body   string
	State  string
}

// IssueRequest creates or edits an issue. Empty fields are left unchanged
// on edit.
type IssueRequest struct {
	Title    string
	Body     string
	State    string
	Labels   []string
	Assignee string
}

// Tracker is an issue tracker scoped to one repository.
type Tracker interface {
	ListIssues(ctx context.Context, label string) ([]Issue, error)
	FindIssue(ctx context.Context, label, title string) (*Issue, error)
	CreateIssue(ctx context.Context, req IssueRequest) (*Issue, error)
	UpdateIssue(ctx context.Context, number int, req IssueRequest) error
	AddComment(ctx context.Context, number int, body string) error
}

// Store lists applicants and checks which usernames are taken.
type Store interface {
	ListApplicants(ctx context.Context, filter types.ApplicantFilter) ([]*types.Applicant, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

// Config describes the issues to file.
type Config struct {
	Label    string
	Assignee string
	Groups   []string
}

// Service files onboarding issues.
type Service struct {
	tracker Tracker
	store   Store
	cfg     Config
	logger  *slog.Logger
}

// New creates a Service.
func New(tracker Tracker, store Store, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Label == "" {
		cfg.Label = "hiring"
	}
	return &Service{tracker: tracker, store: store, cfg: cfg, logger: logger}
}

// Title is the issue title for a.
func Title(a *types.Applicant) string {
	return fmt.Sprintf("Onboarding: %s", a.Name)
}

// Sync brings the issue of one applicant in line with their status.
func (s *Service) Sync(ctx context.Context, a *types.Applicant) error {
	issue, err := s.tracker.FindIssue(ctx, s.cfg.Label, Title(a))
	if err != nil {
		return fmt.Errorf("failed to find onboarding issue for %s: %w", a.Email, err)
	}
	return s.sync(ctx, a, issue)
}

// SyncAll runs Sync over every applicant with an onboarding issue or an
// onboarding status, listing the issues once.
func (s *Service) SyncAll(ctx context.Context) error {
	issues, err := s.tracker.ListIssues(ctx, s.cfg.Label)
	if err != nil {
		return fmt.Errorf("failed to list onboarding issues: %w", err)
	}
	byTitle := make(map[string]*Issue, len(issues))
	for i := range issues {
		byTitle[issues[i].Title] = &issues[i]
	}

	applicants, err := s.store.ListApplicants(ctx, types.ApplicantFilter{})
	if err != nil {
		return fmt.Errorf("failed to list applicants: %w", err)
	}
	for _, a := range applicants {
		issue := byTitle[Title(a)]
		if issue == nil && a.Status != status.Onboarding {
			continue
		}
		if err := s.sync(ctx, a, issue); err != nil {
			s.logger.Error("failed to sync onboarding issue", "email", a.Email, "error", err)
		}
	}
	return nil
}

func (s *Service) sync(ctx context.Context, a *types.Applicant, issue *Issue) error {
	if a.Status != status.Onboarding {
		if issue == nil || issue.State != StateOpen {
			return nil
		}
		comment := fmt.Sprintf("Closing issue automatically since the applicant is now status: `%s`\nNotes:\n> %s",
			a.Status, a.RawStatus)
		if err := s.tracker.AddComment(ctx, issue.Number, comment); err != nil {
			return fmt.Errorf("failed to comment on issue #%d: %w", issue.Number, err)
		}
		if err := s.tracker.UpdateIssue(ctx, issue.Number, IssueRequest{
			State:    StateClosed,
			Labels:   []string{s.cfg.Label},
			Assignee: s.cfg.Assignee,
		}); err != nil {
			return fmt.Errorf("failed to close issue #%d: %w", issue.Number, err)
		}
		s.logger.Info("closed onboarding issue", "email", a.Email, "issue", issue.Number, "status", a.Status.String())
		return nil
	}

	if a.StartDate == nil {
		return nil
	}

	body, err := s.body(ctx, a)
	if err != nil {
		return err
	}
	req := IssueRequest{
		Title:    Title(a),
		Body:     body,
		State:    StateOpen,
		Labels:   []string{s.cfg.Label},
		Assignee: s.cfg.Assignee,
	}

	if issue != nil {
		// Ticked boxes mean someone is working the checklist.
		if issue.State == StateOpen && strings.Contains(issue.Body, checkedBox) {
			return nil
		}
		if err := s.tracker.UpdateIssue(ctx, issue.Number, req); err != nil {
			return fmt.Errorf("failed to update issue #%d: %w", issue.Number, err)
		}
		return nil
	}

	created, err := s.tracker.CreateIssue(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create onboarding issue for %s: %w", a.Email, err)
	}
	s.logger.Info("created onboarding issue", "email", a.Email, "issue", created.Number)
	return nil
}

// Username proposes the new hire's account name: the first name, or
// first.last when the first name is taken.
func (s *Service) Username(ctx context.Context, a *types.Applicant) (string, error) {
	first := strings.ToLower(a.FirstName())
	taken, err := s.store.UsernameTaken(ctx, first)
	if err != nil {
		return "", fmt.Errorf("failed to check username %s: %w", first, err)
	}
	if !taken {
		return first, nil
	}
	last := strings.ReplaceAll(a.LastName(), " ", "-")
	return strings.ToLower(strings.ReplaceAll(a.FirstName(), " ", "-") + "." + last), nil
}

func (s *Service) body(ctx context.Context, a *types.Applicant) (string, error) {
	username, err := s.Username(ctx, a)
	if err != nil {
		return "", err
	}
	github := strings.TrimPrefix(a.GitHub, "@")
	phone := strings.NewReplacer("-", "", " ", "").Replace(a.Phone)

	var b strings.Builder
	b.WriteString("- [ ] Add to users.toml\n- [ ] Add to chat\n\n")
	fmt.Fprintf(&b, "Start Date: %s\n", a.StartDate.Format("Monday, January 2, 2006"))
	fmt.Fprintf(&b, "Personal Email: %s\n", a.Email)
	fmt.Fprintf(&b, "GitHub: %s\n", a.GitHub)
	fmt.Fprintf(&b, "Phone: %s\n", a.Phone)
	fmt.Fprintf(&b, "Location: %s\n", a.Location)
	if s.cfg.Assignee != "" {
		fmt.Fprintf(&b, "cc @%s\n", s.cfg.Assignee)
	}

	b.WriteString("\n```\n")
	fmt.Fprintf(&b, "[users.%s]\n", strings.ReplaceAll(username, ".", "-"))
	fmt.Fprintf(&b, "first_name = '%s'\n", a.FirstName())
	fmt.Fprintf(&b, "last_name = '%s'\n", a.LastName())
	fmt.Fprintf(&b, "username = '%s'\n", username)
	b.WriteString("aliases = []\n")
	b.WriteString("groups = [\n")
	for _, g := range s.cfg.Groups {
		fmt.Fprintf(&b, "    '%s',\n", g)
	}
	b.WriteString("]\n")
	fmt.Fprintf(&b, "recovery_email = '%s'\n", a.Email)
	fmt.Fprintf(&b, "recovery_phone = '%s'\n", phone)
	fmt.Fprintf(&b, "github = '%s'\n", github)
	b.WriteString("```\n")
	return b.String(), nil
}
