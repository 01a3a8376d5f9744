// Package checkr is the background check provider, a thin client of the
// Checkr REST API.
package checkr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jonathan/hiring-agent/internal/backgroundcheck"
	"github.com/jonathan/hiring-agent/internal/fetch"
	"github.com/jonathan/hiring-agent/internal/types"
)

// DefaultBaseURL is the production API.
const DefaultBaseURL = "https://api.checkr.com/v1"

// maxPages bounds candidate listing.
const maxPages = 50

// Client implements backgroundcheck.Provider.
type Client struct {
	api *fetch.Client
}

var _ backgroundcheck.Provider = (*Client)(nil)

// New creates a Client authenticated with an API key.
func New(baseURL, apiKey string, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	opts := fetch.DefaultOptions()
	opts.BaseURL = baseURL
	opts.Auth = func(_ context.Context, req *http.Request) error {
		req.SetBasicAuth(apiKey, "")
		return nil
	}
	api, err := fetch.New(opts, logger)
	if err != nil {
		return nil, err
	}
	return &Client{api: api}, nil
}

type candidate struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	ReportIDs []string `json:"report_ids"`
}

func (c candidate) toCandidate() backgroundcheck.Candidate {
	return backgroundcheck.Candidate{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		ReportIDs: c.ReportIDs,
	}
}

type candidateList struct {
	Data     []candidate `json:"data"`
	NextHref string      `json:"next_href"`
}

type report struct {
	ID          string `json:"id"`
	CandidateID string `json:"candidate_id"`
	Package     string `json:"package"`
	Status      string `json:"status"`
}

// ListCandidates returns the candidates with email, or every candidate
// when email is empty.
func (c *Client) ListCandidates(ctx context.Context, email string) ([]backgroundcheck.Candidate, error) {
	var out []backgroundcheck.Candidate
	for page := 1; page <= maxPages; page++ {
		query := url.Values{"page": {fmt.Sprint(page)}, "per_page": {"100"}}
		if email != "" {
			query.Set("email", email)
		}
		var resp candidateList
		if err := c.api.JSON(ctx, http.MethodGet, "candidates", query, nil, &resp); err != nil {
			return nil, fmt.Errorf("failed to list candidates: %w", err)
		}
		for _, cand := range resp.Data {
			out = append(out, cand.toCandidate())
		}
		if resp.NextHref == "" || len(resp.Data) == 0 {
			break
		}
	}
	return out, nil
}

// GetCandidate returns one candidate.
func (c *Client) GetCandidate(ctx context.Context, id string) (*backgroundcheck.Candidate, error) {
	var resp candidate
	if err := c.api.JSON(ctx, http.MethodGet, "candidates/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get candidate %s: %w", id, err)
	}
	cand := resp.toCandidate()
	return &cand, nil
}

// CreateCandidate registers the applicant.
func (c *Client) CreateCandidate(ctx context.Context, a *types.Applicant) (*backgroundcheck.Candidate, error) {
	body := map[string]string{
		"email":      a.Email,
		"first_name": a.FirstName(),
		"last_name":  a.LastName(),
	}
	if a.Phone != "" {
		body["phone"] = a.Phone
	}
	var resp candidate
	if err := c.api.JSON(ctx, http.MethodPost, "candidates", nil, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}
	cand := resp.toCandidate()
	return &cand, nil
}

// CreateInvitation asks the candidate to consent to pkg.
func (c *Client) CreateInvitation(ctx context.Context, candidateID, pkg string) error {
	body := map[string]string{"candidate_id": candidateID, "package": pkg}
	if err := c.api.JSON(ctx, http.MethodPost, "invitations", nil, body, nil); err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// GetReport returns one report.
func (c *Client) GetReport(ctx context.Context, id string) (*backgroundcheck.Report, error) {
	var resp report
	if err := c.api.JSON(ctx, http.MethodGet, "reports/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return &backgroundcheck.Report{
		ID:          resp.ID,
		CandidateID: resp.CandidateID,
		Package:     resp.Package,
		Status:      resp.Status,
	}, nil
}
