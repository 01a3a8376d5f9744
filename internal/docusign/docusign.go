// Package docusign is the e-signature provider behind the envelope
// orchestrator, talking to the DocuSign eSignature REST API v2.1.
package docusign

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jonathan/hiring-agent/internal/envelope"
	"github.com/jonathan/hiring-agent/internal/fetch"
)

// Config holds the account and the JWT grant credentials.
type Config struct {
	BaseURL       string // e.g. https://demo.docusign.net/restapi
	AuthURL       string // e.g. https://account-d.docusign.com
	AccountID     string
	IntegrationID string
	UserID        string
	PrivateKeyPEM []byte

	// RequestsPerSecond throttles calls to the API.
	RequestsPerSecond float64
}

// Client implements envelope.Provider.
type Client struct {
	api       *fetch.Client
	accountID string
}

var _ envelope.Provider = (*Client)(nil)

// New creates a Client. Credentials are checked lazily on the first call.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	authOpts := fetch.DefaultOptions()
	authOpts.BaseURL = cfg.AuthURL
	auth, err := fetch.New(authOpts, logger)
	if err != nil {
		return nil, err
	}
	tokens, err := newTokenSource(auth, cfg.AuthURL, cfg.IntegrationID, cfg.UserID, cfg.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}
	return newClient(cfg, tokens.authorize, logger)
}

func newClient(cfg Config, authorize fetch.Authorizer, logger *slog.Logger) (*Client, error) {
	opts := fetch.DefaultOptions()
	opts.BaseURL = cfg.BaseURL
	opts.Auth = authorize
	if cfg.RequestsPerSecond > 0 {
		opts.RequestsPerSecond = cfg.RequestsPerSecond
	}
	api, err := fetch.New(opts, logger)
	if err != nil {
		return nil, err
	}
	return &Client{api: api, accountID: cfg.AccountID}, nil
}

type templateRole struct {
	RoleName          string             `json:"roleName"`
	Name              string             `json:"name"`
	Email             string             `json:"email"`
	RoutingOrder      string             `json:"routingOrder,omitempty"`
	EmailNotification *emailNotification `json:"emailNotification,omitempty"`
}

type emailNotification struct {
	EmailSubject string `json:"emailSubject,omitempty"`
	EmailBody    string `json:"emailBody,omitempty"`
}

type envelopeDefinition struct {
	TemplateID    string         `json:"templateId"`
	EmailSubject  string         `json:"emailSubject"`
	Status        string         `json:"status"`
	TemplateRoles []templateRole `json:"templateRoles"`
}

type envelopeDocument struct {
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	PDFBytes   []byte `json:"PDFBytes,omitempty"`
}

type envelopeResponse struct {
	EnvelopeID        string             `json:"envelopeId"`
	Status            string             `json:"status"`
	CreatedDateTime   string             `json:"createdDateTime"`
	CompletedDateTime string             `json:"completedDateTime"`
	StatusDateTime    string             `json:"statusDateTime"`
	EnvelopeDocuments []envelopeDocument `json:"envelopeDocuments"`
}

type formDataResponse struct {
	FormData []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"formData"`
}

type templatesResponse struct {
	EnvelopeTemplates []struct {
		TemplateID string `json:"templateId"`
		Name       string `json:"name"`
	} `json:"envelopeTemplates"`
}

func (c *Client) path(elem ...string) string {
	p := "v2.1/accounts/" + url.PathEscape(c.accountID)
	for _, e := range elem {
		p += "/" + url.PathEscape(e)
	}
	return p
}

// CreateEnvelope sends an envelope built from a server-side template.
func (c *Client) CreateEnvelope(ctx context.Context, req envelope.Request) (*envelope.Envelope, error) {
	def := envelopeDefinition{
		TemplateID:   req.TemplateID,
		EmailSubject: req.EmailSubject,
		Status:       req.Status,
	}
	for _, r := range req.Recipients {
		role := templateRole{
			RoleName: r.RoleName,
			Name:     r.Name,
			Email:    r.Email,
		}
		if r.RoutingOrder > 0 {
			role.RoutingOrder = fmt.Sprint(r.RoutingOrder)
		}
		if r.EmailSubject != "" || r.EmailBody != "" {
			role.EmailNotification = &emailNotification{EmailSubject: r.EmailSubject, EmailBody: r.EmailBody}
		}
		def.TemplateRoles = append(def.TemplateRoles, role)
	}

	var resp envelopeResponse
	if err := c.api.JSON(ctx, http.MethodPost, c.path("envelopes"), nil, def, &resp); err != nil {
		return nil, fmt.Errorf("failed to create envelope: %w", err)
	}
	env := resp.envelope()
	if env.CreatedAt == nil {
		// The create response only carries the status time.
		env.CreatedAt = parseTime(resp.StatusDateTime)
	}
	return env, nil
}

// GetEnvelope returns the envelope with its document list.
func (c *Client) GetEnvelope(ctx context.Context, id string) (*envelope.Envelope, error) {
	var resp envelopeResponse
	query := url.Values{"include": {"documents"}}
	if err := c.api.JSON(ctx, http.MethodGet, c.path("envelopes", id), query, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get envelope %s: %w", id, err)
	}
	return resp.envelope(), nil
}

// GetDocument downloads one signed document as PDF.
func (c *Client) GetDocument(ctx context.Context, envelopeID, documentID string) ([]byte, error) {
	data, err := c.api.Download(ctx, c.path("envelopes", envelopeID, "documents", documentID), "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to download document %s of envelope %s: %w", documentID, envelopeID, err)
	}
	return data, nil
}

// GetFormData returns the values the signers typed into the envelope.
func (c *Client) GetFormData(ctx context.Context, envelopeID string) ([]envelope.FormField, error) {
	var resp formDataResponse
	if err := c.api.JSON(ctx, http.MethodGet, c.path("envelopes", envelopeID, "form_data"), nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get form data of envelope %s: %w", envelopeID, err)
	}
	fields := make([]envelope.FormField, 0, len(resp.FormData))
	for _, f := range resp.FormData {
		fields = append(fields, envelope.FormField{Name: f.Name, Value: f.Value})
	}
	return fields, nil
}

// ListTemplates returns the account's templates.
func (c *Client) ListTemplates(ctx context.Context) ([]envelope.Template, error) {
	var resp templatesResponse
	if err := c.api.JSON(ctx, http.MethodGet, c.path("templates"), nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	templates := make([]envelope.Template, 0, len(resp.EnvelopeTemplates))
	for _, t := range resp.EnvelopeTemplates {
		templates = append(templates, envelope.Template{ID: t.TemplateID, Name: t.Name})
	}
	return templates, nil
}

func (r envelopeResponse) envelope() *envelope.Envelope {
	env := &envelope.Envelope{
		ID:          r.EnvelopeID,
		Status:      r.Status,
		CreatedAt:   parseTime(r.CreatedDateTime),
		CompletedAt: parseTime(r.CompletedDateTime),
	}
	for _, d := range r.EnvelopeDocuments {
		env.Documents = append(env.Documents, envelope.Document{ID: d.DocumentID, Name: d.Name, PDF: d.PDFBytes})
	}
	return env
}

// parseTime reads DocuSign timestamps, which carry up to seven fractional
// digits.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
