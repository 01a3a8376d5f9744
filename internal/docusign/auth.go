package docusign

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/fetch"
)

const (
	jwtGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	jwtLifetime  = time.Hour
	// tokens are refreshed this long before they expire
	tokenSkew = time.Minute
)

// tokenSource exchanges a signed assertion for an access token and caches
// it until shortly before it expires.
type tokenSource struct {
	client        *fetch.Client
	audience      string
	integrationID string
	userID        string
	signer        any
	now           func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func newTokenSource(client *fetch.Client, authURL, integrationID, userID string, privateKeyPEM []byte) (*tokenSource, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, &apperr.ConfigurationError{Message: "invalid DocuSign private key", Cause: err}
	}
	u, err := url.Parse(authURL)
	if err != nil {
		return nil, &apperr.ConfigurationError{Message: "invalid DocuSign auth URL", Cause: err}
	}
	return &tokenSource{
		client:        client,
		audience:      u.Host,
		integrationID: integrationID,
		userID:        userID,
		signer:        key,
		now:           time.Now,
	}, nil
}

// Token returns a valid access token.
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Add(tokenSkew).Before(s.expires) {
		return s.token, nil
	}

	assertion, err := s.assertion(now)
	if err != nil {
		return "", err
	}

	var resp tokenResponse
	form := url.Values{"grant_type": {jwtGrantType}, "assertion": {assertion}}
	if err := s.client.Form(ctx, "oauth/token", form, &resp); err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", &apperr.ConfigurationError{Message: "DocuSign returned an empty access token"}
	}

	s.token = resp.AccessToken
	s.expires = now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	return s.token, nil
}

func (s *tokenSource) assertion(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss":   s.integrationID,
		"sub":   s.userID,
		"aud":   s.audience,
		"iat":   now.Unix(),
		"exp":   now.Add(jwtLifetime).Unix(),
		"scope": "signature impersonation",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.signer)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return signed, nil
}

// authorize is the fetch.Authorizer of the API client.
func (s *tokenSource) authorize(ctx context.Context, req *http.Request) error {
	token, err := s.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	return nil
}
