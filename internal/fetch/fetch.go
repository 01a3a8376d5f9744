// Package fetch is the JSON-over-HTTP client shared by the provider
// adapters. Every call is throttled and retried on 5xx, 429 and network
// errors; any other 4xx fails at once.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/retry"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "HiringAgent/1.0"

// maxErrorBody bounds the response text kept on an Error.
const maxErrorBody = 512

// Error represents a failed provider call.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s %s: %s: %v", e.Method, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s %s: %s", e.Method, e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the call may succeed if repeated.
func (e *Error) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsNotFound reports whether err is a 404 from the provider.
func IsNotFound(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound
}

// Authorizer decorates a request with credentials.
type Authorizer func(ctx context.Context, req *http.Request) error

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string

	// RequestsPerSecond throttles outbound calls; zero disables it.
	RequestsPerSecond float64
	Burst             int

	Retry      retry.Policy
	Auth       Authorizer
	HTTPClient *http.Client
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		RequestsPerSecond: 5,
		Burst:             5,
		Retry:             retry.DefaultPolicy(),
	}
}

// Client calls one provider's REST API.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	opts    Options
	logger  *slog.Logger
}

// New creates a Client for opts.BaseURL.
func New(opts *Options, logger *slog.Logger) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &apperr.ConfigurationError{Message: fmt.Sprintf("invalid base URL %q", opts.BaseURL), Cause: err}
	}

	o := *opts
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	hc := o.HTTPClient
	if hc == nil {
		timeout := o.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if o.RequestsPerSecond > 0 {
		burst := o.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(o.RequestsPerSecond), burst)
	}

	return &Client{base: base, http: hc, limiter: limiter, opts: o, logger: logger}, nil
}

// JSON sends body as JSON and decodes the response into out. Either may be
// nil.
func (c *Client) JSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	data, err := c.Raw(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Method: method, URL: c.resolve(path, query), Message: "failed to decode response", Cause: err}
	}
	return nil
}

// Raw sends body as JSON and returns the response body as is.
func (c *Client) Raw(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}
	return c.send(ctx, method, c.resolve(path, query), payload, "application/json", "application/json")
}

// Form posts form-encoded values and decodes the JSON response into out.
func (c *Client) Form(ctx context.Context, path string, form url.Values, out any) error {
	target := c.resolve(path, nil)
	data, err := c.send(ctx, http.MethodPost, target, []byte(form.Encode()), "application/x-www-form-urlencoded", "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Method: http.MethodPost, URL: target, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// Download fetches a binary resource such as a signed PDF.
func (c *Client) Download(ctx context.Context, path, accept string) ([]byte, error) {
	return c.send(ctx, http.MethodGet, c.resolve(path, nil), nil, "", accept)
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte, contentType, accept string) ([]byte, error) {
	var out []byte
	err := retry.Do(ctx, c.opts.Retry, func(ctx context.Context) error {
		data, err := c.do(ctx, method, target, payload, contentType, accept)
		if err != nil {
			var fe *Error
			if errors.As(err, &fe) && !fe.Retryable() {
				return retry.Permanent(err)
			}
			return err
		}
		out = data
		return nil
	}, func(err error, wait time.Duration) {
		c.logger.Warn("retrying provider call", "method", method, "url", target, "wait", wait, "error", err)
	})
	if err != nil {
		var fe *Error
		if errors.As(err, &fe) && fe.Retryable() {
			return nil, &apperr.TransientIOError{Op: method + " " + target, Cause: err}
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte, contentType, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, retry.Permanent(err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, retry.Permanent(&Error{Method: method, URL: target, Message: "failed to create request", Cause: err})
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if payload != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range c.opts.Headers {
		req.Header.Set(key, value)
	}
	if c.opts.Auth != nil {
		if err := c.opts.Auth(ctx, req); err != nil {
			return nil, retry.Permanent(fmt.Errorf("failed to authorize request: %w", err))
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Method: method, URL: target, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Method: method, URL: target, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP status %d: %s", resp.StatusCode, truncate(string(data))),
		}
	}
	return data, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimSuffix(c.base.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
