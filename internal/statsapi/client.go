// Package statsapi is the HTTP client for the VSL platform backend endpoints
// the admin dashboard consumes.
package statsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	statsPath = "/api/admin/stats"
	loginPath = "/api/auth/login"

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 1 << 20
)

// ErrMalformedResponse wraps body decoding failures.
var ErrMalformedResponse = errors.New("malformed response body")

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error (%d)", e.StatusCode)
}

// Client talks to one backend.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithTimeout sets the overall request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTPClient.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.Logger = l }
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type requestIDKey struct{}

// ContextWithRequestID makes outgoing requests carry id as X-Request-ID
// instead of a fresh one.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// request performs one round trip. A nil token sends no Authorization header;
// a non-nil token is sent verbatim, even when empty.
func (c *Client) request(ctx context.Context, method, path string, token *string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	url := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	reqID := RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != nil {
		req.Header.Set("Authorization", "Bearer "+*token)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	c.Logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", reqID),
	)

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var env Envelope[json.RawMessage]
		if json.Unmarshal(respBody, &env) == nil {
			apiErr.Message = env.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if result != nil {
		if trimmed := bytes.TrimSpace(respBody); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return fmt.Errorf("%w: empty body", ErrMalformedResponse)
		}
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return nil
}

// FetchStats requests the dashboard statistics with the given bearer token.
// The token is sent as is; an empty token still produces the header.
func (c *Client) FetchStats(ctx context.Context, token string) (*StatsResponse, error) {
	var resp StatsResponse
	if err := c.request(ctx, http.MethodGet, statsPath, &token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges username and password for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	var resp Envelope[AuthResponse]
	err := c.request(ctx, http.MethodPost, loginPath, nil, loginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.Token == "" {
		return nil, fmt.Errorf("server returned empty token")
	}
	return resp.Data, nil
}

// Ping checks that the backend answers HTTP at all. Any status counts.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("cannot connect: %w", err)
	}
	resp.Body.Close()
	return time.Since(start), nil
}
