// Package activityclient provides a client for the activities HTTP API.
//
// The API exposes three endpoints:
//
//	GET    /activities
//	POST   /activities/{name}/signup?email={email}
//	DELETE /activities/{name}/participants?email={email}
//
// Example usage:
//
//	client, err := activityclient.New("http://localhost:8000")
//	if err != nil {
//	    return err
//	}
//	dir, err := client.Activities(ctx)
package activityclient

import (
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

	"github.com/google/uuid"

	"github.com/nomis52/activityboard/directory"
	"github.com/nomis52/activityboard/logging"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

var (
	// ErrTransport is returned when the request could not be completed at all.
	ErrTransport = errors.New("activities API unreachable")
	// ErrMalformedResponse is returned when the response body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed response from activities API")
)

// APIError is returned when the API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	// Detail is the server-provided message, taken from "detail" or "message".
	// Empty if the server provided neither.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("activities API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("activities API returned status %d: %s", e.StatusCode, e.Detail)
}

// Client talks to an activities API.
type Client struct {
	BaseURL string
	Logger  *slog.Logger
	client  *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.Logger = logger
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout sets a per-request timeout. Zero leaves requests bounded only by
// the caller's context. It applies to a copy of any client passed with
// WithHTTPClient, whatever the option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New creates a Client for the API at baseURL, which must include a scheme.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL must include scheme and host, got %q", baseURL)
	}

	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Logger:  slog.Default(),
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.client
		hc.Timeout = c.timeout
		c.client = &hc
	}
	return c, nil
}

// Activities fetches the full activity directory.
func (c *Client) Activities(ctx context.Context) (directory.Directory, error) {
	body, err := c.do(ctx, http.MethodGet, "/activities", nil)
	if err != nil {
		return directory.Directory{}, err
	}
	dir, err := directory.Decode(body)
	if err != nil {
		return directory.Directory{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return dir, nil
}

// Signup registers email for the named activity and returns the server's message.
func (c *Client) Signup(ctx context.Context, activity, email string) (string, error) {
	return c.mutate(ctx, http.MethodPost, activityPath(activity, "signup"), email)
}

// Unregister removes email from the named activity and returns the server's message.
func (c *Client) Unregister(ctx context.Context, activity, email string) (string, error) {
	return c.mutate(ctx, http.MethodDelete, activityPath(activity, "participants"), email)
}

func activityPath(activity, action string) string {
	return "/activities/" + url.PathEscape(activity) + "/" + action
}

type messageBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (c *Client) mutate(ctx context.Context, method, path, email string) (string, error) {
	body, err := c.do(ctx, method, path, url.Values{"email": {email}})
	if err != nil {
		return "", err
	}
	var msg messageBody
	if err := json.Unmarshal(body, &msg); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return msg.Message, nil
}

// do performs a request and returns the body of a 2xx response.
// Non-2xx responses are converted to *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Reuse the caller's request id so board and API logs correlate.
	logger := c.Logger.With("method", method, "path", path)
	requestID := logging.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		logger = logger.With(logging.RequestIDKey, requestID)
	}
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		logger.WarnContext(ctx, "activities API request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WarnContext(ctx, "failed to read activities API response", "error", err)
		return nil, fmt.Errorf("%w: reading response body: %v", ErrTransport, err)
	}

	logger.DebugContext(ctx, "activities API request completed",
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode/100 != 2 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var msg messageBody
	if err := json.Unmarshal(body, &msg); err == nil {
		apiErr.Detail = msg.Detail
		if apiErr.Detail == "" {
			apiErr.Detail = msg.Message
		}
	}
	return apiErr
}
