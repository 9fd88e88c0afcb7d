// Package client is an HTTP client for the participant CRUD API.
package client

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

	"github.com/google/uuid"

	"github.com/JonMunkholm/checkin/internal/participant"
)

// DefaultTimeout bounds a single API call when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Action  string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("api: %s (%d)", e.Message, e.Status)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client calls the participant API at a base URL.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends key in the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q must use http or https", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List returns every participant, newest first.
func (c *Client) List(ctx context.Context) ([]participant.Participant, error) {
	var out []participant.Participant
	if err := c.do(ctx, http.MethodGet, "/api/participants", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores one participant and returns the stored record.
func (c *Client) Create(ctx context.Context, p participant.Participant) (participant.Participant, error) {
	var out participant.Participant
	if err := c.do(ctx, http.MethodPost, "/api/participants", nil, p, &out); err != nil {
		return participant.Participant{}, err
	}
	return out, nil
}

// CreateMany stores records in bulk. Records already registered are
// skipped by the server.
func (c *Client) CreateMany(ctx context.Context, records []participant.Participant) (participant.BulkResult, error) {
	if records == nil {
		records = []participant.Participant{}
	}
	var out participant.BulkResult
	if err := c.do(ctx, http.MethodPost, "/api/participants", nil, records, &out); err != nil {
		return participant.BulkResult{}, err
	}
	return out, nil
}

type countResponse struct {
	Count int64 `json:"count"`
}

// Update applies patch to the participants with identity id.
func (c *Client) Update(ctx context.Context, id participant.Identity, patch participant.Patch) (int64, error) {
	var out countResponse
	if err := c.do(ctx, http.MethodPatch, "/api/participants", identityQuery(id), patch, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Delete removes the participants with identity id.
func (c *Client) Delete(ctx context.Context, id participant.Identity) (int64, error) {
	var out countResponse
	if err := c.do(ctx, http.MethodDelete, "/api/participants", identityQuery(id), nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// DeleteAll removes every participant.
func (c *Client) DeleteAll(ctx context.Context) (int64, error) {
	var out countResponse
	if err := c.do(ctx, http.MethodDelete, "/api/participants", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Stats returns server-side totals.
func (c *Client) Stats(ctx context.Context) (participant.Stats, error) {
	var out participant.Stats
	err := c.do(ctx, http.MethodGet, "/api/stats", nil, nil, &out)
	return out, err
}

func identityQuery(id participant.Identity) url.Values {
	return url.Values{
		"registrantId":     {id.RegistrantID},
		"registrationType": {id.RegistrationType},
		"firstName":        {id.FirstName},
	}
}

// do sends a JSON request and decodes a JSON answer into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	slog.Debug("api call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", reqID,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError reads the server's coded error body, falling back to the
// status text.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Action  string `json:"action"`
		Code    string `json:"code"`
	}
	if json.Unmarshal(data, &body) == nil {
		switch {
		case body.Message != "":
			apiErr.Message = body.Message
		case body.Error != "":
			apiErr.Message = body.Error
		}
		apiErr.Code = body.Code
		apiErr.Action = body.Action
	} else if text := strings.TrimSpace(string(data)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}
