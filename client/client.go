// Package client submits scheduling requests to the staggered email backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"staggermail/models"
)

// DefaultBaseURL is the backend address used by the development setup.
const DefaultBaseURL = "http://localhost:8000"

const schedulePath = "/schedule-staggered-email-job"

// APIError is a non-2xx response from the backend.
// Detail is empty when the body carried no usable "detail".
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return e.Detail
}

// TransportError covers failures where no usable response was received:
// dial errors, timeouts and bodies that are not JSON.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "transport error"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the request timeout; zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// Client talks to the backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address the client posts to.
func (c *Client) BaseURL() string { return c.baseURL }

// ScheduleStaggered posts req and returns the accepted job. There are no retries.
func (c *Client) ScheduleStaggered(ctx context.Context, req models.ScheduleRequest) (*models.ScheduleResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+schedulePath, bytes.NewReader(data))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}
	// Any JSON value is accepted; only objects carry fields.
	var raw map[string]json.RawMessage
	_ = json.Unmarshal(body, &raw)

	if !ok {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: parseDetail(raw["detail"])}
	}

	out := &models.ScheduleResponse{JobID: parseJobID(raw["job_id"])}
	if msg, found := raw["message"]; found {
		_ = json.Unmarshal(msg, &out.Message)
	}
	return out, nil
}

// parseJobID renders a string or numeric job id as text.
func parseJobID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// parseDetail reads a string detail, or flattens a list of validation
// errors into "loc: msg" lines.
func parseDetail(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []validationItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		if item.Msg == "" {
			continue
		}
		loc := make([]string, 0, len(item.Loc))
		for _, part := range item.Loc {
			loc = append(loc, fmt.Sprint(part))
		}
		if len(loc) == 0 {
			lines = append(lines, item.Msg)
			continue
		}
		lines = append(lines, strings.Join(loc, ".")+": "+item.Msg)
	}
	return strings.Join(lines, "\n")
}
