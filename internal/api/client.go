package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TokenSource supplies the current bearer token. An empty string means
// the request is sent unauthenticated (only the login call does this).
type TokenSource func() string

// Client is a thin HTTP client for the TrueLog REST API. It handles
// Bearer token authentication, the {success,data,message} envelope, and
// automatic retry with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	token      TokenSource
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a new TrueLog API client. The baseURL should be the
// root URL of the backend (e.g., https://truelog.corp.example.com).
func NewClient(baseURL string, timeout time.Duration, token TokenSource) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 3,
	}
}

// envelope is the backend's single-resource response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// listEnvelope is the backend's paginated-list response shape.
type listEnvelope struct {
	Data json.RawMessage `json:"data"`
	Meta listMeta        `json:"meta"`
}

// listMeta carries pagination plus list-specific counters.
type listMeta struct {
	Pagination  paginationMeta `json:"pagination"`
	UnreadCount *int           `json:"unread_count"`
}

type paginationMeta struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
	PerPage     int `json:"per_page"`
}

// get performs an HTTP GET and unmarshals the envelope's data field.
func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// post performs an HTTP POST with a JSON body.
func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// put performs an HTTP PUT with a JSON body.
func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// patch performs an HTTP PATCH with a JSON body.
func (c *Client) patch(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

// del performs an HTTP DELETE.
func (c *Client) del(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodDelete, path, body, result)
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, and envelope decoding. When
// result is non-nil the envelope's data field is unmarshaled into it.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body any,
	result any,
) error {
	raw, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if result == nil || len(raw) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	if env.Data == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("unmarshaling data from %s %s: %w", method, path, err)
	}
	return nil
}

// doList performs a request against a paginated list endpoint and returns
// the raw data array plus the list metadata.
func (c *Client) doList(
	ctx context.Context,
	path string,
	items any,
) (*listMeta, error) {
	raw, err := c.doRaw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var env listEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshaling list response from %s: %w", path, err)
	}
	if env.Data != nil {
		if err := json.Unmarshal(env.Data, items); err != nil {
			return nil, fmt.Errorf("unmarshaling list items from %s: %w", path, err)
		}
	}
	return &env.Meta, nil
}

// doRaw executes the request with retries and returns the response body.
func (c *Client) doRaw(
	ctx context.Context,
	method string,
	path string,
	body any,
) ([]byte, error) {
	reqURL := c.baseURL + path

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return nil, &AuthError{Message: serverMessage(respBody, "session expired")}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    serverMessage(respBody, ""),
			}
		}

		if resp.StatusCode == http.StatusNoContent {
			return nil, nil
		}

		return respBody, nil
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// serverMessage pulls the message field out of an error response body.
func serverMessage(body []byte, fallback string) string {
	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Message != "" {
		return env.Message
	}
	return fallback
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

// queryString renders non-empty values into a URL query suffix.
func queryString(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
