// Package transport provides a single Go client for talking to ONE node
// of the replicated log — either the Master or a Secondary. It is reused
// by the CLI, by each per-Secondary dispatcher (talking to its
// Secondary), and by a Secondary's initial sync (talking to the Master).
//
// This mirrors the teacher's internal/client package: the client talks to
// a single node and does not implement any distributed logic itself —
// it just does HTTP + JSON.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"replicated-log/internal/entry"
)

// Client talks to one node's HTTP surface.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client. In distributed systems, never call the network
// without a timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// AppendResponse is the body of a successful POST /messages.
type AppendResponse struct {
	Status string `json:"status"`
	ID     string `json:"message_id"`
	Order  int64  `json:"order"`
}

// Append sends {message, w} to the Master's POST /messages.
func (c *Client) Append(ctx context.Context, message string, w int) (*AppendResponse, error) {
	body, _ := json.Marshal(map[string]any{"message": message, "w": w})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST /messages: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var result AppendResponse
	return &result, json.NewDecoder(resp.Body).Decode(&result)
}

// List fetches GET /messages (payloads only) from whichever node baseURL
// points at — works against both Master and Secondary.
func (c *Client) List(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/messages", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET /messages: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var result struct {
		Messages []string `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Messages, nil
}

// FullMessages fetches GET /full_messages from the Master — used by a
// Secondary's initial sync.
func (c *Client) FullMessages(ctx context.Context) ([]entry.LogEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/full_messages", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET /full_messages: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var result struct {
		Messages []entry.LogEntry `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Messages, nil
}

// Replicate sends a single LogEntry to a Secondary's POST /replicate.
func (c *Client) Replicate(ctx context.Context, e entry.LogEntry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/replicate", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST /replicate: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

// TriggerSync sends the optional sync signal to the Master's
// POST /internal/sync, asking it to drain the pending queue for address
// immediately (spec.md §4.4).
func (c *Client) TriggerSync(ctx context.Context, address string) error {
	body, _ := json.Marshal(map[string]string{"address": address})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/internal/sync", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST /internal/sync: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

// Clear calls the test-only POST /clear on whichever node baseURL points at.
func (c *Client) Clear(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/clear", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST /clear: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// ─── Errors ───────────────────────────────────────────────────────────────

// APIError carries the HTTP status and the error message from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// checkStatus converts HTTP error responses into Go errors.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	var apiErr struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.Error
	if msg == "" {
		msg = string(body)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
