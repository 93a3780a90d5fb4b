// Package sheet talks to the spreadsheet webapp that backs the board. The
// remote is an opaque store reached by action-tagged POSTs to a single URL;
// "get" returns the full task list, the mutating actions return
// implementation-defined bodies that callers only check for failure.
package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"sheetboard/board"
)

// Remote store actions.
const (
	ActionGet    = "get"
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

const defaultTimeout = 15 * time.Second

// Client issues action requests against the configured webapp URL.
type Client struct {
	url  string
	http *http.Client
	log  *zap.Logger
}

// NewClient builds a client for the given endpoint URL.
func NewClient(url string, log *zap.Logger) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: defaultTimeout},
		log:  log,
	}
}

type request struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

// Do posts one action to the remote store and returns the raw response
// body. Any transport error or non-2xx status fails the call; the caller
// must not assume the remote write happened.
func (c *Client) Do(ctx context.Context, action string, payload any) ([]byte, error) {
	body, err := json.Marshal(request{Action: action, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("sheet %s: read response: %w", action, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("sheet %s: status %d: %s", action, resp.StatusCode, snippet(data))
	}
	return data, nil
}

// Get fetches the full task list.
func (c *Client) Get(ctx context.Context) ([]board.Task, error) {
	data, err := c.Do(ctx, ActionGet, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Tasks []board.Task `json:"tasks"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("sheet get: decode response: %w", err)
	}
	return out.Tasks, nil
}

// Add writes a new card to the remote store.
func (c *Client) Add(ctx context.Context, card board.Task) error {
	_, err := c.Do(ctx, ActionAdd, card)
	return err
}

// Update writes a full card.
func (c *Client) Update(ctx context.Context, card board.Task) error {
	_, err := c.Do(ctx, ActionUpdate, card)
	return err
}

// UpdateStatus writes the minimal status change produced by a cross-column
// move.
func (c *Client) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := c.Do(ctx, ActionUpdate, map[string]string{"id": id, "status": status})
	return err
}

// Delete removes a card by id.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.Do(ctx, ActionDelete, map[string]string{"id": id})
	return err
}

func snippet(b []byte) string {
	const max = 200
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
