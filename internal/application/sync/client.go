package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bizmob/backend/internal/domain/backup"
)

// Client talks to a remote peer exposing the snapshot exchange
// contract: GET {endpoint}/fetch returns the peer's snapshot, POST
// {endpoint}/sync replaces it. Requests are not retried.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	log      *zap.Logger
}

// NewClient creates a peer client. An empty token disables the
// Authorization header.
func NewClient(endpoint, token string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Fetch downloads the peer's current snapshot.
func (c *Client) Fetch(ctx context.Context) (*backup.Data, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/fetch", nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch snapshot: remote returned %s", resp.Status)
	}

	data := backup.Empty()
	if err := json.NewDecoder(resp.Body).Decode(data); err != nil {
		return nil, fmt.Errorf("decode remote snapshot: %w", err)
	}
	return data, nil
}

// Push uploads a snapshot to the peer.
func (c *Client) Push(ctx context.Context, data *backup.Data) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/sync", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("push snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push snapshot: remote returned %s", resp.Status)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
