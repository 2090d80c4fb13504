// Package tankapi fetches fleet snapshots from the tank gateway's HTTP feed.
package tankapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/tankwatch/internal/domain"
)

// maxBodyBytes bounds a snapshot response.
const maxBodyBytes = 8 << 20

// Client implements engine.Source over GET <url>.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a snapshot client. timeout is the transport-level cap;
// the poller's per-cycle context usually fires first.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch retrieves and decodes one snapshot. Network failures and non-2xx
// responses wrap domain.ErrFetch; a body that is not a JSON object wraps
// domain.ErrParse.
func (c *Client) Fetch(ctx context.Context) (domain.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: create request: %w", domain.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: request snapshot: %w", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Snapshot{}, fmt.Errorf("%w: unexpected status %s", domain.ErrFetch, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: read body: %w", domain.ErrFetch, err)
	}

	snap, err := domain.DecodeSnapshot(body)
	if err != nil {
		return domain.Snapshot{}, err
	}
	c.logger.Debug("snapshot fetched", "devices", len(snap.Readings), "rain", snap.Weather.Rain, "bytes", len(body))
	return snap, nil
}
