// Package history fetches the authoritative snapshot: the bulk message
// history for a session and the out-of-band campaign state. Both are
// fetched together and handed to the session engine for
// reconciliation.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"loreloom/internal/config"
	"loreloom/internal/logging"
	"loreloom/internal/protocol"
)

// Client talks to the campaign backend's REST endpoints.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client from server config.
func NewClient(cfg config.ServerConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchMessages retrieves the full message history for a session.
func (c *Client) FetchMessages(ctx context.Context, sessionID string) ([]protocol.HistoryMessage, error) {
	var out struct {
		Messages []protocol.HistoryMessage `json:"messages"`
	}
	path := fmt.Sprintf("/api/sessions/%s/messages", url.PathEscape(sessionID))
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("fetch session messages: %w", err)
	}
	logging.History("fetched %d messages for session %s", len(out.Messages), sessionID)
	return out.Messages, nil
}

// FetchCampaignState retrieves the backend's current turn and
// processing flag for a campaign.
func (c *Client) FetchCampaignState(ctx context.Context, campaignID string) (protocol.CampaignState, error) {
	var out protocol.CampaignState
	path := fmt.Sprintf("/api/campaigns/%s/state", url.PathEscape(campaignID))
	if err := c.getJSON(ctx, path, &out); err != nil {
		return protocol.CampaignState{}, fmt.Errorf("fetch campaign state: %w", err)
	}
	return out, nil
}

// FetchSnapshot fetches messages and campaign state together. A
// campaign-state failure degrades to an empty state rather than
// failing the snapshot: the reconciler treats a missing current turn
// as "unknown", which is safe.
func (c *Client) FetchSnapshot(ctx context.Context, sessionID, campaignID string) ([]protocol.HistoryMessage, protocol.CampaignState, error) {
	msgs, err := c.FetchMessages(ctx, sessionID)
	if err != nil {
		return nil, protocol.CampaignState{}, err
	}
	state, err := c.FetchCampaignState(ctx, campaignID)
	if err != nil {
		logging.HistoryWarn("campaign state unavailable, reconciling without it: %v", err)
		state = protocol.CampaignState{}
	}
	return msgs, state, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
