// Package optimizer calls the external lineup optimizer over HTTP.
package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/slate/internal/core"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	maxResponseBytes   = 4 << 20
	maxErrorBodyBytes  = 512
)

// Config controls how the client reaches the optimizer.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client implements core.Optimizer against POST {BaseURL}/generate.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpDoer
}

var _ core.Optimizer = (*Client)(nil)

// NewClient constructs a client. BaseURL must be set; callers check for
// that before wiring the client.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: resolveHTTPClient(cfg.HTTPClient),
	}
}

type generateRequest struct {
	SettingsID string `json:"settings_id"`
}

type generateResponse struct {
	Lineups []lineupSummary `json:"lineups"`
}

type lineupSummary struct {
	LineupID        string  `json:"lineup_id"`
	TotalSalary     int     `json:"total_salary"`
	ProjectedPoints float64 `json:"projected_points"`
	TotalOwnership  float64 `json:"total_ownership"`
}

// Generate asks the optimizer to build lineups for a persisted settings
// snapshot. The optimizer stores the lineups itself and returns summaries.
func (c *Client) Generate(ctx context.Context, settingsID string) ([]core.GeneratedLineup, error) {
	body, err := json.Marshal(generateRequest{SettingsID: settingsID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("optimizer: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var payload generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("optimizer: decode response: %w", err)
	}

	out := make([]core.GeneratedLineup, 0, len(payload.Lineups))
	for _, l := range payload.Lineups {
		out = append(out, core.GeneratedLineup{
			LineupID:        l.LineupID,
			TotalSalary:     l.TotalSalary,
			ProjectedPoints: l.ProjectedPoints,
			TotalOwnership:  l.TotalOwnership,
		})
	}
	return out, nil
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func resolveHTTPClient(client *http.Client) httpDoer {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}
