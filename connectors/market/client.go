// Package market fetches day-ahead exchange prices from the RTE wholesale
// market API and exposes them as a price forecast.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kilianp07/dispatchopt/auth"
)

// DefaultURL is the France power exchanges endpoint.
const DefaultURL = "https://digital.iservices.rte-france.com/open_api/wholesale_market/v2/france_power_exchanges"

// Config defines the market API endpoint and its credentials.
type Config struct {
	URL            string    `json:"url"`
	Auth           auth.Conf `json:"auth"`
	TimeoutSeconds int       `json:"timeout_seconds"`
}

// SetDefaults applies the public endpoint and a 30 s timeout.
func (c *Config) SetDefaults() {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
}

// Validate checks the credentials.
func (c Config) Validate() error {
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("forecast.market: %w", err)
	}
	return nil
}

// Client requests exchange prices with a client-credentials token.
type Client struct {
	baseURL string
	http    *http.Client
	auth    *auth.ClientCred
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	cfg.SetDefaults()
	return &Client{
		baseURL: cfg.URL,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		auth:    auth.NewClientCred(cfg.Auth),
	}
}

// Fetch retrieves the exchange prices published for [start, end).
func (c *Client) Fetch(ctx context.Context, start, end time.Time) (*Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid market url: %w", err)
	}
	q := u.Query()
	q.Set("start_date", start.Format(time.RFC3339))
	q.Set("end_date", end.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.auth.SetAuthHeader(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to set auth header: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	var r Response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &r, nil
}
