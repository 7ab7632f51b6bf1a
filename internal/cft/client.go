package cft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"dairypipe/internal/logging"
)

// Env vars holding the API endpoint and credentials. Loaded from the
// process environment, optionally seeded from .env via godotenv.
const (
	EnvURL    = "CFT_API_URL"
	EnvAppKey = "CFT_APP_KEY"
	EnvAPIKey = "CFT_API_KEY"
)

const requestTimeout = 10 * time.Second

// Config carries the endpoint and the two API credentials.
type Config struct {
	URL    string
	AppKey string
	APIKey string
}

// ConfigFromEnv reads the client configuration from the environment.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		URL:    os.Getenv(EnvURL),
		AppKey: os.Getenv(EnvAppKey),
		APIKey: os.Getenv(EnvAPIKey),
	}
	if cfg.URL == "" {
		return Config{}, fmt.Errorf("missing %s", EnvURL)
	}
	if cfg.AppKey == "" || cfg.APIKey == "" {
		return Config{}, fmt.Errorf("missing %s or %s", EnvAppKey, EnvAPIKey)
	}
	return cfg, nil
}

// Client submits dairy assessments. One request per record, no
// retries: a failed submission aborts the batch before anything is
// persisted.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

// NewClient builds a Client with the fixed per-request timeout.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: requestTimeout},
		log:  logging.New("cft"),
	}
}

// Submit posts one payload and decodes the assessment response.
func (c *Client) Submit(ctx context.Context, p *Payload) (*Response, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload %s: %w", p.Farm.FarmIdentifier, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-App-Authorization", c.cfg.AppKey)
	req.Header.Set("X-Api-Authorization", c.cfg.APIKey)

	c.log.Debug("submitting assessment", "survey", p.Farm.FarmIdentifier)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit %s: %w", p.Farm.FarmIdentifier, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("submit %s: status %d: %s",
			p.Farm.FarmIdentifier, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response for %s: %w", p.Farm.FarmIdentifier, err)
	}
	return &out, nil
}
