// Package googleapi implements the executor's provider contracts over the
// Google REST APIs (calendar v3, gmail v1, sheets v4, docs v1, drive v3).
// Base URLs come from config so tests can point the client at a local server.
package googleapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"action-dispatch-service/internal/config"
	"action-dispatch-service/internal/credentials"
)

// TokenProvider mints bearer tokens for outgoing requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the productivity APIs with a scoped bearer token.
type Client struct {
	httpClient *http.Client
	tokens     TokenProvider

	calendarBase string
	gmailBase    string
	sheetsBase   string
	docsBase     string
	driveBase    string
}

// New builds a client from config and a token source.
func New(cfg config.Config, tokens TokenProvider) *Client {
	timeout := cfg.ProviderTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		tokens:       tokens,
		calendarBase: strings.TrimSuffix(cfg.CalendarBaseURL, "/"),
		gmailBase:    strings.TrimSuffix(cfg.GmailBaseURL, "/"),
		sheetsBase:   strings.TrimSuffix(cfg.SheetsBaseURL, "/"),
		docsBase:     strings.TrimSuffix(cfg.DocsBaseURL, "/"),
		driveBase:    strings.TrimSuffix(cfg.DriveBaseURL, "/"),
	}
}

var _ TokenProvider = (*credentials.TokenSource)(nil)

// do sends a JSON request and decodes the JSON response into out (when out
// is non-nil). Provider errors surface as descriptive failures with the
// response body attached.
func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("obtain token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
