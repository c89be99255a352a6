// Package scheduling integrates with the Calendly API.
package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.calendly.com"

// User is the authenticated Calendly user.
type User struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	SchedulingURL string `json:"scheduling_url"`
	Timezone      string `json:"timezone"`
}

// Client queries the Calendly API with a personal access token.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New creates a scheduling client.
func New(token string) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether an access token is available.
func (c *Client) Configured() bool {
	return c != nil && c.Token != ""
}

// CurrentUser returns the token owner's profile, including the public
// scheduling link.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("scheduling API token is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/users/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scheduling API request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scheduling API error (status %d): %s", resp.StatusCode, data)
	}
	payload := struct {
		Resource User `json:"resource"`
	}{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode scheduling response: %w", err)
	}
	return &payload.Resource, nil
}
