// Package social looks up public X (Twitter) profiles.
package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.x.com"

// APIError carries the upstream status so callers can map it 1:1.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("social API error (status %d): %s", e.StatusCode, e.Detail)
}

// User is a public X user profile.
type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	Description     string `json:"description,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// Client queries the X API v2 with an app bearer token.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New creates a social lookup client.
func New(token string) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether a bearer token is available.
func (c *Client) Configured() bool {
	return c != nil && c.Token != ""
}

// GetUserByUsername fetches a user profile by handle. Upstream 404/401/403
// are surfaced as APIError with the original status.
func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("social API token is not configured")
	}
	endpoint := fmt.Sprintf("%s/2/users/by/username/%s?user.fields=description,profile_image_url",
		c.BaseURL, url.PathEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("social API request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: string(data)}
	}

	payload := struct {
		Data   *User `json:"data"`
		Errors []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode social response: %w", err)
	}
	// The v2 API reports missing users as 200 with an errors array.
	if payload.Data == nil {
		detail := "user not found"
		if len(payload.Errors) > 0 && payload.Errors[0].Detail != "" {
			detail = payload.Errors[0].Detail
		}
		return nil, &APIError{StatusCode: http.StatusNotFound, Detail: detail}
	}
	return payload.Data, nil
}
