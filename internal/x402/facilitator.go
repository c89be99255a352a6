// Package x402 talks to a payment facilitator for settlement verification.
package x402

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultURL is the public test facilitator.
const DefaultURL = "https://x402.org/facilitator"

// VerifyResponse is the facilitator's verdict on a payment payload.
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

// Client is a thin facilitator HTTP client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a facilitator client; an empty URL selects the default.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Verify asks the facilitator whether a payment payload satisfies the given
// requirements. An unreachable facilitator is an error, never an implicit
// approval.
func (c *Client) Verify(ctx context.Context, payload, requirements map[string]interface{}) (*VerifyResponse, error) {
	body, err := json.Marshal(map[string]interface{}{
		"x402Version":         1,
		"paymentPayload":      payload,
		"paymentRequirements": requirements,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("facilitator request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facilitator error (status %d): %s", resp.StatusCode, data)
	}
	verdict := &VerifyResponse{}
	if err := json.Unmarshal(data, verdict); err != nil {
		return nil, fmt.Errorf("decode facilitator response: %w", err)
	}
	return verdict, nil
}
