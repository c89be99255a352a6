// Package wallet provisions server-managed EVM accounts through an external
// wallet service.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Account is a provisioned wallet account.
type Account struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// Client talks to the wallet-provisioning service.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// New creates a wallet client. The base URL points at the provisioning
// service root.
func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether the client can reach a provisioning service.
func (c *Client) Configured() bool {
	return c != nil && c.BaseURL != ""
}

// GetOrCreateAccount resolves the account named after the supplied id,
// creating it when absent. Account names are stable, so repeated calls
// return the same address.
func (c *Client) GetOrCreateAccount(ctx context.Context, name string) (*Account, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("wallet service is not configured")
	}
	payload, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/accounts", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wallet service request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("wallet service error (status %d): %s", resp.StatusCode, data)
	}
	account := &Account{}
	if err := json.Unmarshal(data, account); err != nil {
		return nil, fmt.Errorf("decode wallet response: %w", err)
	}
	if account.ID == "" {
		account.ID = name
	}
	return account, nil
}
