// Package openai implements a chat-completions client for the OpenAI API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mirrorme/mirrorme/genai/llm"
)

const openAIEndpoint = "https://api.openai.com/v1"

// Client represents an OpenAI API client
type Client struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client

	// Defaults applied when GenerateRequest.Options leaves the respective
	// field unset.
	MaxTokens   int
	Temperature *float64
}

// ClientOption mutates a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint (e.g. a proxy or a test server).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.BaseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.HTTPClient = httpClient }
}

// WithMaxTokens sets the default generation token cap.
func WithMaxTokens(maxTokens int) ClientOption {
	return func(c *Client) { c.MaxTokens = maxTokens }
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(temperature float64) ClientOption {
	return func(c *Client) { c.Temperature = &temperature }
}

// NewClient creates a new OpenAI client with the given API key and model
func NewClient(apiKey, model string, options ...ClientOption) *Client {
	client := &Client{
		APIKey:     apiKey,
		BaseURL:    openAIEndpoint,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, option := range options {
		option(client)
	}
	if client.APIKey == "" {
		client.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return client
}

// Generate sends a chat request to the OpenAI API and returns the response
func (c *Client) Generate(ctx context.Context, request *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	req := c.prepareChatRequest(request)
	if req.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, respBytes)
	}
	var apiResp Response
	if err := json.Unmarshal(respBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return ToLLMResponse(&apiResp), nil
}

// prepareChatRequest converts a generic request and applies client defaults.
func (c *Client) prepareChatRequest(request *llm.GenerateRequest) *Request {
	req := ToRequest(request)
	if req.Model == "" {
		req.Model = c.Model
	}
	if req.MaxTokens == 0 && c.MaxTokens > 0 {
		req.MaxTokens = c.MaxTokens
	}
	if req.Temperature == nil && c.Temperature != nil {
		req.Temperature = c.Temperature
	}
	return req
}
