package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"keystore-swap/pkg/types"
)

const apiKeyHeader = "x-api-key"

// SwapKitClient talks to the swap API (tokens, quote, track)
type SwapKitClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewSwapKitClient creates a new swap API client
func NewSwapKitClient(baseURL, apiKey string, timeout time.Duration) *SwapKitClient {
	return &SwapKitClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *SwapKitClient) WithHTTPClient(httpClient *http.Client) *SwapKitClient {
	c.httpClient = httpClient
	return c
}

// GetTokens retrieves the asset catalog of one liquidity provider
func (c *SwapKitClient) GetTokens(ctx context.Context, provider types.ProviderName) ([]types.Asset, error) {
	endpoint := c.baseURL + "/tokens?provider=" + url.QueryEscape(string(provider))

	var resp types.TokensResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}

	if resp.Tokens == nil {
		return nil, fmt.Errorf("failed to get tokens: response carries no token list")
	}

	return resp.Tokens, nil
}

// GetQuote requests candidate routes for a swap
func (c *SwapKitClient) GetQuote(ctx context.Context, req types.QuoteRequest) (*types.QuoteResponse, error) {
	var resp types.QuoteResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/quote", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	if resp.Routes == nil {
		if resp.Error != "" {
			return nil, fmt.Errorf("failed to get quote: %s", resp.Error)
		}
		return nil, fmt.Errorf("empty quote response")
	}

	return &resp, nil
}

// Track checks the progress of a submitted transaction
func (c *SwapKitClient) Track(ctx context.Context, hash, chainID string) (*types.SwapStatus, error) {
	var resp types.SwapStatus
	req := types.TrackRequest{Hash: hash, ChainID: chainID}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/track", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	return &resp, nil
}

func (c *SwapKitClient) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response (status %d): %w", httpResp.StatusCode, err)
	}

	// Check for successful status codes (200-299)
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return apiError(httpResp.StatusCode, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// apiError extracts the most useful message from an error body
func apiError(status int, body []byte) error {
	if len(body) == 0 {
		return fmt.Errorf("API returned status code %d", status)
	}

	var errorResp map[string]interface{}
	if jsonErr := json.Unmarshal(body, &errorResp); jsonErr == nil {
		if message, ok := errorResp["message"].(string); ok {
			return fmt.Errorf("API error (status %d): %s", status, message)
		}
		if message, ok := errorResp["error"].(string); ok {
			return fmt.Errorf("API error (status %d): %s", status, message)
		}
		if errors, ok := errorResp["errors"]; ok {
			return fmt.Errorf("API error (status %d): %v", status, errors)
		}
	}

	return fmt.Errorf("API error (status %d): %s", status, strings.TrimSpace(string(body)))
}
