package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config holds the configuration for connecting to the bridge API.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
}

// BridgeClient is a pure HTTP client for the bridge API.
type BridgeClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewBridgeClient creates a new client for the bridge API.
func NewBridgeClient(cfg Config) *BridgeClient {
	return &BridgeClient{
		cfg: cfg,
		httpClient: &http.Client{
			// Actions can involve multiple on-chain transactions and a
			// metadata cache wait, so the budget is generous.
			Timeout: 15 * time.Minute,
		},
	}
}

// apiError represents an error response from the bridge.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the bridge and returns the response body.
func (c *BridgeClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// PostAction submits a typed action envelope to the bridge.
func (c *BridgeClient) PostAction(ctx context.Context, action map[string]any) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, "/v1/actions", nil, action)
}

// GetAccount returns the bridge's funding account and network endpoints.
func (c *BridgeClient) GetAccount(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/account", nil, nil)
}

// GetReceipt fetches a single signed action receipt by ID.
func (c *BridgeClient) GetReceipt(ctx context.Context, id string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/receipts/"+url.PathEscape(id), nil, nil)
}

// ListReceipts lists receipts issued for an account.
func (c *BridgeClient) ListReceipts(ctx context.Context, account string, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/accounts/" + url.PathEscape(account) + "/receipts"
	return c.doRequest(ctx, http.MethodGet, path, q, nil)
}
