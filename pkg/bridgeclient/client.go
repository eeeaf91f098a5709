package bridgeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client wraps http.Client with bridge action and receipt endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string

	// Hooks
	OnAction func(kind string) // Called before each action is submitted
}

// NewClient creates a bridge API client. Publishing and compute actions
// block until the workflow finishes, so the HTTP timeout is generous.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Minute,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Do submits one action envelope and decodes the terminal response. The
// envelope must carry a "kind" field naming the action.
func (c *Client) Do(ctx context.Context, action map[string]any) (*ActionResponse, error) {
	kind, _ := action["kind"].(string)
	if c.OnAction != nil {
		c.OnAction(kind)
	}

	body, err := json.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal action: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/actions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp)
	}
	return ParseActionResponse(resp)
}

// CreateDispenser attaches a free dispenser to a datatoken.
func (c *Client) CreateDispenser(ctx context.Context, datatoken string) (*ActionResponse, error) {
	return c.Do(ctx, map[string]any{
		"kind":              KindCreateDispenser,
		"datatoken_address": datatoken,
	})
}

// CreateExchange attaches a fixed-rate exchange to a datatoken.
func (c *Client) CreateExchange(ctx context.Context, datatoken, rate, oceanAmt string) (*ActionResponse, error) {
	return c.Do(ctx, map[string]any{
		"kind":              KindCreateExchange,
		"datatoken_address": datatoken,
		"rate":              rate,
		"ocean_amt":         oceanAmt,
	})
}

// PermitAlgorithm trusts an algorithm on a compute dataset.
func (c *Client) PermitAlgorithm(ctx context.Context, dataDID, algoDID string) (*ActionResponse, error) {
	return c.Do(ctx, map[string]any{
		"kind":     KindPermission,
		"data_did": dataDID,
		"algo_did": algoDID,
	})
}

// RunCompute starts a compute job and blocks until its results arrive.
func (c *Client) RunCompute(ctx context.Context, dataDID, algoDID string) (*ActionResponse, error) {
	return c.Do(ctx, map[string]any{
		"kind":     KindCompute,
		"data_did": dataDID,
		"algo_did": algoDID,
	})
}

// GetAccount fetches the bridge's funding account and network endpoints.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var out Account
	if err := c.getJSON(ctx, "/account", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReceipt fetches one signed action receipt by ID.
func (c *Client) GetReceipt(ctx context.Context, id string) (*Receipt, error) {
	var out struct {
		Receipt *Receipt `json:"receipt"`
	}
	if err := c.getJSON(ctx, "/v1/receipts/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return out.Receipt, nil
}

// ListReceipts fetches recent receipts for an account. A limit of 0 uses
// the server default.
func (c *Client) ListReceipts(ctx context.Context, account string, limit int) ([]*Receipt, error) {
	path := "/v1/accounts/" + url.PathEscape(account) + "/receipts"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Receipts []*Receipt `json:"receipts"`
	}
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Receipts, nil
}

// VerifyReceipt asks the bridge to re-check a receipt's signature.
func (c *Client) VerifyReceipt(ctx context.Context, id string) (*VerifyResult, error) {
	body, err := json.Marshal(map[string]string{"receiptId": id})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/receipts/verify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp)
	}
	var out struct {
		Verification *VerifyResult `json:"verification"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse verification: %w", err)
	}
	return out.Verification, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
