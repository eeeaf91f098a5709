package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *BridgeClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *BridgeClient) *Handlers {
	return &Handlers{client: client}
}

// HandlePublishDataset publishes an access or compute dataset.
func (h *Handlers) HandlePublishDataset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := "publish_access_asset"
	if req.GetBool("with_compute", false) {
		kind = "publish_compute_asset"
	}

	action := map[string]any{
		"kind":               kind,
		"name":               req.GetString("name", ""),
		"description":        req.GetString("description", ""),
		"author":             req.GetString("author", ""),
		"license":            req.GetString("license", ""),
		"dataset_url":        req.GetString("dataset_url", ""),
		"has_pricing_schema": req.GetBool("priced", false),
	}

	raw, err := h.client.PostAction(ctx, action)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Publish failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatActionResponse(raw)), nil
}

// HandlePublishAlgorithm publishes an algorithm asset.
func (h *Handlers) HandlePublishAlgorithm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := map[string]any{
		"kind":               "publish_algorithm",
		"name":               req.GetString("name", ""),
		"description":        req.GetString("description", ""),
		"author":             req.GetString("author", ""),
		"license":            req.GetString("license", ""),
		"files_url":          req.GetString("files_url", ""),
		"language":           req.GetString("language", ""),
		"format":             req.GetString("format", ""),
		"version":            req.GetString("version", ""),
		"entrypoint":         req.GetString("entrypoint", ""),
		"image":              req.GetString("image", ""),
		"tag":                req.GetString("tag", ""),
		"checksum":           req.GetString("checksum", ""),
		"has_pricing_schema": req.GetBool("priced", false),
	}

	raw, err := h.client.PostAction(ctx, action)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Publish failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatActionResponse(raw)), nil
}

// HandlePermitAlgorithm adds an algorithm to a dataset's trusted list.
func (h *Handlers) HandlePermitAlgorithm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dataDID := req.GetString("data_did", "")
	algoDID := req.GetString("algo_did", "")
	if dataDID == "" || algoDID == "" {
		return mcp.NewToolResultError("data_did and algo_did are required"), nil
	}

	raw, err := h.client.PostAction(ctx, map[string]any{
		"kind":     "permission",
		"data_did": dataDID,
		"algo_did": algoDID,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Permission failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatActionResponse(raw)), nil
}

// HandleRunCompute runs an algorithm against a dataset and waits for results.
func (h *Handlers) HandleRunCompute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dataDID := req.GetString("data_did", "")
	algoDID := req.GetString("algo_did", "")
	if dataDID == "" || algoDID == "" {
		return mcp.NewToolResultError("data_did and algo_did are required"), nil
	}

	raw, err := h.client.PostAction(ctx, map[string]any{
		"kind":     "compute",
		"data_did": dataDID,
		"algo_did": algoDID,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Compute failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatActionResponse(raw)), nil
}

// HandleCreateDispenser attaches a free dispenser to a datatoken.
func (h *Handlers) HandleCreateDispenser(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	datatoken := req.GetString("datatoken_address", "")
	if datatoken == "" {
		return mcp.NewToolResultError("datatoken_address is required"), nil
	}

	raw, err := h.client.PostAction(ctx, map[string]any{
		"kind":              "create_dispenser",
		"datatoken_address": datatoken,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Dispenser creation failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatActionResponse(raw)), nil
}

// HandleCreateExchange attaches a fixed-rate exchange to a datatoken.
func (h *Handlers) HandleCreateExchange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	datatoken := req.GetString("datatoken_address", "")
	rate := req.GetString("rate", "")
	oceanAmt := req.GetString("ocean_amt", "")
	if datatoken == "" || rate == "" || oceanAmt == "" {
		return mcp.NewToolResultError("datatoken_address, rate, and ocean_amt are required"), nil
	}

	raw, err := h.client.PostAction(ctx, map[string]any{
		"kind":              "create_exchange",
		"datatoken_address": datatoken,
		"rate":              rate,
		"ocean_amt":         oceanAmt,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Exchange creation failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatActionResponse(raw)), nil
}

// HandlePurchaseAsset buys and downloads a dataset.
func (h *Handlers) HandlePurchaseAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	assetDID := req.GetString("asset_did", "")
	datatoken := req.GetString("datatoken_address", "")
	amount := req.GetString("datatoken_amt", "")
	if assetDID == "" || datatoken == "" || amount == "" {
		return mcp.NewToolResultError("asset_did, datatoken_address, and datatoken_amt are required"), nil
	}

	action := map[string]any{
		"kind":              "purchase",
		"asset_did":         assetDID,
		"datatoken_address": datatoken,
		"datatoken_amt":     amount,
	}
	if v := req.GetString("exchange_id", ""); v != "" {
		action["exchange_id"] = v
	}
	if v := req.GetString("max_cost_ocean", ""); v != "" {
		action["max_cost_ocean"] = v
	}
	if v := req.GetString("order_tx_id", ""); v != "" {
		action["order_tx_id"] = v
	}

	raw, err := h.client.PostAction(ctx, action)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Purchase failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatActionResponse(raw)), nil
}

// HandleGetAccount returns the bridge's funding account info.
func (h *Handlers) HandleGetAccount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.GetAccount(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch account: %v", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(raw)), nil
}

// HandleListReceipts lists receipts for an account.
func (h *Handlers) HandleListReceipts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	account := req.GetString("account", "")
	if account == "" {
		return mcp.NewToolResultError("account is required"), nil
	}
	limit := req.GetInt("limit", 0)

	raw, err := h.client.ListReceipts(ctx, account, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list receipts: %v", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(raw)), nil
}

// HandleGetReceipt fetches a receipt by ID.
func (h *Handlers) HandleGetReceipt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("receipt_id", "")
	if id == "" {
		return mcp.NewToolResultError("receipt_id is required"), nil
	}

	raw, err := h.client.GetReceipt(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch receipt: %v", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(raw)), nil
}

// ---------------------------------------------------------------------------
// Formatting
// ---------------------------------------------------------------------------

// actionResponse mirrors the bridge's response union for display purposes.
type actionResponse struct {
	Kind       string `json:"kind"`
	Deployment *struct {
		DID                      string `json:"did"`
		DatatokenContractAddress string `json:"datatoken_contract_address"`
		HasPricingSchema         bool   `json:"has_pricing_schema"`
	} `json:"deployment"`
	Dispenser *struct {
		DatatokenAddress string `json:"datatoken_address"`
		DispenserStatus  bool   `json:"dispenser_status"`
	} `json:"dispenser"`
	Exchange *struct {
		ExchangeID string `json:"exchange_id"`
	} `json:"exchange"`
	Results *struct {
		Content []byte `json:"content"`
	} `json:"results"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// formatActionResponse turns a response union into readable text for the LLM.
func formatActionResponse(raw json.RawMessage) string {
	var resp actionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return formatJSON(raw)
	}

	var sb strings.Builder
	switch resp.Kind {
	case "deployment_receipt":
		if resp.Deployment == nil {
			break
		}
		sb.WriteString("Asset published.\n")
		fmt.Fprintf(&sb, "DID: %s\n", resp.Deployment.DID)
		fmt.Fprintf(&sb, "Datatoken: %s\n", resp.Deployment.DatatokenContractAddress)
		if resp.Deployment.HasPricingSchema {
			sb.WriteString("Next step: attach a fixed-rate exchange with create_exchange.")
		} else {
			sb.WriteString("Next step: attach a free dispenser with create_dispenser.")
		}
	case "dispenser_receipt":
		if resp.Dispenser == nil {
			break
		}
		sb.WriteString("Dispenser attached.\n")
		fmt.Fprintf(&sb, "Datatoken: %s\n", resp.Dispenser.DatatokenAddress)
		fmt.Fprintf(&sb, "Active: %t", resp.Dispenser.DispenserStatus)
	case "exchange_receipt":
		if resp.Exchange == nil {
			break
		}
		sb.WriteString("Fixed-rate exchange attached.\n")
		fmt.Fprintf(&sb, "Exchange ID: %s", resp.Exchange.ExchangeID)
	case "results":
		if resp.Results == nil {
			break
		}
		sb.WriteString("Result:\n")
		sb.Write(resp.Results.Content)
	case "error":
		if resp.Error == nil {
			break
		}
		fmt.Fprintf(&sb, "Action failed: %s", resp.Error.Message)
	}

	if sb.Len() == 0 {
		return formatJSON(raw)
	}
	return sb.String()
}

// formatJSON pretty-prints raw JSON, falling back to the raw bytes.
func formatJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
