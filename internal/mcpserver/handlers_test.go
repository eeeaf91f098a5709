package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test helpers ---

func newTestSetup(handler http.Handler) (*Handlers, func()) {
	ts := httptest.NewServer(handler)
	client := NewBridgeClient(Config{APIURL: ts.URL})
	h := NewHandlers(client)
	return h, ts.Close
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	if args == nil {
		args = map[string]any{}
	}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content block")
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

// actionCapture records the last action envelope posted to /v1/actions and
// replies with a canned response.
func actionCapture(captured *map[string]any, response any) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/actions" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, captured)
		_ = json.NewEncoder(w).Encode(response)
	})
}

// ============================================================
// Client tests
// ============================================================

func TestClient_DoRequest_HTTPError_WithAPIMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":   "validation_error",
			"message": "author: is required",
		})
	}))
	defer ts.Close()

	client := NewBridgeClient(Config{APIURL: ts.URL})
	_, err := client.PostAction(context.Background(), map[string]any{"kind": "permission"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "author: is required")
}

func TestClient_DoRequest_HTTPError_NonJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream timeout"))
	}))
	defer ts.Close()

	client := NewBridgeClient(Config{APIURL: ts.URL})
	_, err := client.GetAccount(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream timeout")
}

func TestClient_DoRequest_ConnectionRefused(t *testing.T) {
	client := NewBridgeClient(Config{APIURL: "http://127.0.0.1:1"})
	_, err := client.GetAccount(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClient_DoRequest_CancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewBridgeClient(Config{APIURL: ts.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately
	_, err := client.GetAccount(ctx)
	require.Error(t, err)
}

func TestClient_ListReceipts_QueryParams(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/0xabc/receipts", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"receipts":[],"count":0}`))
	}))
	defer ts.Close()

	client := NewBridgeClient(Config{APIURL: ts.URL})
	_, err := client.ListReceipts(context.Background(), "0xabc", 5)
	require.NoError(t, err)
}

// ============================================================
// Handler tests
// ============================================================

func TestHandlePublishDataset_AccessKind(t *testing.T) {
	var captured map[string]any
	h, done := newTestSetup(actionCapture(&captured, map[string]any{
		"kind": "deployment_receipt",
		"deployment": map[string]any{
			"did":                        "did:op:abc",
			"datatoken_contract_address": "0xdt",
			"has_pricing_schema":         true,
		},
	}))
	defer done()

	result, err := h.HandlePublishDataset(context.Background(), makeRequest(map[string]any{
		"name":        "Weather observations",
		"description": "Hourly readings",
		"author":      "meteo",
		"license":     "CC-BY-4.0",
		"dataset_url": "https://example.com/data.csv",
		"priced":      true,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "publish_access_asset", captured["kind"])
	assert.Equal(t, true, captured["has_pricing_schema"])

	text := resultText(t, result)
	assert.Contains(t, text, "did:op:abc")
	assert.Contains(t, text, "0xdt")
	assert.Contains(t, text, "create_exchange")
}

func TestHandlePublishDataset_ComputeKind(t *testing.T) {
	var captured map[string]any
	h, done := newTestSetup(actionCapture(&captured, map[string]any{
		"kind": "deployment_receipt",
		"deployment": map[string]any{
			"did":                        "did:op:abc",
			"datatoken_contract_address": "0xdt",
			"has_pricing_schema":         false,
		},
	}))
	defer done()

	result, err := h.HandlePublishDataset(context.Background(), makeRequest(map[string]any{
		"name":         "Weather observations",
		"description":  "Hourly readings",
		"author":       "meteo",
		"license":      "CC-BY-4.0",
		"dataset_url":  "https://example.com/data.csv",
		"priced":       false,
		"with_compute": true,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "publish_compute_asset", captured["kind"])
	assert.Contains(t, resultText(t, result), "create_dispenser")
}

func TestHandlePublishAlgorithm_ForwardsContainerFields(t *testing.T) {
	var captured map[string]any
	h, done := newTestSetup(actionCapture(&captured, map[string]any{
		"kind": "deployment_receipt",
		"deployment": map[string]any{
			"did": "did:op:algo",
		},
	}))
	defer done()

	result, err := h.HandlePublishAlgorithm(context.Background(), makeRequest(map[string]any{
		"name":        "Mean temperature",
		"description": "Averages a column",
		"author":      "meteo",
		"license":     "MIT",
		"files_url":   "https://example.com/algo.py",
		"language":    "python",
		"format":      "docker-image",
		"version":     "0.1",
		"entrypoint":  "python $ALGO",
		"image":       "oceanprotocol/algo_dockers",
		"tag":         "python-branin",
		"checksum":    "sha256:abc",
		"priced":      false,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "publish_algorithm", captured["kind"])
	assert.Equal(t, "python $ALGO", captured["entrypoint"])
	assert.Equal(t, "oceanprotocol/algo_dockers", captured["image"])
}

func TestHandlePermitAlgorithm_MissingArgs(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer done()

	result, err := h.HandlePermitAlgorithm(context.Background(), makeRequest(map[string]any{
		"data_did": "did:op:data",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleRunCompute_ReturnsResults(t *testing.T) {
	var captured map[string]any
	h, done := newTestSetup(actionCapture(&captured, map[string]any{
		"kind": "results",
		"results": map[string]any{
			"content": []byte(`{"prediction":42}`),
		},
	}))
	defer done()

	result, err := h.HandleRunCompute(context.Background(), makeRequest(map[string]any{
		"data_did": "did:op:data",
		"algo_did": "did:op:algo",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "compute", captured["kind"])
	assert.Contains(t, resultText(t, result), "prediction")
}

func TestHandleCreateExchange_RequiresAllArgs(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer done()

	result, err := h.HandleCreateExchange(context.Background(), makeRequest(map[string]any{
		"datatoken_address": "0xdt",
		"rate":              "1",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleCreateExchange_FormatsReceipt(t *testing.T) {
	var captured map[string]any
	h, done := newTestSetup(actionCapture(&captured, map[string]any{
		"kind": "exchange_receipt",
		"exchange": map[string]any{
			"exchange_id": "0xexchange01",
		},
	}))
	defer done()

	result, err := h.HandleCreateExchange(context.Background(), makeRequest(map[string]any{
		"datatoken_address": "0xdt",
		"rate":              "1",
		"ocean_amt":         "100",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "create_exchange", captured["kind"])
	assert.Contains(t, resultText(t, result), "0xexchange01")
}

func TestHandlePurchaseAsset_OptionalFieldsOmitted(t *testing.T) {
	var captured map[string]any
	h, done := newTestSetup(actionCapture(&captured, map[string]any{
		"kind":    "results",
		"results": map[string]any{"content": []byte("file bytes")},
	}))
	defer done()

	result, err := h.HandlePurchaseAsset(context.Background(), makeRequest(map[string]any{
		"asset_did":         "did:op:data",
		"datatoken_address": "0xdt",
		"datatoken_amt":     "1",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "purchase", captured["kind"])
	_, hasExchange := captured["exchange_id"]
	assert.False(t, hasExchange, "exchange_id should be omitted when not provided")
}

func TestHandlePurchaseAsset_ExchangeFieldsForwarded(t *testing.T) {
	var captured map[string]any
	h, done := newTestSetup(actionCapture(&captured, map[string]any{
		"kind":    "results",
		"results": map[string]any{"content": []byte("file bytes")},
	}))
	defer done()

	_, err := h.HandlePurchaseAsset(context.Background(), makeRequest(map[string]any{
		"asset_did":         "did:op:data",
		"datatoken_address": "0xdt",
		"datatoken_amt":     "1",
		"exchange_id":       "0xexchange01",
		"max_cost_ocean":    "50",
	}))
	require.NoError(t, err)

	assert.Equal(t, "0xexchange01", captured["exchange_id"])
	assert.Equal(t, "50", captured["max_cost_ocean"])
}

func TestHandleAction_APIErrorSurfaced(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":   "not_found",
			"message": "bridge: asset did:op:missing not found",
		})
	}))
	defer done()

	result, err := h.HandleRunCompute(context.Background(), makeRequest(map[string]any{
		"data_did": "did:op:missing",
		"algo_did": "did:op:algo",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not found")
}

func TestHandleGetReceipt(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/receipts/rcpt_123", r.URL.Path)
		_, _ = w.Write([]byte(`{"receipt":{"id":"rcpt_123","action":"compute"}}`))
	}))
	defer done()

	result, err := h.HandleGetReceipt(context.Background(), makeRequest(map[string]any{
		"receipt_id": "rcpt_123",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "rcpt_123")
}

func TestHandleListReceipts_RequiresAccount(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer done()

	result, err := h.HandleListReceipts(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// ============================================================
// Formatting tests
// ============================================================

func TestFormatActionResponse_UnknownKindFallsBack(t *testing.T) {
	raw := json.RawMessage(`{"kind":"mystery","payload":1}`)
	out := formatActionResponse(raw)
	assert.Contains(t, out, "mystery")
}

func TestFormatActionResponse_Error(t *testing.T) {
	raw := json.RawMessage(`{"kind":"error","error":{"message":"boom"}}`)
	out := formatActionResponse(raw)
	assert.Contains(t, out, "boom")
}
