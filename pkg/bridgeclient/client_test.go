package bridgeclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionResponse(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantErr  bool
		wantKind string
	}{
		{
			name:     "dispenser receipt",
			body:     `{"kind":"dispenser_receipt","dispenser":{"datatoken_address":"0xabc","dispenser_status":true,"has_pricing_schema":true}}`,
			wantKind: "dispenser_receipt",
		},
		{
			name:     "deployment receipt",
			body:     `{"kind":"deployment_receipt","deployment":{"did":"did:op:123","datatoken_contract_address":"0xdef","has_pricing_schema":false}}`,
			wantKind: "deployment_receipt",
		},
		{
			name:    "invalid JSON",
			body:    `not-json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(tt.body)),
			}
			got, err := ParseActionResponse(resp)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, got.Kind)
		})
	}
}

func TestClient_Do(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/actions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"kind":"dispenser_receipt","dispenser":{"datatoken_address":"0xabc","dispenser_status":true,"has_pricing_schema":true}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	var hookKind string
	c.OnAction = func(kind string) { hookKind = kind }

	resp, err := c.CreateDispenser(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, KindCreateDispenser, hookKind)
	assert.Equal(t, KindCreateDispenser, captured["kind"])
	assert.Equal(t, "0xabc", captured["datatoken_address"])
	require.NotNil(t, resp.Dispenser)
	assert.True(t, resp.Dispenser.DispenserStatus)
}

func TestClient_Do_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"validation_error","message":"missing required field datatoken_address"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Do(context.Background(), map[string]any{"kind": KindCreateDispenser})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.Contains(t, apiErr.Message, "datatoken_address")
}

func TestClient_Do_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Do(context.Background(), map[string]any{"kind": KindPurchase})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_GetAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/account", r.URL.Path)
		_, _ = w.Write([]byte(`{"address":"0x1234","network":"development","chainId":8996,"aquarius":"http://aquarius","provider":"http://provider"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	acct, err := c.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0x1234", acct.Address)
	assert.Equal(t, int64(8996), acct.ChainID)
	assert.Equal(t, "development", acct.Network)
}

func TestClient_Receipts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/receipts/rcpt_1":
			_, _ = w.Write([]byte(`{"receipt":{"id":"rcpt_1","action":"create_dispenser","status":"completed"}}`))
		case r.URL.Path == "/v1/accounts/0xabc/receipts":
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`{"receipts":[{"id":"rcpt_1"},{"id":"rcpt_2"}],"count":2}`))
		case r.URL.Path == "/v1/receipts/verify":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "rcpt_1", body["receiptId"])
			_, _ = w.Write([]byte(`{"verification":{"valid":true,"receiptId":"rcpt_1"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	receipt, err := c.GetReceipt(ctx, "rcpt_1")
	require.NoError(t, err)
	assert.Equal(t, "create_dispenser", receipt.Action)

	list, err := c.ListReceipts(ctx, "0xabc", 5)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	verdict, err := c.VerifyReceipt(ctx, "rcpt_1")
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
}

func TestClient_GetReceipt_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"receipt not found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.GetReceipt(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "not_found", apiErr.Code)
}
