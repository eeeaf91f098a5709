// Package bridgeclient implements a typed HTTP client for the bridge API.
// This is the foundation for agent-side integrations.
package bridgeclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Action kinds accepted by the bridge.
const (
	KindPublishAccessAsset  = "publish_access_asset"
	KindPublishComputeAsset = "publish_compute_asset"
	KindPublishAlgorithm    = "publish_algorithm"
	KindPermission          = "permission"
	KindCompute             = "compute"
	KindCreateDispenser     = "create_dispenser"
	KindCreateExchange      = "create_exchange"
	KindPurchase            = "purchase"
)

// DeploymentReceipt reports a completed asset publication.
type DeploymentReceipt struct {
	DID                      string `json:"did"`
	DatatokenContractAddress string `json:"datatoken_contract_address"`
	HasPricingSchema         bool   `json:"has_pricing_schema"`
}

// DispenserReceipt reports a dispenser attachment and its observed state.
type DispenserReceipt struct {
	DatatokenAddress string `json:"datatoken_address"`
	DispenserStatus  bool   `json:"dispenser_status"`
	HasPricingSchema bool   `json:"has_pricing_schema"`
}

// ExchangeReceipt reports a fixed-rate exchange attachment.
type ExchangeReceipt struct {
	ExchangeID       string `json:"exchange_id"`
	HasPricingSchema bool   `json:"has_pricing_schema"`
}

// Results carries compute artifacts or downloaded file bytes.
type Results struct {
	Content []byte `json:"content"`
}

// ActionError is the terminal failure variant of a response.
type ActionError struct {
	Message string `json:"message"`
}

// ActionResponse is the tagged union returned for every handled action.
// Exactly one variant field is set, matching Kind.
type ActionResponse struct {
	Kind       string             `json:"kind"`
	Deployment *DeploymentReceipt `json:"deployment,omitempty"`
	Dispenser  *DispenserReceipt  `json:"dispenser,omitempty"`
	Exchange   *ExchangeReceipt   `json:"exchange,omitempty"`
	Results    *Results           `json:"results,omitempty"`
	Error      *ActionError       `json:"error,omitempty"`
}

// Receipt is a signed proof that the bridge executed an action.
type Receipt struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Reference string `json:"reference"`
	Account   string `json:"account"`
	TxHash    string `json:"txHash,omitempty"`
	Status    string `json:"status"`
	Signature string `json:"signature"`
	IssuedAt  string `json:"issuedAt"`
	ExpiresAt string `json:"expiresAt"`
}

// VerifyResult reports whether a stored receipt's signature still holds.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	ReceiptID string `json:"receiptId"`
	Expired   bool   `json:"expired,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Account describes the bridge's funding account and network endpoints.
type Account struct {
	Address  string `json:"address"`
	Network  string `json:"network"`
	ChainID  int64  `json:"chainId"`
	Aquarius string `json:"aquarius"`
	Provider string `json:"provider"`
}

// APIError represents a bridge error response.
type APIError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ParseActionResponse decodes an action response body.
func ParseActionResponse(resp *http.Response) (*ActionResponse, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out ActionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse action response: %w", err)
	}
	return &out, nil
}

// parseAPIError decodes an error body, falling back to the raw status.
func parseAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return &apiErr
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
}
