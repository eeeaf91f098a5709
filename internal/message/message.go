// Package message defines the typed action requests and responses the
// bridge exchanges with its callers. Requests form a closed union tagged by
// action kind; each variant validates its own required fields before any
// workflow side effect occurs.
package message

import (
	"encoding/json"
	"fmt"

	"github.com/eightballer/ocean-bridge/internal/validation"
)

// Action kinds accepted on the wire.
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

// ValidationError names the first missing or malformed request field.
type ValidationError = validation.ValidationError

// Request is one variant of the action union.
type Request interface {
	Kind() string
	Validate() *ValidationError
}

// Parse decodes a request envelope into its typed variant. The kind tag
// selects the variant; field validation is the caller's next step.
func Parse(data []byte) (Request, error) {
	var envelope struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("message: malformed request envelope: %w", err)
	}

	var req Request
	switch envelope.Kind {
	case KindPublishAccessAsset:
		req = &PublishAccessAsset{}
	case KindPublishComputeAsset:
		req = &PublishComputeAsset{}
	case KindPublishAlgorithm:
		req = &PublishAlgorithm{}
	case KindPermission:
		req = &Permission{}
	case KindCompute:
		req = &Compute{}
	case KindCreateDispenser:
		req = &CreateDispenser{}
	case KindCreateExchange:
		req = &CreateExchange{}
	case KindPurchase:
		req = &Purchase{}
	default:
		return nil, fmt.Errorf("message: unknown action kind %q", envelope.Kind)
	}

	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("message: decode %s request: %w", envelope.Kind, err)
	}
	return req, nil
}

// PublishAccessAsset publishes a dataset with a single access service.
type PublishAccessAsset struct {
	Description      string `json:"description"`
	Name             string `json:"name"`
	Author           string `json:"author"`
	License          string `json:"license"`
	DatasetURL       string `json:"dataset_url"`
	HasPricingSchema *bool  `json:"has_pricing_schema"`
}

func (r *PublishAccessAsset) Kind() string { return KindPublishAccessAsset }

func (r *PublishAccessAsset) Validate() *ValidationError {
	return validation.Validate(
		validation.Required("description", r.Description),
		validation.Required("name", r.Name),
		validation.Required("author", r.Author),
		validation.Required("license", r.License),
		validation.Required("dataset_url", r.DatasetURL),
		validation.RequiredBool("has_pricing_schema", r.HasPricingSchema),
	)
}

// Priced reports whether the publisher wants a pricing schema attached.
func (r *PublishAccessAsset) Priced() bool {
	return r.HasPricingSchema != nil && *r.HasPricingSchema
}

// PublishComputeAsset publishes a dataset with both an access and a
// compute service.
type PublishComputeAsset struct {
	Description      string `json:"description"`
	Name             string `json:"name"`
	Author           string `json:"author"`
	License          string `json:"license"`
	DatasetURL       string `json:"dataset_url"`
	HasPricingSchema *bool  `json:"has_pricing_schema"`
}

func (r *PublishComputeAsset) Kind() string { return KindPublishComputeAsset }

func (r *PublishComputeAsset) Validate() *ValidationError {
	return validation.Validate(
		validation.Required("description", r.Description),
		validation.Required("name", r.Name),
		validation.Required("author", r.Author),
		validation.Required("license", r.License),
		validation.Required("dataset_url", r.DatasetURL),
		validation.RequiredBool("has_pricing_schema", r.HasPricingSchema),
	)
}

func (r *PublishComputeAsset) Priced() bool {
	return r.HasPricingSchema != nil && *r.HasPricingSchema
}

// PublishAlgorithm publishes an algorithm asset with its container
// descriptor.
type PublishAlgorithm struct {
	Description      string `json:"description"`
	Name             string `json:"name"`
	Author           string `json:"author"`
	License          string `json:"license"`
	Language         string `json:"language"`
	Format           string `json:"format"`
	Version          string `json:"version"`
	Entrypoint       string `json:"entrypoint"`
	Image            string `json:"image"`
	Tag              string `json:"tag"`
	Checksum         string `json:"checksum"`
	FilesURL         string `json:"files_url"`
	HasPricingSchema *bool  `json:"has_pricing_schema"`
}

func (r *PublishAlgorithm) Kind() string { return KindPublishAlgorithm }

func (r *PublishAlgorithm) Validate() *ValidationError {
	return validation.Validate(
		validation.Required("description", r.Description),
		validation.Required("name", r.Name),
		validation.Required("author", r.Author),
		validation.Required("license", r.License),
		validation.Required("language", r.Language),
		validation.Required("format", r.Format),
		validation.Required("version", r.Version),
		validation.Required("entrypoint", r.Entrypoint),
		validation.Required("image", r.Image),
		validation.Required("tag", r.Tag),
		validation.Required("checksum", r.Checksum),
		validation.Required("files_url", r.FilesURL),
		validation.RequiredBool("has_pricing_schema", r.HasPricingSchema),
	)
}

func (r *PublishAlgorithm) Priced() bool {
	return r.HasPricingSchema != nil && *r.HasPricingSchema
}

// Permission adds an algorithm to a dataset's trusted-algorithm allowlist.
type Permission struct {
	DataDID string `json:"data_did"`
	AlgoDID string `json:"algo_did"`
}

func (r *Permission) Kind() string { return KindPermission }

func (r *Permission) Validate() *ValidationError {
	return validation.Validate(
		validation.Required("data_did", r.DataDID),
		validation.ValidDID("data_did", r.DataDID),
		validation.Required("algo_did", r.AlgoDID),
		validation.ValidDID("algo_did", r.AlgoDID),
	)
}

// Compute runs a permitted algorithm against a dataset.
type Compute struct {
	DataDID string `json:"data_did"`
	AlgoDID string `json:"algo_did"`
}

func (r *Compute) Kind() string { return KindCompute }

func (r *Compute) Validate() *ValidationError {
	return validation.Validate(
		validation.Required("data_did", r.DataDID),
		validation.ValidDID("data_did", r.DataDID),
		validation.Required("algo_did", r.AlgoDID),
		validation.ValidDID("algo_did", r.AlgoDID),
	)
}

// CreateDispenser attaches a free faucet to a datatoken.
type CreateDispenser struct {
	DatatokenAddress string `json:"datatoken_address"`
}

func (r *CreateDispenser) Kind() string { return KindCreateDispenser }

func (r *CreateDispenser) Validate() *ValidationError {
	return validation.Validate(
		validation.Required("datatoken_address", r.DatatokenAddress),
		validation.ValidAddress("datatoken_address", r.DatatokenAddress),
	)
}

// CreateExchange attaches a fixed-rate OCEAN exchange to a datatoken.
type CreateExchange struct {
	DatatokenAddress string `json:"datatoken_address"`
	Rate             string `json:"rate"`
	OceanAmt         string `json:"ocean_amt"`
}

func (r *CreateExchange) Kind() string { return KindCreateExchange }

func (r *CreateExchange) Validate() *ValidationError {
	return validation.Validate(
		validation.Required("datatoken_address", r.DatatokenAddress),
		validation.ValidAddress("datatoken_address", r.DatatokenAddress),
		validation.Required("rate", r.Rate),
		validation.ValidAmount("rate", r.Rate),
		validation.Required("ocean_amt", r.OceanAmt),
		validation.ValidAmount("ocean_amt", r.OceanAmt),
	)
}

// Purchase acquires datatokens and downloads the asset's file. Presence of
// exchange_id selects the fixed-rate exchange; its absence selects the
// dispenser. A prior order tx id may be supplied to skip re-payment.
type Purchase struct {
	DatatokenAddress string `json:"datatoken_address"`
	AssetDID         string `json:"asset_did"`
	DatatokenAmt     string `json:"datatoken_amt"`
	ExchangeID       string `json:"exchange_id,omitempty"`
	MaxCostOcean     string `json:"max_cost_ocean,omitempty"`
	OrderTxID        string `json:"order_tx_id,omitempty"`
}

func (r *Purchase) Kind() string { return KindPurchase }

func (r *Purchase) Validate() *ValidationError {
	return validation.Validate(
		validation.Required("datatoken_address", r.DatatokenAddress),
		validation.ValidAddress("datatoken_address", r.DatatokenAddress),
		validation.Required("asset_did", r.AssetDID),
		validation.ValidDID("asset_did", r.AssetDID),
		validation.Required("datatoken_amt", r.DatatokenAmt),
		validation.ValidAmount("datatoken_amt", r.DatatokenAmt),
		validation.ValidAmount("max_cost_ocean", r.MaxCostOcean),
	)
}

// UsesExchange reports whether the fixed-rate mechanism was selected.
func (r *Purchase) UsesExchange() bool { return r.ExchangeID != "" }
