package ocean

import (
	"fmt"
	"time"
)

// Service types declared in a DDO's service list.
const (
	ServiceAccess  = "access"
	ServiceCompute = "compute"
)

// Metadata describes a published asset.
type Metadata struct {
	Created     string             `json:"created"`
	Updated     string             `json:"updated"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Author      string             `json:"author"`
	License     string             `json:"license"`
	Type        string             `json:"type"` // "dataset" or "algorithm"
	Algorithm   *AlgorithmMetadata `json:"algorithm,omitempty"`
}

// AlgorithmMetadata carries the runtime descriptor for algorithm assets.
type AlgorithmMetadata struct {
	Language  string    `json:"language"`
	Format    string    `json:"format"`
	Version   string    `json:"version"`
	Container Container `json:"container"`
}

// Container is the execution image descriptor nested in algorithm metadata.
type Container struct {
	Entrypoint string `json:"entrypoint"`
	Image      string `json:"image"`
	Tag        string `json:"tag"`
	Checksum   string `json:"checksum"`
}

// TrustedAlgorithm is an entry in a compute service's allowlist.
type TrustedAlgorithm struct {
	DID string `json:"did"`
}

// ServicePrivacy holds the compute service's permissioning state.
type ServicePrivacy struct {
	PublisherTrustedAlgorithms []TrustedAlgorithm `json:"publisherTrustedAlgorithms"`
	AllowNetworkAccess         bool               `json:"allowNetworkAccess"`
}

// Service is one consumable endpoint of an asset.
type Service struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	ServiceEndpoint string          `json:"serviceEndpoint"`
	Datatoken       string          `json:"datatokenAddress"`
	Files           string          `json:"files,omitempty"`
	Timeout         int64           `json:"timeout"`
	Compute         *ServicePrivacy `json:"compute,omitempty"`
}

// DatatokenInfo is the DDO's record of a minted datatoken.
type DatatokenInfo struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// DDO is the resolved document describing an asset's metadata and services.
type DDO struct {
	ID         string          `json:"id"`
	ChainID    int64           `json:"chainId"`
	NFTAddress string          `json:"nftAddress"`
	Metadata   Metadata        `json:"metadata"`
	Services   []Service       `json:"services"`
	Datatokens []DatatokenInfo `json:"datatokens"`
}

// ServiceByType returns the first service with the declared type. Resolved
// service lists are looked up by type, never by position, so a malformed or
// reordered list fails loudly.
func (d *DDO) ServiceByType(serviceType string) (*Service, error) {
	for i := range d.Services {
		if d.Services[i].Type == serviceType {
			return &d.Services[i], nil
		}
	}
	return nil, fmt.Errorf("ocean: asset %s has no %q service", d.ID, serviceType)
}

// AddTrustedAlgorithm appends algo's DID to the compute service allowlist.
// Entries are not de-duplicated; repeated permissioning appends again.
func (s *Service) AddTrustedAlgorithm(algo *DDO) {
	if s.Compute == nil {
		s.Compute = &ServicePrivacy{}
	}
	s.Compute.PublisherTrustedAlgorithms = append(
		s.Compute.PublisherTrustedAlgorithms,
		TrustedAlgorithm{DID: algo.ID},
	)
}

// AssetCreated is the result of an asset publication.
type AssetCreated struct {
	DID       string
	NFT       string // data NFT contract address
	Datatoken string // access token contract address
	TxHash    string
}

// DispenserStatus mirrors the dispenser contract's per-token state.
type DispenserStatus struct {
	Active    bool
	Owner     string
	MaxTokens string
}

// ExchangeDetails is the on-chain state of one fixed-rate exchange.
type ExchangeDetails struct {
	ExchangeID string
	Owner      string
	Datatoken  string
	BaseToken  string
	FixedRate  string
	Active     bool
}

// Environment is a provider-side compute execution context.
type Environment struct {
	ID              string `json:"id"`
	ChainID         int64  `json:"chainId"`
	ConsumerAddress string `json:"consumerAddress"`
	FeeToken        string `json:"feeToken,omitempty"`
	PriceMin        string `json:"priceMin,omitempty"`
}

// JobResult is one artifact listed in a finished job's status.
type JobResult struct {
	Filename string `json:"filename"`
	Type     string `json:"type"` // only "output" artifacts are retrieved
	Index    int    `json:"index"`
}

// JobStatus is the provider's view of a compute job.
type JobStatus struct {
	JobID      string      `json:"jobId"`
	Status     int         `json:"status"`
	StatusText string      `json:"statusText"`
	OK         bool        `json:"ok"`
	Results    []JobResult `json:"results"`
	DateFinish string      `json:"dateFinished"`
}

// Finished reports whether the provider considers the job terminal.
func (j *JobStatus) Finished() bool {
	return j.StatusText == "Job finished"
}

// ProviderFee is the fee attestation a provider returns when an order is
// initialized; it is forwarded verbatim into startOrder.
type ProviderFee struct {
	ProviderFeeAddress string `json:"providerFeeAddress"`
	ProviderFeeToken   string `json:"providerFeeToken"`
	ProviderFeeAmount  string `json:"providerFeeAmount"`
	V                  uint8  `json:"v"`
	R                  string `json:"r"`
	S                  string `json:"s"`
	ValidUntil         int64  `json:"validUntil"`
	ProviderData       string `json:"providerData"`
}

// Timestamp returns the metadata timestamp format used across the bridge.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
