package ocean

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eightballer/ocean-bridge/internal/chain"
)

// Provider is an HTTP client for an Ocean compute/data provider. Mutating
// endpoints are authenticated by signing a nonce+DID challenge with the
// session's funding key.
type Provider struct {
	session    *chain.Session
	httpClient *http.Client
}

// NewProvider creates a provider client bound to the session identity
func NewProvider(session *chain.Session) *Provider {
	return &Provider{
		session: session,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (p *Provider) consumer() string {
	return p.session.Address().Hex()
}

// nonce returns a strictly increasing request nonce
func (p *Provider) nonce() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

func (p *Provider) sign(parts ...string) (nonce, signature string, err error) {
	nonce = p.nonce()
	msg := strings.Join(parts, "") + nonce
	signature, err = p.session.SignMessage([]byte(msg))
	return nonce, signature, err
}

func (p *Provider) get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("ocean: invalid provider URL %q: %w", rawURL, err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("ocean: create provider request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocean: provider unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ocean: read provider response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ocean: provider returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (p *Provider) post(ctx context.Context, rawURL string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ocean: marshal provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ocean: create provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocean: provider unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ocean: read provider response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("ocean: provider returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// serviceRoot trims a service endpoint down to the provider root URL
func serviceRoot(serviceEndpoint string) string {
	return strings.TrimRight(serviceEndpoint, "/")
}

// Encrypt sends a plaintext document to the provider's encryption endpoint
// and returns the hex ciphertext to embed in a service's files field.
func (p *Provider) Encrypt(ctx context.Context, providerURL string, chainID int64, plaintext []byte) (string, error) {
	u := serviceRoot(providerURL) + "/api/services/encrypt?chainId=" + strconv.FormatInt(chainID, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(plaintext))
	if err != nil {
		return "", fmt.Errorf("ocean: create provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocean: provider unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ocean: read provider response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("ocean: provider returned %d: %s", resp.StatusCode, string(body))
	}
	return string(body), nil
}

// Environments lists the provider's compute environments for a chain
func (p *Provider) Environments(ctx context.Context, serviceEndpoint string, chainID int64) ([]Environment, error) {
	q := url.Values{}
	q.Set("chainId", strconv.FormatInt(chainID, 10))

	body, err := p.get(ctx, serviceRoot(serviceEndpoint)+"/api/services/computeEnvironments", q)
	if err != nil {
		return nil, err
	}

	var envs []Environment
	if err := json.Unmarshal(body, &envs); err != nil {
		return nil, fmt.Errorf("ocean: decode compute environments: %w", err)
	}
	return envs, nil
}

// InitializeOrder asks the provider for the fee attestation required to
// order the given service, optionally bound to a compute environment.
func (p *Provider) InitializeOrder(ctx context.Context, asset *DDO, svc *Service, environment string, validUntil int64) (*ProviderFee, error) {
	q := url.Values{}
	q.Set("documentId", asset.ID)
	q.Set("serviceId", svc.ID)
	q.Set("consumerAddress", p.consumer())
	if environment != "" {
		q.Set("environment", environment)
		q.Set("validUntil", strconv.FormatInt(validUntil, 10))
	}

	body, err := p.get(ctx, serviceRoot(svc.ServiceEndpoint)+"/api/services/initialize", q)
	if err != nil {
		return nil, err
	}

	var out struct {
		ProviderFee *ProviderFee `json:"providerFee"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("ocean: decode initialize response: %w", err)
	}
	if out.ProviderFee == nil {
		return nil, fmt.Errorf("ocean: provider returned no fee attestation for %s", asset.ID)
	}
	return out.ProviderFee, nil
}

// StartCompute schedules a job and returns the provider-assigned job id
func (p *Provider) StartCompute(ctx context.Context, data *DDO, dataSvc *Service, orderTx, algoDID, algoOrderTx, environment string) (string, error) {
	nonce, signature, err := p.sign(p.consumer(), data.ID)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"dataset": map[string]any{
			"documentId":   data.ID,
			"serviceId":    dataSvc.ID,
			"transferTxId": orderTx,
		},
		"algorithm": map[string]any{
			"documentId":   algoDID,
			"transferTxId": algoOrderTx,
		},
		"environment":     environment,
		"consumerAddress": p.consumer(),
		"nonce":           nonce,
		"signature":       signature,
	}

	body, err := p.post(ctx, serviceRoot(dataSvc.ServiceEndpoint)+"/api/services/compute", payload)
	if err != nil {
		return "", err
	}

	var jobs []struct {
		JobID string `json:"jobId"`
	}
	if err := json.Unmarshal(body, &jobs); err != nil {
		return "", fmt.Errorf("ocean: decode compute start response: %w", err)
	}
	if len(jobs) == 0 || jobs[0].JobID == "" {
		return "", fmt.Errorf("ocean: provider accepted the job but returned no job id")
	}
	return jobs[0].JobID, nil
}

// JobStatus fetches the provider's current view of a job
func (p *Provider) JobStatus(ctx context.Context, data *DDO, dataSvc *Service, jobID string) (*JobStatus, error) {
	nonce, signature, err := p.sign(p.consumer(), jobID)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("documentId", data.ID)
	q.Set("jobId", jobID)
	q.Set("consumerAddress", p.consumer())
	q.Set("nonce", nonce)
	q.Set("signature", signature)

	body, err := p.get(ctx, serviceRoot(dataSvc.ServiceEndpoint)+"/api/services/compute", q)
	if err != nil {
		return nil, err
	}

	// The provider returns a one-element list for a single job query.
	var statuses []JobStatus
	if err := json.Unmarshal(body, &statuses); err != nil {
		var single JobStatus
		if err2 := json.Unmarshal(body, &single); err2 != nil {
			return nil, fmt.Errorf("ocean: decode job status: %w", err)
		}
		return &single, nil
	}
	if len(statuses) == 0 {
		return nil, fmt.Errorf("ocean: provider has no status for job %s", jobID)
	}
	return &statuses[0], nil
}

// JobResult fetches one result artifact by index
func (p *Provider) JobResult(ctx context.Context, data *DDO, dataSvc *Service, jobID string, index int) ([]byte, error) {
	nonce, signature, err := p.sign(p.consumer(), jobID, strconv.Itoa(index))
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("jobId", jobID)
	q.Set("index", strconv.Itoa(index))
	q.Set("consumerAddress", p.consumer())
	q.Set("nonce", nonce)
	q.Set("signature", signature)

	return p.get(ctx, serviceRoot(dataSvc.ServiceEndpoint)+"/api/services/computeResult", q)
}

// DownloadFile streams a purchased file to destDir and returns its path
func (p *Provider) DownloadFile(ctx context.Context, asset *DDO, svc *Service, orderTx, destDir string) (string, error) {
	nonce, signature, err := p.sign(p.consumer(), asset.ID)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("documentId", asset.ID)
	q.Set("serviceId", svc.ID)
	q.Set("transferTxId", orderTx)
	q.Set("fileIndex", "0")
	q.Set("consumerAddress", p.consumer())
	q.Set("nonce", nonce)
	q.Set("signature", signature)

	body, err := p.get(ctx, serviceRoot(svc.ServiceEndpoint)+"/api/services/download", q)
	if err != nil {
		return "", err
	}

	return writeDownload(destDir, asset.ID, body)
}
