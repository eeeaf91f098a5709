package ocean

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Aquarius is an HTTP client for the Ocean metadata cache. The cache indexes
// published assets asynchronously, so Resolve may return ErrAssetNotFound
// for a short window after a publish succeeds on-chain.
type Aquarius struct {
	baseURL    string
	httpClient *http.Client
}

// NewAquarius creates a metadata cache client
func NewAquarius(baseURL string) *Aquarius {
	return &Aquarius{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

var _ Resolver = (*Aquarius)(nil)

// Resolve fetches the DDO for a DID from the cache
func (a *Aquarius) Resolve(ctx context.Context, did string) (*DDO, error) {
	url := a.baseURL + "/api/aquarius/assets/ddo/" + did

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ocean: create resolve request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocean: metadata cache unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, did)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ocean: metadata cache returned %d: %s", resp.StatusCode, string(body))
	}

	var ddo DDO
	if err := json.NewDecoder(resp.Body).Decode(&ddo); err != nil {
		return nil, fmt.Errorf("ocean: decode DDO for %s: %w", did, err)
	}

	return &ddo, nil
}
