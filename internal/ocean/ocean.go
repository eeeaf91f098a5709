// Package ocean provides the bridge's view of the Ocean Protocol
// marketplace: the Aquarius metadata cache, the compute/data provider, and
// the datatoken, dispenser, and fixed-rate exchange contracts.
package ocean

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrAssetNotFound means a DID failed to resolve. The metadata cache is
	// eventually consistent, so a resolve immediately after a publish may
	// legitimately return this.
	ErrAssetNotFound = errors.New("ocean: asset not found")

	// ErrAlreadyRegistered means the publish target URL is already claimed
	// by another asset. The pre-existing DID is carried alongside.
	ErrAlreadyRegistered = errors.New("ocean: already registered to another asset")
)

// AlreadyRegisteredError carries the DID of the conflicting asset so a
// publish can recover by resolving it instead of failing.
type AlreadyRegisteredError struct {
	DID string
}

func (e *AlreadyRegisteredError) Error() string {
	return "ocean: " + e.DID + " is already registered to another asset"
}

func (e *AlreadyRegisteredError) Is(target error) bool {
	return target == ErrAlreadyRegistered
}

// Resolver queries the metadata cache by DID.
type Resolver interface {
	Resolve(ctx context.Context, did string) (*DDO, error)
}

// PublishParams describes one asset creation.
type PublishParams struct {
	Name        string
	URL         string
	Metadata    Metadata
	WithCompute bool
}

// Publisher creates and updates on-chain asset representations.
type Publisher interface {
	CreateAsset(ctx context.Context, p PublishParams) (*AssetCreated, error)
	UpdateAsset(ctx context.Context, ddo *DDO) (string, error) // returns tx hash
}

// Pricing operates the two supported monetization mechanisms.
type Pricing interface {
	CreateDispenser(ctx context.Context, datatoken common.Address) error
	DispenserStatus(ctx context.Context, datatoken common.Address) (*DispenserStatus, error)
	Dispense(ctx context.Context, datatoken common.Address, amount *big.Int) (string, error)
	CreateExchange(ctx context.Context, datatoken common.Address, rate *big.Int) (string, error)
	ExchangeDetails(ctx context.Context, exchangeID string) (*ExchangeDetails, error)
	BuyDatatokens(ctx context.Context, exchangeID string, amount, maxBase *big.Int) error
}

// Tokens reads and approves ERC20 balances for arbitrary token contracts.
type Tokens interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) error
}

// ComputePayment is the result of paying for a dataset+algorithm pair.
type ComputePayment struct {
	DatasetOrderTx   string
	AlgorithmOrderTx string
}

// Compute manages the remote compute job lifecycle.
type Compute interface {
	Environments(ctx context.Context, serviceEndpoint string, chainID int64) ([]Environment, error)
	PayForCompute(ctx context.Context, data, algo *DDO, dataSvc, algoSvc *Service, env Environment, validUntil int64) (*ComputePayment, error)
	Start(ctx context.Context, data *DDO, dataSvc *Service, algo *DDO, payment *ComputePayment, env Environment) (string, error)
	Status(ctx context.Context, data *DDO, dataSvc *Service, jobID string) (*JobStatus, error)
	Result(ctx context.Context, data *DDO, dataSvc *Service, jobID string, index int) ([]byte, error)
}

// Access pays for and retrieves purchased data files.
type Access interface {
	PayForAccess(ctx context.Context, asset *DDO, svc *Service) (string, error) // returns order tx id
	Download(ctx context.Context, asset *DDO, svc *Service, orderTx, destDir string) (string, error)
}

// CalcDID derives an asset's DID deterministically from its data NFT
// address and the chain it was published on.
func CalcDID(nft common.Address, chainID int64) string {
	sum := sha256.Sum256([]byte(nft.Hex() + strconv.FormatInt(chainID, 10)))
	return "did:op:" + hex.EncodeToString(sum[:])
}
