// Package chain handles transaction construction, signing, and confirmation
// for the Ocean bridge's funding account.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/eightballer/ocean-bridge/internal/metrics"
)

// -----------------------------------------------------------------------------
// Errors - typed errors for programmatic handling
// -----------------------------------------------------------------------------

var (
	ErrInvalidPrivateKey = errors.New("chain: invalid private key")
	ErrRPCConnection     = errors.New("chain: RPC connection failed")
	ErrTxReverted        = errors.New("chain: transaction reverted")
	ErrTimeout           = errors.New("chain: operation timed out")
)

// TxError wraps transaction failures with context
type TxError struct {
	Op     string // Operation that failed
	TxHash string // Transaction hash if available
	Err    error  // Underlying error
}

func (e *TxError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("chain: %s failed (tx: %s): %v", e.Op, e.TxHash, e.Err)
	}
	return fmt.Sprintf("chain: %s failed: %v", e.Op, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

// -----------------------------------------------------------------------------
// Interfaces
// -----------------------------------------------------------------------------

// EthClient abstracts go-ethereum client for testing
type EthClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Close()
}

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	// DefaultGasLimit when estimation fails
	DefaultGasLimit = uint64(3_000_000)

	// DefaultConfirmationTimeout for waiting on transactions
	DefaultConfirmationTimeout = 120 * time.Second

	// ConfirmationPollInterval between receipt checks
	ConfirmationPollInterval = 2 * time.Second

	// FeeMarketConfirmations is the confirmation depth required on
	// fee-market networks before a transaction counts as final
	FeeMarketConfirmations = 3
)

// -----------------------------------------------------------------------------
// Types
// -----------------------------------------------------------------------------

// Config for creating a new session
type Config struct {
	RPCURL      string
	PrivateKey  string // Hex string, with or without 0x prefix
	ChainID     int64
	NetworkName string
	FeeMarket   bool // EIP-1559 fee pricing
}

// Option configures the session
type Option func(*Session)

// WithClient sets a custom Ethereum client (useful for testing)
func WithClient(client EthClient) Option {
	return func(s *Session) {
		s.client = client
	}
}

// TxParams carries the sender identity and, on fee-market networks, the
// fee figures for the next transaction. Computed fresh per mutating call.
type TxParams struct {
	From        common.Address
	PriorityFee *big.Int // nil on plain networks
	MaxFee      *big.Int // nil on plain networks
}

// Session binds the active network and the funding account. Created at
// connect time, read-only thereafter.
type Session struct {
	client      EthClient
	privateKey  *ecdsa.PrivateKey
	address     common.Address
	chainID     *big.Int
	networkName string
	feeMarket   bool
}

// NewSession creates a session for the configured network and signing key
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: failed to derive public key", ErrInvalidPrivateKey)
	}

	s := &Session{
		privateKey:  privateKey,
		address:     crypto.PubkeyToAddress(*publicKey),
		chainID:     big.NewInt(cfg.ChainID),
		networkName: cfg.NetworkName,
		feeMarket:   cfg.FeeMarket,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Connect to RPC if no client provided
	if s.client == nil {
		client, err := ethclient.Dial(cfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRPCConnection, err)
		}
		s.client = client
	}

	return s, nil
}

func validateConfig(cfg Config) error {
	if cfg.RPCURL == "" {
		return fmt.Errorf("%w: RPC URL required", ErrRPCConnection)
	}
	if cfg.PrivateKey == "" {
		return fmt.Errorf("%w: private key required", ErrInvalidPrivateKey)
	}
	key := strings.TrimPrefix(cfg.PrivateKey, "0x")
	if len(key) != 64 {
		return fmt.Errorf("%w: must be 64 hex characters", ErrInvalidPrivateKey)
	}
	if cfg.ChainID == 0 {
		return fmt.Errorf("chain ID required")
	}
	return nil
}

// Address returns the funding account's address
func (s *Session) Address() common.Address {
	return s.address
}

// ChainID returns the active network's chain id
func (s *Session) ChainID() int64 {
	return s.chainID.Int64()
}

// NetworkName returns the active network's name
func (s *Session) NetworkName() string {
	return s.networkName
}

// TxParams computes the parameter set for the next transaction. On a plain
// network this is just the sender. On a fee-market network it additionally
// carries a priority fee and max fee derived from current chain state:
// max_fee = base_fee + 2 * priority_fee. Pure read, submits nothing.
func (s *Session) TxParams(ctx context.Context) (*TxParams, error) {
	params := &TxParams{From: s.address}
	if !s.feeMarket {
		return params, nil
	}

	tip, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to fetch priority fee: %w", err)
	}

	header, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to fetch latest header: %w", err)
	}
	if header.BaseFee == nil {
		return nil, fmt.Errorf("chain: network %s reports no base fee", s.networkName)
	}

	params.PriorityFee = tip
	params.MaxFee = new(big.Int).Add(header.BaseFee, new(big.Int).Mul(big.NewInt(2), tip))
	return params, nil
}

// Call executes a read-only contract call
func (s *Session) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return s.client.CallContract(ctx, ethereum.CallMsg{
		From: s.address,
		To:   &to,
		Data: data,
	}, nil)
}

// Submit signs and sends a mutating contract call, then blocks until the
// transaction is confirmed. Fee parameters are resolved fresh via TxParams.
func (s *Session) Submit(ctx context.Context, to common.Address, data []byte) (*types.Receipt, error) {
	params, err := s.TxParams(ctx)
	if err != nil {
		return nil, &TxError{Op: "params", Err: err}
	}

	nonce, err := s.client.PendingNonceAt(ctx, s.address)
	if err != nil {
		return nil, &TxError{Op: "nonce", Err: err}
	}

	gasLimit, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.address,
		To:    &to,
		Value: big.NewInt(0),
		Data:  data,
	})
	if err != nil {
		// Use default if estimation fails
		gasLimit = DefaultGasLimit
	}

	var tx *types.Transaction
	if s.feeMarket {
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   s.chainID,
			Nonce:     nonce,
			GasTipCap: params.PriorityFee,
			GasFeeCap: params.MaxFee,
			Gas:       gasLimit,
			To:        &to,
			Value:     big.NewInt(0),
			Data:      data,
		})
	} else {
		gasPrice, err := s.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, &TxError{Op: "gas_price", Err: err}
		}
		tx = types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)
	}

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.privateKey)
	if err != nil {
		return nil, &TxError{Op: "sign", Err: err}
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		metrics.TransactionsTotal.WithLabelValues("send_failed").Inc()
		return nil, &TxError{Op: "send", TxHash: signedTx.Hash().Hex(), Err: err}
	}

	receipt, err := s.WaitMined(ctx, signedTx.Hash(), DefaultConfirmationTimeout)
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.TransactionsTotal.WithLabelValues("confirmed").Inc()
	return receipt, nil
}

// WaitMined blocks until the transaction is included and, on fee-market
// networks, buried under the required confirmation depth.
func (s *Session) WaitMined(ctx context.Context, hash common.Hash, timeout time.Duration) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(ConfirmationPollInterval)
	defer ticker.Stop()

	var receipt *types.Receipt
	for receipt == nil {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: waiting for tx %s", ErrTimeout, hash.Hex())
			}
			return nil, ctx.Err()

		case <-ticker.C:
			r, err := s.client.TransactionReceipt(ctx, hash)
			if err != nil {
				// Transaction not yet mined, continue waiting
				continue
			}
			if r.Status == 0 {
				return nil, &TxError{Op: "confirm", TxHash: hash.Hex(), Err: ErrTxReverted}
			}
			receipt = r
		}
	}

	confirmations := uint64(1)
	if s.feeMarket {
		confirmations = FeeMarketConfirmations
	}
	target := receipt.BlockNumber.Uint64() + confirmations - 1

	for {
		head, err := s.client.BlockNumber(ctx)
		if err == nil && head >= target {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: waiting for confirmations of tx %s", ErrTimeout, hash.Hex())
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// SignMessage signs an arbitrary provider challenge with the funding key
// using the Ethereum personal-message scheme. Returns a 0x-prefixed
// 65-byte signature.
func (s *Session) SignMessage(msg []byte) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash(msg), s.privateKey)
	if err != nil {
		return "", fmt.Errorf("chain: failed to sign message: %w", err)
	}
	// Shift recovery id to the Ethereum convention.
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// Close closes the client connection
func (s *Session) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
