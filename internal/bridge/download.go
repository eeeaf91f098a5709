package bridge

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eightballer/ocean-bridge/internal/logging"
	"github.com/eightballer/ocean-bridge/internal/message"
	"github.com/eightballer/ocean-bridge/internal/ocean"
	"github.com/eightballer/ocean-bridge/internal/wei"
)

// purchase acquires enough datatokens for the requested amount, pays for
// access (or reuses a prior order), downloads the file, and returns its
// bytes. Payment failures exhaust the retry bound and propagate; the
// workflow never restarts itself.
func (s *Service) purchase(ctx context.Context, r *message.Purchase) (*message.Response, error) {
	amount, ok := wei.Parse(r.DatatokenAmt)
	if !ok {
		return nil, fmt.Errorf("bridge: unparseable datatoken amount %q", r.DatatokenAmt)
	}
	datatoken := common.HexToAddress(r.DatatokenAddress)

	asset, err := s.resolveAsset(ctx, r.AssetDID)
	if err != nil {
		return nil, err
	}
	svc, err := asset.ServiceByType(ocean.ServiceAccess)
	if err != nil {
		return nil, &NotFoundError{Kind: "access service on asset", ID: r.AssetDID, Err: err}
	}

	if err := s.ensureBalance(ctx, r, datatoken, amount); err != nil {
		return nil, err
	}

	orderTx := r.OrderTxID
	if orderTx == "" {
		err = s.withRetry(ctx, "pay_for_access", defaultAttempts, func() error {
			tx, err := s.deps.Access.PayForAccess(ctx, asset, svc)
			if err != nil {
				return err
			}
			orderTx = tx
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.emit(EventTxSubmitted, map[string]any{"tx": orderTx, "did": r.AssetDID})
	} else {
		logging.L(ctx).Info("reusing prior order", "order_tx", orderTx, "did", r.AssetDID)
	}

	path, err := s.deps.Access.Download(ctx, asset, svc, orderTx, s.downloadDir)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bridge: read downloaded file %q: %w", path, err)
	}

	logging.L(ctx).Info("asset downloaded",
		"did", r.AssetDID,
		"path", path,
		"bytes", len(content))
	return message.NewResultsResponse(content), nil
}

// ensureBalance tops up the caller's datatoken balance when it is below
// the requested amount, via the exchange if one was named and the free
// dispenser otherwise.
func (s *Service) ensureBalance(ctx context.Context, r *message.Purchase, datatoken common.Address, amount *big.Int) error {
	balance, err := s.deps.Tokens.BalanceOf(ctx, datatoken, s.owner)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) >= 0 {
		return nil
	}

	mechanism := "dispenser"
	if r.UsesExchange() {
		mechanism = "exchange"
	}
	logging.L(ctx).Info("balance below requested amount, acquiring datatokens",
		"datatoken", r.DatatokenAddress,
		"balance", wei.Format(balance),
		"requested", r.DatatokenAmt,
		"mechanism", mechanism)

	if r.UsesExchange() {
		maxCost, _ := wei.Parse(r.MaxCostOcean)
		return s.buyFromExchange(ctx, r.ExchangeID, amount, maxCost)
	}
	return s.dispenseTokens(ctx, datatoken, amount)
}
