package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eightballer/ocean-bridge/internal/logging"
	"github.com/eightballer/ocean-bridge/internal/message"
	"github.com/eightballer/ocean-bridge/internal/wei"
)

// defaultMaxCost bounds exchange purchases when the caller supplies no
// explicit cap: 100 OCEAN in base units.
var defaultMaxCost = wei.FromUnits(100)

func (s *Service) createDispenser(ctx context.Context, r *message.CreateDispenser) (*message.Response, error) {
	datatoken := common.HexToAddress(r.DatatokenAddress)

	err := s.withRetry(ctx, "create_dispenser", defaultAttempts, func() error {
		return s.deps.Pricing.CreateDispenser(ctx, datatoken)
	})
	if err != nil {
		return nil, err
	}

	status, err := s.deps.Pricing.DispenserStatus(ctx, datatoken)
	if err != nil {
		return nil, err
	}
	logging.L(ctx).Info("dispenser created",
		"datatoken", r.DatatokenAddress,
		"active", status.Active)

	return message.NewDispenserResponse(message.DispenserReceipt{
		DatatokenAddress: r.DatatokenAddress,
		DispenserStatus:  status.Active,
		HasPricingSchema: true,
	}), nil
}

func (s *Service) createExchange(ctx context.Context, r *message.CreateExchange) (*message.Response, error) {
	datatoken := common.HexToAddress(r.DatatokenAddress)
	rate, ok := wei.Parse(r.Rate)
	if !ok {
		return nil, fmt.Errorf("bridge: unparseable rate %q", r.Rate)
	}
	oceanAmt, ok := wei.Parse(r.OceanAmt)
	if !ok {
		return nil, fmt.Errorf("bridge: unparseable ocean amount %q", r.OceanAmt)
	}

	// Approval gates creation: creation must not run if the spend grant
	// fails. Only the creation step is wrapped in retry.
	if err := s.deps.Tokens.Approve(ctx, s.addrs.OceanToken, s.addrs.FixedRateExchange, oceanAmt); err != nil {
		return nil, err
	}

	var exchangeID string
	err := s.withRetry(ctx, "create_exchange", defaultAttempts, func() error {
		id, err := s.deps.Pricing.CreateExchange(ctx, datatoken, rate)
		if err != nil {
			return err
		}
		exchangeID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.L(ctx).Info("fixed-rate exchange created",
		"datatoken", r.DatatokenAddress,
		"exchange_id", exchangeID,
		"rate", r.Rate)

	return message.NewExchangeResponse(message.ExchangeReceipt{
		ExchangeID:       exchangeID,
		HasPricingSchema: true,
	}), nil
}

// buyFromExchange acquires datatokens through the fixed-rate exchange.
// Detail resolution, both approvals, and the swap run as one retried unit:
// a failure anywhere restarts from the top rather than resuming.
func (s *Service) buyFromExchange(ctx context.Context, exchangeID string, amount, maxCost *big.Int) error {
	if maxCost == nil || maxCost.Sign() == 0 {
		maxCost = defaultMaxCost
	}

	return s.withRetry(ctx, "buy_datatokens", defaultAttempts, func() error {
		details, err := s.deps.Pricing.ExchangeDetails(ctx, exchangeID)
		if err != nil {
			return err
		}
		datatoken := common.HexToAddress(details.Datatoken)

		if err := s.deps.Tokens.Approve(ctx, datatoken, s.addrs.FixedRateExchange, amount); err != nil {
			return err
		}
		if err := s.deps.Tokens.Approve(ctx, s.addrs.OceanToken, s.addrs.FixedRateExchange, maxCost); err != nil {
			return err
		}
		return s.deps.Pricing.BuyDatatokens(ctx, exchangeID, amount, maxCost)
	})
}

// dispenseTokens requests amount datatokens, in base units, from the free
// dispenser.
func (s *Service) dispenseTokens(ctx context.Context, datatoken common.Address, amount *big.Int) error {
	return s.withRetry(ctx, "dispense", defaultAttempts, func() error {
		tx, err := s.deps.Pricing.Dispense(ctx, datatoken, amount)
		if err != nil {
			return err
		}
		s.emit(EventTxSubmitted, map[string]any{"tx": tx, "datatoken": datatoken.Hex()})
		return nil
	})
}
