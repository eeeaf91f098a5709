package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ERC20 minimal ABI for approvals and balance checks
const erc20ABI = `[
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

var parsedERC20ABI abi.ABI

func init() {
	var err error
	parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic("chain: invalid ERC20 ABI: " + err.Error())
	}
}

// Token is a minimal ERC20 binding for the session account. The OCEAN base
// token and every datatoken expose this surface.
type Token struct {
	session *Session
	address common.Address
}

// NewToken binds an ERC20 contract to the session
func NewToken(session *Session, address common.Address) *Token {
	return &Token{session: session, address: address}
}

// Address returns the token contract address
func (t *Token) Address() common.Address {
	return t.address
}

// BalanceOf returns the token balance of an address in base units
func (t *Token) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	data, err := parsedERC20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to pack balanceOf call: %w", err)
	}

	result, err := t.session.Call(ctx, t.address, data)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to call balanceOf on %s: %w", t.address.Hex(), err)
	}

	return new(big.Int).SetBytes(result), nil
}

// Allowance returns the spend approved from owner to spender in base units
func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	data, err := parsedERC20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to pack allowance call: %w", err)
	}

	result, err := t.session.Call(ctx, t.address, data)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to call allowance on %s: %w", t.address.Hex(), err)
	}

	return new(big.Int).SetBytes(result), nil
}

// Approve authorizes spender for amount and blocks until confirmed
func (t *Token) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	data, err := parsedERC20ABI.Pack("approve", spender, amount)
	if err != nil {
		return nil, &TxError{Op: "approve_pack", Err: err}
	}
	return t.session.Submit(ctx, t.address, data)
}
