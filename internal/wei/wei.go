// Package wei provides shared token amount parsing and formatting utilities.
//
// Ocean datatokens and the OCEAN base token both use 18 decimal places. All
// amounts are carried as big.Int in the smallest unit (1 token = 10^18 wei).
package wei

import (
	"math/big"
	"strings"
)

const Decimals = 18

// FromUnits converts a whole-token count (e.g. a datatoken_amt of 3) to its
// base-unit representation (3 * 10^18).
func FromUnits(units int64) *big.Int {
	w := big.NewInt(units)
	return w.Mul(w, new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil))
}

// Parse converts a decimal string (e.g. "1.5") to its base-unit big.Int
// representation (1500000000000000000). Returns (nil, false) on invalid input.
//
// Rules:
//   - Empty string returns (0, true)
//   - Negative amounts are rejected
//   - Multiple decimal points are rejected
//   - Fractional parts are padded/truncated to 18 decimal places
func Parse(s string) (*big.Int, bool) {
	if s == "" {
		return big.NewInt(0), true
	}

	if strings.HasPrefix(s, "-") {
		return nil, false
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return nil, false
	}
	whole := parts[0]
	frac := ""
	if len(parts) > 1 {
		frac = parts[1]
	}

	for len(frac) < Decimals {
		frac += "0"
	}
	frac = frac[:Decimals]

	combined := whole + frac
	result, ok := new(big.Int).SetString(combined, 10)
	return result, ok
}

// Format converts a base-unit big.Int to a human-readable decimal string,
// trimming trailing fractional zeros (e.g. "1.5", "0.01", "3").
func Format(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)
	s := abs.String()
	for len(s) < Decimals+1 {
		s = "0" + s
	}
	decimal := len(s) - Decimals
	frac := strings.TrimRight(s[decimal:], "0")
	result := s[:decimal]
	if frac != "" {
		result += "." + frac
	}
	if neg {
		result = "-" + result
	}
	return result
}
