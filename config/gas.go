package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// exponent of each supported denomination relative to wei
var units = map[string]int32{
	"wei":    0,
	"kwei":   3,
	"mwei":   6,
	"gwei":   9,
	"szabo":  12,
	"finney": 15,
	"ether":  18,
}

// ParseGasPrice converts an amount such as "210gwei", "1.5 gwei" or "30000000000"
// into wei. A bare number is read as wei.
func ParseGasPrice(s string) (*big.Int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, fmt.Errorf("gas price is empty")
	}

	number, exp := s, int32(0)
	for unit, e := range units {
		if strings.HasSuffix(s, unit) {
			candidate := strings.TrimSpace(strings.TrimSuffix(s, unit))
			// "gwei" also ends with "wei", keep the longest match
			if len(candidate) < len(number) {
				number, exp = candidate, e
			}
		}
	}

	amount, err := decimal.NewFromString(number)
	if err != nil {
		return nil, fmt.Errorf("invalid gas price %q: %w", s, err)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("gas price must not be negative: %s", s)
	}

	wei := amount.Shift(exp)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("gas price %s is not a whole number of wei", s)
	}
	return wei.BigInt(), nil
}

// FormatGwei renders a wei amount in gwei for display
func FormatGwei(wei *big.Int) string {
	if wei == nil {
		return "0 gwei"
	}
	return decimal.NewFromBigInt(wei, -9).String() + " gwei"
}
