package keystore

import (
	"math/big"
	"strings"
)

// formatUnits renders amount, expressed in the smallest unit, as a decimal string
func formatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals <= 0 {
		return amount.String()
	}

	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	s := new(big.Rat).SetFrac(amount, denom).FloatString(decimals)

	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// parseQuantity accepts a 0x-prefixed hex or a decimal integer. Empty means zero.
func parseQuantity(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), true
	}
	return new(big.Int).SetString(s, 0)
}
