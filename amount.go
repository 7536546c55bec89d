package fetcch

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// ToBaseUnits converts a reference price into the integer base-unit amount of
// the chain's token, e.g. 0.00000196 on an 18-decimal chain becomes
// "1960000000000". Fractions below one base unit are truncated toward zero.
//
// Returns ErrInvalidAmount for negative prices.
func ToBaseUnits(price decimal.Decimal, chain ChainDescriptor) (string, error) {
	if price.IsNegative() {
		return "", fmt.Errorf("%w: price must be non-negative, got %s", ErrInvalidAmount, price)
	}

	units := price.Shift(int32(chain.Decimals)).BigInt()
	return units.String(), nil
}

// ToBaseUnitsFloat is ToBaseUnits for prices held as float64. The float is
// read through its shortest decimal representation, so 0.00000196 converts
// exactly instead of picking up binary rounding noise.
//
// Returns ErrInvalidAmount for NaN, infinite or negative prices.
func ToBaseUnitsFloat(price float64, chain ChainDescriptor) (string, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return "", fmt.Errorf("%w: price must be finite", ErrInvalidAmount)
	}
	return ToBaseUnits(decimal.NewFromFloat(price), chain)
}

// ParsePrice parses a human readable price such as "0.00000196".
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: price must be non-negative, got %s", ErrInvalidAmount, s)
	}
	return d, nil
}

// FromBaseUnits converts a base-unit amount back into a token amount.
// For example, "1500000" with 6 decimals becomes 1.5.
func FromBaseUnits(amount string, decimals uint8) (decimal.Decimal, error) {
	units, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q is not an integer", ErrInvalidAmount, amount)
	}
	return decimal.NewFromBigInt(units, -int32(decimals)), nil
}

// FormatAmount renders a price with the chain's token symbol, e.g. "0.00000196 ETH".
func FormatAmount(price decimal.Decimal, chain ChainDescriptor) string {
	return price.String() + " " + chain.Symbol
}
