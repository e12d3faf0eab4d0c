package core

import (
	"github.com/shopspring/decimal"
)

const monetaryPrecision int32 = 2 // 2 decimal places for vehicle prices (0.01 precision)

// MeetsIncrement returns true if amount clears the current price by at least
// one minimum increment. Uses decimal arithmetic with monetaryPrecision to
// avoid floating-point errors.
func MeetsIncrement(amount, currentPrice, minIncrement decimal.Decimal) bool {
	required := currentPrice.Add(minIncrement).Round(monetaryPrecision)
	return amount.Round(monetaryPrecision).GreaterThanOrEqual(required)
}

// MeetsReserve returns true if price meets or exceeds the reserve.
// An unset (non-positive) reserve always passes.
func MeetsReserve(price, reservePrice decimal.Decimal) bool {
	if !reservePrice.IsPositive() {
		return true
	}
	return price.Round(monetaryPrecision).GreaterThanOrEqual(reservePrice.Round(monetaryPrecision))
}

// NextAsk returns the lowest admissible live bid given the current price.
func NextAsk(currentPrice, minIncrement decimal.Decimal) decimal.Decimal {
	return currentPrice.Add(minIncrement).Round(monetaryPrecision)
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// MaxDecimal returns the larger of a and b.
func MaxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
