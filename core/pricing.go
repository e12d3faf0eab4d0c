package core

import (
	"github.com/shopspring/decimal"
)

// Default pricing factors applied to a listing's estimated retail value when
// the listing service does not supply explicit prices. Reserve is always at
// least the start price.
var (
	defaultStartFactor   = decimal.NewFromFloat(0.70)
	defaultReserveFactor = decimal.NewFromFloat(0.85)
)

// LotPricing carries the monetary inputs a lot is created with.
type LotPricing struct {
	StartPrice   decimal.Decimal `json:"start_price"`
	ReservePrice decimal.Decimal `json:"reserve_price"`
	MinPreBid    decimal.Decimal `json:"min_pre_bid"`
}

// DeriveLotPricing computes start and reserve prices from an estimated retail
// value. Explicit non-zero overrides win over derived values.
func DeriveLotPricing(estimatedRetailValue decimal.Decimal, overrides LotPricing) LotPricing {
	p := overrides

	if !p.StartPrice.IsPositive() && estimatedRetailValue.IsPositive() {
		p.StartPrice = estimatedRetailValue.Mul(defaultStartFactor).Round(monetaryPrecision)
	}
	if !p.ReservePrice.IsPositive() && estimatedRetailValue.IsPositive() {
		p.ReservePrice = estimatedRetailValue.Mul(defaultReserveFactor).Round(monetaryPrecision)
	}

	// Reserve may never undercut the start price.
	if p.ReservePrice.IsPositive() && p.ReservePrice.LessThan(p.StartPrice) {
		p.ReservePrice = p.StartPrice
	}

	if !p.MinPreBid.IsPositive() {
		p.MinPreBid = p.StartPrice
	}

	return p
}
