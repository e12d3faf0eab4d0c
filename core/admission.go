package core

import (
	"github.com/shopspring/decimal"
)

// RejectReason is the machine-readable code returned to a bidder whose bid
// was not admitted. Bidders always see an immediate accept/reject; there are
// no silent drops.
type RejectReason string

const (
	RejectNone              RejectReason = ""
	RejectLotNotBiddable    RejectReason = "lot_not_biddable"
	RejectAuctionNotRunning RejectReason = "auction_not_running"
	RejectBelowIncrement    RejectReason = "below_min_increment"
	RejectBelowMinPreBid    RejectReason = "below_min_pre_bid"
	RejectPreBidRequired    RejectReason = "pre_bid_required"
	RejectProxyMaxTooLow    RejectReason = "proxy_max_below_amount"
	RejectInvalidAmount     RejectReason = "invalid_amount"
	RejectInvalidKind       RejectReason = "invalid_kind"
	RejectTooLate           RejectReason = "too_late"
)

// AdmissionInput is the snapshot of lot state a bid is validated against.
// The caller is responsible for reading it inside the lot's serialization
// boundary so the snapshot is consistent.
type AdmissionInput struct {
	Condition    LotCondition
	CurrentPrice decimal.Decimal
	MinIncrement decimal.Decimal
	MinPreBid    decimal.Decimal

	// RequirePreBid gates live/proxy bids to bidders holding a qualifying
	// pre-bid on the lot.
	RequirePreBid bool
	// BidderHasPreBid reports whether this bidder holds such a pre-bid.
	BidderHasPreBid bool

	Kind     BidKind
	Amount   decimal.Decimal
	ProxyMax decimal.Decimal
}

// Decision is the synchronous result of bid admission.
type Decision struct {
	Accepted bool
	Reason   RejectReason
}

func accept() Decision                    { return Decision{Accepted: true} }
func reject(reason RejectReason) Decision { return Decision{Reason: reason} }

// AdmitBid validates an incoming bid against the lot snapshot. It is a pure
// function: the engine invokes it inside the lot actor and applies the
// side effects (sequence assignment, supersede, price update) on acceptance.
func AdmitBid(in AdmissionInput) Decision {
	if !in.Amount.IsPositive() {
		return reject(RejectInvalidAmount)
	}

	switch in.Kind {
	case BidKindPreBid:
		// Pre-bids are admitted only before the lot goes live.
		if in.Condition != LotReadyForAuction {
			return reject(RejectLotNotBiddable)
		}
		if in.Amount.LessThan(in.MinPreBid.Round(monetaryPrecision)) {
			return reject(RejectBelowMinPreBid)
		}
		// Pre-bids compete with each other: each must top the running best.
		if in.CurrentPrice.IsPositive() && !MeetsIncrement(in.Amount, in.CurrentPrice, in.MinIncrement) {
			return reject(RejectBelowIncrement)
		}
		return accept()

	case BidKindLive, BidKindProxy:
		if in.Condition != LotLiveAuction {
			return reject(RejectLotNotBiddable)
		}
		if in.RequirePreBid && !in.BidderHasPreBid {
			return reject(RejectPreBidRequired)
		}
		if !MeetsIncrement(in.Amount, in.CurrentPrice, in.MinIncrement) {
			return reject(RejectBelowIncrement)
		}
		if in.Kind == BidKindProxy && in.ProxyMax.LessThan(in.Amount) {
			return reject(RejectProxyMaxTooLow)
		}
		return accept()

	default:
		// Auto-generated bids are synthesized by the resolver, never admitted
		// from the outside.
		return reject(RejectInvalidKind)
	}
}
