package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BidKind discriminates the bid variants. The resolver and admission logic
// switch on it explicitly rather than relying on field presence.
type BidKind string

const (
	// BidKindPreBid is placed before a lot goes live and seeds its opening price.
	BidKindPreBid BidKind = "pre_bid"
	// BidKindLive is a plain bid on the active lot.
	BidKindLive BidKind = "live"
	// BidKindProxy carries a hidden ceiling (ProxyMax) the system bids up to.
	BidKindProxy BidKind = "proxy"
	// BidKindAutoGenerated is emitted by the proxy resolver on behalf of a proxy bid.
	BidKindAutoGenerated BidKind = "auto_generated"
)

// BidStatus tracks a bid after placement. Bids are immutable once placed
// except for this field.
type BidStatus string

const (
	BidStatusPlaced      BidStatus = "placed"
	BidStatusSuperseded  BidStatus = "superseded"
	BidStatusInvalidated BidStatus = "invalidated"
	BidStatusRetracted   BidStatus = "retracted"
)

// LotCondition is the per-lot lifecycle state. Transitions are one-directional
// except PreAuction<->ReadyForAuction during pre-bid collection.
type LotCondition string

const (
	LotPreAuction      LotCondition = "pre_auction"
	LotReadyForAuction LotCondition = "ready_for_auction"
	LotLiveAuction     LotCondition = "live_auction"
	LotEnded           LotCondition = "ended"
	LotSold            LotCondition = "sold"
	LotUnsold          LotCondition = "unsold"
)

// Bid represents a single bid record in a lot's ledger.
type Bid struct {
	ID       uuid.UUID `json:"id"`
	LotID    uuid.UUID `json:"lot_id"`
	BidderID uuid.UUID `json:"bidder_id"`

	Amount decimal.Decimal `json:"amount"`
	Kind   BidKind         `json:"kind"`
	Status BidStatus       `json:"status"`

	// ProxyMax is the bidder's hidden ceiling. Only meaningful when Kind is
	// BidKindProxy; it must never be exposed through read paths except to its
	// own owner.
	ProxyMax decimal.Decimal `json:"-"`

	// SequenceNumber is assigned by the ledger, strictly increasing per lot.
	// It is the sole ordering and tie-break key.
	SequenceNumber int64 `json:"sequence_number"`

	// ParentBidID points at the originating proxy bid for auto-generated bids.
	ParentBidID *uuid.UUID `json:"parent_bid_id,omitempty"`

	PlacedAt time.Time `json:"placed_at"`
}

// EffectiveCap returns the highest amount this bid can reach on its own:
// the hidden ceiling for proxy bids, the placed amount for everything else.
func (b *Bid) EffectiveCap() decimal.Decimal {
	if b.Kind == BidKindProxy && b.ProxyMax.GreaterThan(b.Amount) {
		return b.ProxyMax
	}
	return b.Amount
}

// Outcome is the winner decision produced exactly once when a lot finalizes.
type Outcome struct {
	LotID      uuid.UUID       `json:"lot_id"`
	Sold       bool            `json:"sold"`
	WinningBid *Bid            `json:"winning_bid,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	ReserveMet bool            `json:"reserve_met"`
	// UnsoldReason is set only when Sold is false.
	UnsoldReason string `json:"unsold_reason,omitempty"`
}

// Unsold reasons surfaced to the settlement collaborator.
const (
	UnsoldReasonReserveNotMet    = "reserve not met"
	UnsoldReasonNoBids           = "no bids"
	UnsoldReasonAuctionCancelled = "auction cancelled"
)
