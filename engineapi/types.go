package engineapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openlot-io/openlot/core"
)

// AuctionStatus is the auction-level lifecycle state.
type AuctionStatus string

const (
	AuctionDraft           AuctionStatus = "draft"
	AuctionReadyForPreBids AuctionStatus = "ready_for_pre_bids"
	AuctionScheduled       AuctionStatus = "scheduled"
	AuctionRunning         AuctionStatus = "running"
	AuctionEnded           AuctionStatus = "ended"
	AuctionCancelled       AuctionStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s AuctionStatus) Terminal() bool {
	return s == AuctionEnded || s == AuctionCancelled
}

// CreateAuctionRequest opens a new auction in Draft.
type CreateAuctionRequest struct {
	Title        string    `json:"title"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	TimerSeconds int       `json:"timer_seconds,omitempty"`
}

// AddLotRequest attaches a car to a Draft auction. Pricing inputs come from
// the listing service; zero values are derived from the estimated retail
// value.
type AddLotRequest struct {
	AuctionID            uuid.UUID       `json:"auction_id"`
	CarID                uuid.UUID       `json:"car_id"`
	EstimatedRetailValue decimal.Decimal `json:"estimated_retail_value"`
	StartPrice           decimal.Decimal `json:"start_price,omitempty"`
	ReservePrice         decimal.Decimal `json:"reserve_price,omitempty"`
	MinPreBid            decimal.Decimal `json:"min_pre_bid,omitempty"`
}

// PlaceBidRequest submits a bid on a lot. ProxyMax is required for proxy
// bids and ignored otherwise.
type PlaceBidRequest struct {
	LotID    uuid.UUID       `json:"lot_id"`
	BidderID uuid.UUID       `json:"bidder_id"`
	Kind     core.BidKind    `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
	ProxyMax decimal.Decimal `json:"proxy_max,omitempty"`
}

// PlaceBidResponse is the synchronous accept/reject answer to a bid. On
// acceptance it reports the settled state after any proxy war.
type PlaceBidResponse struct {
	Accepted bool              `json:"accepted"`
	Reason   core.RejectReason `json:"reason,omitempty"`

	BidID          uuid.UUID       `json:"bid_id,omitempty"`
	SequenceNumber int64           `json:"sequence_number,omitempty"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	LeadingBidder  uuid.UUID       `json:"leading_bidder,omitempty"`
	// WarSteps counts the auto-generated counter-bids triggered by this bid.
	WarSteps int        `json:"war_steps,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// LotSnapshot is the public view of a lot. The reserve price itself is
// confidential; only IsReserveMet is exposed.
type LotSnapshot struct {
	ID        uuid.UUID `json:"id"`
	AuctionID uuid.UUID `json:"auction_id"`
	CarID     uuid.UUID `json:"car_id"`
	LotNumber int       `json:"lot_number"`

	Condition core.LotCondition `json:"condition"`

	StartPrice   decimal.Decimal `json:"start_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	MinPreBid    decimal.Decimal `json:"min_pre_bid"`
	IsReserveMet bool            `json:"is_reserve_met"`

	BidCount    int `json:"bid_count"`
	PreBidCount int `json:"pre_bid_count"`

	LastBidTime   *time.Time `json:"last_bid_time,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	IsActive      bool       `json:"is_active"`
	ExtendedCount int        `json:"extended_count"`

	Outcome *core.Outcome `json:"outcome,omitempty"`
}

// AuctionSnapshot is the public view of an auction and its lot queue.
type AuctionSnapshot struct {
	ID     uuid.UUID     `json:"id"`
	Title  string        `json:"title"`
	Status AuctionStatus `json:"status"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	TimerSeconds     int  `json:"timer_seconds"`
	CurrentLotNumber *int `json:"current_lot_number,omitempty"`
	ExtendedCount    int  `json:"extended_count"`

	Lots []LotSnapshot `json:"lots"`
}

// BidHistoryEntry is one sequenced ledger row, as served to history and
// analytics consumers. ProxyMax is redacted except for the owner's own bids.
type BidHistoryEntry struct {
	ID             uuid.UUID       `json:"id"`
	BidderID       uuid.UUID       `json:"bidder_id"`
	Amount         decimal.Decimal `json:"amount"`
	Kind           core.BidKind    `json:"kind"`
	Status         core.BidStatus  `json:"status"`
	SequenceNumber int64           `json:"sequence_number"`
	ParentBidID    *uuid.UUID      `json:"parent_bid_id,omitempty"`
	PlacedAt       time.Time       `json:"placed_at"`

	// ProxyMax is populated only when the history is requested by the bid's
	// own bidder.
	ProxyMax *decimal.Decimal `json:"proxy_max,omitempty"`

	// Fingerprint is the audit hash of the ledger row.
	Fingerprint string `json:"fingerprint"`
}

// SettlementNotice is the handoff emitted to the downstream winner/payment
// collaborator when a lot finalizes.
type SettlementNotice struct {
	LotID        uuid.UUID       `json:"lot_id"`
	WinningBidID *uuid.UUID      `json:"winning_bid_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	ReserveMet   bool            `json:"reserve_met"`
	UnsoldReason string          `json:"unsold_reason,omitempty"`
}
