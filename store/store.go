package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openlot-io/openlot/core"
	"github.com/openlot-io/openlot/engineapi"
)

// Store persists the logical auction state: auction and lot records, the
// append-only bid ledger, the per-lot sequence counter and finalize outcomes.
// The engine writes through it inside the lot serialization boundary; a write
// failure aborts the whole operation, so implementations must not apply
// partial batches.
type Store interface {
	SaveAuction(ctx context.Context, rec AuctionRecord) error
	SaveLot(ctx context.Context, rec LotRecord) error
	// AppendBids atomically appends a batch of ledger rows and advances the
	// lot's sequence counter to the batch's last sequence number.
	AppendBids(ctx context.Context, lotID uuid.UUID, bids []core.Bid) error
	SaveOutcome(ctx context.Context, out core.Outcome) error

	LoadBids(ctx context.Context, lotID uuid.UUID) ([]core.Bid, error)

	Close() error
}

// AuctionRecord is the persisted form of an auction.
type AuctionRecord struct {
	ID               uuid.UUID               `cbor:"id"`
	Title            string                  `cbor:"title"`
	Status           engineapi.AuctionStatus `cbor:"status"`
	StartTime        time.Time               `cbor:"start_time"`
	EndTime          time.Time               `cbor:"end_time"`
	TimerSeconds     int                     `cbor:"timer_seconds"`
	CurrentLotNumber *int                    `cbor:"current_lot_number,omitempty"`
	ExtendedCount    int                     `cbor:"extended_count"`
}

// LotRecord is the persisted form of a lot, reserve price included.
type LotRecord struct {
	ID            uuid.UUID         `cbor:"id"`
	AuctionID     uuid.UUID         `cbor:"auction_id"`
	CarID         uuid.UUID         `cbor:"car_id"`
	LotNumber     int               `cbor:"lot_number"`
	Condition     core.LotCondition `cbor:"condition"`
	StartPrice    string            `cbor:"start_price"`
	ReservePrice  string            `cbor:"reserve_price"`
	MinPreBid     string            `cbor:"min_pre_bid"`
	CurrentPrice  string            `cbor:"current_price"`
	BidCount      int               `cbor:"bid_count"`
	PreBidCount   int               `cbor:"pre_bid_count"`
	LastBidTime   *time.Time        `cbor:"last_bid_time,omitempty"`
	IsActive      bool              `cbor:"is_active"`
	ExtendedCount int               `cbor:"extended_count"`
}

// bidRecord is the persisted form of a ledger row. Monetary fields travel as
// canonical decimal strings so the codec stays representation-independent.
type bidRecord struct {
	ID             uuid.UUID      `cbor:"id"`
	LotID          uuid.UUID      `cbor:"lot_id"`
	BidderID       uuid.UUID      `cbor:"bidder_id"`
	Amount         string         `cbor:"amount"`
	Kind           core.BidKind   `cbor:"kind"`
	Status         core.BidStatus `cbor:"status"`
	ProxyMax       string         `cbor:"proxy_max,omitempty"`
	SequenceNumber int64          `cbor:"sequence_number"`
	ParentBidID    *uuid.UUID     `cbor:"parent_bid_id,omitempty"`
	PlacedAt       time.Time      `cbor:"placed_at"`
}

func toBidRecord(b core.Bid) bidRecord {
	rec := bidRecord{
		ID:             b.ID,
		LotID:          b.LotID,
		BidderID:       b.BidderID,
		Amount:         b.Amount.String(),
		Kind:           b.Kind,
		Status:         b.Status,
		SequenceNumber: b.SequenceNumber,
		ParentBidID:    b.ParentBidID,
		PlacedAt:       b.PlacedAt,
	}
	if b.Kind == core.BidKindProxy {
		rec.ProxyMax = b.ProxyMax.String()
	}
	return rec
}

func fromBidRecord(rec bidRecord) (core.Bid, error) {
	amount, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		return core.Bid{}, err
	}
	bid := core.Bid{
		ID:             rec.ID,
		LotID:          rec.LotID,
		BidderID:       rec.BidderID,
		Amount:         amount,
		Kind:           rec.Kind,
		Status:         rec.Status,
		SequenceNumber: rec.SequenceNumber,
		ParentBidID:    rec.ParentBidID,
		PlacedAt:       rec.PlacedAt,
	}
	if rec.ProxyMax != "" {
		if bid.ProxyMax, err = decimal.NewFromString(rec.ProxyMax); err != nil {
			return core.Bid{}, err
		}
	}
	return bid, nil
}
