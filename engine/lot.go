package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openlot-io/openlot/core"
	"github.com/openlot-io/openlot/engineapi"
	"github.com/openlot-io/openlot/store"
)

// Lot is one car in an auction's queue, together with its ledger and timer.
// All mutation happens under mu: admission, proxy resolution and finalize
// never interleave for the same lot, which is the no-lost-update boundary
// the whole engine rests on.
type Lot struct {
	mu sync.Mutex

	ID        uuid.UUID
	AuctionID uuid.UUID
	CarID     uuid.UUID
	LotNumber int

	Condition core.LotCondition
	Pricing   core.LotPricing

	CurrentPrice decimal.Decimal
	BidCount     int
	PreBidCount  int

	IsActive bool
	Outcome  *core.Outcome

	timer  lotTimer
	ledger *Ledger
}

func newLot(auctionID, carID uuid.UUID, lotNumber int, pricing core.LotPricing) *Lot {
	return &Lot{
		ID:           uuid.New(),
		AuctionID:    auctionID,
		CarID:        carID,
		LotNumber:    lotNumber,
		Condition:    core.LotPreAuction,
		Pricing:      pricing,
		CurrentPrice: pricing.StartPrice,
		ledger:       NewLedger(),
	}
}

// snapshot builds the public view. Caller holds l.mu.
func (l *Lot) snapshotLocked(cfg TimerConfig) engineapi.LotSnapshot {
	snap := engineapi.LotSnapshot{
		ID:            l.ID,
		AuctionID:     l.AuctionID,
		CarID:         l.CarID,
		LotNumber:     l.LotNumber,
		Condition:     l.Condition,
		StartPrice:    l.Pricing.StartPrice,
		CurrentPrice:  l.CurrentPrice,
		MinPreBid:     l.Pricing.MinPreBid,
		IsReserveMet:  core.MeetsReserve(l.CurrentPrice, l.Pricing.ReservePrice) && l.BidCount > 0,
		BidCount:      l.BidCount,
		PreBidCount:   l.PreBidCount,
		IsActive:      l.IsActive,
		ExtendedCount: l.timer.extendedCount,
		Outcome:       l.Outcome,
	}
	if !l.timer.lastBidTime.IsZero() {
		t := l.timer.lastBidTime
		snap.LastBidTime = &t
		if l.Condition == core.LotLiveAuction {
			d := l.timer.deadline(cfg)
			snap.Deadline = &d
		}
	}
	return snap
}

// record builds the persistence record. Caller holds l.mu.
func (l *Lot) recordLocked() store.LotRecord {
	rec := store.LotRecord{
		ID:            l.ID,
		AuctionID:     l.AuctionID,
		CarID:         l.CarID,
		LotNumber:     l.LotNumber,
		Condition:     l.Condition,
		StartPrice:    l.Pricing.StartPrice.String(),
		ReservePrice:  l.Pricing.ReservePrice.String(),
		MinPreBid:     l.Pricing.MinPreBid.String(),
		CurrentPrice:  l.CurrentPrice.String(),
		BidCount:      l.BidCount,
		PreBidCount:   l.PreBidCount,
		IsActive:      l.IsActive,
		ExtendedCount: l.timer.extendedCount,
	}
	if !l.timer.lastBidTime.IsZero() {
		t := l.timer.lastBidTime
		rec.LastBidTime = &t
	}
	return rec
}

// history builds the redacted ledger view. ProxyMax is disclosed only on the
// requesting bidder's own rows. Caller holds l.mu.
func (l *Lot) historyLocked(viewer uuid.UUID) []engineapi.BidHistoryEntry {
	bids := l.ledger.Bids()
	out := make([]engineapi.BidHistoryEntry, 0, len(bids))
	for i := range bids {
		b := &bids[i]
		entry := engineapi.BidHistoryEntry{
			ID:             b.ID,
			BidderID:       b.BidderID,
			Amount:         b.Amount,
			Kind:           b.Kind,
			Status:         b.Status,
			SequenceNumber: b.SequenceNumber,
			ParentBidID:    b.ParentBidID,
			PlacedAt:       b.PlacedAt,
			Fingerprint:    core.ComputeBidFingerprint(b),
		}
		if b.Kind == core.BidKindProxy && b.BidderID == viewer {
			max := b.ProxyMax
			entry.ProxyMax = &max
		}
		out = append(out, entry)
	}
	return out
}

// activate moves the lot to LiveAuction and seeds the opening price: the
// highest pre-bid if one beats the start price, otherwise the start price.
// Caller holds l.mu.
func (l *Lot) activateLocked(now time.Time) {
	l.Condition = core.LotLiveAuction
	l.IsActive = true
	if placed := l.ledger.Placed(); placed != nil {
		l.CurrentPrice = core.MaxDecimal(l.Pricing.StartPrice, placed.Amount)
	} else {
		l.CurrentPrice = l.Pricing.StartPrice
	}
	l.timer.start(now)
}

// finalize stamps the terminal condition and outcome. Caller holds l.mu.
func (l *Lot) finalizeLocked(out core.Outcome) {
	l.Outcome = &out
	l.IsActive = false
	if out.Sold {
		l.Condition = core.LotSold
	} else {
		l.Condition = core.LotUnsold
	}
}
