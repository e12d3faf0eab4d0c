package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openlot-io/openlot/core"
	"github.com/openlot-io/openlot/engineapi"
	"github.com/openlot-io/openlot/store"
)

var (
	// ErrNotFound is returned for unknown auction or lot identifiers.
	ErrNotFound = errors.New("not found")
	// ErrStateConflict is returned when an operation is not legal in the
	// current lifecycle state. Duplicate invocations of an already-applied
	// transition are no-ops, not conflicts.
	ErrStateConflict = errors.New("state conflict")
	// ErrValidation is returned for malformed requests.
	ErrValidation = errors.New("validation")
)

// AuctionConfig is the per-auction bidding policy.
type AuctionConfig struct {
	Timer         TimerConfig
	MinIncrement  decimal.Decimal
	RequirePreBid bool
}

// Auction owns the auction-level lifecycle and the ordered lot queue. The
// mutex serializes status transitions and queue advancement; per-lot bidding
// runs under the lot's own lock so unrelated lots never contend here.
type Auction struct {
	mu sync.Mutex

	ID    uuid.UUID
	Title string

	Status    engineapi.AuctionStatus
	StartTime time.Time
	EndTime   time.Time

	Config AuctionConfig

	// CurrentLotNumber is non-nil iff the auction is Running and a lot is
	// active. Written only by the progression path.
	CurrentLotNumber *int
	ExtendedCount    int

	// interrupted is raised by cancel before the status flips, so a proxy
	// war running under a lot lock can observe it without taking a.mu.
	interrupted atomic.Bool

	lots []*Lot
}

func newAuction(req engineapi.CreateAuctionRequest, cfg AuctionConfig) *Auction {
	if req.TimerSeconds > 0 {
		cfg.Timer.TimerSeconds = req.TimerSeconds
	}
	return &Auction{
		ID:        uuid.New(),
		Title:     req.Title,
		Status:    engineapi.AuctionDraft,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		Config:    cfg,
	}
}

// addLotLocked attaches a lot in queue order. Lots can only be added while
// the auction is in Draft.
func (a *Auction) addLotLocked(carID uuid.UUID, pricing core.LotPricing) (*Lot, error) {
	if a.Status != engineapi.AuctionDraft {
		return nil, fmt.Errorf("%w: lots can only be added in draft, auction is %s", ErrStateConflict, a.Status)
	}
	lot := newLot(a.ID, carID, len(a.lots)+1, pricing)
	a.lots = append(a.lots, lot)
	return lot, nil
}

// lotByNumberLocked returns the lot with the given queue number.
func (a *Auction) lotByNumberLocked(n int) *Lot {
	for _, l := range a.lots {
		if l.LotNumber == n {
			return l
		}
	}
	return nil
}

// nextReadyLotLocked scans the queue in lot-number order for the next lot
// still awaiting its turn.
func (a *Auction) nextReadyLotLocked() *Lot {
	sort.Slice(a.lots, func(i, j int) bool { return a.lots[i].LotNumber < a.lots[j].LotNumber })
	for _, l := range a.lots {
		if l.Condition == core.LotReadyForAuction {
			return l
		}
	}
	return nil
}

// Transition guards. Each returns whether the transition was applied; an
// already-applied transition is reported as a no-op so duplicate scheduler
// ticks stay harmless.

func (a *Auction) markReadyLocked() (bool, error) {
	if a.Status == engineapi.AuctionReadyForPreBids {
		return false, nil
	}
	if a.Status != engineapi.AuctionDraft {
		return false, fmt.Errorf("%w: cannot open pre-bids from %s", ErrStateConflict, a.Status)
	}
	if len(a.lots) == 0 {
		return false, fmt.Errorf("%w: auction has no lots", ErrValidation)
	}
	a.Status = engineapi.AuctionReadyForPreBids
	for _, l := range a.lots {
		l.mu.Lock()
		if l.Condition == core.LotPreAuction {
			l.Condition = core.LotReadyForAuction
		}
		l.mu.Unlock()
	}
	return true, nil
}

func (a *Auction) scheduleLocked(now time.Time) (bool, error) {
	if a.Status == engineapi.AuctionScheduled {
		return false, nil
	}
	if a.Status != engineapi.AuctionReadyForPreBids {
		return false, fmt.Errorf("%w: cannot schedule from %s", ErrStateConflict, a.Status)
	}
	if !a.StartTime.After(now) {
		return false, fmt.Errorf("%w: start time %s is not in the future", ErrValidation, a.StartTime)
	}
	a.Status = engineapi.AuctionScheduled
	return true, nil
}

func (a *Auction) startLocked(now time.Time) (bool, error) {
	if a.Status == engineapi.AuctionRunning {
		return false, nil
	}
	if a.Status != engineapi.AuctionScheduled {
		return false, fmt.Errorf("%w: cannot start from %s", ErrStateConflict, a.Status)
	}
	if now.Before(a.StartTime) {
		return false, fmt.Errorf("%w: start time %s not reached", ErrStateConflict, a.StartTime)
	}
	a.Status = engineapi.AuctionRunning
	return true, nil
}

func (a *Auction) endLocked() bool {
	if a.Status != engineapi.AuctionRunning {
		return false
	}
	a.Status = engineapi.AuctionEnded
	a.CurrentLotNumber = nil
	return true
}

func (a *Auction) cancelLocked() (bool, error) {
	if a.Status == engineapi.AuctionCancelled {
		return false, nil
	}
	if a.Status == engineapi.AuctionEnded {
		return false, fmt.Errorf("%w: auction already ended", ErrStateConflict)
	}
	a.Status = engineapi.AuctionCancelled
	a.CurrentLotNumber = nil
	return true, nil
}

// snapshotLocked builds the public view, lots included.
func (a *Auction) snapshotLocked() engineapi.AuctionSnapshot {
	snap := engineapi.AuctionSnapshot{
		ID:               a.ID,
		Title:            a.Title,
		Status:           a.Status,
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		TimerSeconds:     a.Config.Timer.TimerSeconds,
		CurrentLotNumber: a.CurrentLotNumber,
		ExtendedCount:    a.ExtendedCount,
	}
	sort.Slice(a.lots, func(i, j int) bool { return a.lots[i].LotNumber < a.lots[j].LotNumber })
	for _, l := range a.lots {
		l.mu.Lock()
		snap.Lots = append(snap.Lots, l.snapshotLocked(a.Config.Timer))
		l.mu.Unlock()
	}
	return snap
}

func (a *Auction) recordLocked() store.AuctionRecord {
	return store.AuctionRecord{
		ID:               a.ID,
		Title:            a.Title,
		Status:           a.Status,
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		TimerSeconds:     a.Config.Timer.TimerSeconds,
		CurrentLotNumber: a.CurrentLotNumber,
		ExtendedCount:    a.ExtendedCount,
	}
}
