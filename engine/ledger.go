package engine

import (
	"github.com/google/uuid"

	"github.com/openlot-io/openlot/core"
)

// Ledger is the append-only record of every bid on one lot. It is the source
// of truth for the current leader and assigns the per-lot sequence numbers.
// It is not safe for concurrent use; the owning lot serializes access.
type Ledger struct {
	entries []core.Bid
	nextSeq int64
	placed  int // index of the single Placed entry, -1 when none
}

func NewLedger() *Ledger {
	return &Ledger{nextSeq: 1, placed: -1}
}

// NextSeq returns the sequence number the next appended row will receive.
func (l *Ledger) NextSeq() int64 { return l.nextSeq }

// Len returns the number of ledger rows.
func (l *Ledger) Len() int { return len(l.entries) }

// Placed returns a copy of the current leading bid, or nil.
func (l *Ledger) Placed() *core.Bid {
	if l.placed < 0 {
		return nil
	}
	bid := l.entries[l.placed]
	return &bid
}

// Bids returns a copy of all rows in sequence order.
func (l *Ledger) Bids() []core.Bid {
	out := make([]core.Bid, len(l.entries))
	copy(out, l.entries)
	return out
}

// ApplyBatch appends a pre-sequenced batch and crowns placedID as the single
// Placed row, superseding the previous leader and every other row in the
// batch. Batches are produced inside the lot actor with sequence numbers
// drawn from NextSeq, so appending them here keeps the per-lot total order.
func (l *Ledger) ApplyBatch(batch []core.Bid, placedID uuid.UUID) {
	if len(batch) == 0 {
		return
	}

	if l.placed >= 0 {
		l.entries[l.placed].Status = core.BidStatusSuperseded
		l.placed = -1
	}

	for _, bid := range batch {
		if bid.ID == placedID {
			bid.Status = core.BidStatusPlaced
		} else {
			bid.Status = core.BidStatusSuperseded
		}
		l.entries = append(l.entries, bid)
		if bid.Status == core.BidStatusPlaced {
			l.placed = len(l.entries) - 1
		}
		if bid.SequenceNumber >= l.nextSeq {
			l.nextSeq = bid.SequenceNumber + 1
		}
	}
}

// Invalidate marks a row invalidated (fraud, late arrival). If it was the
// leader, the lot has no placed bid until the next admission; callers must
// re-derive the current price.
func (l *Ledger) Invalidate(bidID uuid.UUID) bool {
	for i := range l.entries {
		if l.entries[i].ID == bidID {
			l.entries[i].Status = core.BidStatusInvalidated
			if l.placed == i {
				l.placed = -1
			}
			return true
		}
	}
	return false
}

// ProxyContenders returns the war contenders backed by live proxy ceilings,
// excluding any bid owned by excludeBidder (a bidder's own ceiling never bids
// against them). Superseded rows still contend: the ceiling survives the row.
// Each rival contributes at most one contender: a bidder who raised their own
// ceiling keeps only the highest, so their rows never duel each other.
func (l *Ledger) ProxyContenders(excludeBidder uuid.UUID) []core.Contender {
	out := make([]core.Contender, 0)
	byBidder := make(map[uuid.UUID]int)
	for i := range l.entries {
		e := &l.entries[i]
		if e.Kind != core.BidKindProxy {
			continue
		}
		if e.Status == core.BidStatusInvalidated || e.Status == core.BidStatusRetracted {
			continue
		}
		if e.BidderID == excludeBidder {
			continue
		}
		c := core.Contender{
			BidID:    e.ID,
			BidderID: e.BidderID,
			Amount:   e.Amount,
			Cap:      e.ProxyMax,
			Seq:      e.SequenceNumber,
			IsProxy:  true,
		}
		if j, ok := byBidder[e.BidderID]; ok {
			// Equal ceilings keep the earlier row so the
			// first-registered tie-break stands.
			if c.Cap.GreaterThan(out[j].Cap) {
				out[j] = c
			}
			continue
		}
		byBidder[e.BidderID] = len(out)
		out = append(out, c)
	}
	return out
}

// HasBidFrom reports whether the bidder holds any non-invalidated bid of the
// given kind. Used for pre-bid gating.
func (l *Ledger) HasBidFrom(bidder uuid.UUID, kind core.BidKind) bool {
	for i := range l.entries {
		e := &l.entries[i]
		if e.BidderID == bidder && e.Kind == kind &&
			e.Status != core.BidStatusInvalidated && e.Status != core.BidStatusRetracted {
			return true
		}
	}
	return false
}
