package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/openlot-io/openlot/core"
)

func ledgerBid(lot, bidder uuid.UUID, amount int64, kind core.BidKind, seq int64) core.Bid {
	return core.Bid{
		ID:             uuid.New(),
		LotID:          lot,
		BidderID:       bidder,
		Amount:         decimal.NewFromInt(amount),
		Kind:           kind,
		SequenceNumber: seq,
	}
}

func TestLedger_ApplyBatch_CrownsSinglePlaced(t *testing.T) {
	lot := uuid.New()
	l := NewLedger()

	b1 := ledgerBid(lot, uuid.New(), 400, core.BidKindLive, l.NextSeq())
	l.ApplyBatch([]core.Bid{b1}, b1.ID)

	placed := l.Placed()
	assert.NotNil(t, placed)
	check.Equal(t, b1.ID, placed.ID)
	check.Equal(t, int64(2), l.NextSeq())

	b2 := ledgerBid(lot, uuid.New(), 500, core.BidKindLive, l.NextSeq())
	l.ApplyBatch([]core.Bid{b2}, b2.ID)

	placed = l.Placed()
	check.Equal(t, b2.ID, placed.ID)

	rows := l.Bids()
	assert.Equal(t, 2, len(rows))
	check.Equal(t, core.BidStatusSuperseded, rows[0].Status)
	check.Equal(t, core.BidStatusPlaced, rows[1].Status)
}

func TestLedger_ApplyBatch_WarBatchPlacesLastStep(t *testing.T) {
	lot := uuid.New()
	l := NewLedger()

	proxy := ledgerBid(lot, uuid.New(), 450, core.BidKindProxy, l.NextSeq())
	proxy.ProxyMax = decimal.NewFromInt(800)
	l.ApplyBatch([]core.Bid{proxy}, proxy.ID)

	live := ledgerBid(lot, uuid.New(), 500, core.BidKindLive, l.NextSeq())
	counter := ledgerBid(lot, proxy.BidderID, 550, core.BidKindAutoGenerated, live.SequenceNumber+1)
	counter.ParentBidID = &proxy.ID
	l.ApplyBatch([]core.Bid{live, counter}, counter.ID)

	placed := l.Placed()
	assert.NotNil(t, placed)
	check.Equal(t, counter.ID, placed.ID)
	check.Equal(t, int64(4), l.NextSeq())

	rows := l.Bids()
	assert.Equal(t, 3, len(rows))
	check.Equal(t, core.BidStatusSuperseded, rows[0].Status)
	check.Equal(t, core.BidStatusSuperseded, rows[1].Status)
	check.Equal(t, core.BidStatusPlaced, rows[2].Status)
}

func TestLedger_Invalidate(t *testing.T) {
	lot := uuid.New()
	l := NewLedger()

	b := ledgerBid(lot, uuid.New(), 400, core.BidKindLive, l.NextSeq())
	l.ApplyBatch([]core.Bid{b}, b.ID)

	check.True(t, l.Invalidate(b.ID))
	check.Nil(t, l.Placed())
	check.Equal(t, core.BidStatusInvalidated, l.Bids()[0].Status)

	check.False(t, l.Invalidate(uuid.New()))
}

func TestLedger_ProxyContenders(t *testing.T) {
	lot := uuid.New()
	me := uuid.New()
	rival := uuid.New()
	l := NewLedger()

	mine := ledgerBid(lot, me, 450, core.BidKindProxy, l.NextSeq())
	mine.ProxyMax = decimal.NewFromInt(600)
	l.ApplyBatch([]core.Bid{mine}, mine.ID)

	theirs := ledgerBid(lot, rival, 500, core.BidKindProxy, l.NextSeq())
	theirs.ProxyMax = decimal.NewFromInt(800)
	l.ApplyBatch([]core.Bid{theirs}, theirs.ID)

	bad := ledgerBid(lot, uuid.New(), 550, core.BidKindProxy, l.NextSeq())
	bad.ProxyMax = decimal.NewFromInt(900)
	l.ApplyBatch([]core.Bid{bad}, bad.ID)
	l.Invalidate(bad.ID)

	// My own ceiling never bids against me; the invalidated proxy is out.
	// The superseded rival proxy still contends at its full ceiling.
	contenders := l.ProxyContenders(me)
	assert.Equal(t, 1, len(contenders))
	check.Equal(t, theirs.ID, contenders[0].BidID)
	check.True(t, contenders[0].Cap.Equal(decimal.NewFromInt(800)))
	check.True(t, contenders[0].IsProxy)
}

func TestLedger_ProxyContenders_OneCeilingPerBidder(t *testing.T) {
	lot := uuid.New()
	rival := uuid.New()
	l := NewLedger()

	first := ledgerBid(lot, rival, 450, core.BidKindProxy, l.NextSeq())
	first.ProxyMax = decimal.NewFromInt(2000)
	l.ApplyBatch([]core.Bid{first}, first.ID)

	// The rival raises their own ceiling; the superseded row must not
	// come back as a second contender bidding against the new one.
	raised := ledgerBid(lot, rival, 500, core.BidKindProxy, l.NextSeq())
	raised.ProxyMax = decimal.NewFromInt(3000)
	l.ApplyBatch([]core.Bid{raised}, raised.ID)

	contenders := l.ProxyContenders(uuid.New())
	assert.Equal(t, 1, len(contenders))
	check.Equal(t, raised.ID, contenders[0].BidID)
	check.True(t, contenders[0].Cap.Equal(decimal.NewFromInt(3000)))
}

func TestLedger_HasBidFrom(t *testing.T) {
	lot := uuid.New()
	bidder := uuid.New()
	l := NewLedger()

	pre := ledgerBid(lot, bidder, 300, core.BidKindPreBid, l.NextSeq())
	l.ApplyBatch([]core.Bid{pre}, pre.ID)

	check.True(t, l.HasBidFrom(bidder, core.BidKindPreBid))
	check.False(t, l.HasBidFrom(bidder, core.BidKindLive))
	check.False(t, l.HasBidFrom(uuid.New(), core.BidKindPreBid))

	l.Invalidate(pre.ID)
	check.False(t, l.HasBidFrom(bidder, core.BidKindPreBid))
}
