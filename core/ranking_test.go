package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func ledgerBid(bidder uuid.UUID, seq int64, amount int64, status BidStatus) Bid {
	return Bid{
		ID:             uuid.New(),
		LotID:          uuid.New(),
		BidderID:       bidder,
		Amount:         d(amount),
		Kind:           BidKindLive,
		Status:         status,
		SequenceNumber: seq,
	}
}

func TestRankLotBids_OrdersByAmountThenSequence(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	bids := []Bid{
		ledgerBid(alice, 1, 5000, BidStatusSuperseded),
		ledgerBid(bob, 2, 5200, BidStatusSuperseded),
		ledgerBid(alice, 3, 5400, BidStatusSuperseded),
		ledgerBid(carol, 4, 5400, BidStatusSuperseded), // same amount, later seq
		ledgerBid(bob, 5, 5600, BidStatusPlaced),
	}

	result := RankLotBids(bids)

	assert.Equal(t, 3, len(result.SortedBidders))
	check.Equal(t, bob, result.SortedBidders[0])
	check.Equal(t, alice, result.SortedBidders[1]) // 5400 at seq 3 beats 5400 at seq 4
	check.Equal(t, carol, result.SortedBidders[2])
	check.Equal(t, 1, result.Ranks[bob])
	check.True(t, result.BestBids[bob].Amount.Equal(d(5600)))
	check.True(t, result.BestBids[alice].Amount.Equal(d(5400)))
}

func TestRankLotBids_ExcludesInvalidatedAndRetracted(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	bids := []Bid{
		ledgerBid(alice, 1, 9000, BidStatusInvalidated),
		ledgerBid(bob, 2, 5000, BidStatusPlaced),
		ledgerBid(alice, 3, 8000, BidStatusRetracted),
	}

	result := RankLotBids(bids)

	assert.Equal(t, 1, len(result.SortedBidders))
	check.Equal(t, bob, result.SortedBidders[0])
}

func TestRankLotBids_Empty(t *testing.T) {
	result := RankLotBids(nil)

	check.NotEqual(t, nil, result)
	check.Equal(t, 0, len(result.SortedBidders))
	check.Equal(t, 0, len(result.Ranks))
}

func TestDetermineWinner_ReserveMet(t *testing.T) {
	lotID := uuid.New()
	bob := uuid.New()
	bids := []Bid{
		ledgerBid(bob, 1, 10000, BidStatusPlaced),
	}

	out := DetermineWinner(lotID, bids, d(10000), d(10000))

	check.True(t, out.Sold)
	check.True(t, out.ReserveMet)
	assert.NotEqual(t, nil, out.WinningBid)
	check.Equal(t, bob, out.WinningBid.BidderID)
	check.True(t, out.Amount.Equal(d(10000)))
}

func TestDetermineWinner_ReserveNotMet(t *testing.T) {
	lotID := uuid.New()
	bids := []Bid{
		ledgerBid(uuid.New(), 1, 9500, BidStatusPlaced),
	}

	out := DetermineWinner(lotID, bids, d(9500), d(10000))

	check.False(t, out.Sold)
	check.False(t, out.ReserveMet)
	check.Equal(t, UnsoldReasonReserveNotMet, out.UnsoldReason)
	// The placed bid is still reported so the ranked list can seed a
	// second-chance offer downstream.
	check.NotEqual(t, nil, out.WinningBid)
}

func TestDetermineWinner_NoReserve(t *testing.T) {
	lotID := uuid.New()
	bids := []Bid{
		ledgerBid(uuid.New(), 1, 5200, BidStatusPlaced),
	}

	out := DetermineWinner(lotID, bids, d(5200), decimal.Zero)

	check.True(t, out.Sold)
	check.True(t, out.ReserveMet)
}

func TestDetermineWinner_NoBids(t *testing.T) {
	lotID := uuid.New()

	out := DetermineWinner(lotID, nil, d(4000), d(5000))

	check.False(t, out.Sold)
	check.Equal(t, UnsoldReasonNoBids, out.UnsoldReason)
}

func TestComputeBidFingerprint_Deterministic(t *testing.T) {
	bid := ledgerBid(uuid.New(), 7, 5600, BidStatusPlaced)

	first := ComputeBidFingerprint(&bid)
	second := ComputeBidFingerprint(&bid)

	check.Equal(t, first, second)
	check.Equal(t, 64, len(first))

	other := bid
	other.SequenceNumber = 8
	check.NotEqual(t, first, ComputeBidFingerprint(&other))
}
