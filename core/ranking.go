package core

import (
	"sort"

	"github.com/google/uuid"
)

// RankingResult contains the ranked bidders and their best bids for one lot.
// Rank 1 is the leader; the tail of SortedBidders is the candidate order for
// a second-chance offer downstream.
type RankingResult struct {
	Ranks         map[uuid.UUID]int  `json:"ranks"`
	BestBids      map[uuid.UUID]*Bid `json:"best_bids"`
	SortedBidders []uuid.UUID        `json:"sorted_bidders"`
}

// RankLotBids ranks a lot's ledger by bidder. Invalidated and retracted bids
// are excluded. Each bidder is represented by their best bid (highest amount,
// then lowest sequence number); bidders are ordered by amount descending with
// sequence number as the sole tie-break, so the ranking is a pure function of
// the ledger.
func RankLotBids(bids []Bid) *RankingResult {
	result := &RankingResult{
		Ranks:         make(map[uuid.UUID]int),
		BestBids:      make(map[uuid.UUID]*Bid),
		SortedBidders: make([]uuid.UUID, 0),
	}
	if len(bids) == 0 {
		return result
	}

	// Best bid per bidder.
	best := make(map[uuid.UUID]*Bid)
	for i := range bids {
		bid := &bids[i]
		if bid.Status == BidStatusInvalidated || bid.Status == BidStatusRetracted {
			continue
		}
		existing, ok := best[bid.BidderID]
		if !ok || bid.Amount.GreaterThan(existing.Amount) ||
			(bid.Amount.Equal(existing.Amount) && bid.SequenceNumber < existing.SequenceNumber) {
			best[bid.BidderID] = bid
		}
	}

	entries := make([]*Bid, 0, len(best))
	for _, bid := range best {
		entries = append(entries, bid)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Amount.Equal(entries[j].Amount) {
			return entries[i].Amount.GreaterThan(entries[j].Amount)
		}
		return entries[i].SequenceNumber < entries[j].SequenceNumber
	})

	result.SortedBidders = make([]uuid.UUID, len(entries))
	for rank, bid := range entries {
		result.Ranks[bid.BidderID] = rank + 1
		result.BestBids[bid.BidderID] = bid
		result.SortedBidders[rank] = bid.BidderID
	}

	return result
}

// PlacedBid returns the single bid with status Placed, or nil. The ledger
// maintains the invariant that at most one exists per lot and that it carries
// the maximum amount among placed bids.
func PlacedBid(bids []Bid) *Bid {
	for i := range bids {
		if bids[i].Status == BidStatusPlaced {
			return &bids[i]
		}
	}
	return nil
}
