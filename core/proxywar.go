package core

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contender is one participant in a proxy bidding war: either the freshly
// admitted bid (the current leader) or a live proxy bid on the same lot.
type Contender struct {
	BidID    uuid.UUID
	BidderID uuid.UUID

	// Amount is the contender's currently placed amount.
	Amount decimal.Decimal
	// Cap is the effective capacity: the hidden ceiling for proxy bids, the
	// placed amount for plain bids. Never exposed outside the resolver.
	Cap decimal.Decimal
	// Seq is the contender's originating sequence number; lower wins ties.
	Seq int64
	// IsProxy marks contenders backed by a hidden ceiling. Plain bids cannot
	// be tie-matched: a proxy must strictly exceed them to take the lead.
	IsProxy bool
}

// WarStep is one automatic counter-bid emitted during resolution. Each step
// is persisted as its own sequenced ledger row so the full war history stays
// auditable.
type WarStep struct {
	// ParentBidID is the proxy bid this counter acts on behalf of.
	ParentBidID uuid.UUID
	BidderID    uuid.UUID
	Amount      decimal.Decimal
}

// WarResult is the settled outcome of a proxy war.
type WarResult struct {
	Steps []WarStep

	// Leader identifies the contender holding the lot after resolution.
	Leader Contender
	// FinalPrice is the settled price: second-highest effective capacity plus
	// one increment, clamped to the leader's own ceiling. Equals the admitted
	// amount when no war took place.
	FinalPrice decimal.Decimal
	// Aborted is true when the abort hook stopped the war early (lot cancelled
	// mid-resolution). Steps already settled are still returned.
	Aborted bool
}

// maxWarSteps bounds a single resolution; with a fixed increment the duel is
// strictly ascending and terminates long before this.
const maxWarSteps = 10000

// ResolveProxyWar runs the ascending-proxy duel, generalised to N competitors.
//
// leader is the bid that was just admitted (already the placed leader at its
// own amount). rivals are all other placed-eligible proxy bids on the lot.
// abort, if non-nil, is consulted before each step; when it reports true the
// war stops and whatever settled so far is returned with Aborted set.
//
// Each round the challenger is the rival with the highest cap still able to
// contest the lead (cap ties go to the lowest sequence number). It counters
// at min(cap, leaderAmount + minIncrement) and takes the lead; a displaced
// proxy with remaining headroom counters in a later round. Two proxies with
// identical ceilings settle in favour of the one registered first: it matches
// the amount and the tie goes to the lower sequence number. A plain bid is
// never tie-matched; a proxy must strictly exceed it. The war ends when no
// rival can contest the leader within its own cap.
//
// The first-registered-wins tie-break is a documented guarantee, not
// incidental behaviour; ledger sequence numbers are the sole ordering key.
func ResolveProxyWar(leader Contender, rivals []Contender, minIncrement decimal.Decimal, abort func() bool) WarResult {
	res := WarResult{Leader: leader, FinalPrice: leader.Amount}

	if len(rivals) == 0 {
		return res
	}

	// Stable resolution order: highest cap first, earliest sequence on ties.
	pool := make([]Contender, len(rivals))
	copy(pool, rivals)
	sort.Slice(pool, func(i, j int) bool {
		if !pool[i].Cap.Equal(pool[j].Cap) {
			return pool[i].Cap.GreaterThan(pool[j].Cap)
		}
		return pool[i].Seq < pool[j].Seq
	})

	for steps := 0; steps < maxWarSteps; steps++ {
		if abort != nil && abort() {
			res.Aborted = true
			break
		}

		ch, ok := pickChallenger(pool, res.Leader)
		if !ok {
			break
		}

		bid := MinDecimal(ch.Cap, NextAsk(res.Leader.Amount, minIncrement))
		res.Steps = append(res.Steps, WarStep{
			ParentBidID: ch.BidID,
			BidderID:    ch.BidderID,
			Amount:      bid,
		})

		// The challenger takes the lead; the displaced leader re-enters the
		// pool and may counter next round if it has headroom left.
		old := res.Leader
		pool = returnToPool(pool, old)
		pool = removeFromPool(pool, ch.BidID)
		ch.Amount = bid
		res.Leader = ch
		res.FinalPrice = bid
	}

	return res
}

// canContest reports whether rival r can take the lead from the current
// leader: either by exceeding the leader's amount within its cap, or, when
// two proxy ceilings are exactly equal, by matching it with an earlier
// sequence number.
func canContest(r, leader Contender) bool {
	if r.Cap.GreaterThan(leader.Amount) {
		return true
	}
	return leader.IsProxy && r.IsProxy &&
		r.Cap.Equal(leader.Cap) && r.Cap.Equal(leader.Amount) &&
		r.Seq < leader.Seq
}

// pickChallenger returns the highest-capacity rival still able to contest the
// lead. The pool is pre-sorted, so the first match wins.
func pickChallenger(pool []Contender, leader Contender) (Contender, bool) {
	for _, c := range pool {
		if canContest(c, leader) {
			return c, true
		}
	}
	return Contender{}, false
}

// returnToPool re-inserts a displaced leader, keeping cap-descending order.
// A plain bid has no headroom beyond its amount, so it never re-enters.
// Proxies re-enter even at their ceiling: canContest still lets an earlier
// equal-cap proxy match the amount.
func returnToPool(pool []Contender, c Contender) []Contender {
	if !c.IsProxy {
		return pool
	}
	pool = append(pool, c)
	sort.Slice(pool, func(i, j int) bool {
		if !pool[i].Cap.Equal(pool[j].Cap) {
			return pool[i].Cap.GreaterThan(pool[j].Cap)
		}
		return pool[i].Seq < pool[j].Seq
	})
	return pool
}

func removeFromPool(pool []Contender, id uuid.UUID) []Contender {
	out := pool[:0]
	for _, c := range pool {
		if c.BidID != id {
			out = append(out, c)
		}
	}
	return out
}
