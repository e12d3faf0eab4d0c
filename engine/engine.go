// Package engine runs timed sequential auctions: the auction lifecycle, the
// per-lot countdown, bid admission and the proxy war resolver, with every
// accepted bid persisted before it becomes visible.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openlot-io/openlot/core"
	"github.com/openlot-io/openlot/engineapi"
	"github.com/openlot-io/openlot/push"
	"github.com/openlot-io/openlot/store"
)

// lotRef pairs a lot with its owning auction for O(1) lookup by lot ID.
type lotRef struct {
	auction *Auction
	lot     *Lot
}

// Engine is the in-process auction host. All auctions it owns share one
// store, one push publisher and one event sequence; per-lot work runs under
// the lot's own lock. Lock order is always Engine.mu, then Auction.mu, then
// Lot.mu, never the reverse.
type Engine struct {
	mu       sync.RWMutex
	auctions map[uuid.UUID]*Auction
	lots     map[uuid.UUID]*lotRef

	store    store.Store
	pub      push.Publisher
	log      *zap.Logger
	defaults AuctionConfig

	eventSeq atomic.Int64

	// nowFn is swapped in tests to drive the clock.
	nowFn func() time.Time
}

func New(st store.Store, pub push.Publisher, log *zap.Logger, defaults AuctionConfig) *Engine {
	return &Engine{
		auctions: make(map[uuid.UUID]*Auction),
		lots:     make(map[uuid.UUID]*lotRef),
		store:    st,
		pub:      pub,
		log:      log,
		defaults: defaults,
		nowFn:    time.Now,
	}
}

func (e *Engine) now() time.Time { return e.nowFn().UTC() }

// publish stamps the global sequence number and hands the event to the push
// layer. Delivery failures are logged, never surfaced to the caller: the
// ledger, not the push channel, is the source of truth.
func (e *Engine) publish(ctx context.Context, ev engineapi.Event) {
	ev.SequenceNumber = e.eventSeq.Add(1)
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.log.Warn("event publish failed",
			zap.String("type", string(ev.Type)),
			zap.String("auction_id", ev.AuctionID.String()),
			zap.Error(err))
	}
}

func (e *Engine) auction(id uuid.UUID) (*Auction, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.auctions[id]
	if !ok {
		return nil, fmt.Errorf("%w: auction %s", ErrNotFound, id)
	}
	return a, nil
}

func (e *Engine) findLot(id uuid.UUID) (*lotRef, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ref, ok := e.lots[id]
	if !ok {
		return nil, fmt.Errorf("%w: lot %s", ErrNotFound, id)
	}
	return ref, nil
}

// CreateAuction opens a new auction in Draft.
func (e *Engine) CreateAuction(ctx context.Context, req engineapi.CreateAuctionRequest) (engineapi.AuctionSnapshot, error) {
	if req.Title == "" {
		return engineapi.AuctionSnapshot{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !req.EndTime.IsZero() && !req.EndTime.After(req.StartTime) {
		return engineapi.AuctionSnapshot{}, fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}

	a := newAuction(req, e.defaults)

	a.mu.Lock()
	rec := a.recordLocked()
	snap := a.snapshotLocked()
	a.mu.Unlock()

	if err := e.store.SaveAuction(ctx, rec); err != nil {
		return engineapi.AuctionSnapshot{}, fmt.Errorf("persist auction: %w", err)
	}

	e.mu.Lock()
	e.auctions[a.ID] = a
	e.mu.Unlock()

	e.log.Info("auction created",
		zap.String("auction_id", a.ID.String()),
		zap.Time("start_time", a.StartTime))
	return snap, nil
}

// AddLot attaches a car to a Draft auction at the next queue position.
// Missing pricing fields are derived from the estimated retail value.
func (e *Engine) AddLot(ctx context.Context, req engineapi.AddLotRequest) (engineapi.LotSnapshot, error) {
	a, err := e.auction(req.AuctionID)
	if err != nil {
		return engineapi.LotSnapshot{}, err
	}

	pricing := core.DeriveLotPricing(req.EstimatedRetailValue, core.LotPricing{
		StartPrice:   req.StartPrice,
		ReservePrice: req.ReservePrice,
		MinPreBid:    req.MinPreBid,
	})
	if !pricing.StartPrice.IsPositive() {
		return engineapi.LotSnapshot{}, fmt.Errorf("%w: start price must be positive", ErrValidation)
	}

	a.mu.Lock()
	lot, err := a.addLotLocked(req.CarID, pricing)
	if err != nil {
		a.mu.Unlock()
		return engineapi.LotSnapshot{}, err
	}
	lot.mu.Lock()
	rec := lot.recordLocked()
	snap := lot.snapshotLocked(a.Config.Timer)
	lot.mu.Unlock()
	a.mu.Unlock()

	if err := e.store.SaveLot(ctx, rec); err != nil {
		return engineapi.LotSnapshot{}, fmt.Errorf("persist lot: %w", err)
	}

	e.mu.Lock()
	e.lots[lot.ID] = &lotRef{auction: a, lot: lot}
	e.mu.Unlock()

	return snap, nil
}

// OpenPreBids moves a Draft auction to ReadyForPreBids and its lots to
// ReadyForAuction so pre-bidding can begin.
func (e *Engine) OpenPreBids(ctx context.Context, auctionID uuid.UUID) error {
	a, err := e.auction(auctionID)
	if err != nil {
		return err
	}

	a.mu.Lock()
	applied, err := a.markReadyLocked()
	var rec store.AuctionRecord
	var lotRecs []store.LotRecord
	if applied {
		rec = a.recordLocked()
		for _, l := range a.lots {
			l.mu.Lock()
			lotRecs = append(lotRecs, l.recordLocked())
			l.mu.Unlock()
		}
	}
	a.mu.Unlock()
	if err != nil || !applied {
		return err
	}

	if err := e.store.SaveAuction(ctx, rec); err != nil {
		return fmt.Errorf("persist auction: %w", err)
	}
	for _, lr := range lotRecs {
		if err := e.store.SaveLot(ctx, lr); err != nil {
			return fmt.Errorf("persist lot: %w", err)
		}
	}

	e.publish(ctx, engineapi.Event{
		Type:      engineapi.EventAuctionTransition,
		AuctionID: auctionID,
		Payload:   engineapi.AuctionTransitionPayload{Status: engineapi.AuctionReadyForPreBids},
	})
	return nil
}

// Schedule confirms the auction for its start time.
func (e *Engine) Schedule(ctx context.Context, auctionID uuid.UUID) error {
	a, err := e.auction(auctionID)
	if err != nil {
		return err
	}

	a.mu.Lock()
	applied, err := a.scheduleLocked(e.now())
	var rec store.AuctionRecord
	if applied {
		rec = a.recordLocked()
	}
	a.mu.Unlock()
	if err != nil || !applied {
		return err
	}

	if err := e.store.SaveAuction(ctx, rec); err != nil {
		return fmt.Errorf("persist auction: %w", err)
	}
	e.publish(ctx, engineapi.Event{
		Type:      engineapi.EventAuctionTransition,
		AuctionID: auctionID,
		Payload:   engineapi.AuctionTransitionPayload{Status: engineapi.AuctionScheduled},
	})
	return nil
}

// StartAuction transitions a Scheduled auction to Running and activates the
// first lot in the queue. Starting an already Running auction is a no-op.
func (e *Engine) StartAuction(ctx context.Context, auctionID uuid.UUID) error {
	a, err := e.auction(auctionID)
	if err != nil {
		return err
	}
	return e.startAuction(ctx, a)
}

func (e *Engine) startAuction(ctx context.Context, a *Auction) error {
	now := e.now()

	a.mu.Lock()
	applied, err := a.startLocked(now)
	if err != nil || !applied {
		a.mu.Unlock()
		return err
	}
	activated, recs := e.activateNextLocked(a, now)
	recs.auction = a.recordLocked()
	a.mu.Unlock()

	if err := e.persistProgress(ctx, recs); err != nil {
		return err
	}

	e.publish(ctx, engineapi.Event{
		Type:      engineapi.EventAuctionTransition,
		AuctionID: a.ID,
		Payload:   engineapi.AuctionTransitionPayload{Status: engineapi.AuctionRunning},
	})
	if activated != nil {
		e.publish(ctx, engineapi.Event{
			Type:      engineapi.EventLotActivated,
			AuctionID: a.ID,
			LotID:     activated.ID,
		})
	}
	e.log.Info("auction started", zap.String("auction_id", a.ID.String()))
	return nil
}

// progressRecords collects the dirty records one progression step produced,
// so persistence happens after the auction lock is released.
type progressRecords struct {
	auction  store.AuctionRecord
	lots     []store.LotRecord
	outcomes []core.Outcome
}

func (e *Engine) persistProgress(ctx context.Context, recs progressRecords) error {
	for _, out := range recs.outcomes {
		if err := e.store.SaveOutcome(ctx, out); err != nil {
			return fmt.Errorf("persist outcome: %w", err)
		}
	}
	for _, lr := range recs.lots {
		if err := e.store.SaveLot(ctx, lr); err != nil {
			return fmt.Errorf("persist lot: %w", err)
		}
	}
	if err := e.store.SaveAuction(ctx, recs.auction); err != nil {
		return fmt.Errorf("persist auction: %w", err)
	}
	return nil
}

// activateNextLocked activates the next ready lot, or ends the auction when
// the queue is exhausted. Caller holds a.mu.
func (e *Engine) activateNextLocked(a *Auction, now time.Time) (*Lot, progressRecords) {
	var recs progressRecords

	next := a.nextReadyLotLocked()
	if next == nil {
		a.endLocked()
		return nil, recs
	}

	next.mu.Lock()
	next.activateLocked(now)
	recs.lots = append(recs.lots, next.recordLocked())
	next.mu.Unlock()

	n := next.LotNumber
	a.CurrentLotNumber = &n
	return next, recs
}

// settleLotLocked produces the winner decision and stamps the lot terminal.
// Caller holds l.mu. A lot that never went live settles at the price
// activation would have seeded, so a placed pre-bid is not judged against the
// bare start price.
func (e *Engine) settleLotLocked(l *Lot) (core.Outcome, store.LotRecord) {
	price := l.CurrentPrice
	if l.Condition != core.LotLiveAuction {
		if placed := l.ledger.Placed(); placed != nil {
			price = core.MaxDecimal(price, placed.Amount)
		}
	}
	out := core.DetermineWinner(l.ID, l.ledger.Bids(), price, l.Pricing.ReservePrice)
	l.finalizeLocked(out)
	return out, l.recordLocked()
}

// finalizeLot takes the lot lock and settles. Caller holds a.mu.
func (e *Engine) finalizeLot(l *Lot) (core.Outcome, store.LotRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return e.settleLotLocked(l)
}

func settlementNotice(out core.Outcome) engineapi.SettlementNotice {
	notice := engineapi.SettlementNotice{
		LotID:        out.LotID,
		Amount:       out.Amount,
		ReserveMet:   out.ReserveMet,
		UnsoldReason: out.UnsoldReason,
	}
	if out.Sold && out.WinningBid != nil {
		id := out.WinningBid.ID
		notice.WinningBidID = &id
	}
	return notice
}

func (e *Engine) publishFinalized(ctx context.Context, auctionID uuid.UUID, out core.Outcome) {
	e.publish(ctx, engineapi.Event{
		Type:      engineapi.EventLotFinalized,
		AuctionID: auctionID,
		LotID:     out.LotID,
		Payload: engineapi.LotFinalizedPayload{
			Notice:      settlementNotice(out),
			Fingerprint: core.ComputeOutcomeFingerprint(&out),
		},
	})
}

// EndAuction force-ends a Running auction: the active lot and every lot still
// waiting its turn get their one-shot winner decision against whatever bids
// they hold. Ending an already Ended auction is a no-op.
func (e *Engine) EndAuction(ctx context.Context, auctionID uuid.UUID) error {
	a, err := e.auction(auctionID)
	if err != nil {
		return err
	}

	a.mu.Lock()
	if a.Status == engineapi.AuctionEnded {
		a.mu.Unlock()
		return nil
	}
	if a.Status != engineapi.AuctionRunning {
		a.mu.Unlock()
		return fmt.Errorf("%w: cannot end from %s", ErrStateConflict, a.Status)
	}

	var recs progressRecords
	for _, l := range a.lots {
		l.mu.Lock()
		terminal := l.Condition == core.LotSold || l.Condition == core.LotUnsold
		l.mu.Unlock()
		if terminal {
			continue
		}
		out, rec := e.finalizeLot(l)
		recs.outcomes = append(recs.outcomes, out)
		recs.lots = append(recs.lots, rec)
	}
	a.endLocked()
	recs.auction = a.recordLocked()
	a.mu.Unlock()

	if err := e.persistProgress(ctx, recs); err != nil {
		return err
	}
	for _, out := range recs.outcomes {
		e.publishFinalized(ctx, auctionID, out)
	}
	e.publish(ctx, engineapi.Event{
		Type:      engineapi.EventAuctionTransition,
		AuctionID: auctionID,
		Payload:   engineapi.AuctionTransitionPayload{Status: engineapi.AuctionEnded},
	})
	e.log.Info("auction force-ended", zap.String("auction_id", auctionID.String()))
	return nil
}

// CancelAuction aborts an auction in any non-ended state. The interrupt flag
// is raised first so a proxy war resolving under a lot lock stops at its next
// step; every non-terminal lot is closed unsold.
func (e *Engine) CancelAuction(ctx context.Context, auctionID uuid.UUID) error {
	a, err := e.auction(auctionID)
	if err != nil {
		return err
	}

	a.interrupted.Store(true)

	a.mu.Lock()
	applied, err := a.cancelLocked()
	if err != nil || !applied {
		a.mu.Unlock()
		return err
	}

	var recs progressRecords
	for _, l := range a.lots {
		l.mu.Lock()
		if l.Condition != core.LotSold && l.Condition != core.LotUnsold {
			out := core.CancelledOutcome(l.ID, l.CurrentPrice)
			l.finalizeLocked(out)
			recs.outcomes = append(recs.outcomes, out)
			recs.lots = append(recs.lots, l.recordLocked())
		}
		l.mu.Unlock()
	}
	recs.auction = a.recordLocked()
	a.mu.Unlock()

	if err := e.persistProgress(ctx, recs); err != nil {
		return err
	}
	for _, out := range recs.outcomes {
		e.publishFinalized(ctx, auctionID, out)
	}
	e.publish(ctx, engineapi.Event{
		Type:      engineapi.EventAuctionTransition,
		AuctionID: auctionID,
		Payload:   engineapi.AuctionTransitionPayload{Status: engineapi.AuctionCancelled},
	})
	e.log.Info("auction cancelled", zap.String("auction_id", auctionID.String()))
	return nil
}

// PlaceBid is the synchronous admission path. On acceptance the bid and any
// proxy-war counter-bids are persisted as one atomic batch before they become
// visible; the response reports the settled state. Business rejections come
// back in the response, not as errors.
func (e *Engine) PlaceBid(ctx context.Context, req engineapi.PlaceBidRequest) (engineapi.PlaceBidResponse, error) {
	ref, err := e.findLot(req.LotID)
	if err != nil {
		return engineapi.PlaceBidResponse{}, err
	}
	a, l := ref.auction, ref.lot
	now := e.now()

	a.mu.Lock()
	status := a.Status
	cfg := a.Config
	a.mu.Unlock()

	if rejected, ok := gateByStatus(status, req.Kind); ok {
		return e.rejectBid(ctx, a.ID, l, rejected), nil
	}

	l.mu.Lock()

	// A bid racing the countdown loses: the deadline decision is a pure
	// function of the last bid time, so admission and the expiry sweep agree.
	if l.Condition == core.LotLiveAuction && l.timer.expired(cfg.Timer, now) {
		l.mu.Unlock()
		return e.rejectBid(ctx, a.ID, l, core.RejectTooLate), nil
	}

	in := core.AdmissionInput{
		Condition:       l.Condition,
		CurrentPrice:    l.CurrentPrice,
		MinIncrement:    cfg.MinIncrement,
		MinPreBid:       l.Pricing.MinPreBid,
		RequirePreBid:   cfg.RequirePreBid,
		BidderHasPreBid: l.ledger.HasBidFrom(req.BidderID, core.BidKindPreBid),
		Kind:            req.Kind,
		Amount:          req.Amount,
		ProxyMax:        req.ProxyMax,
	}
	// Pre-bids compete among themselves while the lot's public price stays
	// at the start price until activation.
	if req.Kind == core.BidKindPreBid {
		if placed := l.ledger.Placed(); placed != nil {
			in.CurrentPrice = placed.Amount
		} else {
			in.CurrentPrice = decimal.Zero
		}
	}

	if dec := core.AdmitBid(in); !dec.Accepted {
		l.mu.Unlock()
		return e.rejectBid(ctx, a.ID, l, dec.Reason), nil
	}

	bid := core.Bid{
		ID:             uuid.New(),
		LotID:          l.ID,
		BidderID:       req.BidderID,
		Amount:         req.Amount,
		Kind:           req.Kind,
		SequenceNumber: l.ledger.NextSeq(),
		PlacedAt:       now,
	}
	if req.Kind == core.BidKindProxy {
		bid.ProxyMax = req.ProxyMax
	}

	batch := []core.Bid{bid}
	placedID := bid.ID
	var res core.WarResult

	if l.Condition == core.LotLiveAuction {
		leader := core.Contender{
			BidID:    bid.ID,
			BidderID: bid.BidderID,
			Amount:   bid.Amount,
			Cap:      bid.EffectiveCap(),
			Seq:      bid.SequenceNumber,
			IsProxy:  bid.Kind == core.BidKindProxy,
		}
		res = core.ResolveProxyWar(leader, l.ledger.ProxyContenders(req.BidderID), cfg.MinIncrement, a.interrupted.Load)

		seq := bid.SequenceNumber
		for _, step := range res.Steps {
			seq++
			parent := step.ParentBidID
			batch = append(batch, core.Bid{
				ID:             uuid.New(),
				LotID:          l.ID,
				BidderID:       step.BidderID,
				Amount:         step.Amount,
				Kind:           core.BidKindAutoGenerated,
				SequenceNumber: seq,
				ParentBidID:    &parent,
				PlacedAt:       now,
			})
		}
		if len(res.Steps) > 0 {
			placedID = batch[len(batch)-1].ID
		}
	} else {
		res.Leader = core.Contender{BidderID: bid.BidderID}
		res.FinalPrice = l.CurrentPrice
	}

	// Statuses are stamped before the write so the persisted rows match the
	// in-memory ledger after ApplyBatch.
	for i := range batch {
		if batch[i].ID == placedID {
			batch[i].Status = core.BidStatusPlaced
		} else {
			batch[i].Status = core.BidStatusSuperseded
		}
	}

	// Persist first, apply second. A storage failure rejects the whole
	// operation and leaves the ledger untouched.
	if err := e.store.AppendBids(ctx, l.ID, batch); err != nil {
		l.mu.Unlock()
		e.log.Error("bid persist failed",
			zap.String("lot_id", l.ID.String()),
			zap.Error(err))
		return engineapi.PlaceBidResponse{}, fmt.Errorf("persist bids: %w", err)
	}

	l.ledger.ApplyBatch(batch, placedID)
	for i := range batch {
		if batch[i].Kind == core.BidKindPreBid {
			l.PreBidCount++
		} else {
			l.BidCount++
		}
	}

	var snipe bool
	var deadline *time.Time
	if l.Condition == core.LotLiveAuction {
		l.CurrentPrice = res.FinalPrice
		snipe = l.timer.reset(cfg.Timer, now)
		d := l.timer.deadline(cfg.Timer)
		deadline = &d
	}

	resp := engineapi.PlaceBidResponse{
		Accepted:       true,
		BidID:          bid.ID,
		SequenceNumber: bid.SequenceNumber,
		CurrentPrice:   l.CurrentPrice,
		LeadingBidder:  res.Leader.BidderID,
		WarSteps:       len(res.Steps),
		Deadline:       deadline,
	}
	extendedCount := l.timer.extendedCount
	lotRec := l.recordLocked()
	history := warStepEntries(batch[1:])
	l.mu.Unlock()

	if snipe {
		a.mu.Lock()
		a.ExtendedCount++
		a.mu.Unlock()
	}

	if err := e.store.SaveLot(ctx, lotRec); err != nil {
		e.log.Error("lot persist failed",
			zap.String("lot_id", l.ID.String()),
			zap.Error(err))
	}

	e.publish(ctx, engineapi.Event{
		Type:      engineapi.EventBidAccepted,
		AuctionID: a.ID,
		LotID:     l.ID,
		Payload:   resp,
	})
	for _, entry := range history {
		e.publish(ctx, engineapi.Event{
			Type:      engineapi.EventWarStep,
			AuctionID: a.ID,
			LotID:     l.ID,
			Payload:   entry,
		})
	}
	if snipe && deadline != nil {
		e.publish(ctx, engineapi.Event{
			Type:      engineapi.EventTimerExtended,
			AuctionID: a.ID,
			LotID:     l.ID,
			Payload: engineapi.TimerExtendedPayload{
				Deadline:      *deadline,
				ExtendedCount: extendedCount,
			},
		})
	}

	e.log.Info("bid accepted",
		zap.String("lot_id", l.ID.String()),
		zap.String("bidder_id", req.BidderID.String()),
		zap.String("kind", string(req.Kind)),
		zap.String("amount", req.Amount.String()),
		zap.Int("war_steps", len(res.Steps)))
	return resp, nil
}

func (e *Engine) rejectBid(ctx context.Context, auctionID uuid.UUID, l *Lot, reason core.RejectReason) engineapi.PlaceBidResponse {
	e.publish(ctx, engineapi.Event{
		Type:      engineapi.EventBidRejected,
		AuctionID: auctionID,
		LotID:     l.ID,
		Payload:   engineapi.PlaceBidResponse{Reason: reason},
	})
	return engineapi.PlaceBidResponse{Reason: reason}
}

// gateByStatus maps the auction status to the admission gate for a bid kind.
// Pre-bids are open from ReadyForPreBids until the hammer starts falling;
// live and proxy bids only while Running.
func gateByStatus(status engineapi.AuctionStatus, kind core.BidKind) (core.RejectReason, bool) {
	switch kind {
	case core.BidKindPreBid:
		if status == engineapi.AuctionReadyForPreBids || status == engineapi.AuctionScheduled {
			return core.RejectNone, false
		}
	default:
		if status == engineapi.AuctionRunning {
			return core.RejectNone, false
		}
	}
	return core.RejectAuctionNotRunning, true
}

// warStepEntries builds redacted history entries for the auto-generated rows
// of a freshly applied batch.
func warStepEntries(steps []core.Bid) []engineapi.BidHistoryEntry {
	out := make([]engineapi.BidHistoryEntry, 0, len(steps))
	for i := range steps {
		b := &steps[i]
		out = append(out, engineapi.BidHistoryEntry{
			ID:             b.ID,
			BidderID:       b.BidderID,
			Amount:         b.Amount,
			Kind:           b.Kind,
			Status:         b.Status,
			SequenceNumber: b.SequenceNumber,
			ParentBidID:    b.ParentBidID,
			PlacedAt:       b.PlacedAt,
			Fingerprint:    core.ComputeBidFingerprint(b),
		})
	}
	return out
}

// InvalidateBid is the fraud-desk hook: it marks a ledger row invalidated and,
// when the row held the lead, drops the public price back to the best
// remaining bid (or the start price). The lot has no leader until the next
// accepted bid.
func (e *Engine) InvalidateBid(ctx context.Context, lotID, bidID uuid.UUID) error {
	ref, err := e.findLot(lotID)
	if err != nil {
		return err
	}
	l := ref.lot

	l.mu.Lock()
	if !l.ledger.Invalidate(bidID) {
		l.mu.Unlock()
		return fmt.Errorf("%w: bid %s", ErrNotFound, bidID)
	}
	if l.ledger.Placed() == nil && l.Condition == core.LotLiveAuction {
		price := l.Pricing.StartPrice
		if ranking := core.RankLotBids(l.ledger.Bids()); len(ranking.SortedBidders) > 0 {
			top := ranking.BestBids[ranking.SortedBidders[0]]
			price = core.MaxDecimal(price, top.Amount)
		}
		l.CurrentPrice = price
	}
	rec := l.recordLocked()
	l.mu.Unlock()

	if err := e.store.SaveLot(ctx, rec); err != nil {
		return fmt.Errorf("persist lot: %w", err)
	}
	e.log.Warn("bid invalidated",
		zap.String("lot_id", lotID.String()),
		zap.String("bid_id", bidID.String()))
	return nil
}

// Tick is the scheduler entry point: it starts scheduled auctions whose time
// has come, finalizes expired lots and advances their queues, and force-ends
// auctions past their hard end time. Safe to call concurrently; every
// transition guard is idempotent.
func (e *Engine) Tick(ctx context.Context) {
	e.CheckAutoStart(ctx)
	e.CheckExpiry(ctx)
	e.CheckAutoEnd(ctx)
}

func (e *Engine) snapshotAuctions() []*Auction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Auction, 0, len(e.auctions))
	for _, a := range e.auctions {
		out = append(out, a)
	}
	return out
}

// CheckAutoStart starts every Scheduled auction whose start time has passed.
func (e *Engine) CheckAutoStart(ctx context.Context) {
	now := e.now()
	for _, a := range e.snapshotAuctions() {
		a.mu.Lock()
		due := a.Status == engineapi.AuctionScheduled && !now.Before(a.StartTime)
		a.mu.Unlock()
		if !due {
			continue
		}
		if err := e.startAuction(ctx, a); err != nil {
			e.log.Error("auto-start failed",
				zap.String("auction_id", a.ID.String()),
				zap.Error(err))
		}
	}
}

// CheckExpiry finalizes the active lot of each Running auction once its
// countdown has expired, then activates the next lot or ends the auction.
func (e *Engine) CheckExpiry(ctx context.Context) {
	now := e.now()
	for _, a := range e.snapshotAuctions() {
		a.mu.Lock()
		if a.Status != engineapi.AuctionRunning || a.CurrentLotNumber == nil {
			a.mu.Unlock()
			continue
		}
		l := a.lotByNumberLocked(*a.CurrentLotNumber)
		if l == nil {
			a.mu.Unlock()
			continue
		}
		// The expiry decision and the settle must share one critical
		// section: a bid admitted in between may have reset the
		// countdown, and finalizing anyway would void its extension.
		l.mu.Lock()
		if l.Condition != core.LotLiveAuction || !l.timer.expired(a.Config.Timer, now) {
			l.mu.Unlock()
			a.mu.Unlock()
			continue
		}
		out, lotRec := e.settleLotLocked(l)
		l.mu.Unlock()
		activated, recs := e.activateNextLocked(a, now)
		recs.outcomes = append(recs.outcomes, out)
		recs.lots = append(recs.lots, lotRec)
		recs.auction = a.recordLocked()
		ended := a.Status == engineapi.AuctionEnded
		a.mu.Unlock()

		if err := e.persistProgress(ctx, recs); err != nil {
			e.log.Error("progression persist failed",
				zap.String("auction_id", a.ID.String()),
				zap.Error(err))
			continue
		}

		e.publishFinalized(ctx, a.ID, out)
		if activated != nil {
			e.publish(ctx, engineapi.Event{
				Type:      engineapi.EventLotActivated,
				AuctionID: a.ID,
				LotID:     activated.ID,
			})
		}
		if ended {
			e.publish(ctx, engineapi.Event{
				Type:      engineapi.EventAuctionTransition,
				AuctionID: a.ID,
				Payload:   engineapi.AuctionTransitionPayload{Status: engineapi.AuctionEnded},
			})
			e.log.Info("auction completed", zap.String("auction_id", a.ID.String()))
		}
	}
}

// CheckAutoEnd force-ends Running auctions past their hard end time. Lots
// still in the queue get their winner decision against the bids they hold.
func (e *Engine) CheckAutoEnd(ctx context.Context) {
	now := e.now()
	for _, a := range e.snapshotAuctions() {
		a.mu.Lock()
		due := a.Status == engineapi.AuctionRunning && !a.EndTime.IsZero() && !now.Before(a.EndTime)
		a.mu.Unlock()
		if !due {
			continue
		}
		if err := e.EndAuction(ctx, a.ID); err != nil {
			e.log.Error("auto-end failed",
				zap.String("auction_id", a.ID.String()),
				zap.Error(err))
		}
	}
}

// Auction returns the public snapshot of one auction.
func (e *Engine) Auction(auctionID uuid.UUID) (engineapi.AuctionSnapshot, error) {
	a, err := e.auction(auctionID)
	if err != nil {
		return engineapi.AuctionSnapshot{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked(), nil
}

// Auctions returns snapshots of every known auction, ordered by start time.
func (e *Engine) Auctions() []engineapi.AuctionSnapshot {
	auctions := e.snapshotAuctions()
	out := make([]engineapi.AuctionSnapshot, 0, len(auctions))
	for _, a := range auctions {
		a.mu.Lock()
		out = append(out, a.snapshotLocked())
		a.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// Lot returns the public snapshot of one lot.
func (e *Engine) Lot(lotID uuid.UUID) (engineapi.LotSnapshot, error) {
	ref, err := e.findLot(lotID)
	if err != nil {
		return engineapi.LotSnapshot{}, err
	}
	ref.auction.mu.Lock()
	cfg := ref.auction.Config.Timer
	ref.auction.mu.Unlock()

	ref.lot.mu.Lock()
	defer ref.lot.mu.Unlock()
	return ref.lot.snapshotLocked(cfg), nil
}

// BidHistory returns the sequenced ledger of a lot, with proxy ceilings
// redacted except on the viewer's own bids.
func (e *Engine) BidHistory(lotID, viewer uuid.UUID) ([]engineapi.BidHistoryEntry, error) {
	ref, err := e.findLot(lotID)
	if err != nil {
		return nil, err
	}
	ref.lot.mu.Lock()
	defer ref.lot.mu.Unlock()
	return ref.lot.historyLocked(viewer), nil
}

// RankedBids returns the per-bidder ranking for a lot, the input to a
// second-chance offer after a reserve-not-met finalize.
func (e *Engine) RankedBids(lotID uuid.UUID) (*core.RankingResult, error) {
	ref, err := e.findLot(lotID)
	if err != nil {
		return nil, err
	}
	ref.lot.mu.Lock()
	defer ref.lot.mu.Unlock()
	return core.RankLotBids(ref.lot.ledger.Bids()), nil
}

// Close releases the engine's external resources.
func (e *Engine) Close() error {
	pubErr := e.pub.Close()
	storeErr := e.store.Close()
	if pubErr != nil {
		return pubErr
	}
	return storeErr
}
