package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/openlot-io/openlot/core"
)

// MemoryStore keeps everything in process memory. Used in tests and for
// running the engine without a Redis backend.
type MemoryStore struct {
	mu       sync.Mutex
	auctions map[uuid.UUID]AuctionRecord
	lots     map[uuid.UUID]LotRecord
	bids     map[uuid.UUID][]core.Bid
	seqs     map[uuid.UUID]int64
	outcomes map[uuid.UUID]core.Outcome
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[uuid.UUID]AuctionRecord),
		lots:     make(map[uuid.UUID]LotRecord),
		bids:     make(map[uuid.UUID][]core.Bid),
		seqs:     make(map[uuid.UUID]int64),
		outcomes: make(map[uuid.UUID]core.Outcome),
	}
}

func (m *MemoryStore) SaveAuction(_ context.Context, rec AuctionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auctions[rec.ID] = rec
	return nil
}

func (m *MemoryStore) SaveLot(_ context.Context, rec LotRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lots[rec.ID] = rec
	return nil
}

func (m *MemoryStore) AppendBids(_ context.Context, lotID uuid.UUID, bids []core.Bid) error {
	if len(bids) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bids[lotID] = append(m.bids[lotID], bids...)
	m.seqs[lotID] = bids[len(bids)-1].SequenceNumber
	return nil
}

func (m *MemoryStore) SaveOutcome(_ context.Context, out core.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[out.LotID] = out
	return nil
}

func (m *MemoryStore) LoadBids(_ context.Context, lotID uuid.UUID) ([]core.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Bid, len(m.bids[lotID]))
	copy(out, m.bids[lotID])
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
