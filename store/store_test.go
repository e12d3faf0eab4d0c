package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/openlot-io/openlot/core"
)

func TestMemoryStore_AppendAndLoadBids(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	lotID := uuid.New()

	got, err := m.LoadBids(ctx, lotID)
	assert.NoError(t, err)
	check.Equal(t, 0, len(got))

	first := core.Bid{
		ID:             uuid.New(),
		LotID:          lotID,
		BidderID:       uuid.New(),
		Amount:         decimal.NewFromInt(450),
		Kind:           core.BidKindProxy,
		Status:         core.BidStatusPlaced,
		ProxyMax:       decimal.NewFromInt(800),
		SequenceNumber: 1,
		PlacedAt:       time.Now().UTC(),
	}
	assert.NoError(t, m.AppendBids(ctx, lotID, []core.Bid{first}))

	second := core.Bid{
		ID:             uuid.New(),
		LotID:          lotID,
		BidderID:       uuid.New(),
		Amount:         decimal.NewFromInt(500),
		Kind:           core.BidKindLive,
		Status:         core.BidStatusPlaced,
		SequenceNumber: 2,
		PlacedAt:       time.Now().UTC(),
	}
	assert.NoError(t, m.AppendBids(ctx, lotID, []core.Bid{second}))

	got, err = m.LoadBids(ctx, lotID)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(got))
	check.Equal(t, first.ID, got[0].ID)
	check.Equal(t, second.ID, got[1].ID)
	check.Equal(t, int64(2), m.seqs[lotID])
}

func TestBidRecord_RoundTrip(t *testing.T) {
	parent := uuid.New()
	bid := core.Bid{
		ID:             uuid.New(),
		LotID:          uuid.New(),
		BidderID:       uuid.New(),
		Amount:         decimal.RequireFromString("550.25"),
		Kind:           core.BidKindAutoGenerated,
		Status:         core.BidStatusPlaced,
		SequenceNumber: 7,
		ParentBidID:    &parent,
		PlacedAt:       time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}

	back, err := fromBidRecord(toBidRecord(bid))
	assert.NoError(t, err)
	check.Equal(t, bid.ID, back.ID)
	check.True(t, back.Amount.Equal(bid.Amount))
	check.Equal(t, bid.Kind, back.Kind)
	assert.NotNil(t, back.ParentBidID)
	check.Equal(t, parent, *back.ParentBidID)
	// No ceiling on a non-proxy row.
	check.True(t, back.ProxyMax.IsZero())
}

func TestBidRecord_ProxyCeilingSurvives(t *testing.T) {
	bid := core.Bid{
		ID:       uuid.New(),
		LotID:    uuid.New(),
		BidderID: uuid.New(),
		Amount:   decimal.NewFromInt(450),
		Kind:     core.BidKindProxy,
		Status:   core.BidStatusSuperseded,
		ProxyMax: decimal.NewFromInt(800),
	}

	back, err := fromBidRecord(toBidRecord(bid))
	assert.NoError(t, err)
	check.True(t, back.ProxyMax.Equal(decimal.NewFromInt(800)))
}
