package store

import (
	"context"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openlot-io/openlot/core"
)

// RedisStore persists records in Redis with CBOR-encoded values. Ledger
// appends go through a transactional pipeline so a batch lands atomically
// together with the per-lot sequence counter.
type RedisStore struct {
	rdb *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func auctionKey(id uuid.UUID) string { return fmt.Sprintf("auction:%s", id) }
func lotKey(id uuid.UUID) string     { return fmt.Sprintf("lot:%s", id) }
func bidsKey(id uuid.UUID) string    { return fmt.Sprintf("lot:%s:bids", id) }
func seqKey(id uuid.UUID) string     { return fmt.Sprintf("lot:%s:seq", id) }
func outcomeKey(id uuid.UUID) string { return fmt.Sprintf("lot:%s:outcome", id) }

func (s *RedisStore) SaveAuction(ctx context.Context, rec AuctionRecord) error {
	data, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode auction %s: %w", rec.ID, err)
	}
	if err := s.rdb.Set(ctx, auctionKey(rec.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("save auction %s: %w", rec.ID, err)
	}
	return nil
}

func (s *RedisStore) SaveLot(ctx context.Context, rec LotRecord) error {
	data, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode lot %s: %w", rec.ID, err)
	}
	if err := s.rdb.Set(ctx, lotKey(rec.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("save lot %s: %w", rec.ID, err)
	}
	return nil
}

func (s *RedisStore) AppendBids(ctx context.Context, lotID uuid.UUID, bids []core.Bid) error {
	if len(bids) == 0 {
		return nil
	}

	values := make([]any, 0, len(bids))
	for _, b := range bids {
		data, err := cbor.Marshal(toBidRecord(b))
		if err != nil {
			return fmt.Errorf("encode bid %s: %w", b.ID, err)
		}
		values = append(values, data)
	}

	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, bidsKey(lotID), values...)
	pipe.Set(ctx, seqKey(lotID), bids[len(bids)-1].SequenceNumber, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append %d bids to lot %s: %w", len(bids), lotID, err)
	}
	return nil
}

func (s *RedisStore) SaveOutcome(ctx context.Context, out core.Outcome) error {
	data, err := cbor.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode outcome for lot %s: %w", out.LotID, err)
	}
	if err := s.rdb.Set(ctx, outcomeKey(out.LotID), data, 0).Err(); err != nil {
		return fmt.Errorf("save outcome for lot %s: %w", out.LotID, err)
	}
	return nil
}

func (s *RedisStore) LoadBids(ctx context.Context, lotID uuid.UUID) ([]core.Bid, error) {
	raw, err := s.rdb.LRange(ctx, bidsKey(lotID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load bids for lot %s: %w", lotID, err)
	}

	bids := make([]core.Bid, 0, len(raw))
	for _, item := range raw {
		var rec bidRecord
		if err := cbor.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode bid record for lot %s: %w", lotID, err)
		}
		bid, err := fromBidRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("decode bid amounts for lot %s: %w", lotID, err)
		}
		bids = append(bids, bid)
	}
	return bids, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
