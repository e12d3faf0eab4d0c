// Package sched drives the engine's clock and the settlement handoff through
// asynq. A periodic tick task sweeps lot deadlines and auction start times;
// finalized lots are enqueued as settlement tasks for the downstream
// winner/payment worker.
package sched

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/openlot-io/openlot/engine"
	"github.com/openlot-io/openlot/engineapi"
)

const (
	TypeTick   = "auction:tick"
	TypeSettle = "settlement:process"
)

// SettlePayload is the settlement task body, one per finalized lot.
type SettlePayload struct {
	Notice      engineapi.SettlementNotice `json:"notice"`
	Fingerprint string                     `json:"fingerprint"`
}

// Service owns the asynq task handlers.
type Service struct {
	engine *engine.Engine
	log    *zap.Logger
}

func NewService(eng *engine.Engine, log *zap.Logger) *Service {
	return &Service{engine: eng, log: log}
}

// HandleTick runs one engine sweep: auto-starts, lot expiry and progression,
// hard end times. The engine's transition guards are idempotent, so an
// overlapping or retried tick is harmless.
func (s *Service) HandleTick(ctx context.Context, _ *asynq.Task) error {
	s.engine.Tick(ctx)
	return nil
}

// HandleSettle is the handoff boundary to the payment collaborator. The
// engine's responsibility ends with the winner decision; this worker records
// the dispatch so the downstream service can pick it up.
func (s *Service) HandleSettle(_ context.Context, t *asynq.Task) error {
	var payload SettlePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("lot_id", payload.Notice.LotID.String()),
		zap.String("amount", payload.Notice.Amount.String()),
		zap.Bool("reserve_met", payload.Notice.ReserveMet),
		zap.String("fingerprint", payload.Fingerprint),
	}
	if payload.Notice.WinningBidID != nil {
		fields = append(fields, zap.String("winning_bid_id", payload.Notice.WinningBidID.String()))
	}
	if payload.Notice.UnsoldReason != "" {
		fields = append(fields, zap.String("unsold_reason", payload.Notice.UnsoldReason))
	}
	s.log.Info("settlement dispatched", fields...)
	return nil
}

// Run starts the asynq worker and the periodic tick, blocking until the
// server stops. Settlement runs on the critical queue so a backlog of ticks
// never delays a payout handoff.
func Run(redisOpt asynq.RedisClientOpt, svc *Service, log *zap.Logger) error {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeTick, svc.HandleTick)
	mux.HandleFunc(TypeSettle, svc.HandleSettle)

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register("@every 1s", asynq.NewTask(TypeTick, nil)); err != nil {
		return err
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			log.Fatal("scheduler failed", zap.Error(err))
		}
	}()

	return srv.Run(mux)
}
