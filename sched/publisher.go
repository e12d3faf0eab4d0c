package sched

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/openlot-io/openlot/engineapi"
)

// TaskPublisher bridges the engine's event stream to the task queue: every
// lot_finalized event becomes a settlement task. Other event types are not
// queue-worthy and pass through untouched.
type TaskPublisher struct {
	client *asynq.Client
}

func NewTaskPublisher(client *asynq.Client) *TaskPublisher {
	return &TaskPublisher{client: client}
}

func (p *TaskPublisher) Publish(ctx context.Context, ev engineapi.Event) error {
	if ev.Type != engineapi.EventLotFinalized {
		return nil
	}
	fin, ok := ev.Payload.(engineapi.LotFinalizedPayload)
	if !ok {
		return nil
	}

	body, err := json.Marshal(SettlePayload{
		Notice:      fin.Notice,
		Fingerprint: fin.Fingerprint,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TypeSettle, body, asynq.Queue("critical"), asynq.MaxRetry(10))
	_, err = p.client.EnqueueContext(ctx, task)
	return err
}

func (p *TaskPublisher) Close() error {
	return p.client.Close()
}
