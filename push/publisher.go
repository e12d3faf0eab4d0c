// Package push delivers engine events to realtime consumers. Delivery is
// fire-and-forget: the engine never blocks on a slow subscriber and never
// fails an auction operation because a publish failed.
package push

import (
	"context"

	"go.uber.org/zap"

	"github.com/openlot-io/openlot/engineapi"
)

// Publisher is the contract the engine publishes through.
type Publisher interface {
	Publish(ctx context.Context, ev engineapi.Event) error
	Close() error
}

// NopPublisher drops every event. Used in tests and when no push layer is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, engineapi.Event) error { return nil }
func (NopPublisher) Close() error                                   { return nil }

// Fanout publishes to several sinks; one sink failing does not stop the
// others. Errors are logged, never returned to the engine path.
type Fanout struct {
	sinks []Publisher
	log   *zap.Logger
}

func NewFanout(log *zap.Logger, sinks ...Publisher) *Fanout {
	return &Fanout{sinks: sinks, log: log}
}

func (f *Fanout) Publish(ctx context.Context, ev engineapi.Event) error {
	for _, s := range f.sinks {
		if err := s.Publish(ctx, ev); err != nil {
			f.log.Warn("event publish failed",
				zap.String("type", string(ev.Type)),
				zap.String("auction_id", ev.AuctionID.String()),
				zap.Error(err))
		}
	}
	return nil
}

func (f *Fanout) Close() error {
	var first error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
