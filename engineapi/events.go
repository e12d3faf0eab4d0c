package engineapi

import (
	"time"

	"github.com/google/uuid"
)

// EventType labels the events published to the realtime push layer.
type EventType string

const (
	EventBidAccepted       EventType = "bid_accepted"
	EventBidRejected       EventType = "bid_rejected"
	EventWarStep           EventType = "war_step"
	EventLotActivated      EventType = "lot_activated"
	EventLotFinalized      EventType = "lot_finalized"
	EventAuctionTransition EventType = "auction_transition"
	EventTimerExtended     EventType = "timer_extended"
)

// Event is the fire-and-forget message consumed by the push layer. The
// sequence number is engine-global and monotonic, so consumers can detect
// gaps and reorder.
type Event struct {
	Type           EventType `json:"type"`
	AuctionID      uuid.UUID `json:"auction_id"`
	LotID          uuid.UUID `json:"lot_id,omitempty"`
	Payload        any       `json:"payload,omitempty"`
	SequenceNumber int64     `json:"sequence_number"`
}

// TimerExtendedPayload announces an anti-snipe extension on the active lot.
type TimerExtendedPayload struct {
	Deadline      time.Time `json:"deadline"`
	ExtendedCount int       `json:"extended_count"`
}

// AuctionTransitionPayload announces an auction status change.
type AuctionTransitionPayload struct {
	Status AuctionStatus `json:"status"`
}

// LotFinalizedPayload carries the winner decision and its audit fingerprint.
type LotFinalizedPayload struct {
	Notice      SettlementNotice `json:"notice"`
	Fingerprint string           `json:"fingerprint"`
}
