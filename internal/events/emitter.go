// Package events publishes lifecycle events for downstream collaborators
// (notifications, payment, ratings). Emission is fire-and-forget: the
// core never waits on delivery and never fails an operation over it.
package events

import "context"

const (
	TaskCreated         = "task.created"
	TaskStatusChanged   = "task.status_changed"
	TaskForceTransition = "task.force_transition"
	BidSubmitted        = "bid.submitted"
	BidAccepted         = "bid.accepted"
	BidRejected         = "bid.rejected"
	BidWithdrawn        = "bid.withdrawn"
)

// Event is the wire payload. Payload keys are event-specific.
type Event struct {
	Type    string                 `json:"type"`
	TaskID  string                 `json:"taskId"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

type Emitter interface {
	Emit(ctx context.Context, event Event) error
	Close() error
}

// NopEmitter drops every event. Used when no broker is configured and
// in tests that don't observe events.
type NopEmitter struct{}

func (NopEmitter) Emit(ctx context.Context, event Event) error { return nil }
func (NopEmitter) Close() error                                { return nil }
