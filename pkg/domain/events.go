package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter EventType = "node_enter"
	EventNodeLeave EventType = "node_leave"
	EventFallback  EventType = "fallback"
	EventRunDone   EventType = "run_complete"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID   NodeID        `json:"node_id"`
	Intent   Intent        `json:"intent,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// FallbackEvent is emitted when an adapter failure was replaced by a fallback value.
type FallbackEvent struct {
	EventBase
	NodeID NodeID    `json:"node_id"`
	Op     string    `json:"op"`
	Kind   ErrorKind `json:"kind"`
	Err    string    `json:"error,omitempty"`
}

// RunEvent summarises a finished run.
type RunEvent struct {
	EventBase
	Intent       Intent        `json:"intent"`
	Steps        int           `json:"steps"`
	Refinements  int           `json:"refinements"`
	ForcedAccept bool          `json:"forced_accept"`
	Duration     time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for pipeline observability.
// Every field is optional.
type LifecycleHooks struct {
	OnNodeEnter   func(context.Context, *NodeEvent)
	OnNodeLeave   func(context.Context, *NodeEvent)
	OnFallback    func(context.Context, *FallbackEvent)
	OnRunComplete func(context.Context, *RunEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter:   chain(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave:   chain(h.OnNodeLeave, other.OnNodeLeave),
		OnFallback:    chain(h.OnFallback, other.OnFallback),
		OnRunComplete: chain(h.OnRunComplete, other.OnRunComplete),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

type sessionKey struct{}

// WithSessionID attaches the chat session id to ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionIDFrom returns the session id stored in ctx, if any.
func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
