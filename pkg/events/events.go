// Package events defines the domain events the memory engine emits and a
// small Sink interface for delivering them.
//
// The engine only produces event values; routing them onto a message bus
// is the caller's concern. The sinks here cover the common in-process
// cases: discard, structured log, and a buffered channel for tests and
// local consumers.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the memory engine.
const (
	TypeInteractionStored = "interaction_stored"
	TypeEpisodicStored    = "episodic_stored"
	TypeMemorySearch      = "memory_search"
	TypeCoreUpdated       = "core_updated"
	TypeCoreDeleted       = "core_deleted"
	TypeCoreRead          = "core_read"
	TypeContextRead       = "context_read"
	TypeStatsRead         = "stats_read"
	TypeWorkingCleared    = "working_cleared"
	TypeConsolidation     = "consolidation"
)

// Event is one domain event. Payload keys are event-type specific.
type Event struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	At      float64        `json:"at"` // unix seconds
	Payload map[string]any `json:"payload,omitempty"`
}

// New builds an event with a fresh ID and the current time.
func New(typ string, payload map[string]any) Event {
	return Event{
		ID:      uuid.New().String(),
		Type:    typ,
		At:      float64(time.Now().UnixNano()) / 1e9,
		Payload: payload,
	}
}

// Sink receives events. Emit must not block the caller for long and must
// never fail the operation that produced the event.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}

// Slog logs each event at Info level.
type Slog struct {
	Log *slog.Logger
}

func (s Slog) Emit(ctx context.Context, ev Event) {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "event", "type", ev.Type, "id", ev.ID, "payload", ev.Payload)
}

// Chan delivers events onto a channel without blocking; events are dropped
// when the channel is full.
type Chan struct {
	C chan Event
}

// NewChan creates a channel sink with the given buffer size.
func NewChan(buf int) *Chan {
	return &Chan{C: make(chan Event, buf)}
}

func (c *Chan) Emit(_ context.Context, ev Event) {
	select {
	case c.C <- ev:
	default:
	}
}
