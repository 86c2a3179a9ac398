// Package events defines the synchronous event sink for audit side effects.
//
// The core emits typed events inline with the operation that produced
// them; adapters behind the Sink interface may be best-effort or
// asynchronous, but the core never fires and forgets.
package events

import (
	"context"
	"time"
)

// Kind identifies an event type.
type Kind string

const (
	KindDiscoveryRecorded  Kind = "discovery_recorded"
	KindValidationRecorded Kind = "validation_recorded"
	KindAttemptLogged      Kind = "attempt_logged"
	KindDecisionLogged     Kind = "decision_logged"
	KindGatePassed         Kind = "gate_passed"
	KindPhaseAdvanced      Kind = "phase_advanced"
	KindScopeViolation     Kind = "scope_violation"
	KindSessionExpired     Kind = "session_expired"
)

// Event is one audit occurrence emitted by the core.
type Event struct {
	Kind       Kind              `json:"kind"`
	SessionID  string            `json:"session_id,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// Sink receives events synchronously.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// NopSink discards all events.
type NopSink struct{}

// Emit implements Sink.
func (NopSink) Emit(context.Context, Event) {}

// New creates an Event with the occurrence time set.
func New(kind Kind, sessionID string, fields map[string]string) Event {
	return Event{
		Kind:       kind,
		SessionID:  sessionID,
		OccurredAt: time.Now(),
		Fields:     fields,
	}
}
