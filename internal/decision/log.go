package decision

import (
	"context"
	"fmt"
	"sync"
)

// Log is the session-scoped journal front end: an append-only store plus
// a per-session cache so repeated relevance lookups within one request
// burst do not re-read the store.
type Log struct {
	store Store

	mu    sync.Mutex
	cache map[string][]Decision
}

// NewLog creates a journal backed by the given store.
func NewLog(store Store) *Log {
	return &Log{
		store: store,
		cache: make(map[string][]Decision),
	}
}

// Append persists a decision and updates the session cache.
func (l *Log) Append(ctx context.Context, sessionID string, d *Decision) error {
	if err := l.store.AppendDecision(ctx, sessionID, d); err != nil {
		return fmt.Errorf("append decision: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.cache[sessionID]; ok {
		l.cache[sessionID] = append(cached, *d)
	}
	return nil
}

// Decisions returns the journal for a session, loading through the cache.
func (l *Log) Decisions(ctx context.Context, sessionID string) ([]Decision, error) {
	l.mu.Lock()
	if cached, ok := l.cache[sessionID]; ok {
		out := make([]Decision, len(cached))
		copy(out, cached)
		l.mu.Unlock()
		return out, nil
	}
	l.mu.Unlock()

	decisions, err := l.store.ListDecisions(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}

	l.mu.Lock()
	l.cache[sessionID] = decisions
	l.mu.Unlock()

	out := make([]Decision, len(decisions))
	copy(out, decisions)
	return out, nil
}

// Check loads the session journal and runs the contradiction rules
// against a proposed action.
func (l *Log) Check(ctx context.Context, sessionID, action string) (*Contradiction, error) {
	decisions, err := l.Decisions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return CheckContradiction(action, decisions), nil
}

// RecordAttempt persists an attempt record.
func (l *Log) RecordAttempt(ctx context.Context, a *Attempt) error {
	if err := l.store.AppendAttempt(ctx, a); err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

// FailedApproaches returns lessons from failed attempts in a session.
func (l *Log) FailedApproaches(ctx context.Context, sessionID string) ([]Attempt, error) {
	attempts, err := l.store.ListAttempts(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	var failed []Attempt
	for _, a := range attempts {
		if !a.Success {
			failed = append(failed, a)
		}
	}
	return failed, nil
}

// Export renders the session journal as markdown.
func (l *Log) Export(ctx context.Context, sessionID string) (string, error) {
	decisions, err := l.Decisions(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return ExportMarkdown(decisions), nil
}
