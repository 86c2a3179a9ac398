package store

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/wardend/internal/decision"
)

// AppendDecision implements decision.Store.
func (s *Store) AppendDecision(ctx context.Context, sessionID string, d *decision.Decision) error {
	data, err := marshal(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journal_decisions (id, session_id, ts, data) VALUES (?, ?, ?, ?)`,
		d.ID, sessionID, fmtTime(d.Date), data)
	if err != nil {
		return fmt.Errorf("insert journal decision: %w", err)
	}
	return nil
}

// ListDecisions implements decision.Store, oldest first.
func (s *Store) ListDecisions(ctx context.Context, sessionID string) ([]decision.Decision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM journal_decisions WHERE session_id = ? ORDER BY ts ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select journal decisions: %w", err)
	}
	defer rows.Close()

	var out []decision.Decision
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan journal decision: %w", err)
		}
		var d decision.Decision
		if err := unmarshal(data, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal decisions: %w", err)
	}
	return out, nil
}

// AppendAttempt implements decision.Store.
func (s *Store) AppendAttempt(ctx context.Context, a *decision.Attempt) error {
	data, err := marshal(a)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journal_attempts (id, session_id, ts, data) VALUES (?, ?, ?, ?)`,
		a.ID, a.SessionID, fmtTime(a.CreatedAt), data)
	if err != nil {
		return fmt.Errorf("insert journal attempt: %w", err)
	}
	return nil
}

// ListAttempts implements decision.Store, oldest first.
func (s *Store) ListAttempts(ctx context.Context, sessionID string) ([]decision.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM journal_attempts WHERE session_id = ? ORDER BY ts ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select journal attempts: %w", err)
	}
	defer rows.Close()

	var out []decision.Attempt
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan journal attempt: %w", err)
		}
		var a decision.Attempt
		if err := unmarshal(data, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal attempts: %w", err)
	}
	return out, nil
}
