package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/wardend/internal/orchestrator"
)

// CreateEngineeringSession implements orchestrator.Store. The session is
// stored whole as JSON next to a few queryable columns.
func (s *Store) CreateEngineeringSession(ctx context.Context, es *orchestrator.Session) error {
	data, err := marshal(es)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO engineering_sessions (id, project_name, status, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		es.ID, es.ProjectName, string(es.Status), data, fmtTime(es.CreatedAt), fmtTime(es.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert engineering session: %w", err)
	}
	return nil
}

// GetEngineeringSession implements orchestrator.Store.
func (s *Store) GetEngineeringSession(ctx context.Context, id string) (*orchestrator.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM engineering_sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("engineering session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select engineering session: %w", err)
	}
	var es orchestrator.Session
	if err := unmarshal(data, &es); err != nil {
		return nil, err
	}
	return &es, nil
}

// UpdateEngineeringSession implements orchestrator.Store.
func (s *Store) UpdateEngineeringSession(ctx context.Context, es *orchestrator.Session) error {
	data, err := marshal(es)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE engineering_sessions SET project_name = ?, status = ?, data = ?, updated_at = ?
		WHERE id = ?`,
		es.ProjectName, string(es.Status), data, fmtTime(es.UpdatedAt), es.ID)
	if err != nil {
		return fmt.Errorf("update engineering session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update engineering session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("engineering session %s not found", es.ID)
	}
	return nil
}

// AppendAgentDecision implements orchestrator.Store.
func (s *Store) AppendAgentDecision(ctx context.Context, d *orchestrator.AgentDecision) error {
	data, err := marshal(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agent_decisions (id, session_id, ts, data) VALUES (?, ?, ?, ?)`,
		d.ID, d.SessionID, fmtTime(d.Timestamp), data)
	if err != nil {
		return fmt.Errorf("insert agent decision: %w", err)
	}
	return nil
}

// ListAgentDecisions implements orchestrator.Store: the most recent
// decisions up to limit, returned oldest first.
func (s *Store) ListAgentDecisions(ctx context.Context, sessionID string, limit int) ([]orchestrator.AgentDecision, error) {
	q := `SELECT data FROM agent_decisions WHERE session_id = ? ORDER BY ts DESC`
	args := []any{sessionID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select agent decisions: %w", err)
	}
	defer rows.Close()

	var out []orchestrator.AgentDecision
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan agent decision: %w", err)
		}
		var d orchestrator.AgentDecision
		if err := unmarshal(data, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agent decisions: %w", err)
	}
	// Reverse into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
