package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/wardend/internal/scopelock"
)

// SaveLock implements scopelock.Store. The lock body is stored without
// its violations; those live in their own append-only table and are
// merged back on read.
func (s *Store) SaveLock(ctx context.Context, l *scopelock.Lock) error {
	stripped := *l
	stripped.Violations = nil
	data, err := marshal(&stripped)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scope_locks (id, created_at, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		l.ID, fmtTime(l.CreatedAt), data)
	if err != nil {
		return fmt.Errorf("save scope lock: %w", err)
	}
	return nil
}

// GetLock implements scopelock.Store.
func (s *Store) GetLock(ctx context.Context, id string) (*scopelock.Lock, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM scope_locks WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scope lock %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select scope lock: %w", err)
	}
	var l scopelock.Lock
	if err := unmarshal(data, &l); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM scope_violations WHERE lock_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("select scope violations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var vdata string
		if err := rows.Scan(&vdata); err != nil {
			return nil, fmt.Errorf("scan scope violation: %w", err)
		}
		var v scopelock.Violation
		if err := unmarshal(vdata, &v); err != nil {
			return nil, err
		}
		l.Violations = append(l.Violations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scope violations: %w", err)
	}
	return &l, nil
}

// AppendViolation implements scopelock.Store.
func (s *Store) AppendViolation(ctx context.Context, lockID string, v scopelock.Violation) error {
	data, err := marshal(&v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scope_violations (lock_id, ts, data) VALUES (?, ?, ?)`,
		lockID, fmtTime(v.Timestamp), data)
	if err != nil {
		return fmt.Errorf("insert scope violation: %w", err)
	}
	return nil
}
