package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/wardend/internal/enforcement"
)

const timeLayout = time.RFC3339Nano

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// CreateSession implements enforcement.Store.
func (s *Store) CreateSession(ctx context.Context, es *enforcement.Session) error {
	files, err := marshal(es.PlannedFiles)
	if err != nil {
		return err
	}
	keywords, err := marshal(es.Keywords)
	if err != nil {
		return err
	}
	patterns, err := marshal(es.Patterns)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO enforcement_sessions
		(id, token, project_hash, project_name, task, planned_files, keywords, patterns,
		 start_gate, end_gate, tests_run, tests_passed, typecheck_ok, safety_score,
		 status, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		es.ID, es.Token, es.ProjectHash, es.ProjectName, es.Task, files, keywords, patterns,
		es.StartGate, es.EndGate, es.TestsRun, es.TestsPassed, es.TypecheckOK, es.SafetyScore,
		string(es.Status), fmtTime(es.CreatedAt), fmtTime(es.ExpiresAt))
	if err != nil {
		return fmt.Errorf("insert enforcement session: %w", err)
	}
	return nil
}

// GetSessionByToken implements enforcement.Store. Unknown tokens return
// enforcement.ErrSessionNotFound.
func (s *Store) GetSessionByToken(ctx context.Context, token string) (*enforcement.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, token, project_hash, project_name, task, planned_files, keywords, patterns,
		       start_gate, end_gate, tests_run, tests_passed, typecheck_ok, safety_score,
		       status, created_at, expires_at, completed_at
		FROM enforcement_sessions WHERE token = ?`, token)

	var (
		es                           enforcement.Session
		files, keywords, patterns    string
		status, createdAt, expiresAt string
		completedAt                  sql.NullString
	)
	err := row.Scan(&es.ID, &es.Token, &es.ProjectHash, &es.ProjectName, &es.Task,
		&files, &keywords, &patterns,
		&es.StartGate, &es.EndGate, &es.TestsRun, &es.TestsPassed, &es.TypecheckOK, &es.SafetyScore,
		&status, &createdAt, &expiresAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, enforcement.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select enforcement session: %w", err)
	}

	if err := unmarshal(files, &es.PlannedFiles); err != nil {
		return nil, err
	}
	if err := unmarshal(keywords, &es.Keywords); err != nil {
		return nil, err
	}
	if err := unmarshal(patterns, &es.Patterns); err != nil {
		return nil, err
	}
	es.Status = enforcement.Status(status)
	if es.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if es.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		es.CompletedAt = &t
	}
	return &es, nil
}

// MarkSessionExpired implements enforcement.Store. Expiry is permanent:
// only an active session can transition.
func (s *Store) MarkSessionExpired(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE enforcement_sessions SET status = ? WHERE id = ? AND status = ?`,
		string(enforcement.StatusExpired), id, string(enforcement.StatusActive))
	if err != nil {
		return fmt.Errorf("mark session expired: %w", err)
	}
	return nil
}

// CompleteSession implements enforcement.Store as a compare-and-swap on
// status: the terminal fields are written only if the row is still
// active, so concurrent double-submission resolves to one winner.
func (s *Store) CompleteSession(ctx context.Context, es *enforcement.Session) (bool, error) {
	var completedAt any
	if es.CompletedAt != nil {
		completedAt = fmtTime(*es.CompletedAt)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE enforcement_sessions
		SET status = ?, end_gate = ?, tests_run = ?, tests_passed = ?,
		    typecheck_ok = ?, safety_score = ?, completed_at = ?
		WHERE token = ? AND status = ?`,
		string(es.Status), es.EndGate, es.TestsRun, es.TestsPassed,
		es.TypecheckOK, es.SafetyScore, completedAt,
		es.Token, string(enforcement.StatusActive))
	if err != nil {
		return false, fmt.Errorf("complete enforcement session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete enforcement session: %w", err)
	}
	return n == 1, nil
}

// AppendDiscovery implements enforcement.Store.
func (s *Store) AppendDiscovery(ctx context.Context, d *enforcement.Discovery) error {
	keywords, err := marshal(d.Keywords)
	if err != nil {
		return err
	}
	patterns, err := marshal(d.Patterns)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pattern_discoveries
		(id, session_id, task, keywords, patterns, has_exact_match, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.SessionID, d.Task, keywords, patterns, d.HasExactMatch, d.LatencyMS, fmtTime(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert pattern discovery: %w", err)
	}
	return nil
}

// AppendValidation implements enforcement.Store.
func (s *Store) AppendValidation(ctx context.Context, v *enforcement.Validation) error {
	issues, err := marshal(v.Issues)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pattern_validations
		(id, session_id, feature_name, passed, safety_score, issues, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.SessionID, v.FeatureName, v.Passed, v.SafetyScore, issues, v.LatencyMS, fmtTime(v.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert pattern validation: %w", err)
	}
	return nil
}

// ListValidations implements enforcement.Store, oldest first.
func (s *Store) ListValidations(ctx context.Context, sessionID string) ([]enforcement.Validation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, feature_name, passed, safety_score, issues, latency_ms, created_at
		FROM pattern_validations WHERE session_id = ? ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select pattern validations: %w", err)
	}
	defer rows.Close()

	var out []enforcement.Validation
	for rows.Next() {
		var (
			v                 enforcement.Validation
			issues, createdAt string
		)
		if err := rows.Scan(&v.ID, &v.SessionID, &v.FeatureName, &v.Passed, &v.SafetyScore,
			&issues, &v.LatencyMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pattern validation: %w", err)
		}
		if err := unmarshal(issues, &v.Issues); err != nil {
			return nil, err
		}
		if v.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pattern validations: %w", err)
	}
	return out, nil
}
