package store

// schema is applied on every Open; statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS enforcement_sessions (
    id               TEXT PRIMARY KEY,
    token            TEXT NOT NULL UNIQUE,
    project_hash     TEXT NOT NULL DEFAULT '',
    project_name     TEXT NOT NULL DEFAULT '',
    task             TEXT NOT NULL,
    planned_files    TEXT NOT NULL DEFAULT '[]',
    keywords         TEXT NOT NULL DEFAULT '[]',
    patterns         TEXT NOT NULL DEFAULT '[]',
    start_gate       INTEGER NOT NULL DEFAULT 0,
    end_gate         INTEGER NOT NULL DEFAULT 0,
    tests_run        INTEGER NOT NULL DEFAULT 0,
    tests_passed     INTEGER NOT NULL DEFAULT 0,
    typecheck_ok     INTEGER NOT NULL DEFAULT 0,
    safety_score     INTEGER NOT NULL DEFAULT 0,
    status           TEXT NOT NULL,
    created_at       TEXT NOT NULL,
    expires_at       TEXT NOT NULL,
    completed_at     TEXT
);
CREATE INDEX IF NOT EXISTS idx_enforcement_sessions_status ON enforcement_sessions(status);

CREATE TABLE IF NOT EXISTS pattern_discoveries (
    id              TEXT PRIMARY KEY,
    session_id      TEXT NOT NULL,
    task            TEXT NOT NULL,
    keywords        TEXT NOT NULL DEFAULT '[]',
    patterns        TEXT NOT NULL DEFAULT '[]',
    has_exact_match INTEGER NOT NULL DEFAULT 0,
    latency_ms      INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pattern_discoveries_session ON pattern_discoveries(session_id);

CREATE TABLE IF NOT EXISTS pattern_validations (
    id           TEXT PRIMARY KEY,
    session_id   TEXT NOT NULL,
    feature_name TEXT NOT NULL DEFAULT '',
    passed       INTEGER NOT NULL DEFAULT 0,
    safety_score INTEGER NOT NULL DEFAULT 0,
    issues       TEXT NOT NULL DEFAULT '[]',
    latency_ms   INTEGER NOT NULL DEFAULT 0,
    created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pattern_validations_session ON pattern_validations(session_id);

CREATE TABLE IF NOT EXISTS engineering_sessions (
    id           TEXT PRIMARY KEY,
    project_name TEXT NOT NULL,
    status       TEXT NOT NULL,
    data         TEXT NOT NULL,
    created_at   TEXT NOT NULL,
    updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS agent_decisions (
    id         TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    ts         TEXT NOT NULL,
    data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_agent_decisions_session ON agent_decisions(session_id);

CREATE TABLE IF NOT EXISTS journal_decisions (
    id         TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    ts         TEXT NOT NULL,
    data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_journal_decisions_session ON journal_decisions(session_id);

CREATE TABLE IF NOT EXISTS journal_attempts (
    id         TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    ts         TEXT NOT NULL,
    data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_journal_attempts_session ON journal_attempts(session_id);

CREATE TABLE IF NOT EXISTS scope_locks (
    id         TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    data       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scope_violations (
    seq     INTEGER PRIMARY KEY AUTOINCREMENT,
    lock_id TEXT NOT NULL,
    ts      TEXT NOT NULL,
    data    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scope_violations_lock ON scope_violations(lock_id);
`
