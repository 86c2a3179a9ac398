// Package enforcement implements the two-call protocol that brackets one
// unit of agent work: Discover fetches the rules that apply to a task and
// mints a session token, Validate proves the work followed them and
// terminally closes the session.
package enforcement

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by Store lookups for unknown tokens.
// The gate translates it into a SESSION_NOT_FOUND issue; it never
// escapes Validate as an error.
var ErrSessionNotFound = errors.New("enforcement session not found")

// Status is the lifecycle state of an enforcement session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusFailed    Status = "failed"
)

// Session is one bracketed unit of agent work. Created by Discover,
// mutated exactly once by Validate (terminally), never deleted.
// EndGatePassed implies StartGatePassed.
type Session struct {
	ID           string     `json:"id"`
	Token        string     `json:"token"`
	ProjectHash  string     `json:"project_hash,omitempty"`
	ProjectName  string     `json:"project_name,omitempty"`
	Task         string     `json:"task"`
	PlannedFiles []string   `json:"planned_files,omitempty"`
	Keywords     []string   `json:"keywords,omitempty"`
	Patterns     []string   `json:"patterns,omitempty"`
	StartGate    bool       `json:"start_gate_passed"`
	EndGate      bool       `json:"end_gate_passed"`
	TestsRun     bool       `json:"tests_run"`
	TestsPassed  bool       `json:"tests_passed"`
	TypecheckOK  bool       `json:"typecheck_passed"`
	SafetyScore  int        `json:"safety_score"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Discovery is the append-only audit row written once per Discover call.
type Discovery struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	Task          string    `json:"task"`
	Keywords      []string  `json:"keywords,omitempty"`
	Patterns      []string  `json:"patterns,omitempty"`
	HasExactMatch bool      `json:"has_exact_match"`
	LatencyMS     int64     `json:"latency_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// Validation is the append-only audit row written once per Validate call.
type Validation struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	FeatureName string    `json:"feature_name"`
	Passed      bool      `json:"passed"`
	SafetyScore int       `json:"safety_score"`
	Issues      []Issue   `json:"issues,omitempty"`
	LatencyMS   int64     `json:"latency_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// Severity tags an issue. Warnings never flip a verdict; errors always do.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IssueType is the closed set of verdict issue identifiers.
type IssueType string

const (
	IssueSessionNotFound IssueType = "SESSION_NOT_FOUND"
	IssueSessionExpired  IssueType = "SESSION_EXPIRED"
	IssueStartGate       IssueType = "START_GATE_NOT_PASSED"
	IssueTestsNotRun     IssueType = "TESTS_NOT_RUN"
	IssueTestsFailed     IssueType = "TESTS_FAILED"
	IssueTypecheckFailed IssueType = "TYPECHECK_FAILED"
	IssueNoTestsWritten  IssueType = "NO_TESTS_WRITTEN"
	IssueEnvVarsAdded    IssueType = "ENV_VARS_ADDED"
	IssueSchemaModified  IssueType = "SCHEMA_MODIFIED"
	IssueGateSkipped     IssueType = "SAFETY_GATE_SKIPPED"
)

// Issue is one finding from a Validate call. It is data, not an error.
type Issue struct {
	Type     IssueType `json:"type"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

func errorIssue(t IssueType, msg string) Issue {
	return Issue{Type: t, Severity: SeverityError, Message: msg}
}

func warningIssue(t IssueType, msg string) Issue {
	return Issue{Type: t, Severity: SeverityWarning, Message: msg}
}

// hasErrors reports whether any issue is severity error.
func hasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Store is the durable contract the gate needs. CompleteSession is a
// compare-and-swap: it moves the session out of StatusActive and writes
// the terminal fields only if no concurrent call already did, reporting
// whether this caller won.
type Store interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSessionByToken(ctx context.Context, token string) (*Session, error)
	MarkSessionExpired(ctx context.Context, id string) error
	CompleteSession(ctx context.Context, s *Session) (bool, error)
	AppendDiscovery(ctx context.Context, d *Discovery) error
	AppendValidation(ctx context.Context, v *Validation) error
	ListValidations(ctx context.Context, sessionID string) ([]Validation, error)
}
