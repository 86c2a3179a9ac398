// Package orchestrator drives the multi-phase build pipeline: a scoping
// wizard, an ordered phase graph with per-phase gates, a dependency graph
// with impact analysis, and a pause/resume/cancel lifecycle.
package orchestrator

import (
	"context"
	"time"
)

// Phase is one ordered stage of the build pipeline.
type Phase string

const (
	PhaseScoping        Phase = "scoping"
	PhaseArchitecture   Phase = "architecture"
	PhaseSchema         Phase = "schema"
	PhaseImplementation Phase = "implementation"
	PhaseTesting        Phase = "testing"
	PhaseStaging        Phase = "staging"
	PhaseDeployment     Phase = "deployment"
)

// AllPhases returns the phases in execution order.
func AllPhases() []Phase {
	return []Phase{
		PhaseScoping,
		PhaseArchitecture,
		PhaseSchema,
		PhaseImplementation,
		PhaseTesting,
		PhaseStaging,
		PhaseDeployment,
	}
}

// phaseAgents binds each phase to exactly one agent role.
var phaseAgents = map[Phase]string{
	PhaseScoping:        "scoping-wizard",
	PhaseArchitecture:   "architect",
	PhaseSchema:         "schema-designer",
	PhaseImplementation: "implementer",
	PhaseTesting:        "test-engineer",
	PhaseStaging:        "release-engineer",
	PhaseDeployment:     "deployment-engineer",
}

// AgentForPhase returns the agent role that owns a phase.
func AgentForPhase(p Phase) string {
	return phaseAgents[p]
}

// nextPhase returns the phase after p, or "" at the end of the pipeline.
func nextPhase(p Phase) Phase {
	phases := AllPhases()
	for i, candidate := range phases {
		if candidate == p && i+1 < len(phases) {
			return phases[i+1]
		}
	}
	return ""
}

// GateStatus is the state of one phase gate.
type GateStatus string

const (
	GatePending          GateStatus = "pending"
	GateInProgress       GateStatus = "in_progress"
	GateAwaitingApproval GateStatus = "awaiting_approval"
	GatePassed           GateStatus = "passed"
	GateFailed           GateStatus = "failed"
)

// GateState is the full bookkeeping for one phase gate.
type GateState struct {
	Status       GateStatus `json:"status"`
	PassedAt     *time.Time `json:"passed_at,omitempty"`
	ApprovedBy   string     `json:"approved_by,omitempty"`
	Artifacts    []string   `json:"artifacts,omitempty"`
	FailedReason string     `json:"failed_reason,omitempty"`
}

// ArtifactKind names a build artifact produced by a phase.
type ArtifactKind string

const (
	ArtifactTechnicalSpec  ArtifactKind = "technical-spec"
	ArtifactArchitecture   ArtifactKind = "architecture-overview"
	ArtifactSchemaDef      ArtifactKind = "schema-definition"
	ArtifactImplementation ArtifactKind = "implementation-notes"
	ArtifactTestReport     ArtifactKind = "test-report"
	ArtifactDeployPlan     ArtifactKind = "deployment-plan"
)

// phasePrerequisites lists the artifacts that must exist before entering a
// phase. Staging additionally requires a non-empty dependency graph,
// checked separately.
var phasePrerequisites = map[Phase][]ArtifactKind{
	PhaseSchema:         {ArtifactArchitecture},
	PhaseImplementation: {ArtifactTechnicalSpec},
	PhaseTesting:        {ArtifactImplementation},
	PhaseStaging:        {ArtifactTestReport},
	PhaseDeployment:     {ArtifactDeployPlan},
}

// Scope captures what the project is for and which capabilities it needs.
type Scope struct {
	ProjectType     string   `json:"project_type"`
	Audience        string   `json:"audience"`
	Platforms       []string `json:"platforms,omitempty"`
	Compliance      []string `json:"compliance,omitempty"`
	ScaleTarget     string   `json:"scale_target"`
	NeedsAuth       bool     `json:"needs_auth"`
	NeedsPayments   bool     `json:"needs_payments"`
	NeedsRealtime   bool     `json:"needs_realtime"`
	NeedsMarketing  bool     `json:"needs_marketing"`
	NeedsAnalytics  bool     `json:"needs_analytics"`
	NeedsAdmin      bool     `json:"needs_admin"`
	NeedsTeams      bool     `json:"needs_teams"`
}

// Stack captures the chosen technology per concern.
type Stack struct {
	Framework string `json:"framework"`
	Database  string `json:"database"`
	Auth      string `json:"auth"`
	UI        string `json:"ui"`
}

// DefaultStack returns the stack used when the wizard leaves a choice open.
func DefaultStack() Stack {
	return Stack{
		Framework: "next.js",
		Database:  "postgres",
		Auth:      "email-password",
		UI:        "tailwind",
	}
}

// SessionStatus is the lifecycle state of an engineering session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// DependencyNode is one artifact in the dependency graph.
type DependencyNode struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Path       string    `json:"path,omitempty"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// DependencyEdge records that Source depends on Target.
type DependencyEdge struct {
	SourceID  string    `json:"source_id"`
	TargetID  string    `json:"target_id"`
	Relation  string    `json:"relation"`
	CreatedAt time.Time `json:"created_at"`
}

// Graph is the session's append-only dependency graph.
type Graph struct {
	Nodes []DependencyNode `json:"nodes"`
	Edges []DependencyEdge `json:"edges"`
}

// Session is one long-lived engineering build.
type Session struct {
	ID            string                      `json:"id"`
	ProjectName   string                      `json:"project_name"`
	Scope         Scope                       `json:"scope"`
	Stack         Stack                       `json:"stack"`
	CurrentPhase  Phase                       `json:"current_phase"`
	CurrentAgent  string                      `json:"current_agent"`
	Gates         map[Phase]*GateState        `json:"gates"`
	Artifacts     map[ArtifactKind]string     `json:"artifacts"`
	Graph         Graph                       `json:"graph"`
	WizardAnswers map[string]string           `json:"wizard_answers"`
	IsRunning     bool                        `json:"is_running"`
	Status        SessionStatus               `json:"status"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// AgentDecision is appended on every gate pass and scoping completion.
type AgentDecision struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Timestamp    time.Time `json:"timestamp"`
	Agent        string    `json:"agent"`
	Phase        Phase     `json:"phase"`
	Decision     string    `json:"decision"`
	Reasoning    string    `json:"reasoning,omitempty"`
	Alternatives []string  `json:"alternatives,omitempty"`
	Confidence   int       `json:"confidence"`
	Reversible   bool      `json:"reversible"`
	Impact       string    `json:"impact"`
}

// Store persists engineering sessions and their decision trail.
type Store interface {
	CreateEngineeringSession(ctx context.Context, s *Session) error
	GetEngineeringSession(ctx context.Context, id string) (*Session, error)
	UpdateEngineeringSession(ctx context.Context, s *Session) error
	AppendAgentDecision(ctx context.Context, d *AgentDecision) error
	ListAgentDecisions(ctx context.Context, sessionID string, limit int) ([]AgentDecision, error)
}

// RefusalKind is the closed set of reasons an operation can be refused.
type RefusalKind string

const (
	RefusalGateNotPassed   RefusalKind = "gate_not_passed"
	RefusalFinalPhase      RefusalKind = "final_phase"
	RefusalMissingArtifact RefusalKind = "missing_artifact"
	RefusalNotRunning      RefusalKind = "not_running"
	RefusalAlreadyRunning  RefusalKind = "already_running"
	RefusalTerminal        RefusalKind = "session_terminal"
	RefusalWizardStep      RefusalKind = "unknown_wizard_step"
)

// Refusal explains why an operation did not proceed. It is data, not an
// error.
type Refusal struct {
	Kind    RefusalKind `json:"kind"`
	Message string      `json:"message"`
}

// Result is the outcome of a lifecycle or phase operation.
type Result struct {
	OK      bool     `json:"ok"`
	Refusal *Refusal `json:"refusal,omitempty"`
	Message string   `json:"message,omitempty"`
}

func refused(kind RefusalKind, message string) Result {
	return Result{OK: false, Refusal: &Refusal{Kind: kind, Message: message}}
}
