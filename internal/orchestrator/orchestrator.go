package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/wardend/internal/events"
)

// Orchestrator drives engineering sessions. Mutations against the same
// session id are serialized by a per-id mutex: the lock is held across
// the whole read-mutate-persist-recache cycle so the cache never exposes
// a half-updated session.
type Orchestrator struct {
	store  Store
	sink   events.Sink
	logger *zap.Logger

	cacheMu sync.RWMutex
	cache   map[string]*Session

	locks sync.Map // session id -> *sync.Mutex
}

// New creates an orchestrator.
func New(store Store, sink events.Sink, logger *zap.Logger) *Orchestrator {
	if sink == nil {
		sink = events.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		store:  store,
		sink:   sink,
		logger: logger,
		cache:  make(map[string]*Session),
	}
}

func (o *Orchestrator) sessionLock(id string) *sync.Mutex {
	mu, _ := o.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// StartSessionResult is the outcome of StartSession.
type StartSessionResult struct {
	Session   *Session   `json:"session"`
	FirstStep WizardStep `json:"first_step"`
}

// StartSession creates a new engineering session with default scope and
// stack, every gate pending, and returns the first scoping question.
func (o *Orchestrator) StartSession(ctx context.Context, projectName string) (*StartSessionResult, error) {
	now := time.Now()
	s := &Session{
		ID:            uuid.New().String(),
		ProjectName:   projectName,
		Stack:         DefaultStack(),
		CurrentPhase:  PhaseScoping,
		CurrentAgent:  AgentForPhase(PhaseScoping),
		Gates:         make(map[Phase]*GateState, len(AllPhases())),
		Artifacts:     make(map[ArtifactKind]string),
		WizardAnswers: make(map[string]string),
		IsRunning:     true,
		Status:        SessionActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, p := range AllPhases() {
		s.Gates[p] = &GateState{Status: GatePending}
	}
	s.Gates[PhaseScoping].Status = GateInProgress

	if err := o.store.CreateEngineeringSession(ctx, s); err != nil {
		return nil, fmt.Errorf("create engineering session: %w", err)
	}
	o.recache(s)

	o.logger.Info("engineering session started",
		zap.String("session_id", s.ID),
		zap.String("project", projectName))

	return &StartSessionResult{Session: s, FirstStep: FirstWizardStep()}, nil
}

// load returns the session from cache, falling back to the store.
// Callers must hold the session lock.
func (o *Orchestrator) load(ctx context.Context, id string) (*Session, error) {
	o.cacheMu.RLock()
	s, ok := o.cache[id]
	o.cacheMu.RUnlock()
	if ok {
		return s, nil
	}
	s, err := o.store.GetEngineeringSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load engineering session %s: %w", id, err)
	}
	o.recache(s)
	return s, nil
}

func (o *Orchestrator) recache(s *Session) {
	o.cacheMu.Lock()
	o.cache[s.ID] = s
	o.cacheMu.Unlock()
}

// mutate runs fn under the session's lock, then persists and recaches.
// If fn returns a refusal, nothing is persisted.
func (o *Orchestrator) mutate(ctx context.Context, id string, fn func(*Session) Result) (Result, error) {
	mu := o.sessionLock(id)
	mu.Lock()
	defer mu.Unlock()

	s, err := o.load(ctx, id)
	if err != nil {
		return Result{}, err
	}

	res := fn(s)
	if !res.OK {
		return res, nil
	}

	s.UpdatedAt = time.Now()
	if err := o.store.UpdateEngineeringSession(ctx, s); err != nil {
		return Result{}, fmt.Errorf("persist engineering session %s: %w", id, err)
	}
	o.recache(s)
	return res, nil
}

// Get returns a session by id.
func (o *Orchestrator) Get(ctx context.Context, id string) (*Session, error) {
	mu := o.sessionLock(id)
	mu.Lock()
	defer mu.Unlock()
	return o.load(ctx, id)
}

// AnswerResult is the outcome of one wizard answer.
type AnswerResult struct {
	Result
	NextStep        *WizardStep `json:"next_step,omitempty"`
	ScopingComplete bool        `json:"scoping_complete"`
}

// ProcessAnswer applies one scoping answer and returns the next step.
// Exhausting the step list passes the scoping gate, infers remaining
// defaults, and hands off to the next phase.
func (o *Orchestrator) ProcessAnswer(ctx context.Context, sessionID, stepID, answer string) (*AnswerResult, error) {
	out := &AnswerResult{}
	res, err := o.mutate(ctx, sessionID, func(s *Session) Result {
		if s.Status == SessionCompleted || s.Status == SessionAbandoned {
			return refused(RefusalTerminal, fmt.Sprintf("session is %s", s.Status))
		}
		if !applyAnswer(s, stepID, answer) {
			return refused(RefusalWizardStep, fmt.Sprintf("unknown wizard step %q", stepID))
		}

		if next := nextWizardStep(s); next != nil {
			out.NextStep = next
			return Result{OK: true, Message: "answer recorded"}
		}

		// Wizard exhausted: pass the scoping gate and hand off.
		inferScopeDefaults(s)
		now := time.Now()
		gate := s.Gates[PhaseScoping]
		gate.Status = GatePassed
		gate.PassedAt = &now
		gate.ApprovedBy = AgentForPhase(PhaseScoping)

		next := nextPhase(PhaseScoping)
		s.CurrentPhase = next
		s.CurrentAgent = AgentForPhase(next)
		s.Gates[next].Status = GateInProgress
		out.ScopingComplete = true

		o.appendDecision(ctx, s, &AgentDecision{
			Agent:      AgentForPhase(PhaseScoping),
			Phase:      PhaseScoping,
			Decision:   "scoping complete",
			Reasoning:  fmt.Sprintf("project_type=%s audience=%s scale=%s", s.Scope.ProjectType, s.Scope.Audience, s.Scope.ScaleTarget),
			Confidence: 90,
			Reversible: true,
			Impact:     "medium",
		})

		return Result{OK: true, Message: fmt.Sprintf("scoping complete, handing off to %s", s.CurrentAgent)}
	})
	if err != nil {
		return nil, err
	}
	out.Result = res
	return out, nil
}

// AdvancePhase moves the session to the next phase. Refused when the
// current gate is not passed, at the final phase, or when an artifact the
// next phase requires is absent.
func (o *Orchestrator) AdvancePhase(ctx context.Context, sessionID string) (Result, error) {
	return o.mutate(ctx, sessionID, func(s *Session) Result {
		if s.Status == SessionCompleted || s.Status == SessionAbandoned {
			return refused(RefusalTerminal, fmt.Sprintf("session is %s", s.Status))
		}
		gate := s.Gates[s.CurrentPhase]
		if gate.Status != GatePassed {
			return refused(RefusalGateNotPassed,
				fmt.Sprintf("gate for phase %s is %s, not passed", s.CurrentPhase, gate.Status))
		}

		next := nextPhase(s.CurrentPhase)
		if next == "" {
			return refused(RefusalFinalPhase,
				fmt.Sprintf("%s is the final phase", s.CurrentPhase))
		}

		for _, kind := range phasePrerequisites[next] {
			if s.Artifacts[kind] == "" {
				return refused(RefusalMissingArtifact,
					fmt.Sprintf("phase %s requires artifact %s", next, kind))
			}
		}
		if next == PhaseStaging && len(s.Graph.Nodes) == 0 {
			return refused(RefusalMissingArtifact,
				"phase staging requires a non-empty dependency graph")
		}

		s.CurrentPhase = next
		s.CurrentAgent = AgentForPhase(next)
		s.Gates[next].Status = GateInProgress

		o.sink.Emit(ctx, events.New(events.KindPhaseAdvanced, s.ID, map[string]string{
			"phase": string(next),
			"agent": s.CurrentAgent,
		}))

		return Result{OK: true, Message: fmt.Sprintf("handing off %s to %s", next, s.CurrentAgent)}
	})
}

// PassGate marks the current gate passed with the produced artifacts and
// appends an agent decision.
func (o *Orchestrator) PassGate(ctx context.Context, sessionID string, artifacts map[ArtifactKind]string, approvedBy string) (Result, error) {
	return o.mutate(ctx, sessionID, func(s *Session) Result {
		if s.Status == SessionCompleted || s.Status == SessionAbandoned {
			return refused(RefusalTerminal, fmt.Sprintf("session is %s", s.Status))
		}

		now := time.Now()
		gate := s.Gates[s.CurrentPhase]
		gate.Status = GatePassed
		gate.PassedAt = &now
		gate.ApprovedBy = approvedBy
		gate.FailedReason = ""
		gate.Artifacts = gate.Artifacts[:0]
		for kind, content := range artifacts {
			s.Artifacts[kind] = content
			gate.Artifacts = append(gate.Artifacts, string(kind))
		}

		if s.CurrentPhase == PhaseDeployment {
			s.Status = SessionCompleted
			s.IsRunning = false
		}

		o.appendDecision(ctx, s, &AgentDecision{
			Agent:      s.CurrentAgent,
			Phase:      s.CurrentPhase,
			Decision:   fmt.Sprintf("gate %s passed", s.CurrentPhase),
			Reasoning:  fmt.Sprintf("approved by %s", approvedBy),
			Confidence: 85,
			Reversible: true,
			Impact:     "medium",
		})

		o.sink.Emit(ctx, events.New(events.KindGatePassed, s.ID, map[string]string{
			"phase":       string(s.CurrentPhase),
			"approved_by": approvedBy,
		}))

		return Result{OK: true, Message: fmt.Sprintf("gate %s passed", s.CurrentPhase)}
	})
}

// RequestApproval parks the current gate until a human decides.
func (o *Orchestrator) RequestApproval(ctx context.Context, sessionID, summary string) (Result, error) {
	return o.mutate(ctx, sessionID, func(s *Session) Result {
		if s.Status == SessionCompleted || s.Status == SessionAbandoned {
			return refused(RefusalTerminal, fmt.Sprintf("session is %s", s.Status))
		}
		s.Gates[s.CurrentPhase].Status = GateAwaitingApproval
		return Result{OK: true, Message: fmt.Sprintf("phase %s awaiting approval: %s", s.CurrentPhase, summary)}
	})
}

// HandleApproval resolves a pending approval. Approval passes the gate;
// rejection fails it with the feedback as the reason.
func (o *Orchestrator) HandleApproval(ctx context.Context, sessionID string, approved bool, approver, feedback string) (Result, error) {
	if approved {
		return o.PassGate(ctx, sessionID, nil, approver)
	}
	return o.mutate(ctx, sessionID, func(s *Session) Result {
		if s.Status == SessionCompleted || s.Status == SessionAbandoned {
			return refused(RefusalTerminal, fmt.Sprintf("session is %s", s.Status))
		}
		gate := s.Gates[s.CurrentPhase]
		gate.Status = GateFailed
		gate.FailedReason = feedback
		return Result{OK: true, Message: fmt.Sprintf("phase %s rejected: %s", s.CurrentPhase, feedback)}
	})
}

// Pause stops the pipeline before its next step. Refused unless running.
func (o *Orchestrator) Pause(ctx context.Context, sessionID string) (Result, error) {
	return o.mutate(ctx, sessionID, func(s *Session) Result {
		if s.Status == SessionCompleted || s.Status == SessionAbandoned {
			return refused(RefusalTerminal, fmt.Sprintf("session is %s", s.Status))
		}
		if !s.IsRunning {
			return refused(RefusalNotRunning, "session is not running")
		}
		s.IsRunning = false
		s.Status = SessionPaused
		return Result{OK: true, Message: "session paused"}
	})
}

// Resume restarts a paused pipeline. Refused if already running.
func (o *Orchestrator) Resume(ctx context.Context, sessionID string) (Result, error) {
	return o.mutate(ctx, sessionID, func(s *Session) Result {
		if s.Status == SessionCompleted || s.Status == SessionAbandoned {
			return refused(RefusalTerminal, fmt.Sprintf("session is %s", s.Status))
		}
		if s.IsRunning {
			return refused(RefusalAlreadyRunning, "session is already running")
		}
		s.IsRunning = true
		s.Status = SessionActive
		return Result{OK: true, Message: "session resumed"}
	})
}

// Cancel is terminal: the current gate fails and the session is
// abandoned. Irreversible.
func (o *Orchestrator) Cancel(ctx context.Context, sessionID string) (Result, error) {
	return o.mutate(ctx, sessionID, func(s *Session) Result {
		if s.Status == SessionCompleted || s.Status == SessionAbandoned {
			return refused(RefusalTerminal, fmt.Sprintf("session is %s", s.Status))
		}
		gate := s.Gates[s.CurrentPhase]
		gate.Status = GateFailed
		gate.FailedReason = "session cancelled"
		s.Status = SessionAbandoned
		s.IsRunning = false
		return Result{OK: true, Message: "session cancelled"}
	})
}

// appendDecision fills in ids and timestamps and writes the decision.
// Persist failures are logged, not fatal: the decision trail is an audit
// artifact, not a precondition for the mutation that produced it.
func (o *Orchestrator) appendDecision(ctx context.Context, s *Session, d *AgentDecision) {
	d.ID = uuid.New().String()
	d.SessionID = s.ID
	d.Timestamp = time.Now()
	if err := o.store.AppendAgentDecision(ctx, d); err != nil {
		o.logger.Error("failed to append agent decision",
			zap.String("session_id", s.ID),
			zap.Error(err))
	}
}
