package enforcement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/wardend/internal/decision"
	"github.com/fyrsmithlabs/wardend/internal/events"
)

// ValidateRequest reports the outcome of one unit of work.
type ValidateRequest struct {
	SessionToken       string   `json:"session_token"`
	FeatureName        string   `json:"feature_name"`
	FeatureDescription string   `json:"feature_description,omitempty"`
	FilesModified      []string `json:"files_modified,omitempty"`
	TestsWritten       bool     `json:"tests_written,omitempty"`
	TestsRun           bool     `json:"tests_run,omitempty"`
	TestsPassed        bool     `json:"tests_passed,omitempty"`
	TypecheckPassed    bool     `json:"typecheck_passed,omitempty"`
	SafetySession      string   `json:"safety_session_id,omitempty"`
	ContextWasLoaded   bool     `json:"context_was_loaded,omitempty"`
	IntentWasClarified bool     `json:"intent_was_clarified,omitempty"`
	ScopeWasLocked     bool     `json:"scope_was_locked,omitempty"`
	Approach           string   `json:"approach,omitempty"`
	EnvVarsAdded       []string `json:"env_vars_added,omitempty"`
	SchemaModified     bool     `json:"schema_modified,omitempty"`
}

// ValidateResult is the verdict. Every detected issue is listed; warnings
// never flip Passed.
type ValidateResult struct {
	Passed              bool     `json:"passed"`
	Issues              []Issue  `json:"issues,omitempty"`
	SessionCompleted    bool     `json:"session_completed"`
	SafetyScore         int      `json:"safety_score"`
	SafetyGatesFollowed []string `json:"safety_gates_followed,omitempty"`
	SafetyGatesSkipped  []string `json:"safety_gates_skipped,omitempty"`
	AttemptLogged       bool     `json:"attempt_logged"`
	DecisionLogged      bool     `json:"decision_logged"`
	Message             string   `json:"message"`
}

// Validate closes the session minted by Discover. All verdicts are data:
// an unknown token or an expired session come back as issues with
// Passed=false, never as a Go error. Only store failures are errors.
func (g *Gate) Validate(ctx context.Context, req ValidateRequest) (*ValidateResult, error) {
	started := g.now()

	s, err := g.store.GetSessionByToken(ctx, req.SessionToken)
	if errors.Is(err, ErrSessionNotFound) {
		res := &ValidateResult{
			Passed:             false,
			Issues:             []Issue{errorIssue(IssueSessionNotFound, "no enforcement session exists for this token; call pattern_discover first")},
			SafetyScore:        0,
			SafetyGatesSkipped: append([]string(nil), safetyGates...),
		}
		res.Message = composeValidateMessage(res)
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load enforcement session: %w", err)
	}

	// A pass is terminal and idempotent: repeat calls return the
	// recorded verdict without re-evaluating anything.
	if s.Status == StatusCompleted {
		return &ValidateResult{
			Passed:           true,
			SessionCompleted: true,
			SafetyScore:      100,
			Message:          "session already validated; returning the recorded pass",
		}, nil
	}

	if s.Status == StatusExpired || g.now().After(s.ExpiresAt) {
		if s.Status != StatusExpired {
			if err := g.store.MarkSessionExpired(ctx, s.ID); err != nil {
				return nil, fmt.Errorf("mark session expired: %w", err)
			}
			g.sink.Emit(ctx, events.New(events.KindSessionExpired, s.ID, nil))
		}
		res := &ValidateResult{
			Passed:      false,
			Issues:      []Issue{errorIssue(IssueSessionExpired, fmt.Sprintf("session expired at %s; expiry is permanent, run pattern_discover again", s.ExpiresAt.Format("15:04:05")))},
			SafetyScore: 0,
		}
		res.Message = composeValidateMessage(res)
		return res, nil
	}

	var issues []Issue
	if !s.StartGate {
		// Impossible for a session Discover created, checked anyway.
		issues = append(issues, errorIssue(IssueStartGate, "discovery gate was never passed for this session"))
	}

	extended := req.SafetySession != ""
	var followed, skipped []string
	if s.StartGate {
		followed = append(followed, safetyGates[0])
	} else {
		skipped = append(skipped, safetyGates[0])
	}
	if extended {
		optional := []struct {
			name string
			done bool
		}{
			{"context-loaded", req.ContextWasLoaded},
			{"intent-clarified", req.IntentWasClarified},
			{"scope-locked", req.ScopeWasLocked},
		}
		for _, gate := range optional {
			if gate.done {
				followed = append(followed, gate.name)
				continue
			}
			skipped = append(skipped, gate.name)
			issues = append(issues, warningIssue(IssueGateSkipped,
				fmt.Sprintf("safety gate %q was skipped", gate.name)))
		}
	}

	// Hard checks: each one an error.
	if !req.TestsRun {
		issues = append(issues, errorIssue(IssueTestsNotRun, "tests were not run"))
	} else if !req.TestsPassed {
		issues = append(issues, errorIssue(IssueTestsFailed, "tests were run but did not pass"))
	}
	if !req.TypecheckPassed {
		issues = append(issues, errorIssue(IssueTypecheckFailed, "type check did not pass"))
	}

	// Soft checks: reminders only.
	if !req.TestsWritten {
		issues = append(issues, warningIssue(IssueNoTestsWritten, "no tests were written for this feature"))
	}
	if len(req.EnvVarsAdded) > 0 {
		issues = append(issues, warningIssue(IssueEnvVarsAdded,
			fmt.Sprintf("new environment variables (%s): document them and update deployment config", strings.Join(req.EnvVarsAdded, ", "))))
	}
	if req.SchemaModified {
		issues = append(issues, warningIssue(IssueSchemaModified, "schema was modified: generate and run the migration"))
	}

	passed := !hasErrors(issues)

	score := 0
	if extended {
		score = 25 * len(followed)
	} else if s.StartGate {
		score = 100
	}

	now := g.now()
	s.EndGate = passed
	s.TestsRun = req.TestsRun
	s.TestsPassed = req.TestsPassed
	s.TypecheckOK = req.TypecheckPassed
	s.SafetyScore = score
	s.CompletedAt = &now
	if passed {
		s.Status = StatusCompleted
	} else {
		s.Status = StatusFailed
	}

	swapped, err := g.store.CompleteSession(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("complete enforcement session: %w", err)
	}
	if !swapped {
		// A concurrent call closed the session first; report the
		// state that actually won.
		return g.lostRace(ctx, req.SessionToken)
	}

	audit := &Validation{
		ID:          uuid.New().String(),
		SessionID:   s.ID,
		FeatureName: req.FeatureName,
		Passed:      passed,
		SafetyScore: score,
		Issues:      issues,
		LatencyMS:   g.now().Sub(started).Milliseconds(),
		CreatedAt:   g.now(),
	}
	if err := g.store.AppendValidation(ctx, audit); err != nil {
		g.logger.Error("failed to append validation audit row",
			zap.String("session_id", s.ID), zap.Error(err))
	}
	g.sink.Emit(ctx, events.New(events.KindValidationRecorded, s.ID, map[string]string{
		"feature": req.FeatureName,
		"passed":  fmt.Sprintf("%t", passed),
	}))

	res := &ValidateResult{
		Passed:              passed,
		Issues:              issues,
		SessionCompleted:    passed,
		SafetyScore:         score,
		SafetyGatesFollowed: followed,
		SafetyGatesSkipped:  skipped,
	}

	if extended && g.journal != nil {
		g.recordOutcome(ctx, req, passed, issues, res)
	}

	res.Message = composeValidateMessage(res)
	g.logger.Info("pattern validation",
		zap.String("session_id", s.ID),
		zap.String("feature", req.FeatureName),
		zap.Bool("passed", passed),
		zap.Int("safety_score", score))
	return res, nil
}

// lostRace re-reads the session after a failed compare-and-swap and
// returns the verdict the winning call recorded.
func (g *Gate) lostRace(ctx context.Context, token string) (*ValidateResult, error) {
	s, err := g.store.GetSessionByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("reload enforcement session after lost swap: %w", err)
	}
	switch s.Status {
	case StatusCompleted:
		return &ValidateResult{
			Passed:           true,
			SessionCompleted: true,
			SafetyScore:      100,
			Message:          "session already validated; returning the recorded pass",
		}, nil
	case StatusExpired:
		res := &ValidateResult{
			Passed: false,
			Issues: []Issue{errorIssue(IssueSessionExpired, "session expired; expiry is permanent")},
		}
		res.Message = composeValidateMessage(res)
		return res, nil
	default:
		return &ValidateResult{
			Passed:           false,
			SessionCompleted: true,
			SafetyScore:      s.SafetyScore,
			Message:          "a concurrent call already closed this session as failed",
		}, nil
	}
}

// recordOutcome writes the attempt record and, on success, a journal
// decision. Journal failures are logged, not fatal.
func (g *Gate) recordOutcome(ctx context.Context, req ValidateRequest, passed bool, issues []Issue, res *ValidateResult) {
	var lessons []string
	for _, i := range issues {
		if i.Severity == SeverityError {
			lessons = append(lessons, i.Message)
		}
	}
	attempt := &decision.Attempt{
		ID:        uuid.New().String(),
		SessionID: req.SafetySession,
		Feature:   req.FeatureName,
		Approach:  req.Approach,
		Success:   passed,
		Lessons:   strings.Join(lessons, "; "),
		CreatedAt: g.now(),
	}
	if err := g.journal.RecordAttempt(ctx, attempt); err != nil {
		g.logger.Warn("failed to record attempt",
			zap.String("safety_session", req.SafetySession), zap.Error(err))
	} else {
		res.AttemptLogged = true
		g.sink.Emit(ctx, events.New(events.KindAttemptLogged, req.SafetySession, map[string]string{
			"feature": req.FeatureName,
			"success": fmt.Sprintf("%t", passed),
		}))
	}

	if !passed {
		return
	}
	reasoning := req.Approach
	if reasoning == "" {
		reasoning = req.FeatureDescription
	}
	d, err := decision.New(decision.Params{
		Category:     "implementation",
		Decision:     "implemented " + req.FeatureName,
		Reasoning:    reasoning,
		Author:       decision.AuthorAI,
		Reversible:   true,
		Impact:       decision.ImpactMedium,
		RelatedFiles: req.FilesModified,
	})
	if err != nil {
		g.logger.Warn("failed to build journal decision", zap.Error(err))
		return
	}
	if err := g.journal.Append(ctx, req.SafetySession, d); err != nil {
		g.logger.Warn("failed to append journal decision",
			zap.String("safety_session", req.SafetySession), zap.Error(err))
		return
	}
	res.DecisionLogged = true
	g.sink.Emit(ctx, events.New(events.KindDecisionLogged, req.SafetySession, map[string]string{
		"decision": d.Decision,
	}))
}

// History returns the validation audit rows for a session.
func (g *Gate) History(ctx context.Context, sessionID string) ([]Validation, error) {
	rows, err := g.store.ListValidations(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list validations: %w", err)
	}
	return rows, nil
}

func composeValidateMessage(res *ValidateResult) string {
	var b strings.Builder
	if res.Passed {
		b.WriteString("Validation passed.")
	} else {
		b.WriteString("Validation failed.")
	}
	fmt.Fprintf(&b, " Safety score: %d/100.", res.SafetyScore)
	if len(res.SafetyGatesSkipped) > 0 {
		fmt.Fprintf(&b, " Skipped gates: %s.", strings.Join(res.SafetyGatesSkipped, ", "))
	}
	for _, i := range res.Issues {
		fmt.Fprintf(&b, "\n[%s] %s: %s", i.Severity, i.Type, i.Message)
	}
	return b.String()
}
