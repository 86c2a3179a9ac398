package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/wardend/internal/decision"
	"github.com/fyrsmithlabs/wardend/internal/enforcement"
	"github.com/fyrsmithlabs/wardend/internal/orchestrator"
	"github.com/fyrsmithlabs/wardend/internal/scopelock"
)

var (
	_ enforcement.Store  = (*Store)(nil)
	_ orchestrator.Store = (*Store)(nil)
	_ decision.Store     = (*Store)(nil)
	_ scopelock.Store    = (*Store)(nil)
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "wardend.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSession(token string) *enforcement.Session {
	now := time.Now()
	return &enforcement.Session{
		ID:           "es-" + token,
		Token:        token,
		Task:         "add stripe checkout",
		PlannedFiles: []string{"app/checkout.ts"},
		Keywords:     []string{"checkout", "stripe"},
		Patterns:     []string{"core/rules", "payments/stripe"},
		StartGate:    true,
		Status:       enforcement.StatusActive,
		CreatedAt:    now,
		ExpiresAt:    now.Add(30 * time.Minute),
	}
}

func TestStore_Ping(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestStore_OpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wardend.db")
	s1, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestStore_EnforcementSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	es := testSession("tok-1")
	require.NoError(t, s.CreateSession(ctx, es))

	got, err := s.GetSessionByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, es.ID, got.ID)
	assert.Equal(t, es.Task, got.Task)
	assert.Equal(t, es.Keywords, got.Keywords)
	assert.Equal(t, es.Patterns, got.Patterns)
	assert.True(t, got.StartGate)
	assert.Equal(t, enforcement.StatusActive, got.Status)
	assert.WithinDuration(t, es.ExpiresAt, got.ExpiresAt, time.Millisecond)
	assert.Nil(t, got.CompletedAt)

	_, err = s.GetSessionByToken(ctx, "no-such-token")
	assert.ErrorIs(t, err, enforcement.ErrSessionNotFound)
}

func TestStore_CompleteSessionSwapsOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	es := testSession("tok-2")
	require.NoError(t, s.CreateSession(ctx, es))

	now := time.Now()
	es.Status = enforcement.StatusCompleted
	es.EndGate = true
	es.TestsRun = true
	es.TestsPassed = true
	es.TypecheckOK = true
	es.SafetyScore = 100
	es.CompletedAt = &now

	swapped, err := s.CompleteSession(ctx, es)
	require.NoError(t, err)
	assert.True(t, swapped)

	// Second writer loses the swap.
	swapped, err = s.CompleteSession(ctx, es)
	require.NoError(t, err)
	assert.False(t, swapped)

	got, err := s.GetSessionByToken(ctx, "tok-2")
	require.NoError(t, err)
	assert.Equal(t, enforcement.StatusCompleted, got.Status)
	assert.True(t, got.EndGate)
	require.NotNil(t, got.CompletedAt)
}

func TestStore_MarkSessionExpiredOnlyWhenActive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	es := testSession("tok-3")
	require.NoError(t, s.CreateSession(ctx, es))
	require.NoError(t, s.MarkSessionExpired(ctx, es.ID))

	got, err := s.GetSessionByToken(ctx, "tok-3")
	require.NoError(t, err)
	assert.Equal(t, enforcement.StatusExpired, got.Status)

	// A terminal session cannot regress to expired.
	es2 := testSession("tok-4")
	require.NoError(t, s.CreateSession(ctx, es2))
	es2.Status = enforcement.StatusCompleted
	_, err = s.CompleteSession(ctx, es2)
	require.NoError(t, err)
	require.NoError(t, s.MarkSessionExpired(ctx, es2.ID))
	got, err = s.GetSessionByToken(ctx, "tok-4")
	require.NoError(t, err)
	assert.Equal(t, enforcement.StatusCompleted, got.Status)
}

func TestStore_AuditRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := &enforcement.Discovery{
		ID:            "d1",
		SessionID:     "es-1",
		Task:          "add stripe checkout",
		Keywords:      []string{"stripe"},
		Patterns:      []string{"core/rules", "payments/stripe"},
		HasExactMatch: true,
		LatencyMS:     3,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, s.AppendDiscovery(ctx, d))

	for i, name := range []string{"first", "second"} {
		v := &enforcement.Validation{
			ID:          name,
			SessionID:   "es-1",
			FeatureName: name,
			Passed:      i == 1,
			SafetyScore: 100,
			Issues: []enforcement.Issue{
				{Type: enforcement.IssueNoTestsWritten, Severity: enforcement.SeverityWarning, Message: "no tests"},
			},
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.AppendValidation(ctx, v))
	}

	got, err := s.ListValidations(ctx, "es-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].FeatureName)
	assert.Equal(t, "second", got[1].FeatureName)
	require.Len(t, got[0].Issues, 1)
	assert.Equal(t, enforcement.IssueNoTestsWritten, got[0].Issues[0].Type)
}

func TestStore_EngineeringSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now()
	es := &orchestrator.Session{
		ID:           "eng-1",
		ProjectName:  "acme-shop",
		Stack:        orchestrator.DefaultStack(),
		CurrentPhase: orchestrator.PhaseScoping,
		CurrentAgent: orchestrator.AgentForPhase(orchestrator.PhaseScoping),
		Gates: map[orchestrator.Phase]*orchestrator.GateState{
			orchestrator.PhaseScoping: {Status: orchestrator.GateInProgress},
		},
		Artifacts:     map[orchestrator.ArtifactKind]string{},
		WizardAnswers: map[string]string{},
		IsRunning:     true,
		Status:        orchestrator.SessionActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, s.CreateEngineeringSession(ctx, es))

	es.CurrentPhase = orchestrator.PhaseArchitecture
	es.Graph.Nodes = append(es.Graph.Nodes, orchestrator.DependencyNode{ID: "n1", Type: "api", Name: "orders"})
	require.NoError(t, s.UpdateEngineeringSession(ctx, es))

	got, err := s.GetEngineeringSession(ctx, "eng-1")
	require.NoError(t, err)
	assert.Equal(t, orchestrator.PhaseArchitecture, got.CurrentPhase)
	require.Len(t, got.Graph.Nodes, 1)
	assert.Equal(t, "orders", got.Graph.Nodes[0].Name)
	assert.Equal(t, orchestrator.GateInProgress, got.Gates[orchestrator.PhaseScoping].Status)

	_, err = s.GetEngineeringSession(ctx, "eng-missing")
	assert.Error(t, err)

	err = s.UpdateEngineeringSession(ctx, &orchestrator.Session{ID: "eng-missing"})
	assert.Error(t, err)
}

func TestStore_AgentDecisionsLimitAndOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now()
	for i := range 5 {
		d := &orchestrator.AgentDecision{
			ID:        fmt.Sprintf("ad-%d", i),
			SessionID: "eng-1",
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Agent:     "architect",
			Phase:     orchestrator.PhaseArchitecture,
			Decision:  string(rune('a' + i)),
		}
		require.NoError(t, s.AppendAgentDecision(ctx, d))
	}

	got, err := s.ListAgentDecisions(ctx, "eng-1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Most recent three, chronological order.
	assert.Equal(t, "c", got[0].Decision)
	assert.Equal(t, "e", got[2].Decision)

	all, err := s.ListAgentDecisions(ctx, "eng-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestStore_JournalRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d, err := decision.New(decision.Params{
		Category:  "architecture",
		Decision:  "prices come from the server",
		Reasoning: "client totals cannot be trusted",
		Author:    decision.AuthorAI,
		Impact:    decision.ImpactHigh,
	})
	require.NoError(t, err)
	require.NoError(t, s.AppendDecision(ctx, "safety-1", d))

	decisions, err := s.ListDecisions(ctx, "safety-1")
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, d.Decision, decisions[0].Decision)
	assert.Equal(t, decision.ImpactHigh, decisions[0].Impact)

	a := &decision.Attempt{
		ID:        "at-1",
		SessionID: "safety-1",
		Feature:   "checkout",
		Approach:  "client-side totals",
		Success:   false,
		Lessons:   "totals must be server-side",
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.AppendAttempt(ctx, a))

	attempts, err := s.ListAttempts(ctx, "safety-1")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.False(t, attempts[0].Success)
}

func TestStore_ScopeLockRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	l := scopelock.Create("fix the typo in the login page", nil)
	require.NoError(t, s.SaveLock(ctx, l))

	v := scopelock.Violation{
		Timestamp: time.Now(),
		Action:    scopelock.ActionDeleteFile,
		Target:    ".env",
		Reason:    "file is on the deny list",
		Blocked:   true,
	}
	require.NoError(t, s.AppendViolation(ctx, l.ID, v))
	require.NoError(t, s.AppendViolation(ctx, l.ID, v))

	got, err := s.GetLock(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.Request, got.Request)
	assert.Equal(t, l.AllowedActions, got.AllowedActions)
	assert.True(t, got.IsActive)
	assert.Len(t, got.Violations, 2)

	_, err = s.GetLock(ctx, "no-such-lock")
	assert.Error(t, err)
}
