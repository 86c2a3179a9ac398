package decision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store for journal tests.
type fakeStore struct {
	decisions map[string][]Decision
	attempts  map[string][]Attempt
	listCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		decisions: make(map[string][]Decision),
		attempts:  make(map[string][]Attempt),
	}
}

func (f *fakeStore) AppendDecision(_ context.Context, sessionID string, d *Decision) error {
	f.decisions[sessionID] = append(f.decisions[sessionID], *d)
	return nil
}

func (f *fakeStore) ListDecisions(_ context.Context, sessionID string) ([]Decision, error) {
	f.listCalls++
	return append([]Decision(nil), f.decisions[sessionID]...), nil
}

func (f *fakeStore) AppendAttempt(_ context.Context, a *Attempt) error {
	f.attempts[a.SessionID] = append(f.attempts[a.SessionID], *a)
	return nil
}

func (f *fakeStore) ListAttempts(_ context.Context, sessionID string) ([]Attempt, error) {
	return append([]Attempt(nil), f.attempts[sessionID]...), nil
}

func TestLog_AppendAndDecisions(t *testing.T) {
	store := newFakeStore()
	log := NewLog(store)
	ctx := context.Background()

	d, err := New(Params{
		Category: "database", Decision: "use sqlite", Author: AuthorAI,
		Reversible: true, Impact: ImpactMedium,
	})
	require.NoError(t, err)
	require.NoError(t, log.Append(ctx, "s1", d))

	got, err := log.Decisions(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "use sqlite", got[0].Decision)
}

func TestLog_DecisionsCached(t *testing.T) {
	store := newFakeStore()
	log := NewLog(store)
	ctx := context.Background()

	_, err := log.Decisions(ctx, "s1")
	require.NoError(t, err)
	_, err = log.Decisions(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls)
}

func TestLog_Check(t *testing.T) {
	store := newFakeStore()
	log := NewLog(store)
	ctx := context.Background()

	d, err := New(Params{
		Category: "tech-stack", Decision: "we use postgres", Author: AuthorUser,
		Reversible: true, Impact: ImpactMedium,
	})
	require.NoError(t, err)
	require.NoError(t, log.Append(ctx, "s1", d))

	c, err := log.Check(ctx, "s1", "switch the service to mysql")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "tech-stack-mismatch", c.Rule)
}

func TestLog_FailedApproaches(t *testing.T) {
	store := newFakeStore()
	log := NewLog(store)
	ctx := context.Background()

	require.NoError(t, log.RecordAttempt(ctx, &Attempt{ID: "a1", SessionID: "s1", Feature: "checkout", Success: true}))
	require.NoError(t, log.RecordAttempt(ctx, &Attempt{ID: "a2", SessionID: "s1", Feature: "checkout", Success: false, Lessons: "webhook signature mismatch"}))

	failed, err := log.FailedApproaches(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "a2", failed[0].ID)
}

func TestRelevantDecisions_Selection(t *testing.T) {
	low := mustDecision(t, Params{Category: "ui", Decision: "buttons use the primary palette", Author: AuthorAI, Reversible: true, Impact: ImpactLow})
	critical := mustDecision(t, Params{Category: "security", Decision: "secrets only via env", Author: AuthorUser, Reversible: false, Impact: ImpactCritical})
	dbMatch := mustDecision(t, Params{Category: "database", Decision: "single sqlite file per tenant", Author: AuthorAI, Reversible: true, Impact: ImpactMedium})

	got := RelevantDecisions("change the database schema", []Decision{low, critical, dbMatch})
	ids := map[string]bool{}
	for _, d := range got {
		ids[d.ID] = true
	}
	assert.True(t, ids[critical.ID], "critical impact is always included")
	assert.True(t, ids[dbMatch.ID], "category keyword match")
	assert.False(t, ids[low.ID])
}

func TestFormatForPrompt_GroupsAndFlags(t *testing.T) {
	irreversible := mustDecision(t, Params{Category: "database", Decision: "drop legacy table", Author: AuthorUser, Reversible: false, Impact: ImpactHigh})
	out := FormatForPrompt([]Decision{irreversible})
	assert.Contains(t, out, "### database")
	assert.Contains(t, out, "[IRREVERSIBLE]")
}

func TestFormatForPrompt_Empty(t *testing.T) {
	assert.Empty(t, FormatForPrompt(nil))
}

func TestExportMarkdown(t *testing.T) {
	d := mustDecision(t, Params{
		Category: "auth", Decision: "sessions are cookie-based", Reasoning: "simplest safe default",
		Alternatives: []string{"JWT in local storage"}, Author: AuthorUser,
		Reversible: true, Impact: ImpactMedium, RelatedFiles: []string{"internal/auth/session.go"},
	})
	out := ExportMarkdown([]Decision{d})
	assert.Contains(t, out, "# Decision journal")
	assert.Contains(t, out, "sessions are cookie-based")
	assert.Contains(t, out, "JWT in local storage")
}
