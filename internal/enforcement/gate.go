package enforcement

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/wardend/internal/catalog"
	"github.com/fyrsmithlabs/wardend/internal/decision"
	"github.com/fyrsmithlabs/wardend/internal/events"
)

// DefaultSessionTTL bounds how long a discovered session stays valid.
const DefaultSessionTTL = 30 * time.Minute

// safetyGates are the extended-protocol checkpoints, in reporting order.
// The discovery gate is mandatory and counts as followed for any session
// that exists; the rest are optional and scored 25 points each.
var safetyGates = []string{
	"pattern-discovery",
	"context-loaded",
	"intent-clarified",
	"scope-locked",
}

// Gate is the two-call enforcement protocol.
type Gate struct {
	store   Store
	catalog catalog.Catalog
	journal *decision.Log
	sink    events.Sink
	logger  *zap.Logger
	ttl     time.Duration

	now func() time.Time
}

// NewGate creates a gate. journal may be nil when the safety journal is
// not wired; ttl <= 0 uses DefaultSessionTTL.
func NewGate(store Store, cat catalog.Catalog, journal *decision.Log, sink events.Sink, logger *zap.Logger, ttl time.Duration) *Gate {
	if sink == nil {
		sink = events.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Gate{
		store:   store,
		catalog: cat,
		journal: journal,
		sink:    sink,
		logger:  logger,
		ttl:     ttl,
		now:     time.Now,
	}
}

// newToken returns 32 random bytes, hex-encoded.
func newToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process cannot mint any
		// unguessable value; there is no useful degraded mode.
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return hex.EncodeToString(buf)
}

// DiscoverRequest asks which rule documents apply to a task.
type DiscoverRequest struct {
	Task           string   `json:"task"`
	Keywords       []string `json:"keywords,omitempty"`
	Files          []string `json:"files,omitempty"`
	ProjectHash    string   `json:"project_hash,omitempty"`
	ProjectName    string   `json:"project_name,omitempty"`
	SafetySession  string   `json:"session_id,omitempty"`
	ContextLoaded  bool     `json:"context_loaded,omitempty"`
	ScopeConfirmed bool     `json:"scope_confirmed,omitempty"`
}

// DiscoverResult is the rule bundle plus the token for the later Validate.
type DiscoverResult struct {
	SessionToken       string               `json:"session_token"`
	SessionID          string               `json:"session_id"`
	ExpiresAt          time.Time            `json:"expires_at"`
	Patterns           []string             `json:"patterns"`
	CoreRules          string               `json:"core_rules"`
	HasExactMatch      bool                 `json:"has_exact_match"`
	RelatedSuggestions []catalog.Suggestion `json:"related_suggestions,omitempty"`
	SafetyWarnings     []string             `json:"safety_warnings,omitempty"`
	RelevantDecisions  string               `json:"relevant_decisions,omitempty"`
	FailedApproaches   []string             `json:"failed_approaches,omitempty"`
	Message            string               `json:"message"`
}

// Discover resolves the rule documents for a task, mints a session token
// bound to a fixed TTL, and records the audit row.
func (g *Gate) Discover(ctx context.Context, req DiscoverRequest) (*DiscoverResult, error) {
	started := g.now()

	var warnings []string
	if req.SafetySession != "" {
		if !req.ContextLoaded {
			warnings = append(warnings, "project context was not loaded before starting; consider loading it first")
		}
		if !req.ScopeConfirmed {
			warnings = append(warnings, "task scope was not confirmed; consider locking the scope before editing")
		}
	}

	keywords := req.Keywords
	if len(keywords) == 0 {
		keywords = catalog.ExtractKeywords(req.Task)
	}

	// Union of every keyword's documents, deduplicated in first-seen
	// order. The core document is always first.
	seen := map[string]bool{}
	var patterns []string
	addDoc := func(name string) {
		if !seen[name] {
			seen[name] = true
			patterns = append(patterns, name)
		}
	}
	coreName, coreBody := g.catalog.CoreDocument()
	addDoc(coreName)

	matched := 0
	for _, kw := range keywords {
		for _, doc := range g.catalog.Lookup(kw) {
			addDoc(doc)
			matched++
		}
	}
	hasExactMatch := matched > 0
	if !hasExactMatch {
		for _, doc := range catalog.FallbackDocuments(req.Task) {
			addDoc(doc)
		}
	}

	var suggestions []catalog.Suggestion
	if !hasExactMatch {
		suggestions = catalog.RelatedSuggestions(req.Task)
	}

	s := &Session{
		ID:           uuid.New().String(),
		Token:        newToken(),
		ProjectHash:  req.ProjectHash,
		ProjectName:  req.ProjectName,
		Task:         req.Task,
		PlannedFiles: req.Files,
		Keywords:     keywords,
		Patterns:     patterns,
		StartGate:    true,
		Status:       StatusActive,
		CreatedAt:    started,
		ExpiresAt:    started.Add(g.ttl),
	}
	if err := g.store.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("create enforcement session: %w", err)
	}

	audit := &Discovery{
		ID:            uuid.New().String(),
		SessionID:     s.ID,
		Task:          req.Task,
		Keywords:      keywords,
		Patterns:      patterns,
		HasExactMatch: hasExactMatch,
		LatencyMS:     time.Since(started).Milliseconds(),
		CreatedAt:     g.now(),
	}
	if err := g.store.AppendDiscovery(ctx, audit); err != nil {
		g.logger.Error("failed to append discovery audit row",
			zap.String("session_id", s.ID), zap.Error(err))
	}
	g.sink.Emit(ctx, events.New(events.KindDiscoveryRecorded, s.ID, map[string]string{
		"task":            req.Task,
		"has_exact_match": fmt.Sprintf("%t", hasExactMatch),
	}))

	res := &DiscoverResult{
		SessionToken:       s.Token,
		SessionID:          s.ID,
		ExpiresAt:          s.ExpiresAt,
		Patterns:           patterns,
		CoreRules:          coreBody,
		HasExactMatch:      hasExactMatch,
		RelatedSuggestions: suggestions,
		SafetyWarnings:     warnings,
	}

	if g.journal != nil && req.SafetySession != "" {
		g.attachJournalContext(ctx, req, res)
	}

	res.Message = composeDiscoverMessage(res)
	g.logger.Info("pattern discovery",
		zap.String("session_id", s.ID),
		zap.Int("patterns", len(patterns)),
		zap.Bool("exact_match", hasExactMatch))
	return res, nil
}

// attachJournalContext pulls relevant prior decisions and failed
// approaches for the safety session. Journal failures are logged, not
// fatal: discovery must still hand out rules when the journal is down.
func (g *Gate) attachJournalContext(ctx context.Context, req DiscoverRequest, res *DiscoverResult) {
	decisions, err := g.journal.Decisions(ctx, req.SafetySession)
	if err != nil {
		g.logger.Warn("failed to load journal decisions",
			zap.String("safety_session", req.SafetySession), zap.Error(err))
	} else if relevant := decision.RelevantDecisions(req.Task, decisions); len(relevant) > 0 {
		res.RelevantDecisions = decision.FormatForPrompt(relevant)
	}

	failed, err := g.journal.FailedApproaches(ctx, req.SafetySession)
	if err != nil {
		g.logger.Warn("failed to load failed approaches",
			zap.String("safety_session", req.SafetySession), zap.Error(err))
		return
	}
	for _, a := range failed {
		line := a.Approach
		if a.Lessons != "" {
			line += " (lesson: " + a.Lessons + ")"
		}
		res.FailedApproaches = append(res.FailedApproaches, line)
	}
}

func composeDiscoverMessage(res *DiscoverResult) string {
	var b strings.Builder
	for _, w := range res.SafetyWarnings {
		fmt.Fprintf(&b, "WARNING: %s\n", w)
	}
	fmt.Fprintf(&b, "Loaded %d rule document(s). Read them before writing code, then call pattern_validate with session token %s when the work is done.\n",
		len(res.Patterns), res.SessionToken)
	if !res.HasExactMatch && len(res.RelatedSuggestions) > 0 {
		b.WriteString("No exact rule match; closest categories:\n")
		for _, s := range res.RelatedSuggestions {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", s.Category, s.Reason, strings.Join(s.Documents, ", "))
		}
	}
	if res.RelevantDecisions != "" {
		b.WriteString("Prior decisions that apply:\n")
		b.WriteString(res.RelevantDecisions)
		if !strings.HasSuffix(res.RelevantDecisions, "\n") {
			b.WriteString("\n")
		}
	}
	if len(res.FailedApproaches) > 0 {
		b.WriteString("Approaches that already failed:\n")
		for _, a := range res.FailedApproaches {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
