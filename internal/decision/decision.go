// Package decision provides the append-only decision journal and the
// heuristic contradiction checker consulted before new work.
//
// All matching is deliberately explicit: ordered rule tables with
// first-match-wins semantics. Upgrading to fuzzier matching is a behavior
// change, not a refactor.
package decision

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors for journal operations.
var (
	ErrEmptyDecision = errors.New("decision text cannot be empty")
	ErrEmptyCategory = errors.New("decision category cannot be empty")
	ErrInvalidAuthor = errors.New("author must be user, ai, or system")
	ErrInvalidImpact = errors.New("impact must be low, medium, high, or critical")
)

// Author identifies who made a decision.
type Author string

const (
	AuthorUser   Author = "user"
	AuthorAI     Author = "ai"
	AuthorSystem Author = "system"
)

// Impact grades how consequential a decision is.
type Impact string

const (
	ImpactLow      Impact = "low"
	ImpactMedium   Impact = "medium"
	ImpactHigh     Impact = "high"
	ImpactCritical Impact = "critical"
)

// Decision is one immutable journal entry.
type Decision struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Category     string    `json:"category"`
	Decision     string    `json:"decision"`
	Reasoning    string    `json:"reasoning"`
	Alternatives []string  `json:"alternatives,omitempty"`
	Author       Author    `json:"author"`
	UserApproved bool      `json:"user_approved"`
	Reversible   bool      `json:"reversible"`
	Impact       Impact    `json:"impact"`
	RelatedFiles []string  `json:"related_files,omitempty"`
}

// Params carries the fields for a new decision.
type Params struct {
	Category     string
	Decision     string
	Reasoning    string
	Alternatives []string
	Author       Author
	UserApproved bool
	Reversible   bool
	Impact       Impact
	RelatedFiles []string
}

// New builds a validated immutable decision record.
func New(p Params) (*Decision, error) {
	if p.Decision == "" {
		return nil, ErrEmptyDecision
	}
	if p.Category == "" {
		return nil, ErrEmptyCategory
	}
	switch p.Author {
	case AuthorUser, AuthorAI, AuthorSystem:
	default:
		return nil, ErrInvalidAuthor
	}
	switch p.Impact {
	case ImpactLow, ImpactMedium, ImpactHigh, ImpactCritical:
	default:
		return nil, ErrInvalidImpact
	}
	return &Decision{
		ID:           uuid.New().String(),
		Date:         time.Now(),
		Category:     p.Category,
		Decision:     p.Decision,
		Reasoning:    p.Reasoning,
		Alternatives: p.Alternatives,
		Author:       p.Author,
		UserApproved: p.UserApproved,
		Reversible:   p.Reversible,
		Impact:       p.Impact,
		RelatedFiles: p.RelatedFiles,
	}, nil
}

// Attempt records one try at a feature, successful or not. Failed attempts
// surface as "approaches that did not work" in later discover calls.
type Attempt struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Feature   string    `json:"feature"`
	Approach  string    `json:"approach"`
	Success   bool      `json:"success"`
	Lessons   string    `json:"lessons,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists journal entries and attempts per safety session.
type Store interface {
	AppendDecision(ctx context.Context, sessionID string, d *Decision) error
	ListDecisions(ctx context.Context, sessionID string) ([]Decision, error)
	AppendAttempt(ctx context.Context, a *Attempt) error
	ListAttempts(ctx context.Context, sessionID string) ([]Attempt, error)
}
