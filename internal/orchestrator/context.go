package orchestrator

import (
	"context"
	"fmt"
	"strings"
)

// PromptContext is the prompt-ready bundle handed to the external
// completion caller before each phase.
type PromptContext struct {
	SessionID       string   `json:"session_id"`
	ProjectName     string   `json:"project_name"`
	Phase           Phase    `json:"phase"`
	Agent           string   `json:"agent"`
	Scope           Scope    `json:"scope"`
	Stack           Stack    `json:"stack"`
	RecentDecisions []string `json:"recent_decisions,omitempty"`
	FocusAreas      []string `json:"focus_areas,omitempty"`
}

// phaseFocus lists what each agent should concentrate on.
var phaseFocus = map[Phase][]string{
	PhaseScoping:        {"clarify audience and scale", "surface compliance needs"},
	PhaseArchitecture:   {"module boundaries", "data flow", "third-party seams"},
	PhaseSchema:         {"entities and relations", "migration strategy"},
	PhaseImplementation: {"follow the technical spec", "small reviewable units"},
	PhaseTesting:        {"cover the critical paths", "regression protection"},
	PhaseStaging:        {"dependency impact", "rollback plan"},
	PhaseDeployment:     {"environment configuration", "post-deploy verification"},
}

// BuildContext assembles the prompt bundle for the session's current
// phase, including recent agent decisions.
func (o *Orchestrator) BuildContext(ctx context.Context, sessionID string) (*PromptContext, error) {
	s, err := o.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	decisions, err := o.store.ListAgentDecisions(ctx, sessionID, 10)
	if err != nil {
		return nil, fmt.Errorf("list agent decisions: %w", err)
	}

	recent := make([]string, 0, len(decisions))
	for _, d := range decisions {
		recent = append(recent, fmt.Sprintf("[%s/%s] %s", d.Phase, d.Agent, d.Decision))
	}

	return &PromptContext{
		SessionID:       s.ID,
		ProjectName:     s.ProjectName,
		Phase:           s.CurrentPhase,
		Agent:           s.CurrentAgent,
		Scope:           s.Scope,
		Stack:           s.Stack,
		RecentDecisions: recent,
		FocusAreas:      phaseFocus[s.CurrentPhase],
	}, nil
}

// RenderPrompt flattens the bundle into the role-specific prompt for the
// completion provider.
func (p *PromptContext) RenderPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s for project %q, phase %s.\n\n", p.Agent, p.ProjectName, p.Phase)
	fmt.Fprintf(&b, "Scope: type=%s audience=%s scale=%s auth=%t payments=%t realtime=%t\n",
		p.Scope.ProjectType, p.Scope.Audience, p.Scope.ScaleTarget,
		p.Scope.NeedsAuth, p.Scope.NeedsPayments, p.Scope.NeedsRealtime)
	fmt.Fprintf(&b, "Stack: %s / %s / %s / %s\n", p.Stack.Framework, p.Stack.Database, p.Stack.Auth, p.Stack.UI)
	if len(p.RecentDecisions) > 0 {
		b.WriteString("\nRecent decisions:\n")
		for _, d := range p.RecentDecisions {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}
	if len(p.FocusAreas) > 0 {
		b.WriteString("\nFocus on:\n")
		for _, f := range p.FocusAreas {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	return b.String()
}
