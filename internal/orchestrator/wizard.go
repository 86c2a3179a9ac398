package orchestrator

import (
	"strings"
)

// WizardStep is one scoping question. ID names the scope field the answer
// mutates; DependsOn gates the step on an earlier answer.
type WizardStep struct {
	ID        string          `json:"id"`
	Prompt    string          `json:"prompt"`
	DependsOn *StepDependency `json:"depends_on,omitempty"`
}

// StepDependency requires a prior step to have a specific answer.
type StepDependency struct {
	StepID string `json:"step_id"`
	Value  string `json:"value"`
}

// wizardSteps is the ordered scoping question list.
var wizardSteps = []WizardStep{
	{ID: "project_type", Prompt: "What are you building? (internal-tool, saas, full-business)"},
	{ID: "audience", Prompt: "Who is it for? (personal, team, business, public)"},
	{ID: "platforms", Prompt: "Which platforms? (web, mobile, desktop; comma-separated)"},
	{ID: "scale_target", Prompt: "Expected scale? (small, medium, large, enterprise)"},
	{ID: "needs_auth", Prompt: "Do users sign in? (yes/no)"},
	{ID: "needs_payments", Prompt: "Will you charge money? (yes/no)", DependsOn: &StepDependency{StepID: "project_type", Value: "saas"}},
	{ID: "needs_realtime", Prompt: "Do views need live updates? (yes/no)"},
	{ID: "compliance", Prompt: "Any compliance requirements? (none, gdpr, hipaa, soc2; comma-separated)", DependsOn: &StepDependency{StepID: "audience", Value: "business"}},
}

// FirstWizardStep returns the opening scoping question.
func FirstWizardStep() WizardStep {
	return wizardSteps[0]
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y", "true":
		return true
	}
	return false
}

func splitList(answer string) []string {
	var out []string
	for _, part := range strings.Split(answer, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part != "" && part != "none" {
			out = append(out, part)
		}
	}
	return out
}

// applyAnswer mutates the scope field named by stepID, side-effecting
// derived flags where one answer implies others.
func applyAnswer(s *Session, stepID, answer string) bool {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	switch stepID {
	case "project_type":
		s.Scope.ProjectType = normalized
		// A full business build implies the surrounding machinery.
		if normalized == "full-business" {
			s.Scope.NeedsMarketing = true
			s.Scope.NeedsAnalytics = true
			s.Scope.NeedsAdmin = true
			s.Scope.NeedsPayments = true
		}
	case "audience":
		s.Scope.Audience = normalized
	case "platforms":
		s.Scope.Platforms = splitList(answer)
	case "scale_target":
		s.Scope.ScaleTarget = normalized
	case "needs_auth":
		s.Scope.NeedsAuth = isYes(answer)
	case "needs_payments":
		s.Scope.NeedsPayments = isYes(answer)
	case "needs_realtime":
		s.Scope.NeedsRealtime = isYes(answer)
	case "compliance":
		s.Scope.Compliance = splitList(answer)
	default:
		return false
	}
	s.WizardAnswers[stepID] = normalized
	return true
}

// nextWizardStep scans forward from the answered steps for the next step
// whose dependency, if any, is satisfied. Returns nil when the list is
// exhausted.
func nextWizardStep(s *Session) *WizardStep {
	for i := range wizardSteps {
		step := wizardSteps[i]
		if _, answered := s.WizardAnswers[step.ID]; answered {
			continue
		}
		if step.DependsOn != nil {
			if s.WizardAnswers[step.DependsOn.StepID] != step.DependsOn.Value {
				continue
			}
		}
		return &step
	}
	return nil
}

// inferScopeDefaults fills the remaining scope flags once the wizard is
// exhausted.
func inferScopeDefaults(s *Session) {
	if s.Scope.Audience == "business" {
		s.Scope.NeedsTeams = true
	}
	if s.Scope.ScaleTarget == "enterprise" || s.Scope.ScaleTarget == "large" {
		s.Scope.NeedsAnalytics = true
		s.Scope.NeedsAdmin = true
	}
}
