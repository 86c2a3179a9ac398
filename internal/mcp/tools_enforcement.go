package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/wardend/internal/catalog"
	"github.com/fyrsmithlabs/wardend/internal/enforcement"
	"github.com/fyrsmithlabs/wardend/internal/project"
)

type patternDiscoverInput struct {
	Task           string   `json:"task" jsonschema:"required,What the agent is about to do"`
	Keywords       []string `json:"keywords,omitempty" jsonschema:"Explicit keywords; extracted from the task when omitted"`
	Files          []string `json:"files,omitempty" jsonschema:"Files the agent plans to touch"`
	ProjectHash    string   `json:"project_hash,omitempty" jsonschema:"Project identity hash"`
	ProjectName    string   `json:"project_name,omitempty" jsonschema:"Project name"`
	ProjectPath    string   `json:"project_path,omitempty" jsonschema:"Project working tree; derives hash and name when not given"`
	SessionID      string   `json:"session_id,omitempty" jsonschema:"Safety session id; enables the extended protocol"`
	ContextLoaded  bool     `json:"context_loaded,omitempty" jsonschema:"True when project context was loaded first"`
	ScopeConfirmed bool     `json:"scope_confirmed,omitempty" jsonschema:"True when the task scope was confirmed first"`
}

type patternDiscoverOutput struct {
	SessionToken       string               `json:"session_token" jsonschema:"Token for the later pattern_validate call"`
	SessionID          string               `json:"session_id" jsonschema:"Enforcement session id"`
	ExpiresAt          time.Time            `json:"expires_at" jsonschema:"When the session expires"`
	Patterns           []string             `json:"patterns" jsonschema:"Rule document names, core rules first"`
	CoreRules          string               `json:"core_rules" jsonschema:"Core rules document body"`
	HasExactMatch      bool                 `json:"has_exact_match" jsonschema:"False when only the fallback path matched"`
	RelatedSuggestions []catalog.Suggestion `json:"related_suggestions,omitempty" jsonschema:"Category suggestions when no keyword matched"`
	SafetyWarnings     []string             `json:"safety_warnings,omitempty" jsonschema:"Non-blocking protocol warnings"`
	RelevantDecisions  string               `json:"relevant_decisions,omitempty" jsonschema:"Prior decisions that apply to this task"`
	FailedApproaches   []string             `json:"failed_approaches,omitempty" jsonschema:"Approaches that already failed in this session"`
	Message            string               `json:"message" jsonschema:"Composed instruction message"`
}

type patternValidateInput struct {
	SessionToken       string   `json:"session_token" jsonschema:"required,Token from pattern_discover"`
	FeatureName        string   `json:"feature_name" jsonschema:"required,What was built"`
	FeatureDescription string   `json:"feature_description,omitempty" jsonschema:"Longer description of the work"`
	FilesModified      []string `json:"files_modified,omitempty" jsonschema:"Files that were touched"`
	TestsWritten       bool     `json:"tests_written,omitempty" jsonschema:"Tests were written for the feature"`
	TestsRun           bool     `json:"tests_run,omitempty" jsonschema:"Tests were executed"`
	TestsPassed        bool     `json:"tests_passed,omitempty" jsonschema:"Tests passed"`
	TypecheckPassed    bool     `json:"typecheck_passed,omitempty" jsonschema:"Type check passed"`
	SafetySessionID    string   `json:"safety_session_id,omitempty" jsonschema:"Safety session id; enables the extended protocol"`
	ContextWasLoaded   bool     `json:"context_was_loaded,omitempty" jsonschema:"Extended protocol: context gate followed"`
	IntentWasClarified bool     `json:"intent_was_clarified,omitempty" jsonschema:"Extended protocol: intent gate followed"`
	ScopeWasLocked     bool     `json:"scope_was_locked,omitempty" jsonschema:"Extended protocol: scope gate followed"`
	Approach           string   `json:"approach,omitempty" jsonschema:"How the work was done; recorded on the attempt"`
	EnvVarsAdded       []string `json:"env_vars_added,omitempty" jsonschema:"New environment variables"`
	SchemaModified     bool     `json:"schema_modified,omitempty" jsonschema:"Schema was changed"`
}

type patternValidateOutput struct {
	Passed              bool                `json:"passed" jsonschema:"True when no error-severity issue was found"`
	Issues              []enforcement.Issue `json:"issues,omitempty" jsonschema:"Every detected issue with severity"`
	SessionCompleted    bool                `json:"session_completed" jsonschema:"True when the session closed as completed"`
	SafetyScore         int                 `json:"safety_score" jsonschema:"0-100 safety gate score"`
	SafetyGatesFollowed []string            `json:"safety_gates_followed,omitempty" jsonschema:"Gates that were followed"`
	SafetyGatesSkipped  []string            `json:"safety_gates_skipped,omitempty" jsonschema:"Gates that were skipped"`
	AttemptLogged       bool                `json:"attempt_logged" jsonschema:"An attempt record was written"`
	DecisionLogged      bool                `json:"decision_logged" jsonschema:"A journal decision was written"`
	Message             string              `json:"message" jsonschema:"Composed verdict message"`
}

type patternHistoryInput struct {
	SessionID string `json:"session_id" jsonschema:"required,Enforcement session id"`
}

type patternHistoryOutput struct {
	Validations []enforcement.Validation `json:"validations" jsonschema:"Validation audit rows, oldest first"`
	Count       int                      `json:"count" jsonschema:"Number of rows"`
}

func (s *Server) registerEnforcementTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "pattern_discover",
		Description: "Fetch the rule documents for a task and open an enforcement session. Call before writing any code.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args patternDiscoverInput) (*mcp.CallToolResult, patternDiscoverOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "pattern_discover")
		defer func() { done(toolErr) }()

		if args.Task == "" {
			toolErr = fmt.Errorf("task is required")
			return nil, patternDiscoverOutput{}, toolErr
		}

		if args.ProjectHash == "" && args.ProjectPath != "" {
			id, err := project.Identify(args.ProjectPath)
			if err != nil {
				toolErr = fmt.Errorf("invalid project path: %w", err)
				return nil, patternDiscoverOutput{}, toolErr
			}
			args.ProjectHash = id.Hash
			if args.ProjectName == "" {
				args.ProjectName = id.Name
			}
		}

		res, err := s.registry.Gate().Discover(ctx, enforcement.DiscoverRequest{
			Task:           args.Task,
			Keywords:       args.Keywords,
			Files:          args.Files,
			ProjectHash:    args.ProjectHash,
			ProjectName:    args.ProjectName,
			SafetySession:  args.SessionID,
			ContextLoaded:  args.ContextLoaded,
			ScopeConfirmed: args.ScopeConfirmed,
		})
		if err != nil {
			toolErr = fmt.Errorf("pattern discovery failed: %w", err)
			return nil, patternDiscoverOutput{}, toolErr
		}

		out := patternDiscoverOutput{
			SessionToken:       res.SessionToken,
			SessionID:          res.SessionID,
			ExpiresAt:          res.ExpiresAt,
			Patterns:           res.Patterns,
			CoreRules:          res.CoreRules,
			HasExactMatch:      res.HasExactMatch,
			RelatedSuggestions: res.RelatedSuggestions,
			SafetyWarnings:     res.SafetyWarnings,
			RelevantDecisions:  res.RelevantDecisions,
			FailedApproaches:   res.FailedApproaches,
			Message:            res.Message,
		}
		return textResult(res.Message), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "pattern_validate",
		Description: "Close an enforcement session: report test and type-check outcomes and receive the pass/fail verdict.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args patternValidateInput) (*mcp.CallToolResult, patternValidateOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "pattern_validate")
		defer func() { done(toolErr) }()

		if args.SessionToken == "" {
			toolErr = fmt.Errorf("session_token is required")
			return nil, patternValidateOutput{}, toolErr
		}

		res, err := s.registry.Gate().Validate(ctx, enforcement.ValidateRequest{
			SessionToken:       args.SessionToken,
			FeatureName:        args.FeatureName,
			FeatureDescription: args.FeatureDescription,
			FilesModified:      args.FilesModified,
			TestsWritten:       args.TestsWritten,
			TestsRun:           args.TestsRun,
			TestsPassed:        args.TestsPassed,
			TypecheckPassed:    args.TypecheckPassed,
			SafetySession:      args.SafetySessionID,
			ContextWasLoaded:   args.ContextWasLoaded,
			IntentWasClarified: args.IntentWasClarified,
			ScopeWasLocked:     args.ScopeWasLocked,
			Approach:           args.Approach,
			EnvVarsAdded:       args.EnvVarsAdded,
			SchemaModified:     args.SchemaModified,
		})
		if err != nil {
			toolErr = fmt.Errorf("pattern validation failed: %w", err)
			return nil, patternValidateOutput{}, toolErr
		}

		out := patternValidateOutput{
			Passed:              res.Passed,
			Issues:              res.Issues,
			SessionCompleted:    res.SessionCompleted,
			SafetyScore:         res.SafetyScore,
			SafetyGatesFollowed: res.SafetyGatesFollowed,
			SafetyGatesSkipped:  res.SafetyGatesSkipped,
			AttemptLogged:       res.AttemptLogged,
			DecisionLogged:      res.DecisionLogged,
			Message:             res.Message,
		}
		return textResult(res.Message), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "pattern_history",
		Description: "List the validation audit trail for an enforcement session.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args patternHistoryInput) (*mcp.CallToolResult, patternHistoryOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "pattern_history")
		defer func() { done(toolErr) }()

		rows, err := s.registry.Gate().History(ctx, args.SessionID)
		if err != nil {
			toolErr = fmt.Errorf("history lookup failed: %w", err)
			return nil, patternHistoryOutput{}, toolErr
		}
		return textResult(fmt.Sprintf("%d validation(s) recorded", len(rows))),
			patternHistoryOutput{Validations: rows, Count: len(rows)}, nil
	})
}
