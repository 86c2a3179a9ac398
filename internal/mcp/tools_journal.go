package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/wardend/internal/decision"
)

type decisionLogInput struct {
	SessionID    string   `json:"session_id" jsonschema:"required,Safety session id"`
	Category     string   `json:"category" jsonschema:"required,Decision category (architecture, tech-stack, security, ...)"`
	Decision     string   `json:"decision" jsonschema:"required,What was decided"`
	Reasoning    string   `json:"reasoning,omitempty" jsonschema:"Why"`
	Alternatives []string `json:"alternatives,omitempty" jsonschema:"Alternatives that were considered"`
	Author       string   `json:"author" jsonschema:"required,Who decided (user, ai, system)"`
	UserApproved bool     `json:"user_approved,omitempty" jsonschema:"A human signed off"`
	Reversible   bool     `json:"reversible,omitempty" jsonschema:"The decision can be undone"`
	Impact       string   `json:"impact" jsonschema:"required,Impact level (low, medium, high, critical)"`
	RelatedFiles []string `json:"related_files,omitempty" jsonschema:"Files the decision touches"`
}

type decisionLogOutput struct {
	DecisionID string `json:"decision_id" jsonschema:"Id of the recorded decision"`
}

type decisionCheckInput struct {
	SessionID string `json:"session_id" jsonschema:"required,Safety session id"`
	Action    string `json:"action" jsonschema:"required,Proposed action to test against the journal"`
}

type decisionCheckOutput struct {
	Contradicts bool   `json:"contradicts" jsonschema:"True when a prior decision conflicts"`
	Rule        string `json:"rule,omitempty" jsonschema:"Which rule matched"`
	DecisionID  string `json:"decision_id,omitempty" jsonschema:"The conflicting decision"`
	Explanation string `json:"explanation,omitempty" jsonschema:"Human-readable explanation"`
}

type decisionExportInput struct {
	SessionID string `json:"session_id" jsonschema:"required,Safety session id"`
}

type decisionExportOutput struct {
	Markdown string `json:"markdown" jsonschema:"The journal rendered as markdown"`
}

func (s *Server) registerJournalTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "decision_log",
		Description: "Append an immutable decision to the safety journal.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args decisionLogInput) (*mcp.CallToolResult, decisionLogOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "decision_log")
		defer func() { done(toolErr) }()

		d, err := decision.New(decision.Params{
			Category:     args.Category,
			Decision:     args.Decision,
			Reasoning:    args.Reasoning,
			Alternatives: args.Alternatives,
			Author:       decision.Author(args.Author),
			UserApproved: args.UserApproved,
			Reversible:   args.Reversible,
			Impact:       decision.Impact(args.Impact),
			RelatedFiles: args.RelatedFiles,
		})
		if err != nil {
			toolErr = fmt.Errorf("invalid decision: %w", err)
			return nil, decisionLogOutput{}, toolErr
		}
		if err := s.registry.Journal().Append(ctx, args.SessionID, d); err != nil {
			toolErr = fmt.Errorf("append decision failed: %w", err)
			return nil, decisionLogOutput{}, toolErr
		}
		return textResult("decision recorded: " + d.Decision), decisionLogOutput{DecisionID: d.ID}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "decision_check",
		Description: "Test a proposed action against the journal for contradictions with prior decisions.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args decisionCheckInput) (*mcp.CallToolResult, decisionCheckOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "decision_check")
		defer func() { done(toolErr) }()

		c, err := s.registry.Journal().Check(ctx, args.SessionID, args.Action)
		if err != nil {
			toolErr = fmt.Errorf("contradiction check failed: %w", err)
			return nil, decisionCheckOutput{}, toolErr
		}
		if c == nil {
			return textResult("no contradiction"), decisionCheckOutput{}, nil
		}
		out := decisionCheckOutput{
			Contradicts: true,
			Rule:        c.Rule,
			DecisionID:  c.DecisionID,
			Explanation: c.Explanation,
		}
		return textResult("contradiction: " + c.Explanation), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "decision_export",
		Description: "Export the safety journal as markdown.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args decisionExportInput) (*mcp.CallToolResult, decisionExportOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "decision_export")
		defer func() { done(toolErr) }()

		md, err := s.registry.Journal().Export(ctx, args.SessionID)
		if err != nil {
			toolErr = fmt.Errorf("journal export failed: %w", err)
			return nil, decisionExportOutput{}, toolErr
		}
		return textResult(md), decisionExportOutput{Markdown: md}, nil
	})
}
