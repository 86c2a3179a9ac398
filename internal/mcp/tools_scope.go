package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/wardend/internal/scopelock"
)

type scopeCreateInput struct {
	Request            string   `json:"request" jsonschema:"required,The task text the scope is inferred from"`
	AllowedFiles       []string `json:"allowed_files,omitempty" jsonschema:"Explicit file allow-list, overrides inference"`
	AllowedDirectories []string `json:"allowed_directories,omitempty" jsonschema:"Explicit directory allow-list, overrides inference"`
	AllowedActions     []string `json:"allowed_actions,omitempty" jsonschema:"Explicit action allow-list, overrides inference"`
	MaxNewFiles        int      `json:"max_new_files,omitempty" jsonschema:"Cap on new files, overrides inference"`
	MaxModifiedFiles   int      `json:"max_modified_files,omitempty" jsonschema:"Cap on modified files, overrides inference"`
	CanDeleteFiles     *bool    `json:"can_delete_files,omitempty" jsonschema:"Override the delete capability"`
	CanEditDeps        *bool    `json:"can_edit_deps,omitempty" jsonschema:"Override the dependency-edit capability"`
	CanEditSchema      *bool    `json:"can_edit_schema,omitempty" jsonschema:"Override the schema-edit capability"`
}

type scopeCreateOutput struct {
	LockID             string   `json:"lock_id" jsonschema:"Id of the created lock"`
	AllowedDirectories []string `json:"allowed_directories" jsonschema:"Directories the task may touch"`
	AllowedActions     []string `json:"allowed_actions" jsonschema:"Action kinds the task may take"`
	MaxNewFiles        int      `json:"max_new_files" jsonschema:"Cap on new files"`
	MaxModifiedFiles   int      `json:"max_modified_files" jsonschema:"Cap on modified files"`
	Summary            string   `json:"summary" jsonschema:"Markdown boundary summary for the next prompt"`
}

type scopeCheckInput struct {
	LockID     string `json:"lock_id" jsonschema:"required,Id of the scope lock"`
	ActionType string `json:"action_type" jsonschema:"required,Action kind (create-file, modify-file, delete-file, edit-dependency, edit-schema, run-command, edit-config)"`
	TargetFile string `json:"target_file,omitempty" jsonschema:"File the action targets"`
}

type scopeCheckOutput struct {
	Allowed bool   `json:"allowed" jsonschema:"Whether the action is inside the boundary"`
	Reason  string `json:"reason" jsonschema:"Why it was allowed or blocked"`
}

func (s *Server) registerScopeTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "scope_create",
		Description: "Create a per-task scope lock, inferred from the request text unless explicit boundaries are given.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args scopeCreateInput) (*mcp.CallToolResult, scopeCreateOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "scope_create")
		defer func() { done(toolErr) }()

		if args.Request == "" {
			toolErr = fmt.Errorf("request is required")
			return nil, scopeCreateOutput{}, toolErr
		}

		var override *scopelock.ScopeRequest
		if len(args.AllowedFiles) > 0 || len(args.AllowedDirectories) > 0 || len(args.AllowedActions) > 0 ||
			args.MaxNewFiles > 0 || args.MaxModifiedFiles > 0 ||
			args.CanDeleteFiles != nil || args.CanEditDeps != nil || args.CanEditSchema != nil {
			actions := make([]scopelock.ActionKind, len(args.AllowedActions))
			for i, a := range args.AllowedActions {
				actions[i] = scopelock.ActionKind(a)
			}
			override = &scopelock.ScopeRequest{
				AllowedFiles:       args.AllowedFiles,
				AllowedDirectories: args.AllowedDirectories,
				AllowedActions:     actions,
				MaxNewFiles:        args.MaxNewFiles,
				MaxModifiedFiles:   args.MaxModifiedFiles,
				CanDeleteFiles:     args.CanDeleteFiles,
				CanEditDeps:        args.CanEditDeps,
				CanEditSchema:      args.CanEditSchema,
			}
		}

		l, err := s.registry.Scopes().CreateLock(ctx, args.Request, override)
		if err != nil {
			toolErr = fmt.Errorf("create scope lock failed: %w", err)
			return nil, scopeCreateOutput{}, toolErr
		}

		actions := make([]string, len(l.AllowedActions))
		for i, a := range l.AllowedActions {
			actions[i] = string(a)
		}
		out := scopeCreateOutput{
			LockID:             l.ID,
			AllowedDirectories: l.AllowedDirectories,
			AllowedActions:     actions,
			MaxNewFiles:        l.MaxNewFiles,
			MaxModifiedFiles:   l.MaxModifiedFiles,
			Summary:            l.FormatForPrompt(),
		}
		return textResult(out.Summary), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "scope_check",
		Description: "Check a proposed action against a scope lock. Blocked actions are recorded as violations.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args scopeCheckInput) (*mcp.CallToolResult, scopeCheckOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "scope_check")
		defer func() { done(toolErr) }()

		v, err := s.registry.Scopes().Check(ctx, args.LockID, scopelock.Action{
			Type:       scopelock.ActionKind(args.ActionType),
			TargetFile: args.TargetFile,
		})
		if err != nil {
			toolErr = fmt.Errorf("scope check failed: %w", err)
			return nil, scopeCheckOutput{}, toolErr
		}
		out := scopeCheckOutput{Allowed: v.Allowed, Reason: v.Reason}
		if v.Allowed {
			return textResult("allowed: " + v.Reason), out, nil
		}
		return textResult("blocked: " + v.Reason), out, nil
	})
}
