package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/wardend/internal/orchestrator"
)

type sessionStartInput struct {
	ProjectName string `json:"project_name" jsonschema:"required,Name of the project to build"`
}

type sessionStartOutput struct {
	SessionID string `json:"session_id" jsonschema:"Engineering session id"`
	Phase     string `json:"phase" jsonschema:"Current phase"`
	Agent     string `json:"agent" jsonschema:"Agent owning the current phase"`
	StepID    string `json:"step_id" jsonschema:"First scoping wizard step id"`
	Prompt    string `json:"prompt" jsonschema:"First scoping wizard question"`
}

type sessionAnswerInput struct {
	SessionID string `json:"session_id" jsonschema:"required,Engineering session id"`
	StepID    string `json:"step_id" jsonschema:"required,Wizard step being answered"`
	Answer    string `json:"answer" jsonschema:"required,The answer"`
}

type sessionAnswerOutput struct {
	OK              bool                  `json:"ok" jsonschema:"False when the answer was refused"`
	Refusal         *orchestrator.Refusal `json:"refusal,omitempty" jsonschema:"Why the answer was refused"`
	NextStepID      string                `json:"next_step_id,omitempty" jsonschema:"Next wizard step id, empty when scoping completed"`
	NextPrompt      string                `json:"next_prompt,omitempty" jsonschema:"Next wizard question"`
	ScopingComplete bool                  `json:"scoping_complete" jsonschema:"True when the wizard finished and the session advanced"`
	Message         string                `json:"message" jsonschema:"Outcome message"`
}

type sessionIDInput struct {
	SessionID string `json:"session_id" jsonschema:"required,Engineering session id"`
}

type resultOutput struct {
	OK      bool                  `json:"ok" jsonschema:"False when the operation was refused"`
	Refusal *orchestrator.Refusal `json:"refusal,omitempty" jsonschema:"Why the operation was refused"`
	Message string                `json:"message,omitempty" jsonschema:"Outcome message"`
}

func toResultOutput(r orchestrator.Result) resultOutput {
	return resultOutput{OK: r.OK, Refusal: r.Refusal, Message: r.Message}
}

func resultText(r orchestrator.Result) *mcp.CallToolResult {
	if r.OK {
		return textResult(r.Message)
	}
	return textResult(fmt.Sprintf("refused (%s): %s", r.Refusal.Kind, r.Refusal.Message))
}

type sessionGatePassInput struct {
	SessionID  string            `json:"session_id" jsonschema:"required,Engineering session id"`
	Artifacts  map[string]string `json:"artifacts,omitempty" jsonschema:"Artifacts produced by the phase, keyed by kind"`
	ApprovedBy string            `json:"approved_by" jsonschema:"required,Who signed off the gate"`
}

type sessionApprovalInput struct {
	SessionID string `json:"session_id" jsonschema:"required,Engineering session id"`
	Approved  bool   `json:"approved" jsonschema:"required,Approve or reject the pending phase"`
	Approver  string `json:"approver" jsonschema:"required,Who decided"`
	Feedback  string `json:"feedback,omitempty" jsonschema:"Rejection feedback, recorded as the gate failure reason"`
}

type sessionContextOutput struct {
	SessionID       string   `json:"session_id" jsonschema:"Engineering session id"`
	ProjectName     string   `json:"project_name" jsonschema:"Project name"`
	Phase           string   `json:"phase" jsonschema:"Current phase"`
	Agent           string   `json:"agent" jsonschema:"Agent owning the current phase"`
	FocusAreas      []string `json:"focus_areas,omitempty" jsonschema:"What the phase should concentrate on"`
	RecentDecisions []string `json:"recent_decisions,omitempty" jsonschema:"Recent agent decisions, oldest first"`
	Prompt          string   `json:"prompt" jsonschema:"Rendered prompt for the completion caller"`
}

type sessionExecuteOutput struct {
	SessionID  string `json:"session_id" jsonschema:"Engineering session id"`
	Phase      string `json:"phase" jsonschema:"Current phase"`
	Agent      string `json:"agent" jsonschema:"Agent owning the current phase"`
	Completion string `json:"completion" jsonschema:"Provider completion for the rendered prompt"`
}

func (s *Server) registerSessionTools() {
	orch := func() *orchestrator.Orchestrator { return s.registry.Orchestrator() }

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "session_start",
		Description: "Start an engineering session and receive the first scoping question.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args sessionStartInput) (*mcp.CallToolResult, sessionStartOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "session_start")
		defer func() { done(toolErr) }()

		if args.ProjectName == "" {
			toolErr = fmt.Errorf("project_name is required")
			return nil, sessionStartOutput{}, toolErr
		}
		res, err := orch().StartSession(ctx, args.ProjectName)
		if err != nil {
			toolErr = fmt.Errorf("start session failed: %w", err)
			return nil, sessionStartOutput{}, toolErr
		}
		out := sessionStartOutput{
			SessionID: res.Session.ID,
			Phase:     string(res.Session.CurrentPhase),
			Agent:     res.Session.CurrentAgent,
			StepID:    res.FirstStep.ID,
			Prompt:    res.FirstStep.Prompt,
		}
		return textResult(res.FirstStep.Prompt), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "session_answer",
		Description: "Answer the current scoping wizard question.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args sessionAnswerInput) (*mcp.CallToolResult, sessionAnswerOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "session_answer")
		defer func() { done(toolErr) }()

		res, err := orch().ProcessAnswer(ctx, args.SessionID, args.StepID, args.Answer)
		if err != nil {
			toolErr = fmt.Errorf("process answer failed: %w", err)
			return nil, sessionAnswerOutput{}, toolErr
		}
		out := sessionAnswerOutput{
			OK:              res.OK,
			Refusal:         res.Refusal,
			ScopingComplete: res.ScopingComplete,
			Message:         res.Message,
		}
		if res.NextStep != nil {
			out.NextStepID = res.NextStep.ID
			out.NextPrompt = res.NextStep.Prompt
		}
		return resultText(res.Result), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "session_advance",
		Description: "Advance the session to the next phase. Refused when the current gate has not passed or a required artifact is missing.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args sessionIDInput) (*mcp.CallToolResult, resultOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "session_advance")
		defer func() { done(toolErr) }()

		res, err := orch().AdvancePhase(ctx, args.SessionID)
		if err != nil {
			toolErr = fmt.Errorf("advance phase failed: %w", err)
			return nil, resultOutput{}, toolErr
		}
		return resultText(res), toResultOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "session_gate_pass",
		Description: "Mark the current phase gate passed, storing the produced artifacts.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args sessionGatePassInput) (*mcp.CallToolResult, resultOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "session_gate_pass")
		defer func() { done(toolErr) }()

		artifacts := make(map[orchestrator.ArtifactKind]string, len(args.Artifacts))
		for kind, content := range args.Artifacts {
			artifacts[orchestrator.ArtifactKind(kind)] = content
		}
		res, err := orch().PassGate(ctx, args.SessionID, artifacts, args.ApprovedBy)
		if err != nil {
			toolErr = fmt.Errorf("pass gate failed: %w", err)
			return nil, resultOutput{}, toolErr
		}
		return resultText(res), toResultOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "session_approval",
		Description: "Resolve a pending human approval: approve passes the gate, reject fails it with the feedback.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args sessionApprovalInput) (*mcp.CallToolResult, resultOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "session_approval")
		defer func() { done(toolErr) }()

		res, err := orch().HandleApproval(ctx, args.SessionID, args.Approved, args.Approver, args.Feedback)
		if err != nil {
			toolErr = fmt.Errorf("handle approval failed: %w", err)
			return nil, resultOutput{}, toolErr
		}
		return resultText(res), toResultOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "session_pause",
		Description: "Pause the pipeline before its next step.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args sessionIDInput) (*mcp.CallToolResult, resultOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "session_pause")
		defer func() { done(toolErr) }()

		res, err := orch().Pause(ctx, args.SessionID)
		if err != nil {
			toolErr = fmt.Errorf("pause failed: %w", err)
			return nil, resultOutput{}, toolErr
		}
		return resultText(res), toResultOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "session_resume",
		Description: "Resume a paused pipeline.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args sessionIDInput) (*mcp.CallToolResult, resultOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "session_resume")
		defer func() { done(toolErr) }()

		res, err := orch().Resume(ctx, args.SessionID)
		if err != nil {
			toolErr = fmt.Errorf("resume failed: %w", err)
			return nil, resultOutput{}, toolErr
		}
		return resultText(res), toResultOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "session_cancel",
		Description: "Cancel the session. Terminal: the current gate fails and the session is abandoned.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args sessionIDInput) (*mcp.CallToolResult, resultOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "session_cancel")
		defer func() { done(toolErr) }()

		res, err := orch().Cancel(ctx, args.SessionID)
		if err != nil {
			toolErr = fmt.Errorf("cancel failed: %w", err)
			return nil, resultOutput{}, toolErr
		}
		return resultText(res), toResultOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "session_context",
		Description: "Build the prompt-ready context bundle for the current phase.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args sessionIDInput) (*mcp.CallToolResult, sessionContextOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "session_context")
		defer func() { done(toolErr) }()

		pc, err := orch().BuildContext(ctx, args.SessionID)
		if err != nil {
			toolErr = fmt.Errorf("build context failed: %w", err)
			return nil, sessionContextOutput{}, toolErr
		}
		out := sessionContextOutput{
			SessionID:       pc.SessionID,
			ProjectName:     pc.ProjectName,
			Phase:           string(pc.Phase),
			Agent:           pc.Agent,
			FocusAreas:      pc.FocusAreas,
			RecentDecisions: pc.RecentDecisions,
			Prompt:          pc.RenderPrompt(),
		}
		return textResult(out.Prompt), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "session_execute",
		Description: "Run the current phase agent: build the context bundle and invoke the completion provider once.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args sessionIDInput) (*mcp.CallToolResult, sessionExecuteOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "session_execute")
		defer func() { done(toolErr) }()

		pc, err := orch().BuildContext(ctx, args.SessionID)
		if err != nil {
			toolErr = fmt.Errorf("build context failed: %w", err)
			return nil, sessionExecuteOutput{}, toolErr
		}
		completion, err := s.registry.Provider().Complete(ctx, pc.Agent, pc.RenderPrompt())
		if err != nil {
			toolErr = fmt.Errorf("completion failed: %w", err)
			return nil, sessionExecuteOutput{}, toolErr
		}
		out := sessionExecuteOutput{
			SessionID:  pc.SessionID,
			Phase:      string(pc.Phase),
			Agent:      pc.Agent,
			Completion: completion,
		}
		return textResult(completion), out, nil
	})
}
