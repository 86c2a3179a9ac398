package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/wardend/internal/orchestrator"
)

type graphAddNodeInput struct {
	SessionID string `json:"session_id" jsonschema:"required,Engineering session id"`
	NodeID    string `json:"node_id" jsonschema:"required,Unique node id"`
	Type      string `json:"type" jsonschema:"required,Node type (schema, api, component, ...)"`
	Name      string `json:"name" jsonschema:"required,Human-readable name"`
	Path      string `json:"path,omitempty" jsonschema:"File path the node maps to"`
}

type graphAddEdgeInput struct {
	SessionID string `json:"session_id" jsonschema:"required,Engineering session id"`
	SourceID  string `json:"source_id" jsonschema:"required,Node that depends on the target"`
	TargetID  string `json:"target_id" jsonschema:"required,Node being depended on"`
	Relation  string `json:"relation,omitempty" jsonschema:"Edge label"`
}

type graphImpactInput struct {
	SessionID string `json:"session_id" jsonschema:"required,Engineering session id"`
	NodeID    string `json:"node_id" jsonschema:"required,Node to analyze"`
}

type graphImpactOutput struct {
	NodeID          string   `json:"node_id" jsonschema:"Analyzed node"`
	Direct          []string `json:"direct,omitempty" jsonschema:"Nodes that directly depend on it"`
	Transitive      []string `json:"transitive,omitempty" jsonschema:"Nodes affected through the direct set"`
	TotalAffected   int      `json:"total_affected" jsonschema:"Direct plus transitive count"`
	RiskLevel       string   `json:"risk_level" jsonschema:"low, medium, high or critical"`
	Recommendations []string `json:"recommendations,omitempty" jsonschema:"Suggested follow-ups"`
}

func (s *Server) registerGraphTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "graph_add_node",
		Description: "Append a node to the session's dependency graph.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args graphAddNodeInput) (*mcp.CallToolResult, resultOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "graph_add_node")
		defer func() { done(toolErr) }()

		res, err := s.registry.Orchestrator().AddNode(ctx, args.SessionID, orchestrator.DependencyNode{
			ID:   args.NodeID,
			Type: args.Type,
			Name: args.Name,
			Path: args.Path,
		})
		if err != nil {
			toolErr = fmt.Errorf("add node failed: %w", err)
			return nil, resultOutput{}, toolErr
		}
		return resultText(res), toResultOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "graph_add_edge",
		Description: "Append a 'source depends on target' edge to the dependency graph.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args graphAddEdgeInput) (*mcp.CallToolResult, resultOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "graph_add_edge")
		defer func() { done(toolErr) }()

		res, err := s.registry.Orchestrator().AddEdge(ctx, args.SessionID, orchestrator.DependencyEdge{
			SourceID: args.SourceID,
			TargetID: args.TargetID,
			Relation: args.Relation,
		})
		if err != nil {
			toolErr = fmt.Errorf("add edge failed: %w", err)
			return nil, resultOutput{}, toolErr
		}
		return resultText(res), toResultOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "graph_impact",
		Description: "Compute which nodes are affected by a change to the given node, with a risk grade.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args graphImpactInput) (*mcp.CallToolResult, graphImpactOutput, error) {
		var toolErr error
		done := s.instrument(ctx, "graph_impact")
		defer func() { done(toolErr) }()

		analysis, err := s.registry.Orchestrator().AnalyzeImpact(ctx, args.SessionID, args.NodeID)
		if err != nil {
			toolErr = fmt.Errorf("impact analysis failed: %w", err)
			return nil, graphImpactOutput{}, toolErr
		}
		out := graphImpactOutput{
			NodeID:          analysis.NodeID,
			Direct:          analysis.Direct,
			Transitive:      analysis.Transitive,
			TotalAffected:   analysis.TotalAffected,
			RiskLevel:       string(analysis.RiskLevel),
			Recommendations: analysis.Recommendations,
		}
		return textResult(fmt.Sprintf("%d node(s) affected, risk %s", out.TotalAffected, out.RiskLevel)), out, nil
	})
}
