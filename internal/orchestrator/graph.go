package orchestrator

import (
	"context"
	"fmt"
	"time"
)

// AddNode appends a node to the session's dependency graph.
func (o *Orchestrator) AddNode(ctx context.Context, sessionID string, node DependencyNode) (Result, error) {
	return o.mutate(ctx, sessionID, func(s *Session) Result {
		if s.Status == SessionCompleted || s.Status == SessionAbandoned {
			return refused(RefusalTerminal, fmt.Sprintf("session is %s", s.Status))
		}
		now := time.Now()
		if node.CreatedAt.IsZero() {
			node.CreatedAt = now
		}
		node.ModifiedAt = now
		s.Graph.Nodes = append(s.Graph.Nodes, node)
		return Result{OK: true, Message: fmt.Sprintf("node %s added", node.ID)}
	})
}

// AddEdge appends a "source depends on target" edge.
func (o *Orchestrator) AddEdge(ctx context.Context, sessionID string, edge DependencyEdge) (Result, error) {
	return o.mutate(ctx, sessionID, func(s *Session) Result {
		if s.Status == SessionCompleted || s.Status == SessionAbandoned {
			return refused(RefusalTerminal, fmt.Sprintf("session is %s", s.Status))
		}
		if edge.CreatedAt.IsZero() {
			edge.CreatedAt = time.Now()
		}
		s.Graph.Edges = append(s.Graph.Edges, edge)
		return Result{OK: true, Message: fmt.Sprintf("edge %s -> %s added", edge.SourceID, edge.TargetID)}
	})
}

// RiskLevel grades how widely a change propagates.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// riskForCount maps the total affected-node count to a risk level.
func riskForCount(n int) RiskLevel {
	switch {
	case n <= 2:
		return RiskLow
	case n <= 5:
		return RiskMedium
	case n <= 10:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// ImpactAnalysis is the result of a dependency-graph reachability check.
type ImpactAnalysis struct {
	NodeID          string    `json:"node_id"`
	Direct          []string  `json:"direct"`
	Transitive      []string  `json:"transitive"`
	TotalAffected   int       `json:"total_affected"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Recommendations []string  `json:"recommendations"`
}

// AnalyzeImpact computes which nodes are affected by a change to nodeID.
//
// Direct impact is every node with an edge pointing at nodeID (it depends
// on the changed node). Transitive impact is the breadth-first expansion
// over the same "depends on me" edges starting from the direct set,
// deduplicated, excluding the origin and anything already direct.
func (o *Orchestrator) AnalyzeImpact(ctx context.Context, sessionID, nodeID string) (*ImpactAnalysis, error) {
	s, err := o.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return analyzeImpact(&s.Graph, nodeID), nil
}

func analyzeImpact(g *Graph, nodeID string) *ImpactAnalysis {
	// dependents[x] = nodes that depend on x.
	dependents := make(map[string][]string)
	for _, e := range g.Edges {
		dependents[e.TargetID] = append(dependents[e.TargetID], e.SourceID)
	}

	// Direct impact is a set: duplicate edges between the same pair must
	// not inflate the count.
	var direct []string
	inDirect := make(map[string]bool, len(dependents[nodeID]))
	for _, id := range dependents[nodeID] {
		if inDirect[id] {
			continue
		}
		inDirect[id] = true
		direct = append(direct, id)
	}

	var transitive []string
	visited := map[string]bool{nodeID: true}
	for _, id := range direct {
		visited[id] = true
	}
	queue := append([]string(nil), direct...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dependent := range dependents[current] {
			if visited[dependent] {
				continue
			}
			visited[dependent] = true
			transitive = append(transitive, dependent)
			queue = append(queue, dependent)
		}
	}

	total := len(direct) + len(transitive)
	analysis := &ImpactAnalysis{
		NodeID:        nodeID,
		Direct:        direct,
		Transitive:    transitive,
		TotalAffected: total,
		RiskLevel:     riskForCount(total),
	}
	analysis.Recommendations = recommendations(g, nodeID, inDirect, analysis.RiskLevel)
	return analysis
}

// recommendations produces rule-based follow-up suggestions keyed on the
// changed node's type and the types in the direct set.
func recommendations(g *Graph, nodeID string, inDirect map[string]bool, risk RiskLevel) []string {
	types := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		types[n.ID] = n.Type
	}

	var recs []string
	if types[nodeID] == "schema" {
		recs = append(recs, "schema change: generate and review a migration before applying")
	}
	for id := range inDirect {
		if types[id] == "api" {
			recs = append(recs, "an API endpoint depends on this node: check client compatibility")
			break
		}
	}
	if risk == RiskHigh || risk == RiskCritical {
		recs = append(recs, "high blast radius: snapshot the project and run the full test suite")
	}
	if len(recs) == 0 {
		recs = append(recs, "low blast radius: standard review is sufficient")
	}
	return recs
}
