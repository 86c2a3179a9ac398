package orchestrator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func graphOf(nodes []DependencyNode, edges []DependencyEdge) *Graph {
	return &Graph{Nodes: nodes, Edges: edges}
}

func TestAnalyzeImpact_NoIncomingEdges(t *testing.T) {
	g := graphOf(
		[]DependencyNode{
			{ID: "a", Type: "component", Name: "a"},
			{ID: "b", Type: "component", Name: "b"},
		},
		// a depends on b, so changing a affects nothing.
		[]DependencyEdge{{SourceID: "a", TargetID: "b"}},
	)

	res := analyzeImpact(g, "a")
	assert.Equal(t, RiskLow, res.RiskLevel)
	assert.Empty(t, res.Direct)
	assert.Empty(t, res.Transitive)
	assert.Zero(t, res.TotalAffected)
}

func TestAnalyzeImpact_DirectAndTransitive(t *testing.T) {
	// c depends on b, b depends on a: changing a hits b directly and c
	// transitively.
	g := graphOf(
		[]DependencyNode{
			{ID: "a", Type: "schema", Name: "users"},
			{ID: "b", Type: "api", Name: "users-api"},
			{ID: "c", Type: "component", Name: "users-page"},
		},
		[]DependencyEdge{
			{SourceID: "b", TargetID: "a"},
			{SourceID: "c", TargetID: "b"},
		},
	)

	res := analyzeImpact(g, "a")
	assert.Equal(t, []string{"b"}, res.Direct)
	assert.Equal(t, []string{"c"}, res.Transitive)
	assert.Equal(t, 2, res.TotalAffected)
	assert.Equal(t, RiskLow, res.RiskLevel)
}

func TestAnalyzeImpact_DuplicateEdgesCountOnce(t *testing.T) {
	// The same dependency declared twice must not inflate the direct set
	// or push the risk band up.
	g := graphOf(
		[]DependencyNode{
			{ID: "a", Type: "schema", Name: "users"},
			{ID: "b", Type: "api", Name: "users-api"},
		},
		[]DependencyEdge{
			{SourceID: "b", TargetID: "a"},
			{SourceID: "b", TargetID: "a"},
		},
	)

	res := analyzeImpact(g, "a")
	assert.Equal(t, []string{"b"}, res.Direct)
	assert.Empty(t, res.Transitive)
	assert.Equal(t, 1, res.TotalAffected)
	assert.Equal(t, RiskLow, res.RiskLevel)
}

func TestAnalyzeImpact_TransitiveExcludesOriginAndDirect(t *testing.T) {
	// A cycle back to the origin plus a diamond: neither the origin nor a
	// node already in the direct set may reappear as transitive.
	g := graphOf(
		[]DependencyNode{
			{ID: "a", Type: "component", Name: "a"},
			{ID: "b", Type: "component", Name: "b"},
			{ID: "c", Type: "component", Name: "c"},
			{ID: "d", Type: "component", Name: "d"},
		},
		[]DependencyEdge{
			{SourceID: "b", TargetID: "a"},
			{SourceID: "c", TargetID: "a"},
			{SourceID: "d", TargetID: "b"},
			{SourceID: "d", TargetID: "c"},
			{SourceID: "a", TargetID: "d"}, // cycle back to the origin
			{SourceID: "c", TargetID: "b"}, // direct node reachable transitively
		},
	)

	res := analyzeImpact(g, "a")
	assert.ElementsMatch(t, []string{"b", "c"}, res.Direct)
	assert.Equal(t, []string{"d"}, res.Transitive)
	assert.NotContains(t, res.Transitive, "a")
	for _, id := range res.Direct {
		assert.NotContains(t, res.Transitive, id)
	}
}

func TestRiskForCount(t *testing.T) {
	cases := []struct {
		count int
		want  RiskLevel
	}{
		{0, RiskLow},
		{2, RiskLow},
		{3, RiskMedium},
		{5, RiskMedium},
		{6, RiskHigh},
		{10, RiskHigh},
		{11, RiskCritical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, riskForCount(tc.count), "count %d", tc.count)
	}
}

func TestAnalyzeImpact_Recommendations(t *testing.T) {
	t.Run("schema change suggests migration", func(t *testing.T) {
		g := graphOf(
			[]DependencyNode{
				{ID: "s", Type: "schema", Name: "orders"},
				{ID: "api", Type: "api", Name: "orders-api"},
			},
			[]DependencyEdge{{SourceID: "api", TargetID: "s"}},
		)
		res := analyzeImpact(g, "s")
		assert.Contains(t, res.Recommendations[0], "migration")
		assert.Contains(t, res.Recommendations[1], "client compatibility")
	})

	t.Run("high risk suggests snapshot", func(t *testing.T) {
		nodes := []DependencyNode{{ID: "hub", Type: "component", Name: "hub"}}
		var edges []DependencyEdge
		for i := range 7 {
			id := fmt.Sprintf("n%d", i)
			nodes = append(nodes, DependencyNode{ID: id, Type: "component", Name: id})
			edges = append(edges, DependencyEdge{SourceID: id, TargetID: "hub"})
		}
		res := analyzeImpact(graphOf(nodes, edges), "hub")
		assert.Equal(t, RiskHigh, res.RiskLevel)
		assert.Contains(t, res.Recommendations[len(res.Recommendations)-1], "full test suite")
	})

	t.Run("quiet graph suggests standard review", func(t *testing.T) {
		g := graphOf([]DependencyNode{{ID: "x", Type: "component", Name: "x"}}, nil)
		res := analyzeImpact(g, "x")
		assert.Equal(t, []string{"low blast radius: standard review is sufficient"}, res.Recommendations)
	})
}
