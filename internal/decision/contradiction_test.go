package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecision(t *testing.T, p Params) Decision {
	t.Helper()
	d, err := New(p)
	require.NoError(t, err)
	return *d
}

func TestCheckContradiction_NoDecisions(t *testing.T) {
	assert.Nil(t, CheckContradiction("run validation locally", nil))
}

func TestCheckContradiction_LocalVsServer(t *testing.T) {
	d := mustDecision(t, Params{
		Category: "security",
		Decision: "price calculation runs server-side",
		Author:   AuthorUser,
		Reversible: true,
		Impact:   ImpactHigh,
	})

	c := CheckContradiction("compute the price local in the browser", []Decision{d})
	require.NotNil(t, c)
	assert.Equal(t, "local-vs-server", c.Rule)
	assert.Equal(t, d.ID, c.DecisionID)
}

func TestCheckContradiction_EmbedVsNeverShip(t *testing.T) {
	d := mustDecision(t, Params{
		Category:  "security",
		Decision:  "API key lives in the environment",
		Reasoning: "the key must never ship to clients",
		Author:    AuthorSystem,
		Reversible: true,
		Impact:    ImpactCritical,
	})

	c := CheckContradiction("embed the API key in the bundle", []Decision{d})
	require.NotNil(t, c)
	assert.Equal(t, "embed-vs-never-ship", c.Rule)
}

func TestCheckContradiction_IrreversibleOverlap(t *testing.T) {
	d := mustDecision(t, Params{
		Category:   "database",
		Decision:   "drop the legacy orders table",
		Author:     AuthorUser,
		Reversible: false,
		Impact:     ImpactHigh,
	})

	c := CheckContradiction("restore the legacy orders table", []Decision{d})
	require.NotNil(t, c)
	assert.Equal(t, "irreversible-overlap", c.Rule)
	assert.Contains(t, c.Explanation, "legacy")
}

func TestCheckContradiction_IrreversibleSingleWordNoMatch(t *testing.T) {
	d := mustDecision(t, Params{
		Category:   "database",
		Decision:   "drop the staging snapshot",
		Author:     AuthorUser,
		Reversible: false,
		Impact:     ImpactMedium,
	})

	// Only one significant word overlaps: below the >=2 threshold.
	assert.Nil(t, CheckContradiction("refresh the snapshot index", []Decision{d}))
}

func TestCheckContradiction_TechStackMismatch(t *testing.T) {
	d := mustDecision(t, Params{
		Category:   "tech-stack",
		Decision:   "we use postgres for persistence",
		Author:     AuthorUser,
		Reversible: true,
		Impact:     ImpactMedium,
	})

	c := CheckContradiction("store events in mongodb", []Decision{d})
	require.NotNil(t, c)
	assert.Equal(t, "tech-stack-mismatch", c.Rule)
	assert.Contains(t, c.Explanation, "postgres")
}

func TestCheckContradiction_TechStackSameTechOK(t *testing.T) {
	d := mustDecision(t, Params{
		Category:   "tech-stack",
		Decision:   "we use postgres for persistence",
		Author:     AuthorUser,
		Reversible: true,
		Impact:     ImpactMedium,
	})

	assert.Nil(t, CheckContradiction("add an index to postgres", []Decision{d}))
}

func TestCheckContradiction_FirstMatchWins(t *testing.T) {
	// The decision trips both the local-vs-server rule and the
	// irreversible-overlap rule; rule order picks local-vs-server.
	d := mustDecision(t, Params{
		Category:   "security",
		Decision:   "discount validation stays server-side",
		Author:     AuthorUser,
		Reversible: false,
		Impact:     ImpactHigh,
	})

	c := CheckContradiction("move discount validation local", []Decision{d})
	require.NotNil(t, c)
	assert.Equal(t, "local-vs-server", c.Rule)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Params{Category: "x", Author: AuthorUser, Impact: ImpactLow})
	assert.ErrorIs(t, err, ErrEmptyDecision)

	_, err = New(Params{Decision: "x", Author: AuthorUser, Impact: ImpactLow})
	assert.ErrorIs(t, err, ErrEmptyCategory)

	_, err = New(Params{Decision: "x", Category: "y", Author: "bot", Impact: ImpactLow})
	assert.ErrorIs(t, err, ErrInvalidAuthor)

	_, err = New(Params{Decision: "x", Category: "y", Author: AuthorAI, Impact: "huge"})
	assert.ErrorIs(t, err, ErrInvalidImpact)
}
