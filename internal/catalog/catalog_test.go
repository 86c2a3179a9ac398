package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeywords_UnionOfMatches(t *testing.T) {
	kws := ExtractKeywords("add stripe checkout with zod validation")
	assert.Contains(t, kws, "stripe")
	assert.Contains(t, kws, "checkout")
	assert.Contains(t, kws, "zod")
	assert.Contains(t, kws, "validation")
}

func TestExtractKeywords_CaseInsensitive(t *testing.T) {
	kws := ExtractKeywords("Add STRIPE Checkout")
	assert.Contains(t, kws, "stripe")
	assert.Contains(t, kws, "checkout")
}

func TestExtractKeywords_NoMatch(t *testing.T) {
	assert.Empty(t, ExtractKeywords("refactor the widget frobnicator"))
}

func TestLookup_AuthKeywords(t *testing.T) {
	c := NewStatic()
	docs := c.Lookup("login")
	assert.Contains(t, docs, "auth/email-password")
	assert.Contains(t, docs, "auth/session")
}

func TestLookup_ReturnsCopy(t *testing.T) {
	c := NewStatic()
	docs := c.Lookup("stripe")
	require.NotEmpty(t, docs)
	docs[0] = "mutated"
	assert.Equal(t, "payments/stripe", c.Lookup("stripe")[0])
}

func TestCoreDocument_AlwaysPresent(t *testing.T) {
	c := NewStatic()
	name, body := c.CoreDocument()
	assert.Equal(t, "core/rules", name)
	assert.NotEmpty(t, body)
}

func TestDocument_EveryIndexedDocHasBody(t *testing.T) {
	c := NewStatic()
	for kw := range keywordIndex {
		for _, name := range c.Lookup(kw) {
			body, ok := c.Document(name)
			assert.True(t, ok, "missing body for %s", name)
			assert.NotEmpty(t, body)
		}
	}
}

func TestFallbackDocuments_GenericVerb(t *testing.T) {
	docs := FallbackDocuments("build the frobnicator")
	assert.Equal(t, []string{"api/routes", "ui/components"}, docs)
}

func TestFallbackDocuments_NoVerb(t *testing.T) {
	assert.Nil(t, FallbackDocuments("frobnicate the widget"))
}

func TestRelatedSuggestions_CategoryMatch(t *testing.T) {
	sugs := RelatedSuggestions("generate a monthly report for accounting")
	require.NotEmpty(t, sugs)
	assert.Equal(t, "document-generation", sugs[0].Category)
	assert.NotEmpty(t, sugs[0].Reason)
}

func TestRelatedSuggestions_MultipleCategoriesInTableOrder(t *testing.T) {
	sugs := RelatedSuggestions("integrate the external service and schedule a nightly sync")
	require.GreaterOrEqual(t, len(sugs), 2)
	assert.Equal(t, "api-integration", sugs[0].Category)
	assert.Equal(t, "background-job", sugs[1].Category)
}

func TestRelatedSuggestions_DefaultWhenNothingMatches(t *testing.T) {
	sugs := RelatedSuggestions("frobnicate the widget")
	require.Len(t, sugs, 1)
	assert.Equal(t, "general", sugs[0].Category)
	assert.Equal(t, fallbackDocuments, sugs[0].Documents)
}
