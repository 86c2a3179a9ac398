package catalog

import (
	"sort"
	"strings"
)

const coreDocumentName = "core/rules"

const coreDocumentBody = `# core/rules

Every unit of work starts with pattern_discover and ends with
pattern_validate. Run the tests. Run the type checker. Do not widen
scope beyond the task.
`

// keywordIndex maps a keyword to the rule documents it selects.
// Matching is case-insensitive substring against the task text; the union
// of all matched rows is returned, deduplicated.
var keywordIndex = map[string][]string{
	"stripe":     {"payments/stripe"},
	"payment":    {"payments/stripe", "payments/checkout"},
	"checkout":   {"payments/checkout"},
	"subscription": {"payments/subscriptions"},
	"webhook":    {"integrations/webhooks"},
	"validation": {"validation/input"},
	"zod":        {"validation/input"},
	"schema":     {"database/schema", "validation/input"},
	"migration":  {"database/migrations"},
	"database":   {"database/schema"},
	"query":      {"database/queries"},
	"login":      {"auth/email-password", "auth/session"},
	"auth":       {"auth/email-password", "auth/session"},
	"password":   {"auth/email-password"},
	"session":    {"auth/session"},
	"oauth":      {"auth/oauth"},
	"email":      {"messaging/email"},
	"sms":        {"messaging/sms"},
	"upload":     {"files/uploads"},
	"file":       {"files/uploads"},
	"pdf":        {"documents/generation"},
	"invoice":    {"documents/generation", "payments/stripe"},
	"cron":       {"jobs/background"},
	"job":        {"jobs/background"},
	"queue":      {"jobs/background"},
	"realtime":   {"realtime/channels"},
	"websocket":  {"realtime/channels"},
	"chat":       {"realtime/channels", "ai/features"},
	"ai":         {"ai/features"},
	"llm":        {"ai/features"},
	"embedding":  {"ai/features"},
	"api":        {"api/routes"},
	"endpoint":   {"api/routes"},
	"route":      {"api/routes"},
	"form":       {"ui/forms", "validation/input"},
	"component":  {"ui/components"},
	"page":       {"ui/pages"},
	"test":       {"testing/strategy"},
	"deploy":     {"operations/deployment"},
	"env":        {"operations/environment"},
	"security":   {"security/baseline"},
}

// fallbackVerbs trigger the generic document set when no keyword matched.
var fallbackVerbs = []string{"add", "create", "build", "implement", "fix", "update"}

// fallbackDocuments is the generic set returned on the verb fallback path.
var fallbackDocuments = []string{"api/routes", "ui/components"}

// Suggestion is one category heuristic offered when no keyword matched
// exactly. Reason is a one-line explanation of why the category fits.
type Suggestion struct {
	Category  string   `json:"category"`
	Reason    string   `json:"reason"`
	Documents []string `json:"documents"`
}

// suggestionRules are evaluated in order against the task text; every
// matching row is included.
var suggestionRules = []struct {
	category string
	terms    []string
	reason   string
	docs     []string
}{
	{"api-integration", []string{"integrate", "third-party", "external", "sync"}, "task mentions wiring an external service", []string{"integrations/webhooks", "api/routes"}},
	{"background-job", []string{"schedule", "periodic", "nightly", "batch"}, "task mentions recurring or deferred work", []string{"jobs/background"}},
	{"document-generation", []string{"report", "export", "generate", "receipt"}, "task mentions producing a document artifact", []string{"documents/generation"}},
	{"realtime", []string{"live", "presence", "notify", "push"}, "task mentions live updates to connected clients", []string{"realtime/channels"}},
	{"ai-feature", []string{"suggest", "summarize", "classify", "recommend"}, "task mentions model-backed behavior", []string{"ai/features"}},
}

// documentNames is every document the static catalog carries a body for.
var documentNames = func() []string {
	seen := map[string]bool{}
	var names []string
	add := func(ds []string) {
		for _, d := range ds {
			if !seen[d] {
				seen[d] = true
				names = append(names, d)
			}
		}
	}
	for _, docs := range keywordIndex {
		add(docs)
	}
	add(fallbackDocuments)
	for _, r := range suggestionRules {
		add(r.docs)
	}
	sort.Strings(names)
	return names
}()

// ExtractKeywords returns every index keyword present in the task text,
// case-insensitive substring match, in deterministic order.
func ExtractKeywords(task string) []string {
	lower := strings.ToLower(task)
	var matched []string
	for kw := range keywordIndex {
		if strings.Contains(lower, kw) {
			matched = append(matched, kw)
		}
	}
	sort.Strings(matched)
	return matched
}

// FallbackDocuments returns the generic document set if the task contains
// one of the generic verbs, or nil.
func FallbackDocuments(task string) []string {
	lower := strings.ToLower(task)
	for _, verb := range fallbackVerbs {
		if strings.Contains(lower, verb) {
			out := make([]string, len(fallbackDocuments))
			copy(out, fallbackDocuments)
			return out
		}
	}
	return nil
}

// RelatedSuggestions returns category suggestions for a task that had no
// exact keyword match. Rules are evaluated in table order; if none match,
// the generic document set is suggested.
func RelatedSuggestions(task string) []Suggestion {
	lower := strings.ToLower(task)
	var out []Suggestion
	for _, rule := range suggestionRules {
		for _, term := range rule.terms {
			if strings.Contains(lower, term) {
				docs := make([]string, len(rule.docs))
				copy(docs, rule.docs)
				out = append(out, Suggestion{Category: rule.category, Reason: rule.reason, Documents: docs})
				break
			}
		}
	}
	if len(out) == 0 {
		out = append(out, Suggestion{
			Category:  "general",
			Reason:    "no specific category matched the task text",
			Documents: append([]string(nil), fallbackDocuments...),
		})
	}
	return out
}
