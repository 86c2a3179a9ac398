package decision

import (
	"fmt"
	"strings"
)

// Contradiction reports that a proposed action conflicts with a previously
// logged decision. It is data, not an error; callers decide how to react.
type Contradiction struct {
	DecisionID  string `json:"decision_id"`
	Rule        string `json:"rule"`
	Explanation string `json:"explanation"`
}

// localTerms / serverTerms drive the local-vs-server rule.
var localTerms = []string{"local", "client-side", "in the browser", "on-device", "offline"}
var serverTerms = []string{"server-side", "server only", "on the server", "backend only"}

// shipTerms / neverShipTerms drive the embed-vs-never-ship rule.
var shipTerms = []string{"embed", "include", "ship", "bundle", "inline"}
var neverShipTerms = []string{"never ship", "never expose", "stay server-side", "keep server-side", "server-side only"}

// techKeywords lists the recognized technologies per tech-stack category.
// The first keyword found in the text wins for that category.
var techCategories = []string{"database", "auth", "ui", "css", "framework"}

var techKeywords = map[string][]string{
	"database":  {"postgres", "postgresql", "mysql", "sqlite", "mongodb", "mongo", "supabase", "planetscale"},
	"auth":      {"clerk", "auth0", "nextauth", "firebase auth", "supabase auth", "cognito"},
	"ui":        {"shadcn", "mui", "chakra", "mantine", "radix"},
	"css":       {"tailwind", "bootstrap", "styled-components", "sass", "vanilla css"},
	"framework": {"next.js", "nextjs", "remix", "sveltekit", "nuxt", "astro", "express", "rails"},
}

var stopwords = map[string]bool{
	"that": true, "this": true, "with": true, "from": true, "into": true,
	"have": true, "will": true, "would": true, "should": true, "about": true,
	"then": true, "them": true, "they": true, "when": true, "where": true,
	"what": true, "make": true, "using": true, "used": true,
}

func containsAny(text string, terms []string) string {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return term
		}
	}
	return ""
}

// significantWords returns lowercase words longer than 3 chars, stopwords
// removed, deduplicated.
func significantWords(text string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	out := make(map[string]bool)
	for _, w := range words {
		if len(w) > 3 && !stopwords[w] {
			out[w] = true
		}
	}
	return out
}

// techKeywordIn returns the first recognized technology for a category
// found in the text, or "".
func techKeywordIn(category, text string) string {
	return containsAny(text, techKeywords[category])
}

// CheckContradiction runs the ordered contradiction rules over each
// existing decision. The first matching rule wins and is returned with a
// human-readable explanation; nil means no contradiction.
//
// Rule order:
//  1. action implies local execution, decision mandates server-side
//  2. action implies shipping/embedding, decision reasoning says never ship
//  3. decision is irreversible and shares >=2 significant words with the action
//  4. tech-stack decision names a different technology than the action
func CheckContradiction(action string, decisions []Decision) *Contradiction {
	for _, d := range decisions {
		if containsAny(action, localTerms) != "" {
			if term := containsAny(d.Decision, serverTerms); term != "" {
				return &Contradiction{
					DecisionID:  d.ID,
					Rule:        "local-vs-server",
					Explanation: fmt.Sprintf("action implies local execution but decision %q requires %s", d.Decision, term),
				}
			}
		}
		if containsAny(action, shipTerms) != "" {
			if term := containsAny(d.Reasoning, neverShipTerms); term != "" {
				return &Contradiction{
					DecisionID:  d.ID,
					Rule:        "embed-vs-never-ship",
					Explanation: fmt.Sprintf("action would ship something the decision reasoning says must %s", term),
				}
			}
		}
		if !d.Reversible {
			actionWords := significantWords(action)
			overlap := 0
			var shared []string
			for w := range significantWords(d.Decision) {
				if actionWords[w] {
					overlap++
					shared = append(shared, w)
				}
			}
			if overlap >= 2 {
				return &Contradiction{
					DecisionID:  d.ID,
					Rule:        "irreversible-overlap",
					Explanation: fmt.Sprintf("action touches an irreversible decision (shared terms: %s)", strings.Join(shared, ", ")),
				}
			}
		}
		if d.Category == "tech-stack" {
			for _, category := range techCategories {
				actionTech := techKeywordIn(category, action)
				decisionTech := techKeywordIn(category, d.Decision)
				if actionTech != "" && decisionTech != "" && actionTech != decisionTech {
					return &Contradiction{
						DecisionID:  d.ID,
						Rule:        "tech-stack-mismatch",
						Explanation: fmt.Sprintf("action uses %s but the %s decision already chose %s", actionTech, category, decisionTech),
					}
				}
			}
		}
	}
	return nil
}
