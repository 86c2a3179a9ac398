package decision

import (
	"fmt"
	"sort"
	"strings"
)

// categoryKeywords maps a free-text area to journal categories.
var categoryKeywords = map[string][]string{
	"database":  {"database", "schema", "migration", "query"},
	"auth":      {"auth", "login", "session", "password"},
	"ui":        {"ui", "component", "page", "style"},
	"payments":  {"payment", "stripe", "checkout", "billing"},
	"tech-stack": {"stack", "framework", "library"},
	"security":  {"security", "secret", "token", "key"},
}

// RelevantDecisions selects decisions worth surfacing for an area of work:
// category keyword match, significant word overlap with the area text, or
// unconditionally any high/critical impact decision.
func RelevantDecisions(area string, decisions []Decision) []Decision {
	lower := strings.ToLower(area)
	areaWords := significantWords(area)

	var out []Decision
	for _, d := range decisions {
		if d.Impact == ImpactHigh || d.Impact == ImpactCritical {
			out = append(out, d)
			continue
		}
		matched := false
		for _, kw := range categoryKeywords[d.Category] {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			for w := range significantWords(d.Decision) {
				if areaWords[w] {
					matched = true
					break
				}
			}
		}
		if matched {
			out = append(out, d)
		}
	}
	return out
}

// FormatForPrompt renders decisions as markdown grouped by category,
// flagging irreversible entries. Intended for injection into the next
// agent prompt.
func FormatForPrompt(decisions []Decision) string {
	if len(decisions) == 0 {
		return ""
	}

	byCategory := make(map[string][]Decision)
	var categories []string
	for _, d := range decisions {
		if _, seen := byCategory[d.Category]; !seen {
			categories = append(categories, d.Category)
		}
		byCategory[d.Category] = append(byCategory[d.Category], d)
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString("## Prior decisions\n")
	for _, cat := range categories {
		fmt.Fprintf(&b, "\n### %s\n", cat)
		for _, d := range byCategory[cat] {
			marker := ""
			if !d.Reversible {
				marker = " [IRREVERSIBLE]"
			}
			fmt.Fprintf(&b, "- %s%s (%s impact)\n", d.Decision, marker, d.Impact)
			if d.Reasoning != "" {
				fmt.Fprintf(&b, "  - why: %s\n", d.Reasoning)
			}
		}
	}
	return b.String()
}

// ExportMarkdown renders the full journal as a durable markdown document.
func ExportMarkdown(decisions []Decision) string {
	var b strings.Builder
	b.WriteString("# Decision journal\n")
	for _, d := range decisions {
		fmt.Fprintf(&b, "\n## %s — %s\n", d.Date.Format("2006-01-02"), d.Decision)
		fmt.Fprintf(&b, "- Category: %s\n- Author: %s\n- Impact: %s\n- Reversible: %t\n- User approved: %t\n",
			d.Category, d.Author, d.Impact, d.Reversible, d.UserApproved)
		if d.Reasoning != "" {
			fmt.Fprintf(&b, "- Reasoning: %s\n", d.Reasoning)
		}
		if len(d.Alternatives) > 0 {
			fmt.Fprintf(&b, "- Alternatives considered: %s\n", strings.Join(d.Alternatives, "; "))
		}
		if len(d.RelatedFiles) > 0 {
			fmt.Fprintf(&b, "- Related files: %s\n", strings.Join(d.RelatedFiles, ", "))
		}
	}
	return b.String()
}
