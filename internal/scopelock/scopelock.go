// Package scopelock bounds which files and actions an agent may touch
// for one task.
//
// A lock is inferred from the request text by explicit verb/noun/size
// rule tables, or supplied declaratively; a fixed sensitive-file deny
// list applies regardless of inference. Check verdicts are data, never
// errors, and violations accumulate on the lock.
package scopelock

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActionKind categorizes what an agent wants to do.
type ActionKind string

const (
	ActionCreateFile     ActionKind = "create-file"
	ActionModifyFile     ActionKind = "modify-file"
	ActionDeleteFile     ActionKind = "delete-file"
	ActionEditDependency ActionKind = "edit-dependency"
	ActionEditSchema     ActionKind = "edit-schema"
	ActionRunCommand     ActionKind = "run-command"
	ActionEditConfig     ActionKind = "edit-config"
)

// Violation records one blocked action. Append-only; nothing auto-clears.
type Violation struct {
	Timestamp time.Time  `json:"timestamp"`
	Action    ActionKind `json:"action"`
	Target    string     `json:"target"`
	Reason    string     `json:"reason"`
	Blocked   bool       `json:"blocked"`
}

// Verdict is the outcome of one CheckAction call.
type Verdict struct {
	Allowed   bool       `json:"allowed"`
	Reason    string     `json:"reason"`
	Violation *Violation `json:"violation,omitempty"`
}

// Lock is the per-task allow/deny boundary. One per task; never expires.
type Lock struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Request   string    `json:"request"`

	AllowedFiles       []string     `json:"allowed_files,omitempty"`
	AllowedDirectories []string     `json:"allowed_directories"`
	AllowedActions     []ActionKind `json:"allowed_actions"`

	ForbiddenFiles    []string `json:"forbidden_files"`
	ForbiddenPatterns []string `json:"forbidden_patterns"`

	MaxNewFiles      int  `json:"max_new_files"`
	MaxModifiedFiles int  `json:"max_modified_files"`
	CanDeleteFiles   bool `json:"can_delete_files"`
	CanEditDeps      bool `json:"can_edit_deps"`
	CanEditSchema    bool `json:"can_edit_schema"`

	IsActive   bool        `json:"is_active"`
	Violations []Violation `json:"violations"`
}

// ScopeRequest is an explicit declarative scope. Any non-zero field
// overrides the corresponding inference from the request text.
type ScopeRequest struct {
	AllowedFiles       []string
	AllowedDirectories []string
	AllowedActions     []ActionKind
	MaxNewFiles        int
	MaxModifiedFiles   int
	CanDeleteFiles     *bool
	CanEditDeps        *bool
	CanEditSchema      *bool
}

// sensitiveFiles are denied by exact name or path suffix regardless of
// anything the inference granted.
var sensitiveFiles = []string{
	".env",
	".env.local",
	".env.production",
	"id_rsa",
	"credentials.json",
	"secrets.yaml",
}

// sensitivePatterns deny any target whose path contains the fragment.
var sensitivePatterns = []string{
	".git/",
	"node_modules/",
	".ssh/",
	".aws/",
	"secrets",
}

// verbActions maps request verbs to granted actions. Create and modify
// are always granted.
var verbActions = []struct {
	terms   []string
	actions []ActionKind
}{
	{[]string{"install", "package", "dependency", "upgrade"}, []ActionKind{ActionEditDependency}},
	{[]string{"delete", "remove", "clean"}, []ActionKind{ActionDeleteFile}},
	{[]string{"run", "execute", "build", "test"}, []ActionKind{ActionRunCommand}},
	{[]string{"config", "setting", "environment"}, []ActionKind{ActionEditConfig}},
	{[]string{"schema", "migration", "table"}, []ActionKind{ActionEditSchema}},
}

// nounDirectories maps request nouns to conventional directory prefixes.
var nounDirectories = []struct {
	terms []string
	dirs  []string
}{
	{[]string{"component", "widget"}, []string{"src/components/"}},
	{[]string{"page", "screen", "view"}, []string{"src/app/", "src/pages/"}},
	{[]string{"api", "endpoint", "route"}, []string{"src/app/api/", "src/server/"}},
	{[]string{"database", "schema", "migration", "model"}, []string{"db/", "prisma/"}},
	{[]string{"lib", "util", "helper"}, []string{"src/lib/"}},
	{[]string{"test", "spec"}, []string{"tests/", "src/__tests__/"}},
}

// smallTaskTerms and largeTaskTerms drive the size heuristic. Small wins
// when both match: a "small fix to the payment system" stays tight.
var smallTaskTerms = []string{"fix", "typo", "small", "tweak", "adjust", "rename"}
var largeTaskTerms = []string{"feature", "system", "refactor", "rewrite", "overhaul"}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// Create builds a scope lock for a task. Inference runs over the request
// text; any explicit fields in scope override the inferred values. The
// sensitive deny tables always apply.
func Create(request string, scope *ScopeRequest) *Lock {
	lower := strings.ToLower(request)

	actions := []ActionKind{ActionCreateFile, ActionModifyFile}
	for _, rule := range verbActions {
		if containsAny(lower, rule.terms) {
			actions = append(actions, rule.actions...)
		}
	}

	var dirs []string
	seen := map[string]bool{}
	for _, rule := range nounDirectories {
		if containsAny(lower, rule.terms) {
			for _, d := range rule.dirs {
				if !seen[d] {
					seen[d] = true
					dirs = append(dirs, d)
				}
			}
		}
	}
	if len(dirs) == 0 {
		dirs = []string{"src/"}
	}

	lock := &Lock{
		ID:                 uuid.New().String(),
		CreatedAt:          time.Now(),
		Request:            request,
		AllowedDirectories: dirs,
		AllowedActions:     actions,
		ForbiddenFiles:     append([]string(nil), sensitiveFiles...),
		ForbiddenPatterns:  append([]string(nil), sensitivePatterns...),
		IsActive:           true,
		Violations:         []Violation{},
	}

	switch {
	case containsAny(lower, smallTaskTerms):
		lock.MaxNewFiles = 2
		lock.MaxModifiedFiles = 3
	case containsAny(lower, largeTaskTerms):
		lock.MaxNewFiles = 15
		lock.MaxModifiedFiles = 20
		lock.CanDeleteFiles = true
		lock.CanEditDeps = true
		lock.CanEditSchema = true
	default:
		lock.MaxNewFiles = 5
		lock.MaxModifiedFiles = 8
	}

	if scope != nil {
		applyOverrides(lock, scope)
	}

	return lock
}

func applyOverrides(lock *Lock, scope *ScopeRequest) {
	if len(scope.AllowedFiles) > 0 {
		lock.AllowedFiles = append([]string(nil), scope.AllowedFiles...)
	}
	if len(scope.AllowedDirectories) > 0 {
		lock.AllowedDirectories = append([]string(nil), scope.AllowedDirectories...)
	}
	if len(scope.AllowedActions) > 0 {
		lock.AllowedActions = append([]ActionKind(nil), scope.AllowedActions...)
	}
	if scope.MaxNewFiles > 0 {
		lock.MaxNewFiles = scope.MaxNewFiles
	}
	if scope.MaxModifiedFiles > 0 {
		lock.MaxModifiedFiles = scope.MaxModifiedFiles
	}
	if scope.CanDeleteFiles != nil {
		lock.CanDeleteFiles = *scope.CanDeleteFiles
	}
	if scope.CanEditDeps != nil {
		lock.CanEditDeps = *scope.CanEditDeps
	}
	if scope.CanEditSchema != nil {
		lock.CanEditSchema = *scope.CanEditSchema
	}
}
