package scopelock

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Action is one proposed agent action to evaluate against a lock.
type Action struct {
	Type       ActionKind `json:"type"`
	TargetFile string     `json:"target_file,omitempty"`
}

// Store persists locks and their accumulated violations.
type Store interface {
	SaveLock(ctx context.Context, l *Lock) error
	GetLock(ctx context.Context, id string) (*Lock, error)
	AppendViolation(ctx context.Context, lockID string, v Violation) error
}

// CheckAction evaluates an action against the lock.
//
// Checks run first-match-wins, in fixed precedence:
//  1. forbidden path fragment
//  2. forbidden exact/suffix file
//  3. capability for delete / dependency / schema actions
//  4. action-type membership in the allow list
//  5. directory containment for file targets
//
// A failing check returns a blocked verdict and appends the violation to
// the lock; the first passing path returns an explicit allow.
func (l *Lock) CheckAction(a Action) Verdict {
	target := strings.TrimPrefix(a.TargetFile, "./")

	for _, fragment := range l.ForbiddenPatterns {
		if target != "" && strings.Contains(target, fragment) {
			return l.block(a, fmt.Sprintf("target contains forbidden path fragment %q", fragment))
		}
	}

	for _, name := range l.ForbiddenFiles {
		if target != "" && (target == name || strings.HasSuffix(target, "/"+name)) {
			return l.block(a, fmt.Sprintf("target is forbidden file %q", name))
		}
	}

	switch a.Type {
	case ActionDeleteFile:
		if !l.CanDeleteFiles {
			return l.block(a, "file deletion is not permitted for this task")
		}
	case ActionEditDependency:
		if !l.CanEditDeps {
			return l.block(a, "dependency edits are not permitted for this task")
		}
	case ActionEditSchema:
		if !l.CanEditSchema {
			return l.block(a, "schema edits are not permitted for this task")
		}
	}

	if !l.actionAllowed(a.Type) {
		return l.block(a, fmt.Sprintf("action %s is outside the task scope", a.Type))
	}

	if target != "" && !l.targetAllowed(target) {
		return l.block(a, fmt.Sprintf("target %q is outside the allowed directories", target))
	}

	return Verdict{Allowed: true, Reason: "within scope"}
}

func (l *Lock) actionAllowed(kind ActionKind) bool {
	for _, a := range l.AllowedActions {
		if a == kind {
			return true
		}
	}
	// Capability flags grant their action even when the verb table missed it.
	switch kind {
	case ActionDeleteFile:
		return l.CanDeleteFiles
	case ActionEditDependency:
		return l.CanEditDeps
	case ActionEditSchema:
		return l.CanEditSchema
	}
	return false
}

func (l *Lock) targetAllowed(target string) bool {
	for _, f := range l.AllowedFiles {
		if target == f {
			return true
		}
	}
	for _, dir := range l.AllowedDirectories {
		if strings.HasPrefix(target, dir) {
			return true
		}
	}
	return false
}

func (l *Lock) block(a Action, reason string) Verdict {
	v := Violation{
		Timestamp: time.Now(),
		Action:    a.Type,
		Target:    a.TargetFile,
		Reason:    reason,
		Blocked:   true,
	}
	l.Violations = append(l.Violations, v)
	return Verdict{Allowed: false, Reason: reason, Violation: &v}
}

// FormatForPrompt renders the lock boundary as markdown for the next
// agent prompt.
func (l *Lock) FormatForPrompt() string {
	var b strings.Builder
	b.WriteString("## Scope boundary\n")
	fmt.Fprintf(&b, "- Allowed directories: %s\n", strings.Join(l.AllowedDirectories, ", "))
	actions := make([]string, len(l.AllowedActions))
	for i, a := range l.AllowedActions {
		actions[i] = string(a)
	}
	fmt.Fprintf(&b, "- Allowed actions: %s\n", strings.Join(actions, ", "))
	fmt.Fprintf(&b, "- Caps: %d new files, %d modified files\n", l.MaxNewFiles, l.MaxModifiedFiles)
	fmt.Fprintf(&b, "- Delete: %t, dependency edits: %t, schema edits: %t\n",
		l.CanDeleteFiles, l.CanEditDeps, l.CanEditSchema)
	if len(l.Violations) > 0 {
		fmt.Fprintf(&b, "- Violations so far: %d\n", len(l.Violations))
	}
	return b.String()
}
