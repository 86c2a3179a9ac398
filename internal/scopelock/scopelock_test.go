package scopelock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_AlwaysGrantsCreateAndModify(t *testing.T) {
	lock := Create("frobnicate the widget", nil)
	assert.Contains(t, lock.AllowedActions, ActionCreateFile)
	assert.Contains(t, lock.AllowedActions, ActionModifyFile)
	assert.True(t, lock.IsActive)
}

func TestCreate_VerbHeuristics(t *testing.T) {
	lock := Create("install the stripe package and run the tests", nil)
	assert.Contains(t, lock.AllowedActions, ActionEditDependency)
	assert.Contains(t, lock.AllowedActions, ActionRunCommand)
	assert.NotContains(t, lock.AllowedActions, ActionDeleteFile)
}

func TestCreate_NounDirectories(t *testing.T) {
	lock := Create("add a component for the settings page", nil)
	assert.Contains(t, lock.AllowedDirectories, "src/components/")
	assert.Contains(t, lock.AllowedDirectories, "src/app/")
}

func TestCreate_SmallTaskTightCaps(t *testing.T) {
	lock := Create("fix a typo in the header", nil)
	assert.Equal(t, 2, lock.MaxNewFiles)
	assert.Equal(t, 3, lock.MaxModifiedFiles)
	assert.False(t, lock.CanDeleteFiles)
	assert.False(t, lock.CanEditDeps)
}

func TestCreate_LargeTaskLooseCaps(t *testing.T) {
	lock := Create("build the new billing feature", nil)
	assert.Equal(t, 15, lock.MaxNewFiles)
	assert.True(t, lock.CanDeleteFiles)
	assert.True(t, lock.CanEditDeps)
	assert.True(t, lock.CanEditSchema)
}

func TestCreate_SmallWinsOverLarge(t *testing.T) {
	lock := Create("small fix to the billing system", nil)
	assert.Equal(t, 2, lock.MaxNewFiles)
}

func TestCreate_ExplicitScopeOverridesInference(t *testing.T) {
	yes := true
	lock := Create("fix a typo", &ScopeRequest{
		AllowedDirectories: []string{"docs/"},
		MaxNewFiles:        7,
		CanDeleteFiles:     &yes,
	})
	assert.Equal(t, []string{"docs/"}, lock.AllowedDirectories)
	assert.Equal(t, 7, lock.MaxNewFiles)
	assert.True(t, lock.CanDeleteFiles)
	// Unspecified fields keep the inferred values.
	assert.Equal(t, 3, lock.MaxModifiedFiles)
}

func TestCheckAction_ForbiddenFragmentHasTopPrecedence(t *testing.T) {
	// Even with deletion granted and the directory allowed, the fragment
	// check fires first.
	lock := Create("refactor everything", &ScopeRequest{
		AllowedDirectories: []string{""},
	})
	verdict := lock.CheckAction(Action{Type: ActionModifyFile, TargetFile: "src/.git/config"})
	assert.False(t, verdict.Allowed)
	assert.Contains(t, verdict.Reason, "forbidden path fragment")
	require.Len(t, lock.Violations, 1)
	assert.True(t, lock.Violations[0].Blocked)
}

func TestCheckAction_ForbiddenFileSuffix(t *testing.T) {
	lock := Create("update the config", nil)
	verdict := lock.CheckAction(Action{Type: ActionModifyFile, TargetFile: "src/.env"})
	assert.False(t, verdict.Allowed)
	assert.Contains(t, verdict.Reason, "forbidden file")
}

func TestCheckAction_DeleteWithoutCapability(t *testing.T) {
	lock := Create("fix a typo", nil)
	verdict := lock.CheckAction(Action{Type: ActionDeleteFile, TargetFile: "src/old.go"})
	assert.False(t, verdict.Allowed)
	assert.Contains(t, verdict.Reason, "deletion")
}

func TestCheckAction_AllowedCreateInAllowedDirectory(t *testing.T) {
	lock := Create("add a component for user avatars", nil)
	verdict := lock.CheckAction(Action{Type: ActionCreateFile, TargetFile: "src/components/avatar.tsx"})
	assert.True(t, verdict.Allowed)
	assert.Empty(t, lock.Violations)
}

func TestCheckAction_OutsideAllowedDirectory(t *testing.T) {
	lock := Create("add a component", nil)
	verdict := lock.CheckAction(Action{Type: ActionCreateFile, TargetFile: "infra/terraform/main.tf"})
	assert.False(t, verdict.Allowed)
	assert.Contains(t, verdict.Reason, "outside the allowed directories")
}

func TestCheckAction_ViolationsAccumulate(t *testing.T) {
	lock := Create("fix a typo", nil)
	lock.CheckAction(Action{Type: ActionDeleteFile, TargetFile: "a.go"})
	lock.CheckAction(Action{Type: ActionDeleteFile, TargetFile: "b.go"})
	assert.Len(t, lock.Violations, 2)
}

func TestFormatForPrompt(t *testing.T) {
	lock := Create("add a component", nil)
	out := lock.FormatForPrompt()
	assert.Contains(t, out, "Scope boundary")
	assert.Contains(t, out, "src/components/")
}
