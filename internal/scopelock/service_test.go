package scopelock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/wardend/internal/events"
)

type memLockStore struct {
	locks      map[string]*Lock
	violations map[string][]Violation
	saveErr    error
}

func newMemLockStore() *memLockStore {
	return &memLockStore{
		locks:      make(map[string]*Lock),
		violations: make(map[string][]Violation),
	}
}

func (m *memLockStore) SaveLock(_ context.Context, l *Lock) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *l
	m.locks[l.ID] = &cp
	return nil
}

func (m *memLockStore) GetLock(_ context.Context, id string) (*Lock, error) {
	l, ok := m.locks[id]
	if !ok {
		return nil, errors.New("scope lock not found")
	}
	cp := *l
	cp.Violations = append([]Violation(nil), m.violations[id]...)
	return &cp, nil
}

func (m *memLockStore) AppendViolation(_ context.Context, lockID string, v Violation) error {
	m.violations[lockID] = append(m.violations[lockID], v)
	return nil
}

func TestService_CreateAndGet(t *testing.T) {
	store := newMemLockStore()
	svc := NewService(store, nil, nil)

	l, err := svc.CreateLock(context.Background(), "add a login form component", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)

	got, err := svc.GetLock(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)
}

func TestService_CreateLock_SaveFailure(t *testing.T) {
	store := newMemLockStore()
	store.saveErr = errors.New("disk full")
	svc := NewService(store, nil, nil)

	_, err := svc.CreateLock(context.Background(), "add a login form", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save scope lock")
}

func TestService_Check_AllowedLeavesNoTrace(t *testing.T) {
	store := newMemLockStore()
	rec := events.NewRecorder()
	svc := NewService(store, rec, nil)

	l, err := svc.CreateLock(context.Background(), "add a profile component", nil)
	require.NoError(t, err)

	v, err := svc.Check(context.Background(), l.ID, Action{
		Type:       ActionCreateFile,
		TargetFile: "src/components/Profile.tsx",
	})
	require.NoError(t, err)
	assert.True(t, v.Allowed)
	assert.Empty(t, store.violations[l.ID])
	assert.Empty(t, rec.OfKind(events.KindScopeViolation))
}

func TestService_Check_BlockedPersistsViolationAndEmits(t *testing.T) {
	store := newMemLockStore()
	rec := events.NewRecorder()
	svc := NewService(store, rec, nil)

	l, err := svc.CreateLock(context.Background(), "add a profile component", nil)
	require.NoError(t, err)

	v, err := svc.Check(context.Background(), l.ID, Action{
		Type:       ActionModifyFile,
		TargetFile: ".env",
	})
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	require.NotNil(t, v.Violation)

	require.Len(t, store.violations[l.ID], 1)
	assert.Equal(t, ".env", store.violations[l.ID][0].Target)

	evs := rec.OfKind(events.KindScopeViolation)
	require.Len(t, evs, 1)
	assert.Equal(t, l.ID, evs[0].SessionID)
	assert.Equal(t, ".env", evs[0].Fields["target"])
}

func TestService_Check_UnknownLock(t *testing.T) {
	svc := NewService(newMemLockStore(), nil, nil)

	_, err := svc.Check(context.Background(), "missing", Action{Type: ActionCreateFile})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load scope lock")
}
