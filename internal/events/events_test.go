package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	ev := New(KindGatePassed, "sess-1", map[string]string{"phase": "schema"})

	assert.Equal(t, KindGatePassed, ev.Kind)
	assert.Equal(t, "sess-1", ev.SessionID)
	assert.False(t, ev.OccurredAt.IsZero())
	assert.Equal(t, "schema", ev.Fields["phase"])
}

func TestLogSink_Emit(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	sink.Emit(context.Background(), New(KindScopeViolation, "sess-2", map[string]string{"file": ".env"}))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "audit event", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "scope_violation", fields["event"])
	assert.Equal(t, "sess-2", fields["session_id"])
	assert.Equal(t, ".env", fields["file"])
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.Emit(context.Background(), New(KindGatePassed, "a", nil))
	rec.Emit(context.Background(), New(KindPhaseAdvanced, "a", nil))
	rec.Emit(context.Background(), New(KindGatePassed, "b", nil))

	assert.Len(t, rec.All(), 3)
	assert.Len(t, rec.OfKind(KindGatePassed), 2)
	assert.Empty(t, rec.OfKind(KindSessionExpired))
}
