package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Defaults(t *testing.T) {
	logger, err := NewLogger(nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	_, err := NewLogger(&Config{Level: "info", Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(&Config{Level: "loud", Format: "json"})
	require.Error(t, err)
}

func TestContextFields_Empty(t *testing.T) {
	fields := ContextFields(context.Background())
	assert.Empty(t, fields)
}

func TestContextFields_AllSet(t *testing.T) {
	ctx := WithSessionID(context.Background(), "sess-1")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithPhase(ctx, "implementation")

	fields := ContextFields(ctx)
	require.Len(t, fields, 3)
	assert.Equal(t, "sess-1", SessionIDFromContext(ctx))
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "implementation", PhaseFromContext(ctx))
}

func TestTestLogger_AssertLogged(t *testing.T) {
	tl := NewTestLogger()
	tl.Info("gate passed")
	tl.AssertLogged(t, zapcore.InfoLevel, "gate passed")
	assert.Len(t, tl.All(), 1)
}
