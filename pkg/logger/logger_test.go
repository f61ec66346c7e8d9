package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitializeLevels(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev; Sugar = prev.Sugar() })

	require.NoError(t, Initialize(Config{Level: "warn", Environment: "production", ServiceName: "auth-service"}))
	assert.False(t, Log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Log.Core().Enabled(zapcore.WarnLevel))

	require.NoError(t, Initialize(Config{Level: "bogus", Environment: "development"}))
	assert.True(t, Log.Core().Enabled(zapcore.InfoLevel), "unknown level falls back to info")
	assert.False(t, Log.Core().Enabled(zapcore.DebugLevel))
}

func TestAuditFields(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	core, logs := observer.New(zapcore.InfoLevel)
	Log = zap.New(core)

	Audit("account_verified", "a@x.com", map[string]interface{}{"token_id": "t1"})

	entries := logs.FilterMessage("audit_event").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "account_verified", ctx["action"])
	assert.Equal(t, "a@x.com", ctx["email"])
	assert.Equal(t, "t1", ctx["token_id"])
}
