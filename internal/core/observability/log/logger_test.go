package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldsReachCore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core).Named("engine").With(String("component", "test"))

	l.Info("pass completed",
		Int("processed", 3),
		Bool("deep", true),
		Duration("took", time.Millisecond),
		Error(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "engine", entry.LoggerName)
	fields := entry.ContextMap()
	assert.Equal(t, "test", fields["component"])
	assert.Equal(t, int64(3), fields["processed"])
	assert.Equal(t, true, fields["deep"])
	assert.Equal(t, "boom", fields["error"])
}

func TestSetLevelFiltersEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core)

	l.SetLevel(LevelWarn)
	l.Info("dropped")
	l.Warn("kept")
	assert.Equal(t, LevelWarn, l.GetLevel())
	assert.Equal(t, 1, logs.Len())

	child := l.With(Int("n", 1))
	child.Debug("dropped too")
	assert.Equal(t, 1, logs.Len(), "children share the level")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("loud"))
	assert.Equal(t, "warn", LevelWarn.String())
}

func TestProvideFallsBackToNop(t *testing.T) {
	assert.NotNil(t, Provide())
	NewNop().Info("nothing")
}
