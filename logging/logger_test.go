package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"unknown", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestLoggerFieldsReachZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.With(String("component", "drive")).Info("mode changed",
		String("mode", "slow"),
		Float64("speed", 1.5),
		Int("frame", 3),
		Bool("brake", true),
		Duration("dt", 16*time.Millisecond),
		Error(errors.New("boom")),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "mode changed", entries[0].Message)
	assert.Equal(t, "drive", ctx["component"])
	assert.Equal(t, "slow", ctx["mode"])
	assert.Equal(t, 1.5, ctx["speed"])
	assert.Equal(t, int64(3), ctx["frame"])
	assert.Equal(t, true, ctx["brake"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestNewBuildsBothEncodings(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		l, err := New(Config{Level: "warn", Format: format})
		require.NoError(t, err)
		require.NotNil(t, l)
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := NewNop()
	assert.Same(t, l, OrNop(l))
}
