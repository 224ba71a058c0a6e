package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for input, want := range tests {
		assert.Equal(t, want, ParseLevel(input), input)
	}
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Component(NewWithWriter("info", &buf), "scheduler")

	l.Debug("hidden")
	l.Info("tick", "due", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tick", entry["msg"])
	assert.Equal(t, "scheduler", entry["component"])
	assert.EqualValues(t, 3, entry["due"])
}

func TestComponentWithoutLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		Component(nil, "sourcing").Error("dropped")
	})
}
