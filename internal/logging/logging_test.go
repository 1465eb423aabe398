package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatEmitsStructuredRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")
	logger.Info("cycle started", "component", "aggregator")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "cycle started", record["msg"])
	assert.Equal(t, "aggregator", record["component"])
}

func TestUnknownFormatFallsBackToText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "logfmt")
	logger.Info("hello")

	line := buf.String()
	assert.True(t, strings.Contains(line, "msg=hello"), "got %q", line)
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	cases := []struct {
		level   string
		want    slog.Level
		dropped slog.Level
	}{
		{"error", slog.LevelError, slog.LevelWarn},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"info", slog.LevelInfo, slog.LevelDebug},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, tc.level, "text")

		logger.Log(t.Context(), tc.dropped, "dropped")
		assert.Zero(t, buf.Len(), "level %s must drop %v", tc.level, tc.dropped)

		logger.Log(t.Context(), tc.want, "kept")
		assert.NotZero(t, buf.Len(), "level %s must keep %v", tc.level, tc.want)
	}
}
