package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo, FormatJSON)
	logger.SetOutput(&buf)

	logger.Debug("hidden")
	logger.WithField("portfolioId", "p-1").WithError(errors.New("boom")).Error("snapshot failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "error", entry.Level)
	assert.Equal(t, "snapshot failed", entry.Message)
	assert.Equal(t, "p-1", entry.Fields["portfolioId"])
	assert.Equal(t, "boom", entry.Fields["error"])
	assert.NotEmpty(t, entry.Caller)
}

func TestLogger_DerivedLoggersDoNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(LevelDebug, FormatText)
	base.SetOutput(&buf)

	_ = base.WithField("a", 1)
	base.Info("plain")

	assert.NotContains(t, buf.String(), "fields=")
}

func TestFromContext(t *testing.T) {
	custom := NewLogger(LevelWarn, FormatText)
	ctx := WithLogger(context.Background(), custom)

	assert.Same(t, custom, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestParse(t *testing.T) {
	assert.Equal(t, LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LevelInfo, ParseLogLevel("verbose"))
	assert.Equal(t, FormatText, ParseLogFormat("text"))
	assert.Equal(t, FormatJSON, ParseLogFormat("xml"))
}
