package logging_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticksched/internal/logging"
)

func TestNewLoggerWithWriterText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.NewLoggerWithWriter("info", "text", &buf)
	logger.WithField("task", "0x1").Info("test message")

	out := buf.String()
	assert.Contains(t, out, "test message")
	assert.Contains(t, out, "task=0x1")
}

func TestNewLoggerWithWriterJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.NewLoggerWithWriter("debug", "JSON", &buf)
	logger.WithField("group", "sensors").Debug("spawned")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"msg":"spawned"`)
	assert.Contains(t, out, `"group":"sensors"`)
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.NewLoggerWithWriter("warn", "text", &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"INFO":    logrus.InfoLevel,
		"warn":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"trace":   logrus.TraceLevel,
		"bogus":   logrus.InfoLevel,
		"":        logrus.InfoLevel,
	}

	for in, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(in), in)
	}
}
