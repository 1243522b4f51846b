package dispatch

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoOpLoggerDiscardsEverything(t *testing.T) {
	var l NoOpLogger
	assert.False(t, l.IsEnabled(LevelError))
	l.Log(LogEntry{Level: LevelError, Message: "should be discarded"})
}

func TestDefaultLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLogger(&buf, LevelWarn)

	logger.Log(LogEntry{Level: LevelInfo, Category: "test", Message: "ignored"})
	assert.Empty(t, buf.String())

	logger.Log(LogEntry{Level: LevelError, Category: "test", Message: "recorded"})
	assert.Contains(t, buf.String(), "recorded")
	assert.Contains(t, buf.String(), "ERROR")
}

func TestDefaultLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLogger(&buf, LevelError)
	assert.False(t, logger.IsEnabled(LevelInfo))

	logger.SetLevel(LevelDebug)
	assert.True(t, logger.IsEnabled(LevelInfo))
}

func TestDefaultLoggerIncludesIdAndFdWhenSet(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLogger(&buf, LevelDebug)
	logger.Log(LogEntry{Level: LevelDebug, Category: "io", Id: 5, Fd: 9, Message: "ready"})
	out := buf.String()
	assert.Contains(t, out, "id=5")
	assert.Contains(t, out, "fd=9")
}

func TestWriterLoggerFormatsEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := WriterLogger{Out: &buf, Level: LevelInfo}

	logger.Log(LogEntry{Level: LevelDebug, Category: "test", Message: "below threshold"})
	assert.Empty(t, buf.String())

	logger.Log(LogEntry{Level: LevelInfo, Category: "test", Message: "recorded"})
	assert.Contains(t, buf.String(), "recorded")
}

func TestLogDispatcherSkipsDisabledLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := WriterLogger{Out: &buf, Level: LevelError}
	logDispatcher(logger, LevelDebug, "telemetry", Id(1), Fd(1), "noise", nil)
	assert.Empty(t, buf.String())
}
