package util

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufferOutput struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (b *bufferOutput) Write(entry LogEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry)
	return nil
}

func (b *bufferOutput) Close() error { return nil }

func newTestLogger(level LogLevel) (*Logger, *bufferOutput) {
	out := &bufferOutput{}
	logger := &Logger{level: level, outputs: &outputSet{}, fields: map[string]interface{}{}}
	logger.AddOutput(out)
	return logger, out
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"fatal", LevelFatal},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogLevel(tt.input))
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, out := newTestLogger(LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Errorf("shown %d", 2)

	require.Len(t, out.entries, 2)
	assert.Equal(t, "WARN", out.entries[0].Level)
	assert.Equal(t, "shown 2", out.entries[1].Message)

	logger.SetLevel(LevelDebug)
	logger.Debug("now shown")
	assert.Len(t, out.entries, 3)
}

func TestLogger_WithSharesOutputs(t *testing.T) {
	logger, out := newTestLogger(LevelDebug)

	child := logger.WithComponent("monitor").With(F("seq", 3))
	child.Info("appended", F("rows", 10))
	logger.Info("parent")

	require.Len(t, out.entries, 2)
	assert.Equal(t, "monitor", out.entries[0].Fields["component"])
	assert.Equal(t, 3, out.entries[0].Fields["seq"])
	assert.Equal(t, 10, out.entries[0].Fields["rows"])
	assert.NotContains(t, out.entries[1].Fields, "component")
}

func TestRenderEntry(t *testing.T) {
	entry := LogEntry{
		Level:   "INFO",
		Message: "tick",
		Fields:  map[string]interface{}{"b": 2, "a": 1},
	}

	t.Run("text sorts fields", func(t *testing.T) {
		line, err := renderEntry(entry, FormatText)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(line, "[INFO] tick a=1 b=2"), line)
	})

	t.Run("json", func(t *testing.T) {
		line, err := renderEntry(entry, FormatJSON)
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, sonic.UnmarshalString(line, &decoded))
		assert.Equal(t, "tick", decoded["message"])
		assert.Equal(t, "INFO", decoded["level"])
	})
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewConsoleOutput(&buf, FormatText)

	require.NoError(t, out.Write(LogEntry{Level: "WARN", Message: "slow capture"}))
	assert.Contains(t, buf.String(), "[WARN] slow capture")
	assert.NoError(t, out.Close())
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "monitor.log")

	logger, err := NewLogger(LoggerOptions{Level: "debug", File: path})
	require.NoError(t, err)
	logger.Debug("reloaded", F("rows", 42))
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] reloaded rows=42")
}

func TestGlobalLogger(t *testing.T) {
	SetLogger(nil)
	assert.NotPanics(t, func() {
		LogInfo("before init")
		Component("x").Warnf("still %s", "quiet")
	})

	logger, out := newTestLogger(LevelInfo)
	SetLogger(logger)
	defer SetLogger(nil)

	LogInfo("hello", F("k", "v"))
	LogDebug("filtered")
	LogWarnf("warn %d", 1)

	require.Len(t, out.entries, 2)
	assert.Equal(t, "v", out.entries[0].Fields["k"])
	assert.Equal(t, "warn 1", out.entries[1].Message)
}

type failingOutput struct{ name string }

func (f failingOutput) Write(LogEntry) error { return nil }
func (f failingOutput) Close() error       { return errors.New(f.name + " stuck") }

func TestLogger_CloseReportsEveryOutput(t *testing.T) {
	logger, _ := newTestLogger(LevelInfo)
	logger.AddOutput(failingOutput{"file"})
	logger.AddOutput(failingOutput{"socket"})

	err := logger.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file stuck")
	assert.Contains(t, err.Error(), "socket stuck")
	assert.NoError(t, logger.Close(), "outputs are dropped after Close")
}

type closeCounter struct {
	bufferOutput
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestSetLogger_ClosesPrevious(t *testing.T) {
	first := &Logger{level: LevelInfo, outputs: &outputSet{}, fields: map[string]interface{}{}}
	out := &closeCounter{}
	first.AddOutput(out)

	SetLogger(first)
	SetLogger(first)
	assert.Zero(t, out.closed, "re-installing the same logger keeps it open")

	SetLogger(nil)
	assert.Equal(t, 1, out.closed)
}
