package cubewire

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLogger_Interface(t *testing.T) {
	var _ Logger = slog.Default()
}

func TestDefaultLogger(t *testing.T) {
	logger := defaultLogger()

	if logger != slog.Default() {
		t.Error("defaultLogger did not return slog.Default()")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewTextLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTextLogger(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("warn message missing: %q", out)
	}
}

// mockLogger records every message for assertions.
type mockLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

func (l *mockLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *mockLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *mockLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *mockLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *mockLogger) Error(msg string, args ...any) { l.record("error", msg, args) }

// find returns the first entry with msg.
func (l *mockLogger) find(msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func TestLogger_CustomImplementation(t *testing.T) {
	mock := &mockLogger{}
	var logger Logger = mock

	logger.Debug("test debug", "key1", "value1")
	logger.Warn("test warn", "key3", "value3")

	e, ok := mock.find("test debug")
	if !ok || e.level != "debug" {
		t.Errorf("debug entry = %+v, %v", e, ok)
	}
	if _, ok := mock.find("test warn"); !ok {
		t.Error("warn entry missing")
	}
}
