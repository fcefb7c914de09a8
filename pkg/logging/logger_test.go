package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to unmarshal log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"WARNING", WarnLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"bogus", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFieldConstructors(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"String", String("k", "v"), "k", "v"},
		{"Uint64", Uint64("id", 7), "id", uint64(7)},
		{"Duration", Duration("timeout", 5*time.Second), "timeout", "5s"},
		{"Error", Error(errors.New("boom")), "error", "boom"},
		{"ErrorNil", Error(nil), "error", nil},
		{"QueryID", QueryID("q-1"), "query_id", "q-1"},
		{"AccessPath", AccessPath("index_scan"), "access_path", "index_scan"},
		{"Version", Version(3), "version", uint64(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key || tt.field.Value != tt.value {
				t.Errorf("%s = %+v, want {%s %v}", tt.name, tt.field, tt.key, tt.value)
			}
		})
	}
}

func TestLogrusLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("query finished", String("query_id", "abc"), Count(6))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry["msg"] != "query finished" {
		t.Errorf("msg = %v, want 'query finished'", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["query_id"] != "abc" {
		t.Errorf("query_id = %v, want abc", entry["query_id"])
	}
	if entry["count"] != float64(6) {
		t.Errorf("count = %v, want 6", entry["count"])
	}
}

func TestLogrusLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0]["level"] != "warning" {
		t.Errorf("first level = %v, want warning", entries[0]["level"])
	}
	if entries[1]["level"] != "error" {
		t.Errorf("second level = %v, want error", entries[1]["level"])
	}
}

func TestLogrusLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	child := logger.With(Component("planner"))
	child.Info("planned", AccessPath("label_scan"))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0]["component"] != "planner" {
		t.Errorf("component = %v, want planner", entries[0]["component"])
	}
	if entries[0]["access_path"] != "label_scan" {
		t.Errorf("access_path = %v, want label_scan", entries[0]["access_path"])
	}
}

func TestLogrusLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	if logger.GetLevel() != InfoLevel {
		t.Errorf("initial level = %v, want INFO", logger.GetLevel())
	}

	logger.SetLevel(ErrorLevel)
	if logger.GetLevel() != ErrorLevel {
		t.Errorf("level = %v, want ERROR", logger.GetLevel())
	}

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Error("expected no output for Info at ErrorLevel")
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, InfoLevel, FormatText)
	logger.Info("hello", String("label", "person"))

	out := buf.String()
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "label=person") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	StartTimer(logger, "commit", Version(2)).End()
	StartTimer(logger, "scan").EndError(errors.New("disk gone"))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if _, ok := entries[0]["latency"]; !ok {
		t.Error("expected latency field on timed operation")
	}
	if entries[1]["error"] != "disk gone" {
		t.Errorf("error = %v, want 'disk gone'", entries[1]["error"])
	}
}

func TestGlobalHelpers(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))
	defer SetDefaultLogger(NewNopLogger())

	Debug("d")
	With(String("service", "graphplan")).Info("tagged")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0]["level"] != "debug" {
		t.Errorf("level = %v, want debug", entries[0]["level"])
	}
	if entries[1]["service"] != "graphplan" {
		t.Errorf("service = %v, want graphplan", entries[1]["service"])
	}
}

func TestNopLogger(t *testing.T) {
	var l Logger = NewNopLogger()
	l.Info("ignored")
	if l.With(String("a", "b")) == nil {
		t.Error("NopLogger.With returned nil")
	}
}
