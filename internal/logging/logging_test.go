package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	defaultLogger = slog.New(handler)

	f()

	defaultLogger = oldLogger
	return buf.String()
}

func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  Level
		format Format
	}{
		{"Debug level JSON format", LevelDebug, FormatJSON},
		{"Warn level Text format", LevelWarn, FormatText},
		{"Default level (invalid value)", Level(999), FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitLogger(tt.level, tt.format)
			if GetLogger() == nil {
				t.Error("Expected logger to be initialized, got nil")
			}
		})
	}
	InitLogger(LevelWarn, FormatText)
}

func TestInitLoggerWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer func() {
		SetOutput(nil)
		InitLogger(LevelWarn, FormatText)
	}()

	InitLogger(LevelInfo, FormatJSON)
	Debug("hidden")
	Info("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message logged at info level: %s", out)
	}
	m := decode(t, out)
	if m["msg"] != "shown" || m["key"] != "value" {
		t.Errorf("unexpected log line: %v", m)
	}
	if _, err := time.Parse(time.RFC3339, m["time"].(string)); err != nil {
		t.Errorf("time not RFC3339: %v", m["time"])
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	levels := map[string]Level{"debug": LevelDebug, "INFO": LevelInfo, "warning": LevelWarn, "error": LevelError}
	for in, want := range levels {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) should fail")
	}

	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("ParseFormat(yaml) should fail")
	}
}

func TestDomainHelpers(t *testing.T) {
	t.Run("DocumentLoaded", func(t *testing.T) {
		out := captureLogOutput(func() {
			DocumentLoaded("a.xml", 12, 3*time.Millisecond, "root", "article-1")
		})
		m := decode(t, out)
		if m["msg"] != "document_loaded" || m["nodes"] != float64(12) || m["root"] != "article-1" {
			t.Errorf("unexpected log line: %v", m)
		}
	})

	t.Run("RoundTrip mismatch warns", func(t *testing.T) {
		out := captureLogOutput(func() {
			RoundTrip("a.xml", false)
		})
		m := decode(t, out)
		if m["level"] != "WARN" || m["identical"] != false {
			t.Errorf("unexpected log line: %v", m)
		}
	})

	t.Run("IndexError", func(t *testing.T) {
		out := captureLogOutput(func() {
			IndexError("a.xml", errors.New("index corrupt"))
		})
		m := decode(t, out)
		if m["level"] != "ERROR" || m["error"] != "index corrupt" {
			t.Errorf("unexpected log line: %v", m)
		}
	})
}
