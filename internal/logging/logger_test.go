package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	logger.Info("socket connected", "endpoint", "ws://localhost:7777/workflows/ws")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "socket connected" {
		t.Fatalf("msg field: %v", record["msg"])
	}
	if record["endpoint"] != "ws://localhost:7777/workflows/ws" {
		t.Fatalf("endpoint attr: %v", record["endpoint"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "text", Output: &buf})

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("suppressed levels leaked: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn record missing: %s", out)
	}
}

func TestNew_AutoFormatFallsBackToJSONForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "auto", Output: &buf})

	logger.Info("hello")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("non-terminal auto output should be JSON: %s", buf.String())
	}
}

func TestLogger_SanitizesMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Format: "json", Output: &buf})

	logger.Debug(`sending frame {"action":"authenticate","token":"super-secret-value"}`,
		"header", "Bearer abcdefghijklmnopqrstuvwxyz")

	out := buf.String()
	if strings.Contains(out, "super-secret-value") || strings.Contains(out, "abcdefghijklmnopqrstuvwxyz") {
		t.Fatalf("secrets leaked into log output: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Fatalf("no redaction marker: %s", out)
	}
}

func TestLogger_ScopedWith(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	logger.WithSession("s1").WithRun("r1").Info("step completed")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decoding record: %v", err)
	}
	if record["session_id"] != "s1" || record["run_id"] != "r1" {
		t.Fatalf("scoped fields missing: %v", record)
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.Info("discarded")
	if got := logger.Sanitize("sk-abcdefghij0123456789ABCD"); got != "[REDACTED]" {
		t.Fatalf("nop logger sanitizer inactive: %q", got)
	}
}
