package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("race complete", "winner", "gw.example.com", "elapsed_ms", 42)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "race complete" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["winner"] != "gw.example.com" {
		t.Errorf("winner = %v", entry["winner"])
	}
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("startup", "addr", "127.0.0.1:8080")
	if !strings.Contains(buf.String(), "msg=startup") {
		t.Errorf("text output missing message: %s", buf.String())
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("hidden too")
	if buf.Len() != 0 {
		t.Errorf("below-threshold messages were written: %s", buf.String())
	}

	logger.Warn("visible")
	logger.Error("also visible")
	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	if lines != 2 {
		t.Errorf("expected 2 log lines, got %d:\n%s", lines, buf.String())
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.With("component", "pool").Info("sweep complete")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["component"] != "pool" {
		t.Errorf("With field missing: %v", entry)
	}
}

func TestNewLoggerDefaults(t *testing.T) {
	logger, err := New(Config{})
	if err != nil {
		t.Fatalf("empty config must default to info/json: %v", err)
	}
	if logger.level.String() != "INFO" {
		t.Errorf("default level = %s", logger.level)
	}
	if logger.format != FormatJSON {
		t.Errorf("default format = %s", logger.format)
	}
}

func TestNewLoggerInvalid(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("unknown level must be rejected")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("unknown format must be rejected")
	}
}
