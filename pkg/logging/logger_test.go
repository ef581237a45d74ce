package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONEntriesCarrySeverityAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(INFO, true)
	log.SetOutput(&buf)

	log.WithField("component", "backend").Info("server started", map[string]interface{}{
		"port": 8080,
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("entry is not valid JSON: %v (%q)", err, buf.String())
	}
	if entry["severity"] != "INFO" {
		t.Errorf("unexpected severity: %v", entry["severity"])
	}
	if entry["message"] != "server started" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
	if entry["component"] != "backend" {
		t.Errorf("WithField value missing: %v", entry)
	}
	if entry["port"] != float64(8080) {
		t.Errorf("call field missing: %v", entry)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(WARN, true)
	log.SetOutput(&buf)

	log.Debug("dropped")
	log.Info("dropped too")
	log.Warn("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 entry, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "WARNING") {
		t.Errorf("unexpected entry: %q", lines[0])
	}
}

func TestSeverityNamesMatchCloudLogging(t *testing.T) {
	cases := map[Level]string{
		DEBUG: "DEBUG",
		INFO:  "INFO",
		WARN:  "WARNING",
		ERROR: "ERROR",
		FATAL: "CRITICAL",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("warning") != WARN {
		t.Error("warning should parse to WARN")
	}
	if ParseLevel("nonsense") != INFO {
		t.Error("unknown levels should default to INFO")
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(INFO, false)
	log.SetOutput(&buf)

	log.Info("plain entry")
	if !strings.Contains(buf.String(), "INFO: plain entry") {
		t.Errorf("unexpected text output: %q", buf.String())
	}
}
