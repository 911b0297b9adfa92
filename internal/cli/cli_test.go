package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mkeeler/cdpwire/internal/config"
	"github.com/mkeeler/cdpwire/internal/tail"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"Page.navigate", `{"url":"https://example.com"}`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(params) != `{"url":"https://example.com"}` {
		t.Errorf("unexpected params: %s", params)
	}
}

func TestParseParams_NoParams(t *testing.T) {
	params, err := parseParams([]string{"Page.enable"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params != nil {
		t.Errorf("expected nil params, got %s", params)
	}
}

func TestParseParams_InvalidJSON(t *testing.T) {
	if _, err := parseParams([]string{"Page.navigate", `{url:`}); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestApplyFlags_Overrides(t *testing.T) {
	cfg := config.Default()
	cfg.URL = "ws://config:9222/a"

	got := applyFlags(cfg, "ws://flag:9222/b", 5*time.Second)
	if got.URL != "ws://flag:9222/b" {
		t.Errorf("expected flag url to win, got %q", got.URL)
	}
	if got.Timeout.Duration != 5*time.Second {
		t.Errorf("expected flag timeout to win, got %s", got.Timeout.Duration)
	}
}

func TestApplyFlags_KeepsConfigWhenUnset(t *testing.T) {
	cfg := config.Default()
	cfg.URL = "ws://config:9222/a"

	got := applyFlags(cfg, "", 0)
	if got.URL != "ws://config:9222/a" {
		t.Errorf("expected config url to survive, got %q", got.URL)
	}
	if got.Timeout.Duration != 30*time.Second {
		t.Errorf("expected config timeout to survive, got %s", got.Timeout.Duration)
	}
}

func TestFormatEntry(t *testing.T) {
	e := tail.Entry{
		Time:      time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		Method:    "Page.loadEventFired",
		SessionID: "S1",
		Params:    json.RawMessage(`{"timestamp":1}`),
	}

	line := formatEntry(e)
	for _, want := range []string{"15:04:05.000", "Page.loadEventFired", "[S1]", `{"timestamp":1}`} {
		if !strings.Contains(line, want) {
			t.Errorf("expected %q in %q", want, line)
		}
	}

	e.SessionID = ""
	if line := formatEntry(e); strings.Contains(line, "[") {
		t.Errorf("expected no session marker for root scope, got %q", line)
	}
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	JSONOutput = true
	defer func() { JSONOutput = false }()

	if err := outputJSON(&buf, map[string]string{"a": "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"a":"b"}` {
		t.Errorf("expected compact JSON, got %q", got)
	}
}
