package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestInfoWritesKeyValues(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelInfo)

	Info("event added", "id", "e1", "count", 3, "dangling")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %q", buf.String())
	}
	if line["message"] != "event added" || line["level"] != "info" {
		t.Errorf("unexpected line: %v", line)
	}
	if line["id"] != "e1" || line["count"] != float64(3) {
		t.Errorf("key/values missing: %v", line)
	}
	if _, ok := line["dangling"]; ok {
		t.Error("odd trailing key should be ignored")
	}
}

func TestErrorIncludesErr(t *testing.T) {
	buf := capture(t)

	Error("fetch failed", errors.New("boom"), "url", "x")
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("error not logged: %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)

	SetLevel(LevelInfo)
	Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at INFO: %q", buf.String())
	}

	SetLevel(LevelDebug)
	Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("debug should pass at DEBUG")
	}

	buf.Reset()
	SetLevel(LevelError)
	Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at ERROR: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		" ERROR ": LevelError,
		"info":    LevelInfo,
		"verbose": LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
