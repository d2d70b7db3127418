package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scheduler/internal/schedule"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != defaultListen {
		t.Errorf("Listen = %q, want %q", cfg.Listen, defaultListen)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := fi.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perms = %o, want 600", perm)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Source.URL != cfg.Source.URL || again.Source.Timeout != cfg.Source.Timeout {
		t.Errorf("reloaded source differs: %+v vs %+v", again.Source, cfg.Source)
	}
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
listen: ":9000"
source:
  url: "http://example.test/api/inspection-requests"
  timeout: 5s
slot_minutes: 7
conflict_rule: overlap
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Source.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s, want 5s", cfg.Source.Timeout)
	}
	if cfg.SlotMinutes != defaultSlotMinutes {
		t.Errorf("SlotMinutes = %d, want fallback %d", cfg.SlotMinutes, defaultSlotMinutes)
	}
	if cfg.Rule() != schedule.RuleOverlap {
		t.Errorf("Rule = %q, want overlap", cfg.Rule())
	}
	if cfg.Timezone != defaultTimezone {
		t.Errorf("Timezone = %q, want %q", cfg.Timezone, defaultTimezone)
	}
	if cfg.SlotStep() != 15*time.Minute {
		t.Errorf("SlotStep = %s", cfg.SlotStep())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown rule", "conflict_rule: strict\n", "conflict rule"},
		{"bad timezone", "timezone: Mars/Olympus\n", "timezone"},
		{"bad cron", "export:\n  path: /tmp/x.ics\n  cron: \"every minute\"\n", "export cron"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0o600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ics")
	if err := WriteFileAtomic(path, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Errorf("content = %q, want %q", got, "two")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}
