package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"scheduler/internal/schedule"
)

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "UTC"
	defaultSourceURL   = "http://192.168.1.42:5000/api/inspection-requests"
	defaultTimeout     = 15 * time.Second
	defaultSlotMinutes = 15
	defaultExportCron  = "*/15 * * * *"
	defaultLogLevel    = "info"
)

// SourceConfig describes the inbound inspection-request endpoint.
type SourceConfig struct {
	// URL returns a JSON array of inspection requests.
	URL string `yaml:"url" json:"url"`
	// Timeout bounds the single start-up request. Zero means the default.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// ExportConfig controls the periodic ICS snapshot. An empty Path disables it.
type ExportConfig struct {
	Path string `yaml:"path" json:"path"`
	// Cron is a standard 5-field cron schedule.
	Cron string `yaml:"cron" json:"cron"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone used for the picker grid and for date-only
	// query parameters.
	Timezone string `yaml:"timezone" json:"timezone"`

	Source SourceConfig `yaml:"source" json:"source"`

	// SlotMinutes is the date picker step.
	SlotMinutes int `yaml:"slot_minutes" json:"slot_minutes"`

	// ConflictRule is "containment" (default) or "overlap".
	ConflictRule string `yaml:"conflict_rule" json:"conflict_rule"`

	// RecheckOnEdit runs the conflict check when an existing event is updated.
	RecheckOnEdit bool `yaml:"recheck_on_edit" json:"recheck_on_edit"`

	Export ExportConfig `yaml:"export" json:"export"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   defaultListen,
		Timezone: defaultTimezone,
		Source: SourceConfig{
			URL:     defaultSourceURL,
			Timeout: defaultTimeout,
		},
		SlotMinutes:  defaultSlotMinutes,
		ConflictRule: string(schedule.RuleContainment),
		Export: ExportConfig{
			Cron: defaultExportCron,
		},
		LogLevel: defaultLogLevel,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.Source.Timeout <= 0 {
		c.Source.Timeout = defaultTimeout
	}
	// The picker grid must divide an hour evenly.
	if c.SlotMinutes <= 0 || c.SlotMinutes > 60 || 60%c.SlotMinutes != 0 {
		c.SlotMinutes = defaultSlotMinutes
	}
	if c.ConflictRule == "" {
		c.ConflictRule = string(schedule.RuleContainment)
	}
	if c.Export.Cron == "" {
		c.Export.Cron = defaultExportCron
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// Validate reports settings that cannot be defaulted away.
func (c *Config) Validate() error {
	if _, err := schedule.ParseRule(c.ConflictRule); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.Export.Path != "" {
		if _, err := cron.ParseStandard(c.Export.Cron); err != nil {
			return fmt.Errorf("export cron %q: %w", c.Export.Cron, err)
		}
	}
	return nil
}

// Rule returns the parsed conflict rule, falling back to containment.
func (c *Config) Rule() schedule.Rule {
	r, err := schedule.ParseRule(c.ConflictRule)
	if err != nil {
		return schedule.RuleContainment
	}
	return r
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) SlotStep() time.Duration {
	return time.Duration(c.SlotMinutes) * time.Minute
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults and validate
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, 0o600)
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never see a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
