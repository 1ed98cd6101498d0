package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Interval() != DefaultPollInterval {
		t.Fatalf("expected poll interval %s, got %s", DefaultPollInterval, cfg.Interval())
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != "" {
		t.Fatalf("expected no file, got %q", res.File)
	}
	if res.Config.Mode != ModeRandR {
		t.Fatalf("expected mode randr, got %q", res.Config.Mode)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *res.Config != *DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", res.Config)
	}
}

func TestLoadFromPath_AllFields(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"display: \":1\"",
		"mode: poll",
		"poll_interval: 500ms",
		"log_level: debug",
		"format: cbor",
		"color: never",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Display != ":1" {
		t.Fatalf("expected display :1, got %q", cfg.Display)
	}
	if cfg.Mode != ModePoll {
		t.Fatalf("expected mode poll, got %q", cfg.Mode)
	}
	if cfg.Interval() != 500*time.Millisecond {
		t.Fatalf("expected poll_interval 500ms, got %s", cfg.Interval())
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.SlogLevel())
	}
	if cfg.Format != FormatCBOR || cfg.Color != ColorNever {
		t.Fatalf("expected cbor/never, got %q/%q", cfg.Format, cfg.Color)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), filepath.Base(path)) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_BadDuration(t *testing.T) {
	path := writeConfig(t, "poll_interval: soon\n")

	if _, err := LoadFromPath(path); err == nil || !strings.Contains(err.Error(), "invalid duration") {
		t.Fatalf("expected invalid duration error, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSourceContext(t *testing.T) {
	path := writeConfig(t, "mode: randr\nformat: xml\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "format" {
		t.Fatalf("expected path format, got %q", verr.Path)
	}
	if verr.Source.Line != 2 {
		t.Fatalf("expected line 2, got %d", verr.Source.Line)
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("expected line number in error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{name: "mode", mutate: func(c *Config) { c.Mode = "wayland" }, path: "mode"},
		{name: "interval too short", mutate: func(c *Config) { c.PollInterval = Duration(10 * time.Millisecond) }, path: "poll_interval"},
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "loud" }, path: "log_level"},
		{name: "format", mutate: func(c *Config) { c.Format = "xml" }, path: "format"},
		{name: "color", mutate: func(c *Config) { c.Color = "sometimes" }, path: "color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDefaultConfigPath_EnvOverride(t *testing.T) {
	t.Setenv(PathEnv, "/tmp/custom.yaml")
	got, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error: %v", err)
	}
	if got != "/tmp/custom.yaml" {
		t.Fatalf("DefaultConfigPath() = %q, want /tmp/custom.yaml", got)
	}

	t.Setenv(PathEnv, "")
	t.Setenv("HOME", "/home/tester")
	got, err = DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error: %v", err)
	}
	if got != "/home/tester/.config/displaywatch/config.yaml" {
		t.Fatalf("DefaultConfigPath() = %q", got)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Mode = ModePoll
	cfg.PollInterval = Duration(750 * time.Millisecond)

	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *res.Config != *cfg {
		t.Fatalf("round trip = %+v, want %+v", res.Config, cfg)
	}
}

func TestExplain(t *testing.T) {
	path := writeConfig(t, "mode: poll\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	val, src, err := Explain(res, "mode")
	if err != nil {
		t.Fatalf("explain mode: %v", err)
	}
	if val != "poll" || src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("explain mode = %#v %#v", val, src)
	}

	val, src, err = Explain(res, "poll_interval")
	if err != nil {
		t.Fatalf("explain poll_interval: %v", err)
	}
	if val != "2s" || src.Kind != SourceDefault {
		t.Fatalf("explain poll_interval = %#v %#v", val, src)
	}

	if _, _, err := Explain(res, "layouts"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}
