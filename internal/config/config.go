package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode selects how display changes are detected.
type Mode string

const (
	ModeRandR Mode = "randr" // X11 RandR notifications.
	ModePoll  Mode = "poll"  // Periodic rescans.
)

// Format selects how the watch command prints changes.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ColorMode controls styled text output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

const (
	DefaultPollInterval = 2 * time.Second
	MinPollInterval     = 100 * time.Millisecond
)

// Duration is a time.Duration that reads and writes as a Go duration string
// ("500ms", "2s") in YAML.
type Duration time.Duration

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a string like \"2s\"")
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the effective configuration.
type Config struct {
	// Display overrides $DISPLAY for the X11 connection.
	Display      string    `yaml:"display,omitempty"`
	Mode         Mode      `yaml:"mode"`
	PollInterval Duration  `yaml:"poll_interval"`
	LogLevel     string    `yaml:"log_level"`
	Format       Format    `yaml:"format"`
	Color        ColorMode `yaml:"color"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Mode:         ModeRandR,
		PollInterval: Duration(DefaultPollInterval),
		LogLevel:     "info",
		Format:       FormatText,
		Color:        ColorAuto,
	}
}

// Interval returns the poll interval as a time.Duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.PollInterval)
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	return ParseLevel(c.LogLevel)
}

// ParseLevel maps a log level name to a slog level. Unknown names map to
// info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeRandR, ModePoll:
	default:
		return &ValidationError{Path: "mode", Err: fmt.Errorf("mode must be one of: randr, poll")}
	}
	if c.Interval() < MinPollInterval {
		return &ValidationError{Path: "poll_interval", Err: fmt.Errorf("poll_interval must be >= %s", MinPollInterval)}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatCBOR:
	default:
		return &ValidationError{Path: "format", Err: fmt.Errorf("format must be one of: text, json, cbor")}
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return &ValidationError{Path: "color", Err: fmt.Errorf("color must be one of: auto, always, never")}
	}
	return nil
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Save writes the configuration to path, creating parent directories.
//
// Note: this marshals the effective config and will not preserve comments
// from the original YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
