package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Display      string `yaml:"display,omitempty"`
	XAuthority   string `yaml:"xauthority,omitempty"`
	LogLevel     string `yaml:"log_level"`
	WidgetWindow string `yaml:"widget_window"`
	HostWindow   string `yaml:"host_window"`
	SelfProcess  string `yaml:"self_process"`
	FollowHotkey string `yaml:"follow_hotkey,omitempty"`
	PinHotkey    string `yaml:"pin_hotkey,omitempty"`
	WatchOnStart bool   `yaml:"watch_on_start"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		WidgetWindow: "magic-dot",
		HostWindow:   "main",
		SelfProcess:  "quack",
		FollowHotkey: "Mod4-Mod1-f", // Super+Alt+F
		PinHotkey:    "Mod4-Mod1-p", // Super+Alt+P
		WatchOnStart: false,
	}
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the source YAML files.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration. Every
// problem is reported, each as a *ValidationError.
func (c *Config) Validate() error {
	var errs *multierror.Error
	fail := func(path string, err error) {
		errs = multierror.Append(errs, &ValidationError{Path: path, Err: err})
	}

	if strings.TrimSpace(c.WidgetWindow) == "" {
		fail("widget_window", fmt.Errorf("widget_window is required"))
	}
	if strings.TrimSpace(c.HostWindow) == "" {
		fail("host_window", fmt.Errorf("host_window is required"))
	} else if c.WidgetWindow == c.HostWindow {
		fail("host_window", fmt.Errorf("host_window must differ from widget_window"))
	}
	if strings.TrimSpace(c.SelfProcess) == "" {
		fail("self_process", fmt.Errorf("self_process is required"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		fail("log_level", err)
	}
	if c.FollowHotkey != "" && c.FollowHotkey == c.PinHotkey {
		fail("pin_hotkey", fmt.Errorf("pin_hotkey must differ from follow_hotkey"))
	}

	if errs != nil {
		errs.ErrorFormat = formatErrors
	}
	return errs.ErrorOrNil()
}

func formatErrors(errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d config errors: %s", len(errs), strings.Join(msgs, "; "))
}

// SlogLevel returns the slog level for log_level.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
}
