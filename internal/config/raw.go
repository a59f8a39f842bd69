package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList accepts either a single path or a list of paths.
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*l = nil
			return nil
		}
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = []string{s}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawConfig mirrors Config with optional fields so that merged files only
// override the keys they set.
type RawConfig struct {
	Include      IncludeList `yaml:"include"`
	Display      *string     `yaml:"display"`
	XAuthority   *string     `yaml:"xauthority"`
	LogLevel     *string     `yaml:"log_level"`
	WidgetWindow *string     `yaml:"widget_window"`
	HostWindow   *string     `yaml:"host_window"`
	SelfProcess  *string     `yaml:"self_process"`
	FollowHotkey *string     `yaml:"follow_hotkey"`
	PinHotkey    *string     `yaml:"pin_hotkey"`
	WatchOnStart *bool       `yaml:"watch_on_start"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.XAuthority != nil {
		out.XAuthority = overlay.XAuthority
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.WidgetWindow != nil {
		out.WidgetWindow = overlay.WidgetWindow
	}
	if overlay.HostWindow != nil {
		out.HostWindow = overlay.HostWindow
	}
	if overlay.SelfProcess != nil {
		out.SelfProcess = overlay.SelfProcess
	}
	if overlay.FollowHotkey != nil {
		out.FollowHotkey = overlay.FollowHotkey
	}
	if overlay.PinHotkey != nil {
		out.PinHotkey = overlay.PinHotkey
	}
	if overlay.WatchOnStart != nil {
		out.WatchOnStart = overlay.WatchOnStart
	}
	return out
}

// BuildEffectiveConfig applies raw on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.WidgetWindow != nil {
		cfg.WidgetWindow = *raw.WidgetWindow
	}
	if raw.HostWindow != nil {
		cfg.HostWindow = *raw.HostWindow
	}
	if raw.SelfProcess != nil {
		cfg.SelfProcess = *raw.SelfProcess
	}
	if raw.FollowHotkey != nil {
		cfg.FollowHotkey = *raw.FollowHotkey
	}
	if raw.PinHotkey != nil {
		cfg.PinHotkey = *raw.PinHotkey
	}
	if raw.WatchOnStart != nil {
		cfg.WatchOnStart = *raw.WatchOnStart
	}
	return cfg
}
