package config

import (
	"fmt"
	"sort"
)

// Explain returns the effective value of a top-level key and where it came
// from.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

// Keys lists every path Explain accepts.
func Keys() []string {
	keys := make([]string, 0, len(accessors))
	for k := range accessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var accessors = map[string]func(*Config) any{
	"display":        func(c *Config) any { return c.Display },
	"xauthority":     func(c *Config) any { return c.XAuthority },
	"log_level":      func(c *Config) any { return c.LogLevel },
	"widget_window":  func(c *Config) any { return c.WidgetWindow },
	"host_window":    func(c *Config) any { return c.HostWindow },
	"self_process":   func(c *Config) any { return c.SelfProcess },
	"follow_hotkey":  func(c *Config) any { return c.FollowHotkey },
	"pin_hotkey":     func(c *Config) any { return c.PinHotkey },
	"watch_on_start": func(c *Config) any { return c.WatchOnStart },
}

func lookupValue(cfg *Config, path string) (any, error) {
	get, ok := accessors[path]
	if !ok {
		return nil, fmt.Errorf("unknown config path %q", path)
	}
	return get(cfg), nil
}
