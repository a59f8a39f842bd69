package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.WidgetWindow != "magic-dot" || cfg.HostWindow != "main" || cfg.SelfProcess != "quack" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *res.Config != *DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", res.Config)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "info" {
		t.Fatalf("expected log_level info, got %q", res.Config.LogLevel)
	}
}

func TestLoadFromPath_OverridesAndSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		`display: ":1"`,
		`xauthority: "/tmp/test-xauth"`,
		`log_level: debug`,
		`widget_window: dot`,
		`watch_on_start: true`,
		`pin_hotkey: ""`,
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Display != ":1" || cfg.XAuthority != "/tmp/test-xauth" {
		t.Fatalf("display/xauthority = %q/%q", cfg.Display, cfg.XAuthority)
	}
	if cfg.WidgetWindow != "dot" || cfg.HostWindow != "main" {
		t.Fatalf("windows = %q/%q", cfg.WidgetWindow, cfg.HostWindow)
	}
	if !cfg.WatchOnStart {
		t.Fatal("expected watch_on_start")
	}
	if cfg.PinHotkey != "" {
		t.Fatalf("expected pin hotkey disabled, got %q", cfg.PinHotkey)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("SlogLevel = %v", cfg.SlogLevel())
	}

	src := res.Sources["log_level"]
	if src.Kind != SourceFile || src.Line != 3 {
		t.Fatalf("log_level source = %+v", src)
	}
}

func TestLoadFromPath_UnknownKeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "dot_size: 30\n")

	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestLoadFromPath_ValidationErrorCarriesSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "host_window: main\nlog_level: loud\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "log_level" {
		t.Fatalf("path = %q", verr.Path)
	}
	if verr.Source.Line != 2 {
		t.Fatalf("source = %+v", verr.Source)
	}
	if !strings.Contains(err.Error(), "config.yaml:2:") {
		t.Fatalf("error lacks location: %v", err)
	}
}

func TestLoadFromPath_Includes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "conf.d", "10-display.yaml"), "display: \":2\"\nlog_level: warn\n")
	writeFile(t, filepath.Join(dir, "conf.d", "README.txt"), "ignored")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include: conf.d\nlog_level: error\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Display != ":2" {
		t.Fatalf("display = %q", res.Config.Display)
	}
	// The including file is applied last.
	if res.Config.LogLevel != "error" {
		t.Fatalf("log_level = %q", res.Config.LogLevel)
	}
	if len(res.Files) != 2 {
		t.Fatalf("files = %v", res.Files)
	}
}

func TestLoadFromPath_IncludeGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hotkeys.yaml"), "follow_hotkey: Mod4-f\n")
	writeFile(t, filepath.Join(dir, "windows.yml"), "host_window: onboarding\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include:\n  - \"*.y*ml\"\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.FollowHotkey != "Mod4-f" || res.Config.HostWindow != "onboarding" {
		t.Fatalf("unexpected config: %+v", res.Config)
	}
	// config.yaml matches its own glob but is only loaded once.
	if len(res.Files) != 3 {
		t.Fatalf("files = %v", res.Files)
	}
	if got := res.Sources["host_window"]; !strings.HasSuffix(got.File, "windows.yml") || got.Line != 1 {
		t.Fatalf("host_window source = %+v", got)
	}
}

func TestLoadFromPath_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, b, "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty widget", func(c *Config) { c.WidgetWindow = " " }, "widget_window"},
		{"empty host", func(c *Config) { c.HostWindow = "" }, "host_window"},
		{"same windows", func(c *Config) { c.HostWindow = c.WidgetWindow }, "host_window"},
		{"empty self", func(c *Config) { c.SelfProcess = "" }, "self_process"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"same hotkeys", func(c *Config) { c.PinHotkey = c.FollowHotkey }, "pin_hotkey"},
		{"hotkeys disabled", func(c *Config) { c.FollowHotkey, c.PinHotkey = "", "" }, ""},
		{"warning alias", func(c *Config) { c.LogLevel = "warning" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Path != tt.wantErr {
				t.Fatalf("err = %v, want ValidationError at %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Display = ":3"
	cfg.WatchOnStart = true

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *res.Config != *cfg {
		t.Fatalf("loaded %+v, want %+v", res.Config, cfg)
	}
}

func TestSave_UsesQuackConfigEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("QUACK_CONFIG", path)

	if err := DefaultConfig().Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
}

func TestExplain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "self_process: duck\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	v, src, err := Explain(res, "self_process")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if v != "duck" || src.Kind != SourceFile {
		t.Fatalf("self_process = %v from %v", v, src)
	}

	v, src, err = Explain(res, "host_window")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if v != "main" || src.Kind != SourceDefault {
		t.Fatalf("host_window = %v from %v", v, src)
	}

	if _, _, err := Explain(res, "layouts.grid"); err == nil {
		t.Fatal("expected unknown path error")
	}
	if len(Keys()) != 9 {
		t.Fatalf("Keys() = %v", Keys())
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WidgetWindow = ""
	cfg.SelfProcess = ""
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, path := range []string{"widget_window", "self_process", "log_level"} {
		if !strings.Contains(err.Error(), path) {
			t.Errorf("error %q does not mention %s", err, path)
		}
	}
	if !strings.HasPrefix(err.Error(), "3 config errors") {
		t.Errorf("error = %q", err)
	}
}
