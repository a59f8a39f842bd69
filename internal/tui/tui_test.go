package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/quack/internal/config"
	"github.com/1broseidon/quack/internal/ipc"
)

type fakeStatus struct {
	data *ipc.StatusData
	err  error
}

func (f fakeStatus) GetStatus() (*ipc.StatusData, error) { return f.data, f.err }

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

func TestSettingsApplyForm(t *testing.T) {
	cfg := config.DefaultConfig()
	s := NewSettings(cfg)
	s.loadForm()

	s.fWidgetWindow = "  dot  "
	s.fHostWindow = ""
	s.fLogLevel = "debug"
	s.fFollowHotkey = ""
	s.fDisplay = ":1"
	s.fWatchOnStart = true
	s.applyForm()

	if cfg.WidgetWindow != "dot" {
		t.Errorf("widget_window = %q", cfg.WidgetWindow)
	}
	if cfg.HostWindow != "main" {
		t.Errorf("blank host_window should keep %q, got %q", "main", cfg.HostWindow)
	}
	if cfg.LogLevel != "debug" || cfg.Display != ":1" || !cfg.WatchOnStart {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.FollowHotkey != "" {
		t.Errorf("follow_hotkey should be cleared, got %q", cfg.FollowHotkey)
	}
	if cfg.PinHotkey != config.DefaultConfig().PinHotkey {
		t.Errorf("pin_hotkey changed to %q", cfg.PinHotkey)
	}
}

func TestSettingsEditToggle(t *testing.T) {
	s := NewSettings(config.DefaultConfig())
	s, _ = s.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	s, _ = s.Update(key("e"))
	if !s.Editing() {
		t.Fatal("expected edit mode after 'e'")
	}
	if !strings.Contains(s.View(), "Editing Widget Settings") {
		t.Fatal("edit view missing header")
	}

	s, _ = s.Update(key("esc"))
	if s.Editing() {
		t.Fatal("esc should leave edit mode")
	}
	if !strings.Contains(s.View(), "magic-dot") {
		t.Fatal("display view should show the widget window")
	}
}

func TestRequired(t *testing.T) {
	check := required("host_window")
	if err := check("  "); err == nil || !strings.Contains(err.Error(), "host_window") {
		t.Fatalf("blank value: err = %v", err)
	}
	if err := check("main"); err != nil {
		t.Fatalf("non-blank value: err = %v", err)
	}
}

func TestConfigDiff(t *testing.T) {
	a := config.DefaultConfig()
	if lines := configDiff(a, config.DefaultConfig()); lines != nil {
		t.Fatalf("equal configs produced %v", lines)
	}

	b := config.DefaultConfig()
	b.LogLevel = "debug"
	lines := configDiff(a, b)

	var removed, added []string
	for _, l := range lines {
		switch l.kind {
		case diffRemoved:
			removed = append(removed, l.text)
		case diffAdded:
			added = append(added, l.text)
		}
	}
	if len(removed) != 1 || removed[0] != "log_level: info" {
		t.Fatalf("removed = %v", removed)
	}
	if len(added) != 1 || added[0] != "log_level: debug" {
		t.Fatalf("added = %v", added)
	}
}

func TestLineDiff(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want []diffLine
	}{
		{
			name: "replace middle",
			a:    []string{"x", "y", "z"},
			b:    []string{"x", "Y", "z"},
			want: []diffLine{{diffContext, "x"}, {diffRemoved, "y"}, {diffAdded, "Y"}, {diffContext, "z"}},
		},
		{
			name: "append",
			a:    []string{"x"},
			b:    []string{"x", "y"},
			want: []diffLine{{diffContext, "x"}, {diffAdded, "y"}},
		},
		{
			name: "remove all",
			a:    []string{"x", "y"},
			b:    nil,
			want: []diffLine{{diffRemoved, "x"}, {diffRemoved, "y"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lineDiff(tt.a, tt.b)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("line %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTrimContext(t *testing.T) {
	var lines []diffLine
	for i := 0; i < 10; i++ {
		lines = append(lines, diffLine{diffContext, string(rune('a' + i))})
	}
	lines[8] = diffLine{diffAdded, "new"}

	got := trimContext(lines, 2)
	// Leading unchanged lines are dropped without a marker.
	if len(got) != 4 || got[0].text != "g" || got[2].text != "new" || got[3].text != "j" {
		t.Fatalf("got %v", got)
	}

	lines[1] = diffLine{diffRemoved, "b"}
	got = trimContext(lines, 1)
	var gaps int
	for _, l := range got {
		if l.text == "..." {
			gaps++
		}
	}
	if gaps != 1 {
		t.Fatalf("expected one gap marker, got %v", got)
	}

	if trimContext([]diffLine{{diffContext, "a"}}, 2) != nil {
		t.Fatal("context-only diff should be nil")
	}
}

func TestModelSaveFlow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quack", "config.yaml")
	cfg := config.DefaultConfig()
	m := newModel(path, cfg, fakeStatus{data: &ipc.StatusData{FollowState: "idle"}})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	cfg.LogLevel = "debug"
	m = update(t, m, key("ctrl+s"))
	if !m.save.Active() || m.save.phase != savePreview {
		t.Fatal("ctrl+s should open the diff preview")
	}
	if !strings.Contains(m.View(), "log_level: debug") {
		t.Fatal("preview should show the pending change")
	}

	m = update(t, m, key("enter"))
	if !m.save.Saved() {
		t.Fatalf("save failed: %v", m.save.err)
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if res.Config.LogLevel != "debug" {
		t.Fatalf("saved log_level = %q", res.Config.LogLevel)
	}
	if m.original != *cfg {
		t.Fatal("snapshot should track the saved config")
	}

	m = update(t, m, key("x"))
	if m.save.Active() {
		t.Fatal("any key should dismiss the result")
	}
	m = update(t, m, key("ctrl+s"))
	if m.save.err == nil || !strings.Contains(m.save.err.Error(), "no changes") {
		t.Fatalf("second save: err = %v", m.save.err)
	}
}

func TestModelSaveRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.DefaultConfig()
	m := newModel(path, cfg, nil)

	cfg.HostWindow = cfg.WidgetWindow
	m = update(t, m, key("ctrl+s"))
	m = update(t, m, key("enter"))

	var verr *config.ValidationError
	if !errors.As(m.save.err, &verr) || verr.Path != "host_window" {
		t.Fatalf("err = %v, want host_window validation error", m.save.err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("invalid config was written: %v", err)
	}
}

func TestModelStatusBar(t *testing.T) {
	tests := []struct {
		name   string
		source StatusSource
		want   string
	}{
		{"running", fakeStatus{data: &ipc.StatusData{FollowState: "following", Watchers: 2}}, "watchers: 2"},
		{"stopped", fakeStatus{err: errors.New("dial unix: no such file")}, "daemon not running"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel("/tmp/config.yaml", config.DefaultConfig(), tt.source)
			m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
			if view := m.View(); !strings.Contains(view, tt.want) {
				t.Fatalf("view lacks %q:\n%s", tt.want, view)
			}
		})
	}
}

func TestModelQuitKeys(t *testing.T) {
	m := newModel("/tmp/config.yaml", config.DefaultConfig(), nil)
	for _, k := range []string{"q", "ctrl+c"} {
		_, cmd := m.Update(key(k))
		if cmd == nil {
			t.Fatalf("%s: expected quit command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%s: expected tea.QuitMsg", k)
		}
	}
}
