package tui

import (
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/quack/internal/config"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Settings shows the widget settings and edits them with a form.
type Settings struct {
	cfg *config.Config

	width  int
	height int

	editing bool
	form    *huh.Form

	// Form-bound values, copied back on submit.
	fDisplay      string
	fXAuthority   string
	fLogLevel     string
	fWidgetWindow string
	fHostWindow   string
	fSelfProcess  string
	fFollowHotkey string
	fPinHotkey    string
	fWatchOnStart bool
}

// NewSettings creates the settings view over cfg. Edits are applied to cfg
// in place.
func NewSettings(cfg *config.Config) Settings {
	return Settings{cfg: cfg}
}

// Editing reports whether the form currently owns keyboard input.
func (s Settings) Editing() bool { return s.editing }

// Update handles a message for the settings view.
func (s Settings) Update(msg tea.Msg) (Settings, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		s.width = size.Width
		s.height = size.Height
	}
	if !s.editing {
		if km, ok := msg.(tea.KeyMsg); ok && km.String() == "e" {
			s.startEditing()
			return s, s.form.Init()
		}
		return s, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		s.stopEditing()
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	switch s.form.State {
	case huh.StateCompleted:
		s.applyForm()
		s.stopEditing()
		return s, nil
	case huh.StateAborted:
		s.stopEditing()
		return s, nil
	}
	return s, cmd
}

func (s *Settings) stopEditing() {
	s.editing = false
	s.form = nil
}

func (s *Settings) loadForm() {
	cfg := s.cfg
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s.fDisplay = cfg.Display
	s.fXAuthority = cfg.XAuthority
	s.fLogLevel = cfg.LogLevel
	s.fWidgetWindow = cfg.WidgetWindow
	s.fHostWindow = cfg.HostWindow
	s.fSelfProcess = cfg.SelfProcess
	s.fFollowHotkey = cfg.FollowHotkey
	s.fPinHotkey = cfg.PinHotkey
	s.fWatchOnStart = cfg.WatchOnStart
}

func (s *Settings) startEditing() {
	s.loadForm()

	w := s.width - 4
	if w < 40 {
		w = 40
	}

	levelOpts := huh.NewOptions(logLevels...)
	if s.fLogLevel == "warning" {
		s.fLogLevel = "warn"
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("widget_window").
				Title("Widget Window").
				Description("Title or WM_CLASS of the magic dot").
				Validate(required("widget_window")).
				Value(&s.fWidgetWindow),
			huh.NewInput().
				Key("host_window").
				Title("Host Window").
				Description("Onboarding window closed by close-onboarding").
				Validate(required("host_window")).
				Value(&s.fHostWindow),
			huh.NewInput().
				Key("self_process").
				Title("Self Process").
				Description("Process name the watcher never reports").
				Validate(required("self_process")).
				Value(&s.fSelfProcess),
			huh.NewConfirm().
				Key("watch_on_start").
				Title("Watch On Start").
				Description("Start one active window watcher with the daemon").
				Value(&s.fWatchOnStart),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("follow_hotkey").
				Title("Follow Hotkey").
				Description("Empty disables the binding").
				Value(&s.fFollowHotkey),
			huh.NewInput().
				Key("pin_hotkey").
				Title("Pin Hotkey").
				Description("Empty disables the binding").
				Value(&s.fPinHotkey),
			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(levelOpts...).
				Value(&s.fLogLevel),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("display").
				Title("Display").
				Description("X display, empty uses $DISPLAY").
				Value(&s.fDisplay),
			huh.NewInput().
				Key("xauthority").
				Title("XAuthority").
				Description("Path exported as XAUTHORITY before connecting").
				Value(&s.fXAuthority),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	s.editing = true
}

func required(key string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return errors.New(key + " is required")
		}
		return nil
	}
}

// applyForm copies the form values into the config. Blank required fields
// keep their previous value.
func (s *Settings) applyForm() {
	if s.cfg == nil {
		return
	}
	keep := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	keep(&s.cfg.WidgetWindow, s.fWidgetWindow)
	keep(&s.cfg.HostWindow, s.fHostWindow)
	keep(&s.cfg.SelfProcess, s.fSelfProcess)
	keep(&s.cfg.LogLevel, s.fLogLevel)

	s.cfg.Display = strings.TrimSpace(s.fDisplay)
	s.cfg.XAuthority = strings.TrimSpace(s.fXAuthority)
	s.cfg.FollowHotkey = strings.TrimSpace(s.fFollowHotkey)
	s.cfg.PinHotkey = strings.TrimSpace(s.fPinHotkey)
	s.cfg.WatchOnStart = s.fWatchOnStart
}

// View renders the settings view.
func (s Settings) View() string {
	if s.editing && s.form != nil {
		return s.viewEditing()
	}
	return s.viewDisplay()
}

func (s Settings) viewDisplay() string {
	if s.cfg == nil {
		return lipgloss.NewStyle().
			Width(s.width).
			Height(s.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No config loaded")
	}

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Width(18).
		Align(lipgloss.Right).
		PaddingRight(2)
	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true)
	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	cfg := s.cfg
	lines := []string{
		"",
		row("Widget Window", cfg.WidgetWindow),
		row("Host Window", cfg.HostWindow),
		row("Self Process", cfg.SelfProcess),
		row("Watch On Start", strconv.FormatBool(cfg.WatchOnStart)),
		"",
		row("Follow Hotkey", orDefault(cfg.FollowHotkey, "(disabled)")),
		row("Pin Hotkey", orDefault(cfg.PinHotkey, "(disabled)")),
		row("Log Level", cfg.LogLevel),
		"",
		row("Display", orDefault(cfg.Display, "($DISPLAY)")),
		row("XAuthority", orDefault(cfg.XAuthority, "(inherited)")),
		"",
		dimStyle.Render("  Press 'e' to edit settings"),
	}

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func (s Settings) viewEditing() string {
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Render("Editing Widget Settings") +
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("  (esc to cancel)")

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2).
		Render(header + "\n\n" + s.form.View())
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
