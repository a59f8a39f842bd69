// Package tui is an interactive editor for the quack config file.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/quack/internal/config"
	"github.com/1broseidon/quack/internal/ipc"
)

// StatusSource reports daemon state for the status bar.
type StatusSource interface {
	GetStatus() (*ipc.StatusData, error)
}

// model is the root bubbletea model.
type model struct {
	path     string
	cfg      *config.Config
	original config.Config

	settings Settings
	save     SaveOverlay

	daemon    StatusSource
	status    *ipc.StatusData
	statusErr error

	width  int
	height int
}

func newModel(path string, cfg *config.Config, daemon StatusSource) model {
	m := model{
		path:     path,
		cfg:      cfg,
		original: *cfg,
		settings: NewSettings(cfg),
		daemon:   daemon,
	}
	m.refreshStatus()
	return m
}

func (m *model) refreshStatus() {
	if m.daemon == nil {
		return
	}
	m.status, m.statusErr = m.daemon.GetStatus()
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
		m.settings, _ = m.settings.Update(tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()})
		return m, nil
	}

	km, isKey := msg.(tea.KeyMsg)
	if isKey && km.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.save.Active() {
		if isKey {
			m.save = m.save.Update(km, m.cfg, m.path)
			if m.save.Saved() {
				m.original = *m.cfg
			}
		}
		return m, nil
	}

	if isKey && km.String() == "ctrl+s" {
		original := m.original
		m.save.Show(&original, m.cfg)
		return m, nil
	}

	if !m.settings.Editing() && isKey {
		switch km.String() {
		case "q":
			return m, tea.Quit
		case "r":
			m.refreshStatus()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.settings, cmd = m.settings.Update(msg)
	return m, cmd
}

// contentHeight is the height left after the status and help bars.
func (m model) contentHeight() int {
	return max(m.height-2, 1)
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	content := m.settings.View()
	if m.save.Active() {
		content = m.save.View(m.width, m.contentHeight())
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatusBar(),
		content,
		m.renderHelpBar(),
	)
}

func (m model) renderStatusBar() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Background(lipgloss.Color("236")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)

	var state string
	switch {
	case m.status != nil:
		state = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("daemon running") +
			fmt.Sprintf("  follow: %s  watchers: %d", m.status.FollowState, m.status.Watchers)
	case m.statusErr != nil:
		state = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("daemon not running")
	default:
		state = "daemon unknown"
	}
	dirty := ""
	if *m.cfg != m.original {
		dirty = "  [modified]"
	}
	return style.Render(state + "  " + m.path + dirty)
}

func (m model) renderHelpBar() string {
	return lipgloss.NewStyle().
		Width(m.width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1).
		Render("e: edit  ctrl+s: save  r: refresh  q: quit")
}

// Run opens the editor on the config at path, or the default location when
// path is empty. A missing file starts from the defaults.
func Run(path string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	res, err := config.LoadFromPath(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	p := tea.NewProgram(newModel(path, res.Config, ipc.NewClient()), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
