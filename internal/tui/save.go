package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/quack/internal/config"
)

type savePhase int

const (
	saveHidden  savePhase = iota
	savePreview           // diff shown, waiting for confirmation
	saveResult            // outcome shown until any key
)

type diffKind int

const (
	diffContext diffKind = iota
	diffRemoved
	diffAdded
)

type diffLine struct {
	kind diffKind
	text string
}

// SaveOverlay previews pending config changes as a diff and writes them on
// confirmation.
type SaveOverlay struct {
	phase  savePhase
	lines  []diffLine
	err    error
	scroll int
}

// Active reports whether the overlay is visible.
func (s SaveOverlay) Active() bool {
	return s.phase != saveHidden
}

// Saved reports whether the last confirmation wrote the file.
func (s SaveOverlay) Saved() bool {
	return s.phase == saveResult && s.err == nil
}

// Show opens the preview for the changes from original to current.
func (s *SaveOverlay) Show(original, current *config.Config) {
	s.err = nil
	s.scroll = 0
	s.lines = configDiff(original, current)
	if len(s.lines) == 0 {
		s.phase = saveResult
		s.err = fmt.Errorf("no changes to save")
		return
	}
	s.phase = savePreview
}

// Update handles a key while the overlay is visible. Confirming validates
// cfg and writes it to path.
func (s SaveOverlay) Update(msg tea.Msg, cfg *config.Config, path string) SaveOverlay {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s
	}
	switch s.phase {
	case savePreview:
		switch km.String() {
		case "esc":
			s.phase = saveHidden
		case "enter", "y":
			s.err = cfg.Validate()
			if s.err == nil {
				s.err = cfg.SaveTo(path)
			}
			s.phase = saveResult
		case "up", "k":
			if s.scroll > 0 {
				s.scroll--
			}
		case "down", "j":
			if s.scroll < len(s.lines)-1 {
				s.scroll++
			}
		}
	case saveResult:
		s.phase = saveHidden
	}
	return s
}

// View renders the overlay centered in a width x height area.
func (s SaveOverlay) View(width, height int) string {
	var content string
	boxW := clamp(width-8, 30, 80)
	switch s.phase {
	case savePreview:
		content = s.previewContent(boxW-6, height-10)
	case saveResult:
		content = s.resultContent()
	default:
		return ""
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(boxW).
		Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func (s SaveOverlay) previewContent(innerW, rows int) string {
	addStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	rmStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	ctxStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	rows = max(rows, 3)
	start := min(s.scroll, max(len(s.lines)-rows, 0))
	end := min(start+rows, len(s.lines))

	out := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("Save config: pending changes"),
		"",
	}
	for _, l := range s.lines[start:end] {
		text := l.text
		if limit := max(innerW-2, 8); len(text) > limit {
			text = text[:limit]
		}
		switch l.kind {
		case diffAdded:
			out = append(out, addStyle.Render("+ "+text))
		case diffRemoved:
			out = append(out, rmStyle.Render("- "+text))
		default:
			out = append(out, ctxStyle.Render("  "+text))
		}
	}
	out = append(out, "", lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("enter: save  esc: cancel  j/k: scroll"))
	return strings.Join(out, "\n")
}

func (s SaveOverlay) resultContent() string {
	var msg string
	if s.err != nil {
		msg = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Render("Error: " + s.err.Error())
	} else {
		msg = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true).Render("Config saved")
	}
	return msg + "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("press any key to dismiss")
}

// configDiff returns a line diff of the YAML forms of two configs, trimmed
// to two lines of context around each change. Equal configs give nil.
func configDiff(original, current *config.Config) []diffLine {
	if original == nil || current == nil {
		return nil
	}
	a, err := yaml.Marshal(original)
	if err != nil {
		return nil
	}
	b, err := yaml.Marshal(current)
	if err != nil {
		return nil
	}
	if string(a) == string(b) {
		return nil
	}
	return trimContext(lineDiff(
		strings.Split(strings.TrimSpace(string(a)), "\n"),
		strings.Split(strings.TrimSpace(string(b)), "\n"),
	), 2)
}

// lineDiff is a longest-common-subsequence diff of a against b.
func lineDiff(a, b []string) []diffLine {
	// lcs[i][j] is the LCS length of a[i:] and b[j:].
	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var out []diffLine
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i < len(a) && j < len(b) && a[i] == b[j]:
			out = append(out, diffLine{diffContext, a[i]})
			i++
			j++
		case j == len(b) || (i < len(a) && lcs[i+1][j] >= lcs[i][j+1]):
			out = append(out, diffLine{diffRemoved, a[i]})
			i++
		default:
			out = append(out, diffLine{diffAdded, b[j]})
			j++
		}
	}
	return out
}

// trimContext keeps changed lines plus n context lines either side and
// marks each gap with "...".
func trimContext(lines []diffLine, n int) []diffLine {
	keep := make([]bool, len(lines))
	changed := false
	for i, l := range lines {
		if l.kind == diffContext {
			continue
		}
		changed = true
		for k := max(i-n, 0); k <= min(i+n, len(lines)-1); k++ {
			keep[k] = true
		}
	}
	if !changed {
		return nil
	}

	var out []diffLine
	gap := false
	for i, l := range lines {
		if !keep[i] {
			gap = true
			continue
		}
		if gap && len(out) > 0 {
			out = append(out, diffLine{diffContext, "..."})
		}
		gap = false
		out = append(out, l)
	}
	return out
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
