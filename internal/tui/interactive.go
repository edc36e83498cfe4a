package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kvats/rigidsim/internal/sim"
)

// BuildFunc turns a preset name into a ready simulator and its run duration.
type BuildFunc func(name string) (*sim.Simulator, float64, error)

// Menu lets the user pick a run preset and drops into the live view.
type Menu struct {
	presets []string
	cursor  int
	build   BuildFunc
	err     error
}

func NewMenu(presets []string, build BuildFunc) *Menu {
	return &Menu{presets: presets, build: build}
}

func (m *Menu) Init() tea.Cmd { return nil }

func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c", "escape":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.presets) == 0 {
			return m, nil
		}
		s, duration, err := m.build(m.presets[m.cursor])
		if err != nil {
			m.err = err
			return m, nil
		}
		live := NewLive(s, duration)
		return live, tea.Batch(tea.ClearScreen, live.Init())
	}
	return m, nil
}

func (m *Menu) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("          " + cyan.Render("r i g i d s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.presets {
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(name) + "\n")
		} else {
			b.WriteString("        " + dim.Render(name) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n      " + red.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter start   q quit") + "\n")

	return b.String()
}

// RunInteractive shows the preset menu and runs the chosen simulation live.
func RunInteractive(presets []string, build BuildFunc) error {
	if len(presets) == 0 {
		return fmt.Errorf("tui: no presets available")
	}
	p := tea.NewProgram(NewMenu(presets, build), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
