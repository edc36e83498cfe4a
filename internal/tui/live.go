// Package tui is the terminal front end: a live view stepping a simulator in
// real time and a small menu for picking a run preset.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/kvats/rigidsim/internal/model"
	"github.com/kvats/rigidsim/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	graph   = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
)

const historyCapacity = 240

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Live steps a simulator in wall-clock time and renders the selected model.
type Live struct {
	sim      *sim.Simulator
	duration float64

	selected int
	speed    float64
	paused   bool
	done     bool
	err      error

	history []float64
	width   int
	height  int
}

func NewLive(s *sim.Simulator, duration float64) *Live {
	return &Live{
		sim:      s,
		duration: duration,
		speed:    1.0,
		history:  make([]float64, 0, historyCapacity),
		width:    80,
		height:   24,
	}
}

func (l *Live) Init() tea.Cmd { return tick() }

func (l *Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return l.handleKey(msg)
	case tea.WindowSizeMsg:
		l.width = msg.Width
		l.height = msg.Height
		return l, nil
	case TickMsg:
		if l.paused || l.done || l.err != nil {
			return l, tick()
		}
		if err := l.advance(); err != nil {
			l.err = err
			return l, tick()
		}
		if l.sim.Time() >= l.duration {
			l.done = true
		}
		return l, tick()
	}
	return l, nil
}

func (l *Live) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "escape":
		return l, tea.Quit
	case " ", "p":
		l.paused = !l.paused
	case "r":
		if err := l.sim.Reset(false); err == nil {
			l.history = l.history[:0]
			l.done = false
			l.err = nil
		}
	case "tab":
		if n := len(l.sim.ModelNames()); n > 0 {
			l.selected = (l.selected + 1) % n
			l.history = l.history[:0]
		}
	case "+", "=":
		l.speed = math.Min(l.speed*2, 16)
	case "-", "_":
		l.speed = math.Max(l.speed/2, 0.25)
	case "0":
		l.speed = 1.0
	}
	return l, nil
}

// advance covers one 16ms frame of wall time, scaled by the speed factor.
func (l *Live) advance() error {
	steps := int(l.speed * 0.016 / l.sim.Dt())
	if steps < 1 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		if _, err := l.sim.Step(false); err != nil {
			return err
		}
	}
	l.history = append(l.history, l.signal())
	if len(l.history) > historyCapacity {
		l.history = l.history[1:]
	}
	return nil
}

func (l *Live) current() *model.Model {
	models := l.sim.Models()
	if len(models) == 0 {
		return nil
	}
	if l.selected >= len(models) {
		l.selected = 0
	}
	return models[l.selected]
}

// signal is the traced quantity: the first joint position, or the base height
// for a model without movable joints.
func (l *Live) signal() float64 {
	m := l.current()
	if m == nil {
		return 0
	}
	d := m.Data()
	if len(d.JointPositions) > 0 {
		return d.JointPositions[0]
	}
	return d.BasePose.Translation()[2]
}

func (l *Live) View() string {
	var b strings.Builder

	m := l.current()
	name := "(no models)"
	if m != nil {
		name = m.Name()
	}

	statusIcon, statusText := green.Render("●"), green.Render("running")
	switch {
	case l.err != nil:
		statusIcon, statusText = red.Render("✗"), red.Render(l.err.Error())
	case l.done:
		statusIcon, statusText = dim.Render("●"), dim.Render("done")
	case l.paused:
		statusIcon, statusText = yellow.Render("○"), yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n", statusIcon, cyan.Render(name), statusText))

	progress := l.sim.Time() / l.duration
	if progress > 1 {
		progress = 1
	}
	barWidth := 36
	filled := int(progress * float64(barWidth))
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	timeStr := fmt.Sprintf("%.2fs/%.0fs", l.sim.Time(), l.duration)
	b.WriteString(fmt.Sprintf("   %s %s  %s\n\n", bar, dim.Render(timeStr), dim.Render(fmt.Sprintf("x%.2g", l.speed))))

	cw, ch := l.width-6, l.height-16
	if cw < 50 {
		cw = 50
	}
	if ch < 10 {
		ch = 10
	}
	canvas := newCanvas(cw, ch)
	if m != nil {
		drawChain(canvas, m)
	}
	for _, row := range canvas.grid {
		b.WriteString("   " + string(row) + "\n")
	}

	if m != nil {
		d := m.Data()
		var stateStr strings.Builder
		stateStr.WriteString("   ")
		for i, q := range d.JointPositions {
			if i >= 4 {
				break
			}
			stateStr.WriteString(dim.Render(fmt.Sprintf("q%d=", i)))
			stateStr.WriteString(white.Render(fmt.Sprintf("%.2f", q)))
			stateStr.WriteString("  ")
		}
		stateStr.WriteString(dim.Render("z="))
		stateStr.WriteString(magenta.Render(fmt.Sprintf("%.2f", d.BasePose.Translation()[2])))
		b.WriteString(stateStr.String() + "\n")
	}

	if len(l.history) > 1 {
		chart := asciigraph.Plot(l.history,
			asciigraph.Height(4), asciigraph.Width(min(l.width-10, 60)))
		b.WriteString(graph.Render(chart) + "\n")
	}

	b.WriteString("\n" + dim.Render("   space pause  tab model  ±speed  r reset  q quit") + "\n")
	return b.String()
}

// RunLive runs the live view until the user quits.
func RunLive(s *sim.Simulator, duration float64) error {
	p := tea.NewProgram(NewLive(s, duration), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
