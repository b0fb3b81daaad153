package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/bubblechart/pkg/force"
)

// Simulation view styles
var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
	helpStyle     = lipgloss.NewStyle().Foreground(colorDim)
	labelStyle    = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

const barWidth = 40

// =============================================================================
// SimulationModel - live view of a force simulation
// =============================================================================

type frameMsg force.Frame

type framesClosedMsg struct{}

// SimulationModel is the bubbletea model that follows a running simulation.
// Pressing q cancels the simulation through Cancel.
type SimulationModel struct {
	Frames   <-chan force.Frame
	Cancel   func()
	Nodes    int
	AlphaMin float64

	Last      force.Frame
	Started   time.Time
	Finished  bool
	Cancelled bool
	Width     int
}

// NewSimulationModel creates a model reading frames until the channel closes.
func NewSimulationModel(frames <-chan force.Frame, nodes int, alphaMin float64, cancel func()) SimulationModel {
	return SimulationModel{
		Frames:   frames,
		Cancel:   cancel,
		Nodes:    nodes,
		AlphaMin: alphaMin,
		Started:  time.Now(),
		Width:    barWidth,
	}
}

func waitForFrame(frames <-chan force.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return framesClosedMsg{}
		}
		return frameMsg(f)
	}
}

func (m SimulationModel) Init() tea.Cmd {
	return waitForFrame(m.Frames)
}

func (m SimulationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Cancelled = true
			if m.Cancel != nil {
				m.Cancel()
			}
			return m, tea.Quit
		}
	case frameMsg:
		m.Last = force.Frame(msg)
		return m, waitForFrame(m.Frames)
	case framesClosedMsg:
		m.Finished = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.Width = min(barWidth, max(10, msg.Width-20))
	}
	return m, nil
}

func (m SimulationModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Force simulation"))
	b.WriteString("\n\n")
	b.WriteString(m.bar())
	b.WriteString(fmt.Sprintf(" %3.0f%%\n\n", m.Progress()*100))

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Rows(
			[]string{"Tick", fmt.Sprintf("%d", m.Last.Tick)},
			[]string{"Alpha", fmt.Sprintf("%.4f", m.Last.Alpha)},
			[]string{"Energy", fmt.Sprintf("%.3f", m.Last.Energy)},
			[]string{"Bubbles", fmt.Sprintf("%d", m.Nodes)},
			[]string{"Elapsed", time.Since(m.Started).Round(10 * time.Millisecond).String()},
		).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return labelStyle
			}
			return StyleValue
		})
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	switch {
	case m.Finished:
		b.WriteString(StyleSuccess.Render(iconSuccess + " converged"))
	case m.Cancelled:
		b.WriteString(StyleWarning.Render(iconWarning + " cancelled"))
	default:
		b.WriteString(helpStyle.Render("q cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

// Progress maps the geometric alpha decay to [0, 1].
func (m SimulationModel) Progress() float64 {
	if m.Finished {
		return 1
	}
	if m.Last.Tick == 0 || m.Last.Alpha <= 0 || m.AlphaMin <= 0 || m.AlphaMin >= 1 {
		return 0
	}
	p := math.Log(m.Last.Alpha) / math.Log(m.AlphaMin)
	return math.Max(0, math.Min(1, p))
}

func (m SimulationModel) bar() string {
	w := m.Width
	if w <= 0 {
		w = barWidth
	}
	full := int(math.Round(m.Progress() * float64(w)))
	return barFullStyle.Render(strings.Repeat("█", full)) +
		barEmptyStyle.Render(strings.Repeat("░", w-full))
}
