package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"macrokit/internal/engine"
)

type progressModel struct {
	title    string
	events   <-chan engine.Event
	spinner  spinner.Model
	prog     progress.Model
	items    []requestItem
	finished int
	failed   int
	width    int
	done     bool
}

type requestItem struct {
	label   string
	status  engine.Status
	elapsed string
}

type eventMsg engine.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders batch progress.
// labels[i] names request i; the model quits when events is closed.
func NewProgressModel(title string, labels []string, events <-chan engine.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]requestItem, len(labels))
	for i, label := range labels {
		items[i] = requestItem{label: label, status: engine.StatusQueued}
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		width:   80,
	}
}

// Run drives the progress model on out until events is closed or ctx is done.
// Keyboard input is not read: cancellation comes through ctx.
func Run(ctx context.Context, out io.Writer, title string, labels []string, events <-chan engine.Event) error {
	p := tea.NewProgram(NewProgressModel(title, labels, events),
		tea.WithContext(ctx),
		tea.WithOutput(out),
		tea.WithInput(nil),
	)
	_, err := p.Run()
	return err
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(engine.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s (%d/%d", m.title, m.finished, len(m.items))
	if m.failed > 0 {
		header += fmt.Sprintf(", %d failed", m.failed)
	}
	header += ")"
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth = 8
	nameWidth := max(m.width-statusWidth-16, 20)
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, item.status))
		fmt.Fprintf(&b, "  %s %s", status, truncate(item.label, nameWidth))
		if item.elapsed != "" {
			fmt.Fprintf(&b, "  %s", item.elapsed)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev engine.Event) tea.Cmd {
	if ev.Index < 0 || ev.Index >= len(m.items) {
		return nil
	}
	item := &m.items[ev.Index]
	if isFinal(item.status) {
		return nil
	}
	item.status = ev.Status
	if isFinal(ev.Status) {
		m.finished++
		if ev.Status == engine.StatusError {
			m.failed++
		}
		item.elapsed = ev.Elapsed.Round(time.Microsecond).String()
		return m.prog.SetPercent(float64(m.finished) / float64(len(m.items)))
	}
	return nil
}

func isFinal(s engine.Status) bool {
	switch s {
	case engine.StatusDone, engine.StatusCached, engine.StatusError:
		return true
	default:
		return false
	}
}

func styleStatus(status engine.Status) lipgloss.Style {
	switch status {
	case engine.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case engine.StatusCached:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	case engine.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case engine.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
