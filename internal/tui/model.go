// Package tui renders the dashboard in a terminal, interactively with Bubble
// Tea or as plain text when stdout is not a terminal.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vslplatform/vsladmin/internal/dashboard"
)

const (
	title          = "> DASHBOARD_OVERVIEW"
	loadingText    = "Loading stats..."
	unavailableFmt = "stats unavailable (%s), showing defaults"
)

type settledMsg struct {
	state dashboard.State
}

// Model is the Bubble Tea model for one mounted dashboard view.
type Model struct {
	view       *dashboard.View
	formatter  *dashboard.Formatter
	showErrors bool

	spinner spinner.Model
	state   dashboard.State
	width   int
}

// New wraps an already mounted view.
func New(view *dashboard.View, f *dashboard.Formatter, showErrors bool) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = valueStyle
	return Model{
		view:       view,
		formatter:  f,
		showErrors: showErrors,
		spinner:    s,
		state:      view.State(),
	}
}

// Init starts the spinner and waits for the view to settle.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForSettle(m.view))
}

func waitForSettle(v *dashboard.View) tea.Cmd {
	return func() tea.Msg {
		<-v.Done()
		return settledMsg{state: v.State()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.view.Close()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case settledMsg:
		m.state = msg.state
		return m, nil
	case spinner.TickMsg:
		if !m.state.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if m.state.Loading {
		b.WriteString(m.spinner.View() + " " + valueStyle.Render(loadingText))
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("q: quit"))
		return b.String()
	}

	b.WriteString(RenderCards(m.formatter.Cards(m.state.Model), m.width))
	b.WriteString("\n")
	if notice := fetchNotice(m.state, m.showErrors); notice != "" {
		b.WriteString(noticeStyle.Render(notice))
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("q: quit"))
	return b.String()
}

// State exposes what the model currently shows.
func (m Model) State() dashboard.State { return m.state }
