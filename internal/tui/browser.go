package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/datasightlabs/datasight-cli/internal/api"
	"github.com/datasightlabs/datasight-cli/internal/report"
	"github.com/datasightlabs/datasight-cli/internal/session"
	"github.com/datasightlabs/datasight-cli/internal/workflow"
)

type resultsMsg struct {
	fence string
	items []api.StoredResult
	err   error
}

type detailMsg struct {
	fence   string
	display *report.Display
	err     error
}

// Browser lists the user's stored results and opens one at a time. Every
// refresh goes through a fence: a response that is no longer current is
// dropped, never applied, so a stale fetch cannot overwrite fresher state.
type Browser struct {
	client *api.Client
	sess   session.Session
	fence  *workflow.Fence
	spin   spinner.Model

	loading bool
	failed  bool
	errMsg  string
	items   []api.StoredResult
	cursor  int

	detail *report.Display
}

// NewBrowser requires a valid session; an unauthenticated state never
// issues the list call.
func NewBrowser(client *api.Client, sess session.Session) (*Browser, error) {
	if !sess.Valid() {
		return nil, session.ErrNotLoggedIn
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cursorStyle
	return &Browser{
		client: client,
		sess:   sess,
		fence:  &workflow.Fence{},
		spin:   sp,
	}, nil
}

func (m *Browser) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchCmd())
}

func (m *Browser) fetchCmd() tea.Cmd {
	m.loading = true
	m.failed = false
	token := m.fence.Issue()
	return func() tea.Msg {
		items, err := m.client.ListResults(context.Background(), m.sess.Token)
		return resultsMsg{fence: token, items: items, err: err}
	}
}

func (m *Browser) detailCmd(id string) tea.Cmd {
	m.loading = true
	token := m.fence.Issue()
	return func() tea.Msg {
		stored, err := m.client.GetResult(context.Background(), m.sess.Token, id)
		if err != nil {
			return detailMsg{fence: token, err: err}
		}
		d, err := report.Normalize(&stored.Result)
		return detailMsg{fence: token, display: d, err: err}
	}
}

func (m *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case resultsMsg:
		if !m.fence.Admit(msg.fence) {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.failed = true
			m.errMsg = "Failed to fetch results: " + msg.err.Error()
			m.items = nil
			return m, nil
		}
		m.failed = false
		m.items = msg.items
		if m.cursor >= len(m.items) {
			m.cursor = 0
		}
		return m, nil

	case detailMsg:
		if !m.fence.Admit(msg.fence) {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.failed = true
			m.errMsg = "Failed to fetch result details: " + msg.err.Error()
			return m, nil
		}
		m.failed = false
		m.detail = msg.display
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.detail != nil {
				m.detail = nil
				return m, nil
			}
			return m, tea.Quit
		case "r":
			if m.detail == nil {
				return m, tea.Batch(m.fetchCmd(), m.spin.Tick)
			}
		case "up", "k":
			if m.detail == nil && m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.detail == nil && m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter":
			if m.detail == nil && m.cursor < len(m.items) {
				return m, tea.Batch(m.detailCmd(m.items[m.cursor].ID), m.spin.Tick)
			}
		}
	}
	return m, nil
}

func (m *Browser) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Your Results"))
	b.WriteString("\n\n")

	switch {
	case m.detail != nil:
		b.WriteString(report.Render(m.detail))
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render("esc: back  q: quit"))
	case m.loading:
		b.WriteString(fmt.Sprintf("%s Loading your results...\n", m.spin.View()))
	case m.failed:
		// Failure and emptiness are distinct, mutually exclusive states.
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render("r: retry  q: quit"))
	case len(m.items) == 0:
		b.WriteString(subtleStyle.Render("No results yet. Upload a CSV file and run an analysis to see results here."))
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render("r: refresh  q: quit"))
	default:
		for i, item := range m.items {
			prefix := "  "
			if i == m.cursor {
				prefix = cursorStyle.Render("> ")
			}
			b.WriteString(fmt.Sprintf("%s%s  %s  target=%s  model=%s\n",
				prefix, item.Filename, item.Timestamp,
				item.Result.TargetColumn, report.HumanizeModel(item.Result.ModelType)))
		}
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render("up/down: move  enter: open  r: refresh  q: quit"))
	}
	b.WriteString("\n")
	return b.String()
}
