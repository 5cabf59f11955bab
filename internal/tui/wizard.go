// Package tui renders the interactive analyze workflow and the collection
// browser. Each screen is a bubbletea model; network operations run as
// commands and resume the model through typed messages, so the UI is never
// blocked by a request.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/datasightlabs/datasight-cli/internal/api"
	"github.com/datasightlabs/datasight-cli/internal/dataset"
	"github.com/datasightlabs/datasight-cli/internal/report"
	"github.com/datasightlabs/datasight-cli/internal/workflow"
)

type wizardPhase int

const (
	phaseUploading wizardPhase = iota
	phaseConfig
	phaseSubmitting
	phaseDone
	phaseFailed
)

type configStep int

const (
	stepTarget configStep = iota
	stepModel
)

type previewMsg struct {
	rows [][]string
	err  error
}

type uploadMsg struct {
	ds  *api.Dataset
	err error
}

type submitMsg struct {
	err error
}

// Wizard drives the upload → configure → predict flow for one file. Preview
// parsing and the upload request start together and complete in either
// order.
type Wizard struct {
	uploader *workflow.Uploader
	analyzer *workflow.Analyzer
	path     string
	saveToDB bool

	phase   wizardPhase
	step    configStep
	spin    spinner.Model
	preview [][]string
	ds      *api.Dataset

	targetIdx int
	target    string
	modelIdx  int

	errMsg string
	hint   report.Hint
	notice string
}

// NewWizard prepares the flow; the caller has already validated the
// extension, but Choose runs again so the controller sees every transition.
func NewWizard(uploader *workflow.Uploader, analyzer *workflow.Analyzer, path string, saveToDB bool) (*Wizard, error) {
	if err := uploader.Choose(path); err != nil {
		return nil, err
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cursorStyle
	return &Wizard{
		uploader: uploader,
		analyzer: analyzer,
		path:     path,
		saveToDB: saveToDB,
		phase:    phaseUploading,
		spin:     sp,
	}, nil
}

func (w *Wizard) Init() tea.Cmd {
	return tea.Batch(w.spin.Tick, w.previewCmd(), w.uploadCmd())
}

// previewCmd reads the file and parses the local preview. It shares nothing
// with the upload and must not wait for it.
func (w *Wizard) previewCmd() tea.Cmd {
	path := w.path
	return func() tea.Msg {
		b, err := os.ReadFile(path)
		if err != nil {
			return previewMsg{err: err}
		}
		return previewMsg{rows: dataset.Preview(string(b))}
	}
}

func (w *Wizard) uploadCmd() tea.Cmd {
	return func() tea.Msg {
		ds, err := w.uploader.Start(context.Background(), w.path, w.saveToDB)
		return uploadMsg{ds: ds, err: err}
	}
}

func (w *Wizard) submitCmd() tea.Cmd {
	ds, target, model := w.ds, w.target, api.ModelTypes()[w.modelIdx]
	return func() tea.Msg {
		return submitMsg{err: w.analyzer.Submit(context.Background(), ds, target, model)}
	}
}

func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if w.phase != phaseUploading && w.phase != phaseSubmitting {
			return w, nil
		}
		var cmd tea.Cmd
		w.spin, cmd = w.spin.Update(msg)
		return w, cmd

	case previewMsg:
		// Best-effort: a failed preview is simply absent.
		if msg.err == nil {
			w.preview = msg.rows
		}
		return w, nil

	case uploadMsg:
		if msg.err != nil {
			w.phase = phaseFailed
			w.errMsg, w.hint = w.uploader.Failure()
			return w, nil
		}
		w.ds = msg.ds
		w.phase = phaseConfig
		w.step = stepTarget
		w.notice = msg.ds.Message
		return w, nil

	case submitMsg:
		if msg.err != nil {
			// Prior state stays intact: back to configuration for an
			// immediate retry, with the classified hint shown.
			w.phase = phaseConfig
			w.errMsg, w.hint = w.analyzer.Failure()
			return w, nil
		}
		w.phase = phaseDone
		return w, nil

	case tea.KeyMsg:
		return w.updateKeys(msg)
	}
	return w, nil
}

func (w *Wizard) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return w, tea.Quit
	}
	if w.phase != phaseConfig {
		if w.phase == phaseDone || w.phase == phaseFailed {
			return w, tea.Quit
		}
		return w, nil
	}
	switch msg.String() {
	case "up", "k":
		w.moveCursor(-1)
	case "down", "j":
		w.moveCursor(1)
	case "esc":
		if w.step == stepModel {
			w.step = stepTarget
		}
	case "enter":
		return w.confirm()
	}
	return w, nil
}

func (w *Wizard) moveCursor(delta int) {
	if w.step == stepTarget {
		w.targetIdx = clamp(w.targetIdx+delta, 0, len(w.ds.Columns)-1)
	} else {
		w.modelIdx = clamp(w.modelIdx+delta, 0, len(api.ModelTypes())-1)
	}
}

func (w *Wizard) confirm() (tea.Model, tea.Cmd) {
	if w.step == stepTarget {
		if len(w.ds.Columns) == 0 {
			w.errMsg = workflow.ErrMissingTarget.Error()
			return w, nil
		}
		w.target = w.ds.Columns[w.targetIdx]
		w.step = stepModel
		w.errMsg = ""
		return w, nil
	}
	if w.analyzer.InFlight() {
		// Guard feedback: nothing was sent.
		w.notice = "Submission already in flight."
		return w, nil
	}
	w.phase = phaseSubmitting
	w.errMsg = ""
	w.notice = ""
	return w, tea.Batch(w.submitCmd(), w.spin.Tick)
}

func (w *Wizard) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Smart Data Analyzer"))
	b.WriteString("\n\n")

	switch w.phase {
	case phaseUploading:
		b.WriteString(fmt.Sprintf("%s Uploading %s...\n", w.spin.View(), w.path))
	case phaseConfig:
		w.viewConfig(&b)
	case phaseSubmitting:
		b.WriteString(fmt.Sprintf("%s Analyzing with %s...\n", w.spin.View(), report.HumanizeModel(api.ModelTypes()[w.modelIdx])))
	case phaseDone:
		b.WriteString(okStyle.Render(fmt.Sprintf(
			"Analysis completed successfully with %s!", report.HumanizeModel(api.ModelTypes()[w.modelIdx]))))
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render("Run `datasight results` to view details. Press any key to exit."))
		b.WriteString("\n")
	case phaseFailed:
		b.WriteString(errorStyle.Render(w.errMsg))
		b.WriteString("\n")
		if w.hint.Title != "" {
			b.WriteString(hintStyle.Render(w.hint.Title+": ") + w.hint.Advice)
			b.WriteString("\n")
		}
		b.WriteString(subtleStyle.Render("Press any key to exit."))
		b.WriteString("\n")
	}

	if w.phase == phaseUploading || w.phase == phaseConfig {
		if block := renderPreview(w.preview); block != "" {
			b.WriteString("\n")
			b.WriteString(subtleStyle.Render("Preview (first 5 rows)"))
			b.WriteString("\n")
			b.WriteString(block)
		}
	}
	return b.String()
}

func (w *Wizard) viewConfig(b *strings.Builder) {
	if w.notice != "" {
		b.WriteString(okStyle.Render(w.notice))
		b.WriteString("\n\n")
	}
	if w.step == stepTarget {
		b.WriteString("Select target column:\n")
		for i, col := range w.ds.Columns {
			prefix := "  "
			if i == w.targetIdx {
				prefix = cursorStyle.Render("> ")
			}
			b.WriteString(prefix + col + "\n")
		}
	} else {
		b.WriteString(fmt.Sprintf("Target column: %s\n\nSelect model:\n", okStyle.Render(w.target)))
		for i, m := range api.ModelTypes() {
			prefix := "  "
			if i == w.modelIdx {
				prefix = cursorStyle.Render("> ")
			}
			b.WriteString(prefix + report.HumanizeModel(m) + "\n")
		}
	}
	if w.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(w.errMsg))
		b.WriteString("\n")
		if w.hint.Title != "" {
			b.WriteString(hintStyle.Render(w.hint.Title+": ") + w.hint.Advice)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("up/down: move  enter: confirm  esc: back  q: quit"))
	b.WriteString("\n")
}

// renderPreview lays the parsed rows out as a bordered table.
func renderPreview(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		line := strings.Join(row, " | ")
		if i == 0 {
			line = headerStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)) + "\n"
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
