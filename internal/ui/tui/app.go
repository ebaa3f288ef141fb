// Package tui renders a live progress view of a run with bubbletea.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/ports"
)

// RunFunc executes a run, reporting through rep and obs. It is called on its
// own goroutine while the view is on screen.
type RunFunc func(ctx context.Context, rep ports.Reporter, obs ports.RunObserver) (domain.RunSummary, error)

type Options struct {
	Title       string
	Environment string
	// Steps are the names of the selected plan, in order.
	Steps  []string
	Logger *slog.Logger

	// Input and Output override the terminal, e.g. in tests.
	Input  io.Reader
	Output io.Writer
}

const (
	logTail    = 6
	stepWindow = 14
)

type rowState int

const (
	rowPending rowState = iota
	rowRunning
	rowPassed
	rowFailed
	rowSkipped
)

type stepRow struct {
	name   string
	state  rowState
	detail string
}

type model struct {
	theme Theme
	opts  Options

	ch     <-chan tea.Msg
	cancel context.CancelFunc

	spin spinner.Model
	bar  progress.Model

	rows    []stepRow
	current int
	probes  []domain.ProbeResult
	logs    []logMsg
	tally   domain.Tally

	canceling bool
	done      bool
	summary   domain.RunSummary
	err       error
	toast     string
}

// Run shows the live view until run returns, then hands back its summary.
// ctrl+c cancels the run; the steps left over are skipped.
func Run(ctx context.Context, opts Options, run RunFunc) (domain.RunSummary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b := newBridge()
	go func() {
		s, err := run(ctx, b, b)
		b.done(s, err)
	}()

	var progOpts []tea.ProgramOption
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	p := tea.NewProgram(wrapSafe(newModel(opts, b.ch, cancel), opts.Logger), progOpts...)
	final, perr := p.Run()
	cancel()

	var res runDoneMsg
	if sm, ok := final.(safeModel); ok && sm.m.done {
		res = runDoneMsg{summary: sm.m.summary, err: sm.m.err}
	}
	for msg := range b.ch {
		if d, ok := msg.(runDoneMsg); ok {
			res = d
		}
	}

	if perr != nil {
		return res.summary, perr
	}
	return res.summary, res.err
}

func newModel(opts Options, ch <-chan tea.Msg, cancel context.CancelFunc) model {
	rows := make([]stepRow, 0, len(opts.Steps))
	for _, name := range opts.Steps {
		rows = append(rows, stepRow{name: name})
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 40

	if cancel == nil {
		cancel = func() {}
	}

	return model{
		theme:   DefaultTheme(),
		opts:    opts,
		ch:      ch,
		cancel:  cancel,
		spin:    sp,
		bar:     bar,
		rows:    rows,
		current: -1,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, listen(m.ch))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(60, msg.Width-20))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.done {
				return m, tea.Quit
			}
			m.canceling = true
			m.cancel()
			return m, nil
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case probeMsg:
		m.probes = append(m.probes, msg.probe)
		return m, listen(m.ch)

	case stepStartedMsg:
		i := m.row(msg.name, msg.index)
		m.rows[i].state = rowRunning
		m.current = i
		return m, listen(m.ch)

	case stepFinishedMsg:
		i := m.row(msg.result.Name, msg.index)
		m.rows[i].state = stateOf(msg.result.Outcome.Status)
		m.rows[i].detail = msg.result.Outcome.Detail
		m.tally.Record(msg.result.Outcome)
		return m, listen(m.ch)

	case logMsg:
		m.logs = append(m.logs, msg)
		if len(m.logs) > logTail {
			m.logs = m.logs[len(m.logs)-logTail:]
		}
		return m, listen(m.ch)

	case runDoneMsg:
		m.done = true
		m.summary = msg.summary
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

// row finds the row for name, appending one if the plan did not list it.
func (m *model) row(name string, index int) int {
	if index >= 0 && index < len(m.rows) && m.rows[index].name == name {
		return index
	}
	for i, r := range m.rows {
		if r.name == name {
			return i
		}
	}
	m.rows = append(m.rows, stepRow{name: name})
	return len(m.rows) - 1
}

func stateOf(s domain.OutcomeStatus) rowState {
	switch s {
	case domain.OutcomePassed:
		return rowPassed
	case domain.OutcomeFailed:
		return rowFailed
	default:
		return rowSkipped
	}
}

func (m model) View() string {
	var b strings.Builder

	title := m.opts.Title
	if title == "" {
		title = "parknet-e2e"
	}
	b.WriteString(m.theme.Title.Render(title))
	if m.opts.Environment != "" {
		b.WriteString("  " + m.theme.Subtitle.Render("env "+m.opts.Environment))
	}
	b.WriteString("\n\n")

	if len(m.probes) > 0 {
		b.WriteString(m.renderProbes())
		b.WriteString("\n")
	}

	if len(m.rows) > 0 {
		b.WriteString(m.theme.Card.Render(m.renderSteps()))
		b.WriteString("\n")
	}

	finished := m.tally.Passed + m.tally.Failed + m.tally.Skipped
	pct := 0.0
	if len(m.rows) > 0 {
		pct = float64(finished) / float64(len(m.rows))
	}
	b.WriteString(m.bar.ViewAs(pct))
	b.WriteString(fmt.Sprintf("  %d/%d  ", finished, len(m.rows)))
	b.WriteString(m.theme.Passed.Render(fmt.Sprintf("%d passed", m.tally.Passed)) + " ")
	b.WriteString(m.theme.Failed.Render(fmt.Sprintf("%d failed", m.tally.Failed)) + " ")
	b.WriteString(m.theme.Skipped.Render(fmt.Sprintf("%d skipped", m.tally.Skipped)))
	b.WriteString("\n\n")

	for _, l := range m.logs {
		b.WriteString(m.theme.Help.Render(clampString("["+l.level+"] "+l.text, 100)))
		b.WriteString("\n")
	}

	switch {
	case m.toast != "":
		b.WriteString("\n" + m.theme.Failed.Render(m.toast) + "\n")
	case m.done && m.err != nil:
		b.WriteString("\n" + m.theme.Failed.Render(userMessage(m.err)) + "\n")
	case m.done && m.summary.Aborted:
		b.WriteString("\n" + m.theme.Failed.Render("Tests aborted: services unavailable") + "\n")
	case m.done && m.summary.Canceled:
		b.WriteString("\n" + m.theme.Skipped.Render("Tests canceled: "+m.summary.Tally.String()) + "\n")
	case m.done:
		b.WriteString("\n" + m.theme.Title.Render("Tests completed: "+m.summary.Tally.String()) + "\n")
	case m.canceling:
		b.WriteString("\n" + m.theme.Skipped.Render("Canceling, remaining steps will be skipped...") + "\n")
	default:
		b.WriteString("\n" + m.theme.Help.Render("ctrl+c cancel") + "\n")
	}

	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}

func (m model) renderProbes() string {
	var b strings.Builder
	for _, p := range m.probes {
		mark := m.theme.Passed.Render("up  ")
		if !p.Up {
			mark = m.theme.Failed.Render("down")
		}
		b.WriteString(fmt.Sprintf("%s %-8s %s\n", mark, p.Service, m.theme.Subtitle.Render(p.URL)))
	}
	return b.String()
}

func (m model) renderSteps() string {
	from, to := window(len(m.rows), m.current, stepWindow)

	var lines []string
	if from > 0 {
		lines = append(lines, m.theme.Subtitle.Render(fmt.Sprintf("  ... %d earlier", from)))
	}
	for _, r := range m.rows[from:to] {
		lines = append(lines, m.renderRow(r))
	}
	if to < len(m.rows) {
		lines = append(lines, m.theme.Subtitle.Render(fmt.Sprintf("  ... %d more", len(m.rows)-to)))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderRow(r stepRow) string {
	switch r.state {
	case rowRunning:
		return m.spin.View() + " " + m.theme.Running.Render(r.name)
	case rowPassed:
		return m.theme.Passed.Render("✓ ") + r.name
	case rowFailed:
		return m.theme.Failed.Render("✗ "+r.name) + "  " + m.theme.Subtitle.Render(clampString(r.detail, 60))
	case rowSkipped:
		return m.theme.Skipped.Render("- "+r.name) + "  " + m.theme.Subtitle.Render(clampString(r.detail, 60))
	default:
		return m.theme.Subtitle.Render("  " + r.name)
	}
}

// window returns the [from, to) slice of n rows to show so that current
// stays visible with a little lookahead.
func window(n, current, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	to := max(current+4, size)
	if to > n {
		to = n
	}
	return to - size, to
}
