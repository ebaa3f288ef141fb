package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hextract/parking-net/internal/domain"
)

// bridge turns reporter lines and observer callbacks from the run goroutine
// into tea messages. It implements ports.Reporter and ports.RunObserver.
type bridge struct {
	ch chan tea.Msg
}

func newBridge() *bridge {
	return &bridge{ch: make(chan tea.Msg, 64)}
}

func (b *bridge) Infof(format string, args ...any) {
	b.ch <- logMsg{level: "INFO", text: fmt.Sprintf(format, args...)}
}

func (b *bridge) Warnf(format string, args ...any) {
	b.ch <- logMsg{level: "WARN", text: fmt.Sprintf(format, args...)}
}

func (b *bridge) Errorf(format string, args ...any) {
	b.ch <- logMsg{level: "ERROR", text: fmt.Sprintf(format, args...)}
}

func (b *bridge) ProbeFinished(p domain.ProbeResult) {
	b.ch <- probeMsg{probe: p}
}

func (b *bridge) StepStarted(name string, index, total int) {
	b.ch <- stepStartedMsg{name: name, index: index, total: total}
}

func (b *bridge) StepFinished(r domain.StepResult, index, total int) {
	b.ch <- stepFinishedMsg{result: r, index: index, total: total}
}

func (b *bridge) done(s domain.RunSummary, err error) {
	b.ch <- runDoneMsg{summary: s, err: err}
	close(b.ch)
}

// listen delivers the next bridged message to the program.
func listen(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return runDoneMsg{err: errors.New("run channel closed")}
		}
		return msg
	}
}
