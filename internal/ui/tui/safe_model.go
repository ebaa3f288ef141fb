package tui

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
)

const logHint = "details in .parknet/logs/parknet-e2e.log"

// safeModel keeps a rendering panic from tearing down the terminal while
// steps are still running against the services.
type safeModel struct {
	m   model
	log *slog.Logger
}

func wrapSafe(m model, log *slog.Logger) safeModel {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return safeModel{m: m, log: log}
}

func (s safeModel) Init() tea.Cmd {
	return s.m.Init()
}

// activeStep names the step the run was on, or "" before the first one.
func (s safeModel) activeStep() string {
	if s.m.current < 0 || s.m.current >= len(s.m.rows) {
		return ""
	}
	return s.m.rows[s.m.current].name
}

// recovered logs r and returns the line shown in place of the broken view.
func (s safeModel) recovered(where string, r any) string {
	step := s.activeStep()
	s.log.Error("tui.panic",
		"where", where,
		"step", step,
		"panic", fmt.Sprint(r),
		"stack", string(debug.Stack()),
	)
	if step == "" {
		return fmt.Sprintf("parknet-e2e view error, steps keep running (%s)", logHint)
	}
	return fmt.Sprintf("parknet-e2e view error during %s, steps keep running (%s)", step, logHint)
}

func (s safeModel) Update(msg tea.Msg) (tm tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			s.m.toast = s.recovered("update", r)
			tm = s
			// Keep draining the run so its summary still arrives.
			cmd = listen(s.m.ch)
		}
	}()

	inner, c := s.m.Update(msg)
	switch v := inner.(type) {
	case model:
		s.m = v
	case safeModel:
		s = v
	}
	return s, c
}

func (s safeModel) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = s.recovered("view", r)
		}
	}()
	return s.m.View()
}

var _ tea.Model = (*safeModel)(nil)
