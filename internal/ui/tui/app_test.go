package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/ports"
)

func feed(t *testing.T, m model, msgs ...tea.Msg) model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		mm, ok := next.(model)
		if !ok {
			t.Fatalf("expected model, got %T", next)
		}
		m = mm
	}
	return m
}

func TestModel_TracksStepProgress(t *testing.T) {
	ch := make(chan tea.Msg)
	m := newModel(Options{Title: "parking-net e2e", Environment: "local", Steps: []string{"register_owner", "create_parking", "get_parking_by_id"}}, ch, nil)

	m = feed(t, m,
		probeMsg{probe: domain.ProbeResult{Service: "auth", URL: "http://gw/auth/metrics", Up: true, Status: 200}},
		stepStartedMsg{name: "register_owner", index: 0, total: 3},
		stepFinishedMsg{result: domain.StepResult{Name: "register_owner", Outcome: domain.Passed("ok")}, index: 0, total: 3},
		stepStartedMsg{name: "create_parking", index: 1, total: 3},
		stepFinishedMsg{result: domain.StepResult{Name: "create_parking", Outcome: domain.Failed("expected 200, got 500")}, index: 1, total: 3},
		stepFinishedMsg{result: domain.StepResult{Name: "get_parking_by_id", Outcome: domain.Skipped("missing parking_id")}, index: 2, total: 3},
		logMsg{level: "ERROR", text: "FAILED: create parking"},
	)

	if m.rows[0].state != rowPassed || m.rows[1].state != rowFailed || m.rows[2].state != rowSkipped {
		t.Fatalf("unexpected row states: %+v", m.rows)
	}
	if m.tally != (domain.Tally{Passed: 1, Failed: 1, Skipped: 1}) {
		t.Fatalf("unexpected tally: %+v", m.tally)
	}

	view := m.View()
	for _, want := range []string{"parking-net e2e", "env local", "auth", "3/3", "1 failed", "expected 200, got 500", "FAILED: create parking"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q, got:\n%s", want, view)
		}
	}
}

func TestModel_DoneQuitsAndShowsSummary(t *testing.T) {
	m := newModel(Options{Steps: []string{"a"}}, make(chan tea.Msg), nil)

	next, cmd := m.Update(runDoneMsg{summary: domain.RunSummary{Tally: domain.Tally{Passed: 1}}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
	view := next.(model).View()
	if !strings.Contains(view, "Tests completed: 1 passed, 0 failed, 0 skipped") {
		t.Fatalf("expected summary in view, got:\n%s", view)
	}
}

func TestModel_CanceledRunShowsCanceledSummary(t *testing.T) {
	m := newModel(Options{Steps: []string{"a", "b"}}, make(chan tea.Msg), nil)

	next, _ := m.Update(runDoneMsg{summary: domain.RunSummary{Canceled: true, Tally: domain.Tally{Passed: 1, Skipped: 1}}})

	view := next.(model).View()
	if !strings.Contains(view, "Tests canceled: 1 passed, 0 failed, 1 skipped") {
		t.Fatalf("expected canceled summary in view, got:\n%s", view)
	}
	if strings.Contains(view, "Tests completed") {
		t.Fatalf("canceled run must not read as completed:\n%s", view)
	}
}

func TestModel_CtrlCCancelsRun(t *testing.T) {
	canceled := false
	m := newModel(Options{}, make(chan tea.Msg), func() { canceled = true })

	m = feed(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	if !canceled || !m.canceling {
		t.Fatalf("expected run canceled, got canceled=%v canceling=%v", canceled, m.canceling)
	}
	if !strings.Contains(m.View(), "Canceling") {
		t.Fatal("expected canceling notice")
	}
}

func TestModel_UnknownStepGetsRow(t *testing.T) {
	m := newModel(Options{Steps: []string{"a"}}, make(chan tea.Msg), nil)
	m = feed(t, m, stepStartedMsg{name: "b", index: 5, total: 2})

	if len(m.rows) != 2 || m.rows[1].name != "b" || m.rows[1].state != rowRunning {
		t.Fatalf("unexpected rows: %+v", m.rows)
	}
}

func TestWindow(t *testing.T) {
	cases := []struct {
		n, current, size int
		from, to         int
	}{
		{n: 5, current: 2, size: 14, from: 0, to: 5},
		{n: 43, current: -1, size: 14, from: 0, to: 14},
		{n: 43, current: 20, size: 14, from: 10, to: 24},
		{n: 43, current: 42, size: 14, from: 29, to: 43},
	}
	for _, tc := range cases {
		from, to := window(tc.n, tc.current, tc.size)
		if from != tc.from || to != tc.to {
			t.Fatalf("window(%d,%d,%d) = %d,%d; want %d,%d", tc.n, tc.current, tc.size, from, to, tc.from, tc.to)
		}
	}
}

func TestRun_ReturnsRunSummary(t *testing.T) {
	var out bytes.Buffer
	want := domain.RunSummary{Environment: "local", Tally: domain.Tally{Passed: 2}}

	got, err := Run(context.Background(), Options{
		Steps:  []string{"register_owner", "login_owner"},
		Input:  strings.NewReader(""),
		Output: &out,
	}, func(_ context.Context, rep ports.Reporter, obs ports.RunObserver) (domain.RunSummary, error) {
		rep.Infof("Checking service availability...")
		for i, name := range []string{"register_owner", "login_owner"} {
			obs.StepStarted(name, i, 2)
			obs.StepFinished(domain.StepResult{Name: name, Outcome: domain.Passed("ok")}, i, 2)
		}
		return want, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Tally != want.Tally || got.Environment != "local" {
		t.Fatalf("unexpected summary: %+v", got)
	}
}

func TestRun_PropagatesRunError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(context.Background(), Options{Input: strings.NewReader(""), Output: &bytes.Buffer{}},
		func(context.Context, ports.Reporter, ports.RunObserver) (domain.RunSummary, error) {
			return domain.RunSummary{}, boom
		})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{err: &domain.OpError{Op: "yamlenv.load", Kind: domain.KindNotFound}, want: "Environment not found"},
		{err: &domain.OpError{Op: "plan.select", Kind: domain.KindNotFound}, want: "Unknown step"},
		{err: &domain.OpError{Op: "vars.resolve", Kind: domain.KindMissingVar, Err: fmt.Errorf("missing variable: gateway")}, want: "Missing variable gateway"},
		{err: &domain.OpError{Op: "config.load", Kind: domain.KindInvalidConfig, Path: "/w/parknet.yaml", Err: errors.New("yaml: line 3: did not find expected key")}, want: "Invalid YAML at parknet.yaml line 3"},
		{err: fmt.Errorf("wrap: %w", domain.ErrInvalidPlan), want: "Invalid step plan"},
		{err: errors.New("other"), want: "Unexpected error (see logs)"},
	}
	for _, tc := range cases {
		if got := userMessage(tc.err); got != tc.want {
			t.Fatalf("userMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestSafeModel_RecoveredNamesActiveStep(t *testing.T) {
	m := newModel(Options{Steps: []string{"register_owner", "create_parking"}}, make(chan tea.Msg), nil)
	m.current = 1
	s := wrapSafe(m, nil)

	got := s.recovered("view", "boom")
	if !strings.Contains(got, "during create_parking") || !strings.Contains(got, ".parknet/logs/parknet-e2e.log") {
		t.Fatalf("unexpected recovery line %q", got)
	}

	s.m.current = -1
	if got := s.recovered("update", "boom"); strings.Contains(got, "during") {
		t.Fatalf("no step should be named before the run starts: %q", got)
	}
}
