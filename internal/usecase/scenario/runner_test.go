package scenario

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/proxy"
)

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) ProbeFinished(p domain.ProbeResult) {}

func (o *recordingObserver) StepStarted(name string, index, total int) {
	o.events = append(o.events, fmt.Sprintf("start %s %d/%d", name, index+1, total))
}

func (o *recordingObserver) StepFinished(r domain.StepResult, index, total int) {
	o.events = append(o.events, fmt.Sprintf("finish %s %s", r.Name, r.Outcome.Status))
}

type lines struct {
	info, warn, err []string
}

func (l *lines) Infof(format string, args ...any)  { l.info = append(l.info, fmt.Sprintf(format, args...)) }
func (l *lines) Warnf(format string, args ...any)  { l.warn = append(l.warn, fmt.Sprintf(format, args...)) }
func (l *lines) Errorf(format string, args ...any) { l.err = append(l.err, fmt.Sprintf(format, args...)) }

func newTestScope(rep *lines) *Scope {
	return NewScope(domain.NewState(domain.Actor{}, domain.Actor{}, domain.Actor{}), proxy.Set{}, WithReporter(rep))
}

func TestRunner_SkipsWhenRequiredKeyMissing(t *testing.T) {
	rep := &lines{}
	sc := newTestScope(rep)
	called := false

	plan := Plan{
		{Name: "register_owner", Produces: []domain.StateKey{domain.KeyOwnerToken}, Run: func(context.Context, *Scope) domain.Outcome {
			return domain.Failed("Expected 200, got 500")
		}},
		{Name: "create_parking", Requires: []domain.StateKey{domain.KeyOwnerToken}, Run: func(context.Context, *Scope) domain.Outcome {
			called = true
			return domain.Passed("created")
		}},
	}

	results := NewRunner().Run(context.Background(), plan, sc)

	require.Len(t, results, 2)
	assert.False(t, called)
	assert.Equal(t, domain.OutcomeSkipped, results[1].Outcome.Status)
	assert.Equal(t, domain.Tally{Failed: 1, Skipped: 1}, sc.State.Tally)
	require.Len(t, rep.warn, 1)
	assert.Contains(t, rep.warn[0], "missing owner_token")
}

func TestRunner_PanicCountsOnceAndContinues(t *testing.T) {
	rep := &lines{}
	sc := newTestScope(rep)
	after := false

	plan := Plan{
		{Name: "boom", Run: func(_ context.Context, sc *Scope) domain.Outcome {
			sc.Check(domain.AssertionResult{Name: "x", Passed: false, Message: "first"})
			var m map[string]int
			m["x"] = 1
			return domain.Passed("unreachable")
		}},
		{Name: "after", Run: func(context.Context, *Scope) domain.Outcome {
			after = true
			return domain.Passed("ok")
		}},
	}

	results := NewRunner().Run(context.Background(), plan, sc)

	assert.True(t, after)
	assert.True(t, results[0].Panicked)
	assert.Equal(t, domain.OutcomeFailed, results[0].Outcome.Status)
	assert.Equal(t, domain.Tally{Passed: 1, Failed: 1}, sc.State.Tally)
}

func TestRunner_PassWithFailedCheckBecomesFailure(t *testing.T) {
	sc := newTestScope(&lines{})
	plan := Plan{
		{Name: "sloppy", Run: func(_ context.Context, sc *Scope) domain.Outcome {
			sc.Expect("Get Parking", domain.Result{Status: 500}, 200)
			return domain.Passed("looks fine")
		}},
	}

	results := NewRunner().Run(context.Background(), plan, sc)

	assert.Equal(t, domain.OutcomeFailed, results[0].Outcome.Status)
	assert.Len(t, results[0].Checks, 1)
	assert.Equal(t, 1, sc.State.Tally.Failed)
}

func TestRunner_PassWithoutProducingIsFailure(t *testing.T) {
	sc := newTestScope(&lines{})
	plan := Plan{
		{Name: "register_owner", Produces: []domain.StateKey{domain.KeyOwnerToken}, Run: func(context.Context, *Scope) domain.Outcome {
			return domain.Passed("registered")
		}},
	}

	results := NewRunner().Run(context.Background(), plan, sc)

	assert.Equal(t, domain.OutcomeFailed, results[0].Outcome.Status)
	assert.Contains(t, results[0].Outcome.Detail, "without producing owner_token")
}

func TestRunner_ProducedStateFlowsToLaterSteps(t *testing.T) {
	sc := newTestScope(&lines{})
	obs := &recordingObserver{}

	plan := Plan{
		{Name: "register_owner", Produces: []domain.StateKey{domain.KeyOwnerToken}, Run: func(_ context.Context, sc *Scope) domain.Outcome {
			sc.State.Owner.Token = "owner-token"
			return domain.Passed("registered")
		}},
		{Name: "create_parking", Requires: []domain.StateKey{domain.KeyOwnerToken}, Produces: []domain.StateKey{domain.KeyParkingID}, Run: func(_ context.Context, sc *Scope) domain.Outcome {
			sc.State.ParkingID = 7
			sc.State.AddParking(7)
			return domain.Passed("created")
		}},
		{Name: "skip_me", Run: func(_ context.Context, sc *Scope) domain.Outcome {
			return sc.Skipf("nothing to do")
		}},
	}

	NewRunner(WithObserver(obs)).Run(context.Background(), plan, sc)

	assert.Equal(t, domain.Tally{Passed: 2, Skipped: 1}, sc.State.Tally)
	assert.Equal(t, []string{
		"start register_owner 1/3", "finish register_owner passed",
		"start create_parking 2/3", "finish create_parking passed",
		"start skip_me 3/3", "finish skip_me skipped",
	}, obs.events)
}

func TestRunner_CanceledContextSkipsRemaining(t *testing.T) {
	sc := newTestScope(&lines{})
	ctx, cancel := context.WithCancel(context.Background())

	plan := Plan{
		{Name: "first", Run: func(context.Context, *Scope) domain.Outcome {
			cancel()
			return domain.Passed("ok")
		}},
		{Name: "second", Run: func(context.Context, *Scope) domain.Outcome {
			t.Fatalf("second step must not run")
			return domain.Passed("ok")
		}},
	}

	results := NewRunner().Run(ctx, plan, sc)

	assert.Equal(t, domain.OutcomeSkipped, results[1].Outcome.Status)
	assert.False(t, results[0].Canceled)
	assert.True(t, results[1].Canceled)
	assert.True(t, Canceled(results))
	assert.Equal(t, domain.Tally{Passed: 1, Skipped: 1}, sc.State.Tally)
}

func TestRunner_MissingKeySkipIsNotCancellation(t *testing.T) {
	sc := newTestScope(&lines{})
	plan := Plan{{Name: "needs_owner", Requires: []domain.StateKey{domain.KeyOwnerToken}, Run: func(context.Context, *Scope) domain.Outcome {
		return domain.Passed("ok")
	}}}

	results := NewRunner().Run(context.Background(), plan, sc)

	assert.Equal(t, domain.OutcomeSkipped, results[0].Outcome.Status)
	assert.False(t, Canceled(results))
}

func TestTallyIsMonotonic(t *testing.T) {
	sc := newTestScope(&lines{})
	outcomes := []domain.Outcome{domain.Passed("a"), domain.Failed("b"), domain.Skipped("c"), domain.Passed("d")}

	var plan Plan
	for i, o := range outcomes {
		o := o
		plan = append(plan, Step{Name: fmt.Sprintf("s%d", i), Run: func(context.Context, *Scope) domain.Outcome { return o }})
	}

	prev := 0
	runner := NewRunner(WithObserver(observerFunc(func(domain.StepResult) {
		now := sc.State.Tally.Passed + sc.State.Tally.Failed
		if now < prev {
			t.Fatalf("tally decreased: %d -> %d", prev, now)
		}
		prev = now
	})))
	runner.Run(context.Background(), plan, sc)

	assert.Equal(t, 3, prev)
}

type observerFunc func(domain.StepResult)

func (f observerFunc) ProbeFinished(domain.ProbeResult)          {}
func (f observerFunc) StepStarted(string, int, int)              {}
func (f observerFunc) StepFinished(r domain.StepResult, _, _ int) { f(r) }
