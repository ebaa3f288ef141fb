package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/ports"
)

// Runner executes a plan strictly in order on the calling goroutine.
type Runner struct {
	observer ports.RunObserver
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*Runner)

func WithObserver(o ports.RunObserver) Option {
	return func(r *Runner) { r.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		log: slog.New(slog.DiscardHandler),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every step of plan against sc and records each outcome in
// sc.State.Tally. A step whose required keys are absent is skipped without
// being called. A panicking step counts as exactly one failure. Once ctx is
// done the remaining steps are skipped.
func (r *Runner) Run(ctx context.Context, plan Plan, sc *Scope) []domain.StepResult {
	total := len(plan)
	results := make([]domain.StepResult, 0, total)

	for i, step := range plan {
		if r.observer != nil {
			r.observer.StepStarted(step.Name, i, total)
		}

		res := r.runStep(ctx, step, sc)
		sc.State.Tally.Record(res.Outcome)
		results = append(results, res)

		r.log.Info("step.finished",
			"step", step.Name,
			"status", string(res.Outcome.Status),
			"duration_ms", res.Duration.Milliseconds(),
		)
		if r.observer != nil {
			r.observer.StepFinished(res, i, total)
		}
	}

	return results
}

func (r *Runner) runStep(ctx context.Context, step Step, sc *Scope) domain.StepResult {
	sc.begin()
	started := r.now()

	res := domain.StepResult{Name: step.Name}

	switch {
	case ctx.Err() != nil:
		res.Outcome = domain.Skipped("run canceled: %v", ctx.Err())
		res.Canceled = true
	default:
		if missing := sc.State.Missing(step.Requires); len(missing) > 0 {
			res.Outcome = sc.Skipf("%s: missing %s (previous step failed)", step.Name, joinKeys(missing))
			break
		}
		res.Outcome, res.Panicked = r.call(ctx, step, sc)
	}

	res.Outcome = r.settle(step, sc, res.Outcome)
	res.Checks = sc.checks
	res.Warnings = sc.warnings
	res.Duration = r.now().Sub(started)
	return res
}

// call invokes the step and converts a panic into one failure.
func (r *Runner) call(ctx context.Context, step Step, sc *Scope) (out domain.Outcome, panicked bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("step.panic", "step", step.Name, "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
			sc.log.Errorf("Exception in test %s: %v", step.Name, rec)
			out = domain.Failed("panic: %v", rec)
			panicked = true
		}
	}()
	return step.Run(ctx, sc), false
}

// settle reconciles what the step returned with what it recorded: a step
// cannot pass with a failed check or without producing its declared keys.
func (r *Runner) settle(step Step, sc *Scope, out domain.Outcome) domain.Outcome {
	if out.Status != domain.OutcomePassed {
		return out
	}
	if n := sc.failedChecks(); n > 0 {
		return domain.Failed("%d check(s) failed", n)
	}
	if missing := sc.State.Missing(step.Produces); len(missing) > 0 {
		return sc.Failf("%s passed without producing %s", step.Name, joinKeys(missing))
	}
	return out
}

// Canceled reports whether any of results was skipped by cancellation.
func Canceled(results []domain.StepResult) bool {
	for _, r := range results {
		if r.Canceled {
			return true
		}
	}
	return false
}

func joinKeys(keys []domain.StateKey) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, string(k))
	}
	return strings.Join(parts, ", ")
}
