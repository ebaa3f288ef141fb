package domain

import (
	"fmt"
	"time"
)

// OutcomeStatus is the three-valued result of a step.
type OutcomeStatus string

const (
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomePassed  OutcomeStatus = "passed"
)

// Outcome is what a step reports back to the runner.
type Outcome struct {
	Status OutcomeStatus
	Detail string
}

func Passed(format string, args ...any) Outcome {
	return Outcome{Status: OutcomePassed, Detail: fmt.Sprintf(format, args...)}
}

func Failed(format string, args ...any) Outcome {
	return Outcome{Status: OutcomeFailed, Detail: fmt.Sprintf(format, args...)}
}

func Skipped(format string, args ...any) Outcome {
	return Outcome{Status: OutcomeSkipped, Detail: fmt.Sprintf(format, args...)}
}

func (o Outcome) String() string {
	if o.Detail == "" {
		return string(o.Status)
	}
	return fmt.Sprintf("%s: %s", o.Status, o.Detail)
}

// StepResult records one executed (or skipped) step.
type StepResult struct {
	Name     string
	Outcome  Outcome
	Checks   []AssertionResult
	Warnings []string
	Duration time.Duration
	// Panicked is set when the step raised and the runner recovered.
	Panicked bool
	// Canceled is set when the step was skipped because the run was canceled.
	Canceled bool
}

// Tally counts step outcomes. Counters only ever grow.
type Tally struct {
	Passed  int
	Failed  int
	Skipped int
}

// Record adds one outcome to the tally.
func (t *Tally) Record(o Outcome) {
	switch o.Status {
	case OutcomePassed:
		t.Passed++
	case OutcomeFailed:
		t.Failed++
	default:
		t.Skipped++
	}
}

// Fail counts a failure that did not come from a step, e.g. an unavailable backend.
func (t *Tally) Fail() {
	t.Failed++
}

func (t Tally) String() string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped", t.Passed, t.Failed, t.Skipped)
}
