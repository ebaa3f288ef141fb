package domain

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"
)

// RunErrorKind is a high-level classification of transport errors.
type RunErrorKind string

const (
	RunErrorUnknown RunErrorKind = "unknown"
	RunErrorTimeout RunErrorKind = "timeout"
	RunErrorDNS     RunErrorKind = "dns"
	RunErrorConn    RunErrorKind = "connection"
)

// RunError represents a structured transport error.
type RunError struct {
	Kind    RunErrorKind
	Message string
}

// NewRunError classifies err. It returns nil for a nil error.
func NewRunError(err error) *RunError {
	if err == nil {
		return nil
	}
	return &RunError{
		Kind:    ClassifyRunError(err),
		Message: err.Error(),
	}
}

// ClassifyRunError maps a transport error to a RunErrorKind.
func ClassifyRunError(err error) RunErrorKind {
	if err == nil {
		return RunErrorUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return RunErrorTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return RunErrorDNS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return RunErrorTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return RunErrorConn
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return RunErrorConn
	}

	return RunErrorUnknown
}

// AssertionResult is the output of a single check.
type AssertionResult struct {
	Name    string
	Passed  bool
	Message string
}

// ProbeResult is the availability of one backend.
type ProbeResult struct {
	Service ServiceName
	URL     string
	Up      bool
	Status  int
	Message string
}

// RunSummary describes a complete harness run.
type RunSummary struct {
	ID          string
	Environment string

	StartedAt time.Time
	EndedAt   time.Time

	Probes []ProbeResult
	// Aborted is set when the availability probe stopped the run.
	Aborted bool
	// Canceled is set when at least one step was skipped because the run
	// was interrupted.
	Canceled bool

	Steps []StepResult
	Tally Tally
}

// OK reports whether the run went to completion with zero failures.
func (s RunSummary) OK() bool {
	return s.Tally.Failed == 0 && !s.Aborted && !s.Canceled
}
