package scenario

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/ports"
	"github.com/hextract/parking-net/internal/proxy"
	ucassert "github.com/hextract/parking-net/internal/usecase/assert"
)

// Scope is what a step sees: the shared state, the service proxies, and
// helpers that record checks for the runner.
type Scope struct {
	State    *domain.State
	Services proxy.Set

	// Admin provisions administrator accounts. Nil when no identity admin
	// API is configured.
	Admin      ports.IdentityAdmin
	AdminGroup string

	Fake *gofakeit.Faker
	Now  func() time.Time

	log ports.Reporter

	checks   []domain.AssertionResult
	warnings []string
}

type ScopeOption func(*Scope)

func WithIdentityAdmin(admin ports.IdentityAdmin, group string) ScopeOption {
	return func(sc *Scope) {
		sc.Admin = admin
		sc.AdminGroup = group
	}
}

func WithReporter(r ports.Reporter) ScopeOption {
	return func(sc *Scope) {
		if r != nil {
			sc.log = r
		}
	}
}

// WithFaker fixes the data generator, e.g. a seeded one in tests.
func WithFaker(f *gofakeit.Faker) ScopeOption {
	return func(sc *Scope) {
		if f != nil {
			sc.Fake = f
		}
	}
}

func WithClock(now func() time.Time) ScopeOption {
	return func(sc *Scope) {
		if now != nil {
			sc.Now = now
		}
	}
}

func NewScope(state *domain.State, services proxy.Set, opts ...ScopeOption) *Scope {
	sc := &Scope{
		State:    state,
		Services: services,
		Fake:     gofakeit.New(0),
		Now:      time.Now,
		log:      nopReporter{},
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Check records r and logs it when it failed. It returns r.Passed.
func (sc *Scope) Check(r domain.AssertionResult) bool {
	sc.checks = append(sc.checks, r)
	if !r.Passed {
		sc.log.Errorf("FAILED: %s", r.Message)
	}
	return r.Passed
}

// Expect gates on a single status.
func (sc *Scope) Expect(label string, r domain.Result, status int) bool {
	return sc.Check(ucassert.ExpectStatus(label, r, status))
}

// ExpectOneOf gates on a set of acceptable statuses.
func (sc *Scope) ExpectOneOf(label string, r domain.Result, set ucassert.StatusSet) bool {
	return sc.Check(ucassert.ExpectOneOf(label, r, set))
}

// ExpectPaths runs JSONPath checks on the body of r. Every check is recorded;
// it returns true only if all passed.
func (sc *Scope) ExpectPaths(r domain.Result, checks ...ucassert.PathCheck) bool {
	ok := true
	for _, c := range ucassert.Paths(r.Body, checks...) {
		if !sc.Check(c) {
			ok = false
		}
	}
	return ok
}

// Failure returns a failed outcome carrying the last failed check.
func (sc *Scope) Failure() domain.Outcome {
	for i := len(sc.checks) - 1; i >= 0; i-- {
		if !sc.checks[i].Passed {
			return domain.Failed("%s", sc.checks[i].Message)
		}
	}
	return domain.Failed("check failed")
}

// Failf records an ad hoc failed check and returns the matching outcome.
func (sc *Scope) Failf(format string, args ...any) domain.Outcome {
	msg := fmt.Sprintf(format, args...)
	sc.Check(domain.AssertionResult{Name: "payload", Passed: false, Message: msg})
	return domain.Failed("%s", msg)
}

// Skipf logs why a step cannot proceed. Skips never count as failures.
func (sc *Scope) Skipf(format string, args ...any) domain.Outcome {
	msg := fmt.Sprintf(format, args...)
	sc.log.Warnf("SKIP: %s", msg)
	return domain.Skipped("%s", msg)
}

// Passf logs and returns a passed outcome.
func (sc *Scope) Passf(format string, args ...any) domain.Outcome {
	msg := fmt.Sprintf(format, args...)
	sc.log.Infof("%s", msg)
	return domain.Passed("%s", msg)
}

// Warnf records a non-fatal observation.
func (sc *Scope) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	sc.warnings = append(sc.warnings, msg)
	sc.log.Warnf("%s", msg)
}

func (sc *Scope) Infof(format string, args ...any) {
	sc.log.Infof(format, args...)
}

// begin clears the per-step records.
func (sc *Scope) begin() {
	sc.checks = nil
	sc.warnings = nil
}

func (sc *Scope) failedChecks() int {
	n := 0
	for _, c := range sc.checks {
		if !c.Passed {
			n++
		}
	}
	return n
}

type nopReporter struct{}

func (nopReporter) Infof(string, ...any)  {}
func (nopReporter) Warnf(string, ...any)  {}
func (nopReporter) Errorf(string, ...any) {}
