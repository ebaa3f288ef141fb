// Package scenario runs an ordered plan of dependent steps against shared
// run state.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hextract/parking-net/internal/domain"
)

// RunFunc performs one step. It reads and writes sc.State and reports a
// three-valued outcome.
type RunFunc func(ctx context.Context, sc *Scope) domain.Outcome

// Step is a named unit of the plan. Requires lists the state keys that must be
// present before Run is called; Produces lists the keys a passing Run sets.
type Step struct {
	Name        string
	Description string
	Requires    []domain.StateKey
	Produces    []domain.StateKey
	Run         RunFunc
}

// Plan is an ordered list of steps.
type Plan []Step

func (p Plan) Names() []string {
	out := make([]string, 0, len(p))
	for _, s := range p {
		out = append(out, s.Name)
	}
	return out
}

func (p Plan) index(name string) int {
	return slices.IndexFunc(p, func(s Step) bool { return s.Name == name })
}

// Validate checks that step names are unique and non-empty, that every key is
// known, and that every required key is produced by an earlier step. All
// problems are reported together.
func (p Plan) Validate() error {
	known := map[domain.StateKey]bool{}
	for _, k := range domain.KnownKeys() {
		known[k] = true
	}

	var problems []error
	seen := map[string]int{}
	produced := map[domain.StateKey]bool{}

	for i, s := range p {
		pos := i + 1
		switch {
		case strings.TrimSpace(s.Name) == "":
			problems = append(problems, fmt.Errorf("step #%d: empty name", pos))
		default:
			if first, dup := seen[s.Name]; dup {
				problems = append(problems, fmt.Errorf("step #%d: duplicate name %q (first at #%d)", pos, s.Name, first))
			} else {
				seen[s.Name] = pos
			}
		}
		if s.Run == nil {
			problems = append(problems, fmt.Errorf("step %q: no run func", s.Name))
		}

		for _, k := range s.Requires {
			if !known[k] {
				problems = append(problems, fmt.Errorf("step %q: requires unknown key %q", s.Name, k))
				continue
			}
			if !produced[k] {
				problems = append(problems, fmt.Errorf("step %q: requires %q, which no earlier step produces", s.Name, k))
			}
		}
		for _, k := range s.Produces {
			if !known[k] {
				problems = append(problems, fmt.Errorf("step %q: produces unknown key %q", s.Name, k))
				continue
			}
			produced[k] = true
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &domain.OpError{
		Op:   "plan.validate",
		Kind: domain.KindInvalidConfig,
		Err:  errors.Join(append([]error{domain.ErrInvalidPlan}, problems...)...),
	}
}

// Select returns the named steps plus, transitively, the nearest earlier
// producer of every key they require. Steps keep their plan order.
func (p Plan) Select(names []string) (Plan, error) {
	if len(names) == 0 {
		return p, nil
	}

	want := make([]bool, len(p))
	var unknown []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		i := p.index(n)
		if i < 0 {
			unknown = append(unknown, n)
			continue
		}
		want[i] = true
	}
	if len(unknown) > 0 {
		return nil, &domain.OpError{
			Op:   "plan.select",
			Kind: domain.KindNotFound,
			Err:  fmt.Errorf("%w: unknown step(s) %s", domain.ErrNotFound, strings.Join(unknown, ", ")),
		}
	}

	// walk backwards so a producer added here is visited later in the loop
	for i := len(p) - 1; i >= 0; i-- {
		if !want[i] {
			continue
		}
		for _, k := range p[i].Requires {
			if j := p.nearestProducer(k, i); j >= 0 {
				want[j] = true
			}
		}
	}

	out := make(Plan, 0, len(p))
	for i, s := range p {
		if want[i] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (p Plan) nearestProducer(key domain.StateKey, before int) int {
	for j := before - 1; j >= 0; j-- {
		if slices.Contains(p[j].Produces, key) {
			return j
		}
	}
	return -1
}
