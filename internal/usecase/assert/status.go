package assert

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/hextract/parking-net/internal/domain"
)

// StatusSet is a set of acceptable statuses for one endpoint.
type StatusSet []int

// Status alternatives that differ between services for the same situation.
var (
	MissingCredential = StatusSet{401, 422}
	InvalidCredential = StatusSet{401, 403}
	RejectedRole      = StatusSet{400, 409, 422}
	HiddenOrForbidden = StatusSet{403, 404}
	UnknownCode       = StatusSet{400, 404}
	MissingFields     = StatusSet{400, 422}
)

func (s StatusSet) Contains(status int) bool {
	return slices.Contains(s, status)
}

func (s StatusSet) String() string {
	parts := make([]string, 0, len(s))
	for _, st := range s {
		parts = append(parts, strconv.Itoa(st))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// ExpectStatus checks r against a single expected status. A transport failure
// fails regardless of what was expected.
func ExpectStatus(label string, r domain.Result, expected int) domain.AssertionResult {
	return expect(label, r, StatusSet{expected}, strconv.Itoa(expected))
}

// ExpectOneOf checks r against a set of acceptable statuses.
func ExpectOneOf(label string, r domain.Result, set StatusSet) domain.AssertionResult {
	return expect(label, r, set, "one of "+set.String())
}

func expect(label string, r domain.Result, set StatusSet, want string) domain.AssertionResult {
	if r.Unavailable() {
		return domain.AssertionResult{
			Name:    label,
			Passed:  false,
			Message: fmt.Sprintf("%s - Service unavailable. Error: %s", label, r.Text()),
		}
	}
	if !set.Contains(r.Status) {
		return domain.AssertionResult{
			Name:    label,
			Passed:  false,
			Message: fmt.Sprintf("%s - Expected %s, got %d. Body: %s", label, want, r.Status, r.Diagnostic()),
		}
	}
	return domain.AssertionResult{
		Name:    label,
		Passed:  true,
		Message: fmt.Sprintf("%s - status %d", label, r.Status),
	}
}
