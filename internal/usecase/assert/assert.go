// Package assert holds the checks steps run against service responses: the
// status gate and JSONPath payload checks.
package assert

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/hextract/parking-net/internal/domain"
)

// PathCheck describes the checks to run on one JSONPath expression. Every set
// field produces one AssertionResult.
type PathCheck struct {
	Expr     string
	Exists   bool
	Eq       *string
	Contains *string
	// Fold makes Contains case-insensitive.
	Fold    bool
	Matches *string
	Gt      *float64
	Lt      *float64
}

func Exists(expr string) PathCheck {
	return PathCheck{Expr: expr, Exists: true}
}

func Equals(expr, want string) PathCheck {
	return PathCheck{Expr: expr, Eq: &want}
}

func ContainsText(expr, sub string) PathCheck {
	return PathCheck{Expr: expr, Contains: &sub, Fold: true}
}

func Matches(expr, pattern string) PathCheck {
	return PathCheck{Expr: expr, Matches: &pattern}
}

func GreaterThan(expr string, threshold float64) PathCheck {
	return PathCheck{Expr: expr, Gt: &threshold}
}

func LessThan(expr string, threshold float64) PathCheck {
	return PathCheck{Expr: expr, Lt: &threshold}
}

// Paths evaluates checks against a response body. The body is parsed once;
// a body that is not JSON fails every check.
func Paths(body []byte, checks ...PathCheck) []domain.AssertionResult {
	if len(checks) == 0 {
		return nil
	}

	var out []domain.AssertionResult

	doc, err := parseJSON(body)
	if err != nil {
		for _, c := range checks {
			out = append(out, jsonPathChecks(c, nil,
				fmt.Errorf("response body is not valid JSON"))...)
		}
		return out
	}

	for _, c := range checks {
		val, getErr := jsonpath.Get(c.Expr, doc)
		out = append(out, jsonPathChecks(c, val, getErr)...)
	}
	return out
}

func jsonPathChecks(c PathCheck, val any, getErr error) []domain.AssertionResult {
	var out []domain.AssertionResult
	if c.Exists {
		out = append(out, checkExists(c.Expr, val, getErr))
	}
	if c.Eq != nil {
		out = append(out, checkEq(c.Expr, val, getErr, *c.Eq))
	}
	if c.Contains != nil {
		out = append(out, checkContains(c.Expr, val, getErr, *c.Contains, c.Fold))
	}
	if c.Matches != nil {
		out = append(out, checkMatches(c.Expr, val, getErr, *c.Matches))
	}
	if c.Gt != nil {
		out = append(out, checkGt(c.Expr, val, getErr, *c.Gt))
	}
	if c.Lt != nil {
		out = append(out, checkLt(c.Expr, val, getErr, *c.Lt))
	}
	return out
}

func fail(name, format string, args ...any) domain.AssertionResult {
	return domain.AssertionResult{Name: name, Passed: false, Message: fmt.Sprintf(format, args...)}
}

func pass(name, format string, args ...any) domain.AssertionResult {
	return domain.AssertionResult{Name: name, Passed: true, Message: fmt.Sprintf(format, args...)}
}

func checkExists(expr string, val any, getErr error) domain.AssertionResult {
	const name = "jsonpath.exists"
	if getErr != nil {
		return fail(name, "jsonpath %q: %v", expr, getErr)
	}
	if isEmptyJSONPathValue(val) {
		return fail(name, "jsonpath %q: expected value to exist, got empty", expr)
	}
	return pass(name, "jsonpath %q exists", expr)
}

func checkEq(expr string, val any, getErr error, expected string) domain.AssertionResult {
	const name = "jsonpath.eq"
	if getErr != nil {
		return fail(name, "jsonpath %q: %v", expr, getErr)
	}
	s, err := jsonPathToString(val)
	if err != nil {
		return fail(name, "jsonpath %q: %v", expr, err)
	}
	if s != expected {
		return fail(name, "jsonpath %q: expected %q, got %q", expr, expected, s)
	}
	return pass(name, "jsonpath %q eq %q", expr, expected)
}

func checkContains(expr string, val any, getErr error, sub string, fold bool) domain.AssertionResult {
	const name = "jsonpath.contains"
	if getErr != nil {
		return fail(name, "jsonpath %q: %v", expr, getErr)
	}
	s, err := jsonPathToString(val)
	if err != nil {
		return fail(name, "jsonpath %q: %v", expr, err)
	}
	hay, needle := s, sub
	if fold {
		hay, needle = strings.ToLower(s), strings.ToLower(sub)
	}
	if !strings.Contains(hay, needle) {
		return fail(name, "jsonpath %q: %q does not contain %q", expr, s, sub)
	}
	return pass(name, "jsonpath %q contains %q", expr, sub)
}

func checkMatches(expr string, val any, getErr error, pattern string) domain.AssertionResult {
	const name = "jsonpath.matches"
	if getErr != nil {
		return fail(name, "jsonpath %q: %v", expr, getErr)
	}
	s, err := jsonPathToString(val)
	if err != nil {
		return fail(name, "jsonpath %q: %v", expr, err)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fail(name, "jsonpath %q: invalid regex %q: %v", expr, pattern, err)
	}
	if !re.MatchString(s) {
		return fail(name, "jsonpath %q: %q does not match %q", expr, s, pattern)
	}
	return pass(name, "jsonpath %q matches %q", expr, pattern)
}

func checkGt(expr string, val any, getErr error, threshold float64) domain.AssertionResult {
	const name = "jsonpath.gt"
	if getErr != nil {
		return fail(name, "jsonpath %q: %v", expr, getErr)
	}
	f, err := jsonPathToFloat64(val)
	if err != nil {
		return fail(name, "jsonpath %q: %v", expr, err)
	}
	if f <= threshold {
		return fail(name, "jsonpath %q: expected > %v, got %v", expr, threshold, f)
	}
	return pass(name, "jsonpath %q: %v > %v", expr, f, threshold)
}

func checkLt(expr string, val any, getErr error, threshold float64) domain.AssertionResult {
	const name = "jsonpath.lt"
	if getErr != nil {
		return fail(name, "jsonpath %q: %v", expr, getErr)
	}
	f, err := jsonPathToFloat64(val)
	if err != nil {
		return fail(name, "jsonpath %q: %v", expr, err)
	}
	if f >= threshold {
		return fail(name, "jsonpath %q: expected < %v, got %v", expr, threshold, f)
	}
	return pass(name, "jsonpath %q: %v < %v", expr, f, threshold)
}

func jsonPathToString(val any) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", fmt.Errorf("value is null")
	default:
		return fmt.Sprint(v), nil
	}
}

func jsonPathToFloat64(val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value of type %T is not numeric", val)
	}
}

func parseJSON(body []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func isEmptyJSONPathValue(v any) bool {
	if v == nil {
		return true
	}

	switch t := v.(type) {
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}
