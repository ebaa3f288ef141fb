// Package extract reads fields out of JSON response bodies by JSONPath.
package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/hextract/parking-net/internal/domain"
	"github.com/shopspring/decimal"
)

// Rules maps a variable name to a JSONPath expression.
type Rules map[string]string

// Apply extracts variables from a JSON response body.
//
// If the body is not JSON every rule fails. A failing rule is reported in the
// results; the other rules still run.
func Apply(body []byte, rules Rules) (domain.Vars, []domain.AssertionResult) {
	if len(rules) == 0 {
		return domain.Vars{}, []domain.AssertionResult{}
	}

	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc, err := parseJSON(body)
	if err != nil {
		out := make([]domain.AssertionResult, 0, len(keys))
		for _, name := range keys {
			expr := strings.TrimSpace(rules[name])
			out = append(out, failed(name, "extract %q (%s): response body is not valid JSON", name, expr))
		}
		return domain.Vars{}, out
	}

	extracted := domain.Vars{}
	results := make([]domain.AssertionResult, 0, len(keys))

	for _, name := range keys {
		expr := strings.TrimSpace(rules[name])
		if expr == "" {
			results = append(results, failed(name, "extract %q: empty jsonpath expression", name))
			continue
		}

		val, getErr := jsonpath.Get(expr, doc)
		if getErr != nil {
			results = append(results, failed(name, "extract %q (%s): jsonpath error: %v", name, expr, getErr))
			continue
		}
		if isEmptyValue(val) {
			results = append(results, failed(name, "extract %q (%s): no value found", name, expr))
			continue
		}

		s, convErr := toString(val)
		if convErr != nil {
			results = append(results, failed(name, "extract %q (%s): cannot convert value to string: %v", name, expr, convErr))
			continue
		}

		extracted[name] = s
		results = append(results, domain.AssertionResult{
			Name:    name,
			Passed:  true,
			Message: fmt.Sprintf("extracted %q", name),
		})
	}

	return extracted, results
}

// String returns the value at expr rendered as a string. Missing and empty
// values report false.
func String(body []byte, expr string) (string, bool) {
	vars, _ := Apply(body, Rules{"v": expr})
	v, ok := vars["v"]
	return v, ok
}

// Int returns the integer at expr. Missing or non-integral values yield 0 and false.
func Int(body []byte, expr string) (int64, bool) {
	s, ok := String(body, expr)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Decimal returns the number at expr. Missing values yield decimal.Zero and false.
func Decimal(body []byte, expr string) (decimal.Decimal, bool) {
	s, ok := String(body, expr)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// IDs collects the integer values matched by a wildcard expression such as
// "$[*].id". Non-integral matches are dropped.
func IDs(body []byte, expr string) []int64 {
	doc, err := parseJSON(body)
	if err != nil {
		return nil
	}
	val, err := jsonpath.Get(expr, doc)
	if err != nil {
		return nil
	}
	arr, ok := val.([]any)
	if !ok {
		arr = []any{val}
	}
	out := make([]int64, 0, len(arr))
	for _, it := range arr {
		f, ok := it.(float64)
		if !ok || f != float64(int64(f)) {
			continue
		}
		out = append(out, int64(f))
	}
	return out
}

func failed(name, format string, args ...any) domain.AssertionResult {
	return domain.AssertionResult{Name: name, Passed: false, Message: fmt.Sprintf(format, args...)}
}

func parseJSON(body []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func isEmptyValue(v any) bool {
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

func toString(v any) (string, error) {
	// jsonpath often returns a one-element slice
	if arr, ok := v.([]any); ok {
		if len(arr) == 0 {
			return "", fmt.Errorf("empty array")
		}
		if len(arr) == 1 {
			return toString(arr[0])
		}
		b, err := json.Marshal(arr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return fmt.Sprint(t), nil
	}
}
