package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// HTTPMethod represents an HTTP method (e.g., GET, POST).
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodDelete HTTPMethod = "DELETE"
)

// StatusTransportFailure is the status of a Result for which no response was received.
const StatusTransportFailure = 0

// Call is a single request issued through a service proxy.
type Call struct {
	Method HTTPMethod
	// Path is absolute on the proxy base address, e.g. "/parking/12".
	Path  string
	Query map[string]string
	// Body is serialized as JSON when non-nil.
	Body any

	// Credential is sent in the configured credential header when non-empty.
	Credential string
}

// Result is the normalized outcome of a Call.
//
// Status is the literal HTTP status, or StatusTransportFailure when the request
// never produced a response; in that case Body holds a descriptive message and
// Error classifies the failure.
type Result struct {
	Status    int
	Body      []byte
	Truncated bool
	Duration  time.Duration
	Error     *RunError
}

// Unavailable reports whether no response was received.
func (r Result) Unavailable() bool {
	return r.Status == StatusTransportFailure
}

// Text returns the body as a trimmed string.
func (r Result) Text() string {
	return string(bytes.TrimSpace(r.Body))
}

// Doc parses the body as any JSON value. It returns nil when the body is not JSON.
func (r Result) Doc() any {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	var doc any
	if err := json.Unmarshal(r.Body, &doc); err != nil {
		return nil
	}
	return doc
}

// JSON parses the body as an object. Parse failures and non-object bodies
// yield an empty map, never an error.
func (r Result) JSON() map[string]any {
	if m, ok := r.Doc().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// List parses the body as an array of objects. It returns nil when the body is
// not a JSON array; non-object elements are dropped.
func (r Result) List() []map[string]any {
	arr, ok := r.Doc().([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, it := range arr {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Decode unmarshals the body into v.
func (r Result) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Diagnostic renders the body for a failure log line: the service error
// payload when it parses, the raw text otherwise.
func (r Result) Diagnostic() string {
	if r.Unavailable() {
		return r.Text()
	}
	var ep ErrorPayload
	if err := json.Unmarshal(r.Body, &ep); err == nil && ep.ErrorMessage != "" {
		return ep.String()
	}
	if doc := r.Doc(); doc != nil {
		b, err := json.Marshal(doc)
		if err == nil {
			return string(b)
		}
	}
	if len(r.Body) == 0 {
		return "(empty)"
	}
	return r.Text()
}

// DecodeAs decodes the body of r into a fresh T. On failure it returns the zero
// T, whose fields are the documented sentinels, and false.
func DecodeAs[T any](r Result) (T, bool) {
	var v T
	if err := r.Decode(&v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}
