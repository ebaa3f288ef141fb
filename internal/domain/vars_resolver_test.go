package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedResolver(t *testing.T, vars Vars) *RuntimeResolver {
	t.Helper()
	r := NewVarResolver(
		WithNow(func() time.Time { return time.Unix(1700000000, 0) }),
		WithUUID(func() (string, error) { return "11111111-2222-4333-8444-555555555555", nil }),
	)
	rt, err := r.NewRuntime(vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rt
}

func TestResolveStringBuiltinsAndVars(t *testing.T) {
	rt := fixedResolver(t, Vars{"gateway": "http://localhost:8080"})

	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"owner_{{$timestamp}}", "owner_1700000000"},
		{"{{ gateway }}/auth", "http://localhost:8080/auth"},
		{"run-{{$uuid}}", "run-11111111-2222-4333-8444-555555555555"},
		{"{{$timestamp}}-{{$timestamp}}", "1700000000-1700000000"},
	}
	for _, c := range cases {
		got, err := rt.ResolveString(c.in)
		if err != nil {
			t.Fatalf("ResolveString(%q) error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ResolveString(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestResolveStringErrors(t *testing.T) {
	rt := fixedResolver(t, nil)

	cases := []struct {
		in   string
		kind ErrorKind
	}{
		{"{{missing}}", KindMissingVar},
		{"{{ }}", KindInvalidConfig},
		{"{{open", KindInvalidConfig},
	}
	for _, c := range cases {
		_, err := rt.ResolveString(c.in)
		if err == nil {
			t.Fatalf("expected error for %q", c.in)
		}
		if !IsKind(err, c.kind) {
			t.Fatalf("expected kind %s for %q, got %v", c.kind, c.in, err)
		}
	}
}

func TestResolveFieldKeepsKindAndNamesField(t *testing.T) {
	rt := fixedResolver(t, nil)

	_, err := rt.ResolveField("services.auth.base_url", "{{gateway}}")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsKind(err, KindMissingVar) {
		t.Fatalf("expected missing var kind, got %v", err)
	}
	if !strings.Contains(err.Error(), "services.auth.base_url") {
		t.Fatalf("expected field name in error, got %v", err)
	}
}

func TestNewRuntimeUUIDFailure(t *testing.T) {
	r := NewVarResolver(WithUUID(func() (string, error) { return "", errors.New("entropy") }))
	if _, err := r.NewRuntime(nil); !IsKind(err, KindExecution) {
		t.Fatalf("expected execution error, got %v", err)
	}
}

func TestDefaultUUIDShape(t *testing.T) {
	rt, err := NewVarResolver().NewRuntime(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rt.Builtin("$uuid")) != 36 {
		t.Fatalf("expected canonical uuid, got %q", rt.Builtin("$uuid"))
	}
}
