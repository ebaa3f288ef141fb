package domain

import "testing"

func TestGetSetVars(t *testing.T) {
	vars := Vars{}

	vars = Set(vars, "token", "abc123")
	got, ok := Get(vars, "token")
	if !ok {
		t.Fatalf("expected key to exist")
	}
	if got != "abc123" {
		t.Fatalf("expected value %q, got %q", "abc123", got)
	}

	if _, ok := Get(vars, "missing"); ok {
		t.Fatalf("expected missing key to be absent")
	}
}

func TestMergeVars(t *testing.T) {
	base := Vars{
		"gateway": "local",
		"token":  "base",
	}
	override := Vars{
		"token": "override",
		"user":  "driver_1",
	}

	merged := Merge(base, override)

	if merged["gateway"] != "local" {
		t.Fatalf("expected base value to remain")
	}
	if merged["token"] != "override" {
		t.Fatalf("expected override value to win")
	}
	if merged["user"] != "driver_1" {
		t.Fatalf("expected new override key to be present")
	}

	if base["token"] != "base" {
		t.Fatalf("expected base to remain unchanged")
	}
}
