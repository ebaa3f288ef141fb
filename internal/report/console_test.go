package report

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hextract/parking-net/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
}

func TestConsoleLineFormat(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, WithClock(fixedClock), WithPlain())

	c.Infof("Service %s is available at %s", "auth", "http://localhost:8080/auth/metrics")
	c.Warnf("SKIP: %s", "no parking")
	c.Errorf("FAILED: %s", "boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2026-01-02T15:04:05Z [INFO] Service auth is available at http://localhost:8080/auth/metrics", lines[0])
	assert.Equal(t, "2026-01-02T15:04:05Z [WARN] SKIP: no parking", lines[1])
	assert.Equal(t, "2026-01-02T15:04:05Z [ERROR] FAILED: boom", lines[2])
}

func TestConsoleNonTerminalIsUnstyled(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, WithClock(fixedClock)).Errorf("x")

	assert.NotContains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "[ERROR] x")
}

func TestConsoleSummary(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, WithClock(fixedClock), WithPlain())

	c.Summary(domain.RunSummary{Tally: domain.Tally{Passed: 40, Failed: 1, Skipped: 2}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	rule := strings.Repeat("=", 60)
	assert.True(t, strings.HasSuffix(lines[0], rule))
	assert.True(t, strings.HasSuffix(lines[1], "Tests completed: 40 passed, 1 failed, 2 skipped"))
	assert.True(t, strings.HasSuffix(lines[2], rule))
}

func TestConsoleAbortedSummary(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, WithClock(fixedClock), WithPlain())

	c.Summary(domain.RunSummary{Aborted: true, Tally: domain.Tally{Failed: 1}})

	assert.Contains(t, buf.String(), "Tests aborted: 0 passed, 1 failed")
}

func TestConsoleCanceledSummary(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, WithClock(fixedClock), WithPlain())

	c.Summary(domain.RunSummary{Canceled: true, Tally: domain.Tally{Passed: 3, Skipped: 40}})

	assert.Contains(t, buf.String(), "Tests canceled: 3 passed, 0 failed, 40 skipped")
	assert.NotContains(t, buf.String(), "Tests completed")
}

func TestConsoleMasking(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, WithClock(fixedClock), WithPlain(), WithMasking(true))

	c.Infof(`response: {"token":"eyJhbGciOi","login":"driver_1"}`)
	c.Infof("api_key=abc123 password: hunter2")

	out := buf.String()
	assert.Contains(t, out, `"token":"****"`)
	assert.Contains(t, out, `"login":"driver_1"`)
	assert.Contains(t, out, "api_key=****")
	assert.Contains(t, out, "password: ****")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "eyJhbGciOi")
}

func TestConsoleMirrorsToSlog(t *testing.T) {
	var logBuf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&logBuf, nil))

	c := New(&bytes.Buffer{}, WithLogger(l), WithPlain())
	c.Warnf("Balance mismatch: %s", "x")

	assert.Contains(t, logBuf.String(), "level=WARN")
	assert.Contains(t, logBuf.String(), "Balance mismatch: x")
}

func TestMaskLeavesOrdinaryText(t *testing.T) {
	cases := []string{
		"Service payment is available at http://localhost:8080",
		`{"status":"success"}`,
		"Tests completed: 1 passed, 0 failed, 0 skipped",
	}
	for _, in := range cases {
		assert.Equal(t, in, Mask(in))
	}
}
