// Package report prints the user-facing run log: timestamped leveled lines,
// banners and the final tally. Every line is mirrored into slog.
package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hextract/parking-net/internal/domain"
)

type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

const bannerWidth = 60

// Console implements ports.Reporter on top of an io.Writer.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	now    func() time.Time
	log    *slog.Logger
	mask   bool
	styles map[Level]lipgloss.Style
}

type Option func(*Console)

func WithClock(now func() time.Time) Option {
	return func(c *Console) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Console) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMasking redacts sensitive key/value pairs in every line.
func WithMasking(enabled bool) Option {
	return func(c *Console) { c.mask = enabled }
}

// WithPlain disables level styling regardless of the terminal.
func WithPlain() Option {
	return func(c *Console) { c.styles = nil }
}

// New builds a Console writing to out. Level tags are colored only when out
// is a terminal that supports it.
func New(out io.Writer, opts ...Option) *Console {
	r := lipgloss.NewRenderer(out)
	c := &Console{
		out: out,
		now: time.Now,
		log: slog.New(slog.DiscardHandler),
		styles: map[Level]lipgloss.Style{
			LevelInfo:  r.NewStyle().Foreground(lipgloss.Color("39")),
			LevelWarn:  r.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
			LevelError: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) Infof(format string, args ...any) {
	c.line(LevelInfo, fmt.Sprintf(format, args...))
}

func (c *Console) Warnf(format string, args ...any) {
	c.line(LevelWarn, fmt.Sprintf(format, args...))
}

func (c *Console) Errorf(format string, args ...any) {
	c.line(LevelError, fmt.Sprintf(format, args...))
}

// Banner prints title between two rules of '='.
func (c *Console) Banner(title string) {
	rule := strings.Repeat("=", bannerWidth)
	c.line(LevelInfo, rule)
	c.line(LevelInfo, title)
	c.line(LevelInfo, rule)
}

// Summary prints the closing banner of a run.
func (c *Console) Summary(s domain.RunSummary) {
	if s.Aborted {
		c.Banner(fmt.Sprintf("Tests aborted: %d passed, %d failed", s.Tally.Passed, s.Tally.Failed))
		return
	}
	if s.Canceled {
		c.Banner("Tests canceled: " + s.Tally.String())
		return
	}
	c.Banner("Tests completed: " + s.Tally.String())
}

func (c *Console) line(level Level, msg string) {
	if c.mask {
		msg = Mask(msg)
	}

	tag := "[" + string(level) + "]"
	if st, ok := c.styles[level]; ok {
		tag = st.Render(tag)
	}

	c.mu.Lock()
	fmt.Fprintf(c.out, "%s %s %s\n", c.now().UTC().Format(time.RFC3339), tag, msg)
	c.mu.Unlock()

	c.log.Log(context.Background(), slogLevel(level), msg, "source", "reporter")
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
