package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// scrubHandler redacts secrets from every record before handing it to
// the wrapped handler. It covers the message and all string-valued
// attributes, including strings nested inside groups.
type scrubHandler struct {
	next      slog.Handler
	sanitizer *Sanitizer
}

func newScrubHandler(next slog.Handler, sanitizer *Sanitizer) *scrubHandler {
	return &scrubHandler{next: next, sanitizer: sanitizer}
}

func (h *scrubHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *scrubHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, h.sanitizer.Sanitize(rec.Message), rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.scrub(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *scrubHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	scrubbed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		scrubbed[i] = h.scrub(a)
	}
	return &scrubHandler{next: h.next.WithAttrs(scrubbed), sanitizer: h.sanitizer}
}

func (h *scrubHandler) WithGroup(name string) slog.Handler {
	return &scrubHandler{next: h.next.WithGroup(name), sanitizer: h.sanitizer}
}

func (h *scrubHandler) scrub(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(h.sanitizer.Sanitize(a.Value.String()))
	case slog.KindGroup:
		members := a.Value.Group()
		scrubbed := make([]slog.Attr, len(members))
		for i, m := range members {
			scrubbed[i] = h.scrub(m)
		}
		a.Value = slog.GroupValue(scrubbed...)
	}
	return a
}

// consoleHandler writes compact single-line records for interactive
// terminals: "15:04:05 INF message key=value". Attributes attached via
// WithAttrs are rendered once up front and reused for every record.
type consoleHandler struct {
	mu       *sync.Mutex
	w        io.Writer
	level    slog.Level
	prefix   string // preformatted WithAttrs output
	groupKey string
}

func newConsoleHandler(w io.Writer, level slog.Level) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, rec slog.Record) error {
	var b strings.Builder
	b.WriteString(rec.Time.Format(time.TimeOnly))
	b.WriteByte(' ')
	b.WriteString(levelTag(rec.Level))
	b.WriteByte(' ')
	b.WriteString(rec.Message)
	b.WriteString(h.prefix)
	rec.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&b, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.prefix)
	for _, a := range attrs {
		h.appendAttr(&b, a)
	}
	clone := *h
	clone.prefix = b.String()
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if name != "" {
		clone.groupKey = h.groupKey + name + "."
	}
	return &clone
}

func (h *consoleHandler) appendAttr(b *strings.Builder, a slog.Attr) {
	if a.Value.Kind() == slog.KindGroup {
		for _, m := range a.Value.Group() {
			if a.Key != "" {
				m.Key = a.Key + "." + m.Key
			}
			h.appendAttr(b, m)
		}
		return
	}
	if a.Equal(slog.Attr{}) {
		return
	}
	fmt.Fprintf(b, " %s%s%s=%v", ansiDim, h.groupKey+a.Key, ansiReset, a.Value.Any())
}

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[36m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiGray   = "\033[90m"
)

func levelTag(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return ansiRed + "ERR" + ansiReset
	case l >= slog.LevelWarn:
		return ansiYellow + "WRN" + ansiReset
	case l >= slog.LevelInfo:
		return ansiBlue + "INF" + ansiReset
	default:
		return ansiGray + "DBG" + ansiReset
	}
}
