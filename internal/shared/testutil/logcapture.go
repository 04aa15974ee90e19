package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// Entry is one captured log record with its attributes flattened.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

type entries struct {
	mu  sync.Mutex
	all []Entry
}

// LogCapture is a slog.Handler that keeps every record in memory. Handlers
// derived with Logger.With share the captured entries.
type LogCapture struct {
	sink  *entries
	attrs []slog.Attr
	t     testing.TB
}

// NewTestLogger returns a logger writing to a fresh LogCapture. When t is not
// nil each record is echoed with t.Logf.
func NewTestLogger(t testing.TB) (*slog.Logger, *LogCapture) {
	h := &LogCapture{sink: &entries{}, t: t}
	return slog.New(h), h
}

func (h *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

func (h *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.sink.mu.Lock()
	h.sink.all = append(h.sink.all, Entry{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.sink.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &LogCapture{sink: h.sink, attrs: merged, t: h.t}
}

// WithGroup flattens groups.
func (h *LogCapture) WithGroup(string) slog.Handler { return h }

// Entries returns a copy of the captured records, optionally filtered to the
// given levels.
func (h *LogCapture) Entries(levels ...slog.Level) []Entry {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()

	var out []Entry
	for _, e := range h.sink.all {
		if len(levels) == 0 || containsLevel(levels, e.Level) {
			out = append(out, e)
		}
	}
	return out
}

func containsLevel(levels []slog.Level, l slog.Level) bool {
	for _, want := range levels {
		if want == l {
			return true
		}
	}
	return false
}

// AssertLogContains fails t unless a record at level contains message.
func AssertLogContains(t testing.TB, h *LogCapture, level slog.Level, message string) {
	t.Helper()
	got := h.Entries(level)
	for _, e := range got {
		if strings.Contains(e.Message, message) {
			return
		}
	}
	t.Errorf("no %s log containing %q; captured %d %s records", level, message, len(got), level)
}

// AssertLogAttr fails t unless some record carries key with value.
func AssertLogAttr(t testing.TB, h *LogCapture, key string, value any) {
	t.Helper()
	for _, e := range h.Entries() {
		if v, ok := e.Attrs[key]; ok && v == value {
			return
		}
	}
	t.Errorf("no log record with %s=%v", key, value)
}
