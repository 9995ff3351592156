package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Entry is one log record kept for the status API.
type Entry struct {
	Time       time.Time      `json:"time"`
	Level      string         `json:"level"`
	Module     string         `json:"module,omitempty"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Recent keeps the last N log entries in a ring.
type Recent struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
}

// NewRecent creates a ring holding up to size entries.
func NewRecent(size int) *Recent {
	return &Recent{entries: make([]Entry, max(size, 1))}
}

func (r *Recent) add(e Entry) {
	r.mu.Lock()
	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
}

// Entries returns the kept entries, oldest first.
func (r *Recent) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.full {
		return append([]Entry(nil), r.entries[:r.next]...)
	}
	out := make([]Entry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	return append(out, r.entries[:r.next]...)
}

// recentHandler is a slog.Handler that records into a Recent ring. Attrs
// are flattened when they are attached so later groups do not prefix them.
type recentHandler struct {
	recent *Recent
	level  slog.Leveler
	module string
	attrs  map[string]any
	groups []string
}

func (h *recentHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *recentHandler) Handle(_ context.Context, r slog.Record) error {
	e := Entry{
		Time:    r.Time,
		Level:   strings.ToLower(r.Level.String()),
		Module:  h.module,
		Message: r.Message,
	}
	if len(h.attrs) > 0 || r.NumAttrs() > 0 {
		e.Attributes = make(map[string]any, len(h.attrs)+r.NumAttrs())
		for k, v := range h.attrs {
			e.Attributes[k] = v
		}
		r.Attrs(func(a slog.Attr) bool {
			flattenAttr(e.Attributes, h.groups, a)
			return true
		})
	}

	h.recent.add(e)
	return nil
}

func (h *recentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make(map[string]any, len(h.attrs)+len(attrs))
	for k, v := range h.attrs {
		clone.attrs[k] = v
	}
	for _, a := range attrs {
		if a.Key == "module" && len(h.groups) == 0 {
			clone.module = a.Value.String()
			continue
		}
		flattenAttr(clone.attrs, h.groups, a)
	}
	return &clone
}

func (h *recentHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// flattenAttr stores a into attrs, joining group names with dots.
func flattenAttr(attrs map[string]any, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		sub := append(append([]string(nil), groups...), a.Key)
		for _, ga := range a.Value.Group() {
			flattenAttr(attrs, sub, ga)
		}
	case slog.KindDuration:
		attrs[key] = a.Value.Duration().String()
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			attrs[key] = err.Error()
		} else {
			attrs[key] = a.Value.Any()
		}
	default:
		attrs[key] = a.Value.Any()
	}
}
