// Package tracing records timed span trees for multi-phase operations such
// as engine builds, and emits them through slog once the root span ends.
// Span context rides on context.Context so phases deep in the call stack
// attach children without plumbing.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type spanCtxKey struct{}

// Span is one timed phase of a trace. Children are attached by
// StartChildSpan and logged beneath their parent.
type Span struct {
	Name     string
	TraceID  string
	Started  time.Time
	Duration time.Duration

	mu       sync.Mutex
	attrs    []slog.Attr
	children []*Span
}

func newSpan(name, traceID string) *Span {
	return &Span{Name: name, TraceID: traceID, Started: time.Now()}
}

// StartSpan begins a root span for a new trace and returns a context that
// carries it.
func StartSpan(ctx context.Context, name, traceID string) (context.Context, *Span) {
	s := newSpan(name, traceID)
	return context.WithValue(ctx, spanCtxKey{}, s), s
}

// StartChildSpan begins a span under the one carried by ctx. Without a
// parent in ctx the child becomes a detached root with an empty trace id.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	child := newSpan(name, "")
	if parent := SpanFromContext(ctx); parent != nil {
		child.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, child)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, spanCtxKey{}, child), child
}

// SpanFromContext returns the span carried by ctx, or nil.
func SpanFromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanCtxKey{}).(*Span)
	return s
}

// End fixes the span's duration. Call exactly once per span.
func (s *Span) End() {
	s.Duration = time.Since(s.Started)
}

// SetAttr records a key-value attribute on the span.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

// Log emits the span and its subtree, one line per span, depth-first.
func (s *Span) Log() {
	s.emit(0)
}

func (s *Span) emit(depth int) {
	s.mu.Lock()
	attrs := make([]slog.Attr, 0, len(s.attrs)+4)
	attrs = append(attrs,
		slog.String("trace_id", s.TraceID),
		slog.String("span", s.Name),
		slog.Int64("duration_ms", s.Duration.Milliseconds()),
		slog.Int("depth", depth),
	)
	attrs = append(attrs, s.attrs...)
	children := s.children
	s.mu.Unlock()

	slog.LogAttrs(context.Background(), slog.LevelInfo, "span", attrs...)
	for _, c := range children {
		c.emit(depth + 1)
	}
}
