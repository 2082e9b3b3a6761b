// Package tracing records a span tree for the phases of a run (index build,
// query scan, finalization, report). Spans travel through contexts and the
// finished tree is logged through slog.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey string

const spanKey contextKey = "run_span"

// Span is a timed phase of a run.
type Span struct {
	Name      string
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Children  []*Span
	Attrs     map[string]any
	mu        sync.Mutex
}

// StartRun creates the root span of a run.
func StartRun(ctx context.Context, name string, runID string) (context.Context, *Span) {
	span := &Span{
		Name:      name,
		RunID:     runID,
		StartTime: time.Now(),
		Attrs:     make(map[string]any),
	}
	return context.WithValue(ctx, spanKey, span), span
}

// StartPhase creates a child of the span in ctx. Without a parent the span
// is detached and never logged.
func StartPhase(ctx context.Context, name string) (context.Context, *Span) {
	parent := FromContext(ctx)
	child := &Span{
		Name:      name,
		StartTime: time.Now(),
		Attrs:     make(map[string]any),
	}
	if parent != nil {
		child.RunID = parent.RunID
		parent.mu.Lock()
		parent.Children = append(parent.Children, child)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, spanKey, child), child
}

func (s *Span) End() {
	s.mu.Lock()
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
	s.mu.Unlock()
}

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.Attrs[key] = value
	s.mu.Unlock()
}

func FromContext(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanKey).(*Span); ok {
		return span
	}
	return nil
}

// Log writes the span tree depth first.
func (s *Span) Log(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.log(logger, 0)
}

func (s *Span) log(logger *slog.Logger, depth int) {
	s.mu.Lock()
	attrs := []any{
		"run_id", s.RunID,
		"span", s.Name,
		"duration_ms", s.Duration.Milliseconds(),
		"depth", depth,
	}
	for k, v := range s.Attrs {
		attrs = append(attrs, k, v)
	}
	children := append([]*Span(nil), s.Children...)
	s.mu.Unlock()

	logger.Info("span", attrs...)
	for _, child := range children {
		child.log(logger, depth+1)
	}
}
