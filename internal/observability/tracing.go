package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/rs/xid"
)

type Span struct {
	TraceID   string            `json:"trace_id"`
	SpanID    string            `json:"span_id"`
	ParentID  string            `json:"parent_id,omitempty"`
	Operation string            `json:"operation"`
	StartTime time.Time         `json:"start_time"`
	EndTime   *time.Time        `json:"end_time,omitempty"`
	Duration  *time.Duration    `json:"duration,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
	Status    SpanStatus        `json:"status"`
	Error     string            `json:"error,omitempty"`
}

type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "OK"
	SpanStatusError SpanStatus = "ERROR"
)

type spanContextKey struct{}

// StartSpan opens a span under the span already in ctx, if any. A root span
// takes the run id from ctx as its trace id.
func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	span := &Span{
		TraceID:   generateTraceID(ctx),
		SpanID:    xid.New().String(),
		Operation: operation,
		StartTime: time.Now(),
		Status:    SpanStatusOK,
		Tags:      make(map[string]string),
	}

	if parentSpan := GetSpan(ctx); parentSpan != nil {
		span.ParentID = parentSpan.SpanID
		span.TraceID = parentSpan.TraceID
	}

	return context.WithValue(ctx, spanContextKey{}, span), span
}

func (s *Span) Finish() {
	now := time.Now()
	s.EndTime = &now
	duration := now.Sub(s.StartTime)
	s.Duration = &duration
}

func (s *Span) SetTag(key, value string) {
	if s.Tags == nil {
		s.Tags = make(map[string]string)
	}
	s.Tags[key] = value
}

func (s *Span) SetError(err error) {
	s.Status = SpanStatusError
	if err != nil {
		s.Error = err.Error()
	}
}

// LogAttrs renders the finished span as slog attributes.
func (s *Span) LogAttrs() []any {
	attrs := []any{
		"trace_id", s.TraceID,
		"span_id", s.SpanID,
		"operation", s.Operation,
		"status", s.Status,
	}
	if s.ParentID != "" {
		attrs = append(attrs, "parent_id", s.ParentID)
	}
	if s.Duration != nil {
		attrs = append(attrs, "duration", *s.Duration)
	}
	for k, v := range s.Tags {
		attrs = append(attrs, k, v)
	}
	if s.Error != "" {
		attrs = append(attrs, "error", s.Error)
	}
	return attrs
}

// Trace runs fn inside a span named operation and logs the span when fn
// returns. The error from fn is returned unchanged.
func Trace(ctx context.Context, logger *slog.Logger, operation string, fn func(ctx context.Context, span *Span) error) error {
	ctx, span := StartSpan(ctx, operation)
	err := fn(ctx, span)
	if err != nil {
		span.SetError(err)
	}
	span.Finish()

	if err != nil {
		logger.Error("stage failed", span.LogAttrs()...)
	} else {
		logger.Debug("stage completed", span.LogAttrs()...)
	}
	return err
}

func GetSpan(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanContextKey{}).(*Span); ok {
		return span
	}
	return nil
}

func generateTraceID(ctx context.Context) string {
	if existingSpan := GetSpan(ctx); existingSpan != nil {
		return existingSpan.TraceID
	}
	if runID := GetRunID(ctx); runID != "" {
		return runID
	}
	return xid.New().String()
}
