package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

// NewTraceID returns a fresh request identifier.
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID stores a trace ID on the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID returns the context's trace ID, or "" when none was set.
func TraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// EnsureTraceID returns the context unchanged when it already carries a
// trace ID, otherwise attaches a new one.
func EnsureTraceID(ctx context.Context) context.Context {
	if TraceID(ctx) == "" {
		return WithTraceID(ctx, NewTraceID())
	}
	return ctx
}
