package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestCodeKey   contextKey = "request_code"
)

// WithCorrelationID stores a correlation identifier on the context so every
// log line produced while handling one inbound event can be tied together.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID returns the correlation identifier stored on the context.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(correlationIDKey).(string)
	return value
}

// WithRequestCode stores the request code being processed on the context.
func WithRequestCode(ctx context.Context, code string) context.Context {
	if code == "" {
		return ctx
	}
	return context.WithValue(ctx, requestCodeKey, code)
}

// RequestCode returns the request code stored on the context.
func RequestCode(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestCodeKey).(string)
	return value
}

// FromContext decorates base with any identifiers carried on the context.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = NewNop()
	}
	if id := CorrelationID(ctx); id != "" {
		base = base.With(slog.String("correlation_id", id))
	}
	if code := RequestCode(ctx); code != "" {
		base = base.With(slog.String("code", code))
	}
	return base
}
