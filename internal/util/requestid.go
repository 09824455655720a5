package util //nolint:revive // package name util hosts small helpers shared by HTTP handlers and adapters

import (
	"context"

	"github.com/google/uuid"
)

// RequestIDHeader is the header used to correlate a browser request with outbound API calls.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// NewRequestID returns a fresh random request identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID returns a child context carrying id. An empty id returns ctx unchanged.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
