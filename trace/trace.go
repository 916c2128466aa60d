// Package trace carries the per-request id from the inbound request to
// outbound upstream calls.
package trace

import (
	"context"

	"github.com/google/uuid"
)

// HeaderRequestID is the header used in both directions.
const HeaderRequestID = "X-Request-Id"

type ctxKey struct{}

// NewID returns a fresh random request id.
func NewID() string {
	return uuid.NewString()
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
