package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ContextKey is the type for values stored in the request context.
type ContextKey string

// Context keys set by middleware.
const (
	// UserContextKey holds the authenticated *domain.User.
	UserContextKey ContextKey = "user"

	// TokenContextKey holds the raw bearer token of this session.
	TokenContextKey ContextKey = "token"

	// TraceIDKey holds the per-request trace ID.
	TraceIDKey ContextKey = "traceID"
)

// traceIDLength is the number of random bytes in a trace ID.
const traceIDLength = 16

// SetTraceID adds a fresh trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID retrieves the trace ID from the context, or "" if absent.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

func generateTraceID() string {
	b := make([]byte, traceIDLength)
	if _, err := rand.Read(b); err != nil {
		// Never return a static value; a timestamp still distinguishes
		// requests well enough for log correlation.
		return fmt.Sprintf("t-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
