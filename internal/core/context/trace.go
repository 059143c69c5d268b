// Package context provides request-scoped value helpers.
package context

import (
	"context"
)

// TraceInfo carries correlation identifiers for a request.
type TraceInfo struct {
	RequestID string
	TraceID   string
}

type traceKey struct{}

// WithTrace stores trace info in context.
func WithTrace(ctx context.Context, info *TraceInfo) context.Context {
	return context.WithValue(ctx, traceKey{}, info)
}

// GetTrace returns trace info from context, or nil if absent.
func GetTrace(ctx context.Context) *TraceInfo {
	if info, ok := ctx.Value(traceKey{}).(*TraceInfo); ok {
		return info
	}
	return nil
}

// GetRequestID returns the request id from context, or empty string.
func GetRequestID(ctx context.Context) string {
	if info := GetTrace(ctx); info != nil {
		return info.RequestID
	}
	return ""
}
