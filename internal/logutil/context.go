package logutil

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// WithContext returns a child context carrying log.
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the request-scoped logger, falling back to the global
// one so callers never get nil.
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return log
	}
	return zap.L()
}
