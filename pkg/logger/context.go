package logger

import (
	"context"
	"log/slog"
)

type ctxMarker struct{}

var ctxLoggerKey ctxMarker

// With derives a request-scoped logger carrying fields and stores it on the
// returned context. Later middleware and handlers pick it up via From.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, ctxLoggerKey, From(ctx).With(fields...))
}

// From returns the context's logger, falling back to the process logger when
// none was attached.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxLoggerKey).(*slog.Logger); ok {
			return l
		}
	}
	return LoggerWrapper()
}
