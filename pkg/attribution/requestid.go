package attribution

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/linkowl/linkowl-go/pkg/logger"
)

// RequestIDHeader carries an id shared by all attempts of one logical request,
// letting the service drop duplicates created by a retry.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

func withRequestID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, requestIDKey{}, id), id
}

// RequestIDFromContext returns the request id of the attribution call running with ctx.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LogRequestID is a logger.ContextExtractor adding the request id to log records.
func LogRequestID(ctx context.Context) (slog.Attr, bool) {
	if id := RequestIDFromContext(ctx); id != "" {
		return logger.RequestID(id), true
	}
	return slog.Attr{}, false
}
