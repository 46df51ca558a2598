// Package recovery converts handler panics into 500 responses and critical
// activity-log entries.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"roster/internal/domain"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/platform/httputil"
	"roster/pkg/requestcontext"
)

// Publisher is the async side of the activity log; Emit must never block.
type Publisher interface {
	Emit(ctx context.Context, entry domain.LogEntry)
}

func Recover(publisher Publisher, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				ctx := r.Context()
				logger.ErrorContext(ctx, "panic recovered",
					slog.Any("panic", rec),
					slog.String("path", r.URL.Path),
					slog.String("request_id", requestcontext.RequestID(ctx)),
					slog.String("stack", string(debug.Stack())),
				)
				if publisher != nil {
					publisher.Emit(ctx, domain.LogEntry{
						Message:   fmt.Sprintf("Panic on %s %s: %v", r.Method, r.URL.Path, rec),
						Level:     domain.LogCritical,
						TableName: "System",
						UserID:    requestcontext.UserID(ctx),
						CreatedAt: requestcontext.Now(ctx),
					})
				}
				httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal server error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
