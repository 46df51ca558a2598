// Package request assigns each request a correlation id, available to every
// layer through the request context and echoed in the X-Request-ID header.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"roster/pkg/requestcontext"
)

const headerName = "X-Request-ID"

// RequestID reuses an incoming X-Request-ID when present, otherwise mints
// one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerName)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), id)
		w.Header().Set(headerName, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request id from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
