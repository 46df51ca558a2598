// Package auth guards routes behind bearer-token verification and role
// checks.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	authModels "roster/internal/auth/models"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/platform/httputil"
	"roster/pkg/platform/middleware/metadata"
	"roster/pkg/requestcontext"
)

// Verifier is the token service surface the middleware needs. CachedIdentity
// is the fast path; it reports a miss when caching is disabled.
type Verifier interface {
	Verify(ctx context.Context, token string) (authModels.Identity, error)
	CachedIdentity(ctx context.Context, token string) (authModels.Identity, bool)
}

// RequireAuth enforces `Authorization: Bearer <token>`. On success the
// verified user id and role are placed in the request context.
func RequireAuth(verifier Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					slog.String("request_id", requestcontext.RequestID(ctx)),
					slog.String("client_ip", metadata.GetClientIP(ctx)),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			identity, hit := verifier.CachedIdentity(ctx, token)
			if !hit {
				var err error
				identity, err = verifier.Verify(ctx, token)
				if err != nil {
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						slog.Any("error", err),
						slog.String("request_id", requestcontext.RequestID(ctx)),
						slog.String("client_ip", metadata.GetClientIP(ctx)),
					)
					httputil.WriteError(w, err)
					return
				}
			}

			ctx = requestcontext.WithUserID(ctx, identity.UserID)
			ctx = requestcontext.WithRole(ctx, string(identity.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route to one role. It must run after RequireAuth.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.Role(ctx) != role {
				logger.WarnContext(ctx, "forbidden - insufficient role",
					slog.String("required_role", role),
					slog.String("request_id", requestcontext.RequestID(ctx)),
					slog.Int("user_id", requestcontext.UserID(ctx)),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "Insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
