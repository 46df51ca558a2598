// Package httptransport is the thin HTTP layer. Handlers decode and encode;
// every business decision stays in the services.
package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roster/internal/domain"
	"roster/internal/platform/metrics"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/platform/httputil"
	authmw "roster/pkg/platform/middleware/auth"
	"roster/pkg/platform/middleware/metadata"
	"roster/pkg/platform/middleware/recovery"
	"roster/pkg/platform/middleware/request"
	"roster/pkg/platform/middleware/requesttime"
)

// Deps collects everything the router wires together.
type Deps struct {
	Logger      *slog.Logger
	Auth        AuthService
	Verifier    authmw.Verifier
	Users       UserService
	Courses     CourseService
	Enrollments EnrollmentService
	Logs        LogService
	Publisher   recovery.Publisher
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(metrics.Middleware)
	r.Use(recovery.Recover(deps.Publisher, deps.Logger))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteSuccess(w, http.StatusOK, "ok", struct{}{})
	})
	r.Handle("/metrics", promhttp.Handler())

	requireAuth := authmw.RequireAuth(deps.Verifier, deps.Logger)
	requireAdmin := authmw.RequireRole(string(domain.RoleAdmin), deps.Logger)

	r.Route("/api", func(api chi.Router) {
		newAuthHandler(deps.Auth, deps.Logger).Register(api, requireAuth)

		api.Group(func(protected chi.Router) {
			protected.Use(requireAuth)
			newUserHandler(deps.Users, deps.Logger).Register(protected, requireAdmin)
			newCourseHandler(deps.Courses, deps.Logger).Register(protected, requireAdmin)
			newEnrollmentHandler(deps.Enrollments, deps.Logger).Register(protected, requireAdmin)
			newLogHandler(deps.Logs, deps.Logger).Register(protected, requireAdmin)
		})
	})

	return r
}

// idParam parses a positive integer route parameter.
func idParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+name)
	}
	return id, nil
}
