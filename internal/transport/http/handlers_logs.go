package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"roster/internal/domain"
	"roster/pkg/platform/httputil"
	"roster/pkg/requestcontext"
)

type LogService interface {
	List(ctx context.Context) []domain.LogEntry
	Get(ctx context.Context, id int) (domain.LogEntry, error)
	Clear(ctx context.Context, actingUserID int) int
}

type logHandler struct {
	logs   LogService
	logger *slog.Logger
}

func newLogHandler(logs LogService, logger *slog.Logger) *logHandler {
	return &logHandler{logs: logs, logger: logger}
}

func (h *logHandler) Register(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/logs", func(r chi.Router) {
		r.Use(requireAdmin)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Delete("/", h.handleClear)
	})
}

func (h *logHandler) handleList(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, "Logs retrieved", h.logs.List(r.Context()))
}

func (h *logHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entry, err := h.logs.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Log retrieved", entry)
}

func (h *logHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	removed := h.logs.Clear(r.Context(), requestcontext.UserID(r.Context()))
	httputil.WriteSuccess(w, http.StatusOK, "Logs cleared", map[string]int{"removed": removed})
}
