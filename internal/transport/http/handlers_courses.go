package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	catalogservice "roster/internal/catalog/service"
	"roster/internal/domain"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/platform/httputil"
	"roster/pkg/requestcontext"
)

type CourseService interface {
	List(ctx context.Context) ([]domain.Course, error)
	GetByID(ctx context.Context, id int) (domain.Course, error)
	Create(ctx context.Context, req catalogservice.CreateRequest, actingID int) (domain.Course, error)
	Update(ctx context.Context, id int, req catalogservice.CreateRequest, actingID int) (domain.Course, error)
	Delete(ctx context.Context, id, actingID int) error
}

type courseHandler struct {
	courses CourseService
	logger  *slog.Logger
}

func newCourseHandler(courses CourseService, logger *slog.Logger) *courseHandler {
	return &courseHandler{courses: courses, logger: logger}
}

func (h *courseHandler) Register(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/courses", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.With(requireAdmin).Post("/", h.handleCreate)
		r.With(requireAdmin).Put("/{id}", h.handleUpdate)
		r.With(requireAdmin).Delete("/{id}", h.handleDelete)
	})
}

func (h *courseHandler) handleList(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Courses retrieved", courses)
}

func (h *courseHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	course, err := h.courses.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Course retrieved", course)
}

func (h *courseHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req catalogservice.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	course, err := h.courses.Create(r.Context(), req, requestcontext.UserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, "Course created", course)
}

func (h *courseHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req catalogservice.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	course, err := h.courses.Update(r.Context(), id, req, requestcontext.UserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Course updated", course)
}

func (h *courseHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.courses.Delete(r.Context(), id, requestcontext.UserID(r.Context())); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Course deleted", struct{}{})
}
