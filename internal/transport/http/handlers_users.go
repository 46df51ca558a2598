package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"roster/internal/domain"
	identityservice "roster/internal/identity/service"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/platform/httputil"
	"roster/pkg/requestcontext"
)

type UserService interface {
	List(ctx context.Context, actingID int) ([]domain.User, error)
	GetByID(ctx context.Context, id int) (domain.User, error)
	Create(ctx context.Context, req identityservice.CreateRequest, actingID int) (domain.User, error)
	Update(ctx context.Context, id int, req identityservice.UpdateRequest, actingID int) (domain.User, error)
	Deactivate(ctx context.Context, id, actingID int) error
	ToggleActive(ctx context.Context, id, actingID int) error
}

type userHandler struct {
	users  UserService
	logger *slog.Logger
}

func newUserHandler(users UserService, logger *slog.Logger) *userHandler {
	return &userHandler{users: users, logger: logger}
}

func (h *userHandler) Register(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.With(requireAdmin).Post("/", h.handleCreate)
		r.With(requireAdmin).Put("/{id}", h.handleUpdate)
		r.With(requireAdmin).Delete("/{id}", h.handleDeactivate)
		r.With(requireAdmin).Patch("/{id}/active", h.handleToggleActive)
	})
}

func (h *userHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Users retrieved", users)
}

func (h *userHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "User retrieved", user)
}

func (h *userHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req identityservice.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	user, err := h.users.Create(r.Context(), req, requestcontext.UserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, "User created", user)
}

func (h *userHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req identityservice.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	user, err := h.users.Update(r.Context(), id, req, requestcontext.UserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "User updated", user)
}

func (h *userHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.users.Deactivate(r.Context(), id, requestcontext.UserID(r.Context())); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "User deactivated", struct{}{})
}

func (h *userHandler) handleToggleActive(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.users.ToggleActive(r.Context(), id, requestcontext.UserID(r.Context())); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "User status updated", struct{}{})
}
