package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authModels "roster/internal/auth/models"
	authservice "roster/internal/auth/service"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/platform/httputil"
)

// AuthService is the token-lifecycle surface the handler needs.
type AuthService interface {
	Login(ctx context.Context, email, password string) (authservice.LoginResult, error)
	Register(ctx context.Context, req authservice.RegisterRequest) (authservice.LoginResult, error)
	Verify(ctx context.Context, token string) (authModels.Identity, error)
}

type authHandler struct {
	auth   AuthService
	logger *slog.Logger
}

func newAuthHandler(auth AuthService, logger *slog.Logger) *authHandler {
	return &authHandler{auth: auth, logger: logger}
}

func (h *authHandler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/register", h.handleRegister)
		r.With(requireAuth).Get("/validate", h.handleValidate)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *authHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Login successful", result)
}

func (h *authHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authservice.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.auth.Register(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, "Registration successful", result)
}

// handleValidate re-verifies the presented token and returns the current
// identity. RequireAuth has already run, so this is the caller asking for a
// fresh authoritative answer rather than the cached one.
func (h *authHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	identity, err := h.auth.Verify(r.Context(), token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Token is valid", identity)
}
