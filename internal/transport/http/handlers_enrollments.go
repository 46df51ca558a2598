package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"roster/internal/domain"
	enrollservice "roster/internal/enrollment/service"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/platform/httputil"
	"roster/pkg/requestcontext"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, userID, courseID int, acting enrollservice.Actor) error
	Unenroll(ctx context.Context, targetID, courseID int, acting enrollservice.Actor) error
	BulkRemoval(ctx context.Context, userIDs []int, courseID int, acting enrollservice.Actor) (enrollservice.BulkResult, error)
	ListEnrolledForViewer(ctx context.Context, viewerID int) ([]domain.EnrolledCourse, error)
	CountForCourse(ctx context.Context, courseID int) (int, error)
	ListEnrolledUsersForCourse(ctx context.Context, courseID int) ([]domain.EnrolledUser, error)
	IsEnrolled(ctx context.Context, userID, courseID int) (bool, error)
	ListAll(ctx context.Context) ([]domain.Enrollment, error)
	ListForUser(ctx context.Context, userID int) ([]domain.Enrollment, error)
}

type enrollmentHandler struct {
	enrollments EnrollmentService
	logger      *slog.Logger
}

func newEnrollmentHandler(enrollments EnrollmentService, logger *slog.Logger) *enrollmentHandler {
	return &enrollmentHandler{enrollments: enrollments, logger: logger}
}

func (h *enrollmentHandler) Register(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/enrollments", func(r chi.Router) {
		r.Get("/", h.handleListAll)
		r.Get("/user/{id}", h.handleListForUser)
		r.Get("/courses", h.handleListForViewer)
		r.Get("/count/{courseId}", h.handleCount)
		r.Get("/course/{courseId}/users", h.handleUsersForCourse)
		r.Get("/check/{userId}/{courseId}", h.handleCheck)
		r.Post("/{userId}/{courseId}", h.handleEnroll)
		r.Delete("/{userId}/{courseId}", h.handleUnenroll)
		r.With(requireAdmin).Post("/bulk-removal", h.handleBulkRemoval)
	})
}

func actor(ctx context.Context) enrollservice.Actor {
	return enrollservice.Actor{
		ID:   requestcontext.UserID(ctx),
		Role: domain.Role(requestcontext.Role(ctx)),
	}
}

func (h *enrollmentHandler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	courseID, err := idParam(r, "courseId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.enrollments.Enroll(r.Context(), userID, courseID, actor(r.Context())); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, "Enrolled successfully", struct{}{})
}

func (h *enrollmentHandler) handleUnenroll(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	courseID, err := idParam(r, "courseId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.enrollments.Unenroll(r.Context(), userID, courseID, actor(r.Context())); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Unenrolled successfully", struct{}{})
}

type bulkRemovalRequest struct {
	UserIDs  []int `json:"userIds"`
	CourseID int   `json:"courseId"`
}

func (h *enrollmentHandler) handleBulkRemoval(w http.ResponseWriter, r *http.Request) {
	var req bulkRemovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	result, err := h.enrollments.BulkRemoval(r.Context(), req.UserIDs, req.CourseID, actor(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Bulk removal completed", result)
}

func (h *enrollmentHandler) handleListForViewer(w http.ResponseWriter, r *http.Request) {
	courses, err := h.enrollments.ListEnrolledForViewer(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Courses retrieved", courses)
}

func (h *enrollmentHandler) handleCount(w http.ResponseWriter, r *http.Request) {
	courseID, err := idParam(r, "courseId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	count, err := h.enrollments.CountForCourse(r.Context(), courseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Enrollment count retrieved", map[string]int{"count": count})
}

func (h *enrollmentHandler) handleUsersForCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := idParam(r, "courseId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	users, err := h.enrollments.ListEnrolledUsersForCourse(r.Context(), courseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Enrolled users retrieved", users)
}

func (h *enrollmentHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	courseID, err := idParam(r, "courseId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	enrolled, err := h.enrollments.IsEnrolled(r.Context(), userID, courseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Enrollment status retrieved", map[string]bool{"enrolled": enrolled})
}

func (h *enrollmentHandler) handleListAll(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.enrollments.ListAll(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Enrollments retrieved", enrollments)
}

func (h *enrollmentHandler) handleListForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	enrollments, err := h.enrollments.ListForUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Enrollments retrieved", enrollments)
}
