// Package service implements the enrollment engine: the one owner of the
// user-to-course relation and its derived count cache.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"roster/internal/domain"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/platform/sentinel"
	"roster/pkg/requestcontext"
)

var (
	enrollmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roster_enrollments_total",
		Help: "Successful enrollments",
	})
	unenrollmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roster_unenrollments_total",
		Help: "Successful unenrollments",
	})
)

const (
	unknownUserName    = "Unknown User"
	unknownUserEmail   = "N/A"
	defaultDescription = "No description available"
)

// Store is the slice of the entity store the engine needs. Composite
// mutations (Enroll, Unenroll) are atomic inside the store's lock.
type Store interface {
	UserByID(ctx context.Context, id int) (domain.User, error)
	CourseByID(ctx context.Context, id int) (domain.Course, error)
	Courses(ctx context.Context) []domain.Course

	Enroll(ctx context.Context, userID, courseID int, at time.Time) error
	Unenroll(ctx context.Context, userID, courseID int) error
	IsEnrolled(ctx context.Context, userID, courseID int) bool
	CourseIDsOf(ctx context.Context, userID int) []int
	EnrolledAt(ctx context.Context, userID, courseID int) (time.Time, bool)
	PairsForCourse(ctx context.Context, courseID int) map[int]time.Time
	AllEnrollments(ctx context.Context) []domain.Enrollment
	EnrollmentCount(ctx context.Context, courseID int) (int, bool)
}

// Recorder is the activity-log append surface.
type Recorder interface {
	Info(ctx context.Context, message, table string, userID int)
	Warn(ctx context.Context, message, table string, userID int)
}

// Actor identifies who is performing an operation. Authorization decisions
// use the store's current record for the actor, not the token role.
type Actor struct {
	ID   int
	Role domain.Role
}

type Service struct {
	store    Store
	recorder Recorder
	logger   *slog.Logger
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer("enrollment-service"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Enroll adds the user to the course. Duplicate enrollment is a Conflict,
// never silently accepted.
func (s *Service) Enroll(ctx context.Context, userID, courseID int, acting Actor) error {
	ctx, span := s.tracer.Start(ctx, "enrollment.enroll")
	defer span.End()

	if userID <= 0 || courseID <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid user or course id")
	}

	err := s.store.Enroll(ctx, userID, courseID, requestcontext.Now(ctx))
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "user or course not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "Already enrolled")
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "enroll failed")
	}

	enrollmentsTotal.Inc()
	s.info(ctx, fmt.Sprintf("User %d enrolled in course %d", userID, courseID), acting.ID)
	return nil
}

// Unenroll removes the target's enrollment. Only the user themselves or an
// administrator may do it; instructors get no special privilege here.
func (s *Service) Unenroll(ctx context.Context, targetID, courseID int, acting Actor) error {
	ctx, span := s.tracer.Start(ctx, "enrollment.unenroll")
	defer span.End()

	actingUser, err := s.store.UserByID(ctx, acting.ID)
	if err != nil {
		return dErrors.New(dErrors.CodeNotFound, "acting user not found")
	}
	if actingUser.Role != domain.RoleAdmin && targetID != actingUser.ID {
		s.warn(ctx, fmt.Sprintf("User %d attempted to unenroll user %d from course %d", acting.ID, targetID, courseID), acting.ID)
		return dErrors.New(dErrors.CodeForbidden, "You can only unenroll yourself")
	}

	err = s.store.Unenroll(ctx, targetID, courseID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "Enrollment not found")
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "unenroll failed")
	}

	unenrollmentsTotal.Inc()
	s.info(ctx, fmt.Sprintf("User %d unenrolled from course %d", targetID, courseID), acting.ID)
	return nil
}

// BulkResult summarizes a best-effort bulk removal.
type BulkResult struct {
	Removed int `json:"removed"`
	Skipped int `json:"skipped"`
}

// BulkRemoval unenrolls each user independently. Individual failures are
// counted, not propagated; the call succeeds regardless.
func (s *Service) BulkRemoval(ctx context.Context, userIDs []int, courseID int, acting Actor) (BulkResult, error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.bulk_removal")
	defer span.End()

	var result BulkResult
	for _, userID := range userIDs {
		if err := s.Unenroll(ctx, userID, courseID, acting); err != nil {
			result.Skipped++
			continue
		}
		result.Removed++
	}
	s.info(ctx, fmt.Sprintf("Bulk removal from course %d: %d removed, %d skipped", courseID, result.Removed, result.Skipped), acting.ID)
	return result, nil
}

// ListEnrolledForViewer is the role-scoped course view. Admins and
// instructors see every active course with its enrolled count; students see
// only the courses they are enrolled in. An empty view is NotFound.
func (s *Service) ListEnrolledForViewer(ctx context.Context, viewerID int) ([]domain.EnrolledCourse, error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.list_for_viewer")
	defer span.End()

	viewer, err := s.store.UserByID(ctx, viewerID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
	}

	var out []domain.EnrolledCourse
	switch viewer.Role {
	case domain.RoleAdmin, domain.RoleInstructor:
		for _, course := range s.store.Courses(ctx) {
			if !course.Active {
				continue
			}
			count, _ := s.store.EnrollmentCount(ctx, course.ID)
			out = append(out, s.enrolledCourse(course, count))
		}
	default:
		for _, courseID := range s.store.CourseIDsOf(ctx, viewerID) {
			course, err := s.store.CourseByID(ctx, courseID)
			if err != nil {
				continue
			}
			count, _ := s.store.EnrollmentCount(ctx, course.ID)
			out = append(out, s.enrolledCourse(course, count))
		}
	}

	if len(out) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "No courses found")
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].CourseID < out[j].CourseID
	})
	return out, nil
}

func (s *Service) enrolledCourse(course domain.Course, count int) domain.EnrolledCourse {
	description := course.Description
	if description == "" {
		description = defaultDescription
	}
	return domain.EnrolledCourse{
		CourseID:    course.ID,
		Title:       course.Title,
		Description: description,
		TotalUsers:  count,
	}
}

// CountForCourse is the O(1) cache read. A course that has never had an
// enrollment, or whose count dropped back to zero, has no cache entry and
// reports NotFound rather than zero.
func (s *Service) CountForCourse(ctx context.Context, courseID int) (int, error) {
	if courseID <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid course id")
	}
	count, ok := s.store.EnrollmentCount(ctx, courseID)
	if !ok {
		return 0, dErrors.New(dErrors.CodeNotFound, "No enrollment count for course")
	}
	return count, nil
}

// ListEnrolledUsersForCourse scans the relation for the course's members.
// Missing user records get placeholder name and email instead of failing
// the whole listing.
func (s *Service) ListEnrolledUsersForCourse(ctx context.Context, courseID int) ([]domain.EnrolledUser, error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.list_users_for_course")
	defer span.End()

	if _, err := s.store.CourseByID(ctx, courseID); err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "Course not found")
	}

	pairs := s.store.PairsForCourse(ctx, courseID)
	out := make([]domain.EnrolledUser, 0, len(pairs))
	for userID, enrolledAt := range pairs {
		row := domain.EnrolledUser{
			UserID:     userID,
			Name:       unknownUserName,
			Email:      unknownUserEmail,
			EnrolledAt: enrolledAt,
		}
		if user, err := s.store.UserByID(ctx, userID); err == nil {
			row.Name = user.Name
			row.Email = user.Email
			row.Active = user.Active
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// IsEnrolled reports membership for one (user, course) pair.
func (s *Service) IsEnrolled(ctx context.Context, userID, courseID int) (bool, error) {
	if userID <= 0 || courseID <= 0 {
		return false, dErrors.New(dErrors.CodeInvalidInput, "invalid user or course id")
	}
	return s.store.IsEnrolled(ctx, userID, courseID), nil
}

// ListAll returns the whole relation with user and course records joined in
// where they still exist. An empty relation is NotFound, matching the
// listing contract elsewhere.
func (s *Service) ListAll(ctx context.Context) ([]domain.Enrollment, error) {
	enrollments := s.store.AllEnrollments(ctx)
	if len(enrollments) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "No enrollments found")
	}
	for i := range enrollments {
		if user, err := s.store.UserByID(ctx, enrollments[i].UserID); err == nil {
			enrollments[i].User = &user
		}
		if course, err := s.store.CourseByID(ctx, enrollments[i].CourseID); err == nil {
			enrollments[i].Course = &course
		}
	}
	return enrollments, nil
}

// ListForUser returns one user's enrollments with timestamps. The relation
// is sparse: an empty set entry is removed on the last unenroll, so a nil
// course list means the user has no entry at all and reports NotFound.
func (s *Service) ListForUser(ctx context.Context, userID int) ([]domain.Enrollment, error) {
	courseIDs := s.store.CourseIDsOf(ctx, userID)
	if len(courseIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "No enrollments found for this user")
	}
	out := make([]domain.Enrollment, 0, len(courseIDs))
	for _, courseID := range courseIDs {
		enrolledAt, _ := s.store.EnrolledAt(ctx, userID, courseID)
		e := domain.Enrollment{UserID: userID, CourseID: courseID, EnrolledAt: enrolledAt}
		if course, err := s.store.CourseByID(ctx, courseID); err == nil {
			e.Course = &course
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out, nil
}

func (s *Service) info(ctx context.Context, message string, userID int) {
	if s.recorder != nil {
		s.recorder.Info(ctx, message, "Enrollments", userID)
	}
}

func (s *Service) warn(ctx context.Context, message string, userID int) {
	if s.recorder != nil {
		s.recorder.Warn(ctx, message, "Enrollments", userID)
	}
}
