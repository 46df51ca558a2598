// Package service manages the course catalog. Courses, unlike users, are
// hard-deleted; the store cascades the deletion to that course's
// enrollments so the relation cannot dangle.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"roster/internal/domain"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/platform/sentinel"
)

// Store is the course slice of the entity store.
type Store interface {
	CourseByID(ctx context.Context, id int) (domain.Course, error)
	Courses(ctx context.Context) []domain.Course
	CreateCourse(ctx context.Context, course domain.Course) (domain.Course, error)
	UpdateCourse(ctx context.Context, course domain.Course) error
	DeleteCourse(ctx context.Context, id int) error
	TitleTaken(ctx context.Context, title string, excludeID int) bool
}

type Recorder interface {
	Info(ctx context.Context, message, table string, userID int)
}

type Service struct {
	store    Store
	recorder Recorder
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]domain.Course, error) {
	courses := s.store.Courses(ctx)
	if len(courses) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "No courses found")
	}
	return courses, nil
}

func (s *Service) GetByID(ctx context.Context, id int) (domain.Course, error) {
	if id <= 0 {
		return domain.Course{}, dErrors.New(dErrors.CodeInvalidInput, "invalid course id")
	}
	course, err := s.store.CourseByID(ctx, id)
	if err != nil {
		return domain.Course{}, dErrors.New(dErrors.CodeNotFound, "Course not found")
	}
	return course, nil
}

// CreateRequest is the course creation payload.
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest, actingID int) (domain.Course, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Course{}, dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}

	course, err := s.store.CreateCourse(ctx, domain.Course{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Active:      req.Active,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return domain.Course{}, dErrors.New(dErrors.CodeConflict, "Course title already exists")
		}
		return domain.Course{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create course")
	}

	s.record(ctx, fmt.Sprintf("Course created: %s", title), actingID)
	return course, nil
}

func (s *Service) Update(ctx context.Context, id int, req CreateRequest, actingID int) (domain.Course, error) {
	if id <= 0 {
		return domain.Course{}, dErrors.New(dErrors.CodeInvalidInput, "invalid course id")
	}
	current, err := s.store.CourseByID(ctx, id)
	if err != nil {
		return domain.Course{}, dErrors.New(dErrors.CodeNotFound, "Course not found")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Course{}, dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	if s.store.TitleTaken(ctx, title, id) {
		return domain.Course{}, dErrors.New(dErrors.CodeConflict, "Course title already exists")
	}

	current.Title = title
	current.Description = strings.TrimSpace(req.Description)
	current.Active = req.Active
	if err := s.store.UpdateCourse(ctx, current); err != nil {
		return domain.Course{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update course")
	}

	s.record(ctx, fmt.Sprintf("Course updated: %s", title), actingID)
	return current, nil
}

// Delete removes the course and, through the store, every enrollment in it.
func (s *Service) Delete(ctx context.Context, id, actingID int) error {
	if id <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid course id")
	}
	if err := s.store.DeleteCourse(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "Course not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete course")
	}

	s.record(ctx, fmt.Sprintf("Course deleted: %d", id), actingID)
	return nil
}

func (s *Service) record(ctx context.Context, message string, userID int) {
	if s.recorder != nil {
		s.recorder.Info(ctx, message, "Courses", userID)
	}
}
