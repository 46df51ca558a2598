// Package service manages user accounts. Accounts are never hard-deleted;
// deactivation is the only destructive operation, which keeps historical
// enrollments referentially intact.
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
	"roster/pkg/requestcontext"
)

// Store is the user slice of the entity store.
type Store interface {
	UserByID(ctx context.Context, id int) (domain.User, error)
	Users(ctx context.Context) []domain.User
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) error
	EmailTaken(ctx context.Context, email string, excludeID int) bool
}

type Hasher interface {
	Hash(plain string) (string, error)
}

type Recorder interface {
	Info(ctx context.Context, message, table string, userID int)
}

type Service struct {
	store    Store
	hasher   Hasher
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

func NewService(store Store, hasher Hasher, opts ...Option) *Service {
	s := &Service{store: store, hasher: hasher, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// List is role-scoped: admins see everyone, instructors see students,
// students see instructors. An empty result is NotFound, matching the
// listing contract elsewhere.
func (s *Service) List(ctx context.Context, actingID int) ([]domain.User, error) {
	acting, err := s.store.UserByID(ctx, actingID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
	}

	var want domain.Role
	switch acting.Role {
	case domain.RoleAdmin:
		want = "" // everyone
	case domain.RoleInstructor:
		want = domain.RoleStudent
	default:
		want = domain.RoleInstructor
	}

	var out []domain.User
	for _, user := range s.store.Users(ctx) {
		if want == "" || user.Role == want {
			out = append(out, user)
		}
	}
	if len(out) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "No users found")
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id int) (domain.User, error) {
	if id <= 0 {
		return domain.User{}, dErrors.New(dErrors.CodeInvalidInput, "invalid user id")
	}
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		return domain.User{}, dErrors.New(dErrors.CodeNotFound, "User not found")
	}
	return user, nil
}

// CreateRequest is the admin user-creation payload.
type CreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest, actingID int) (domain.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" {
		return domain.User{}, dErrors.New(dErrors.CodeInvalidInput, "name, email and password are required")
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return domain.User{}, dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.store.CreateUser(ctx, domain.User{
		Name:         name,
		Email:        email,
		Role:         role,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    requestcontext.Now(ctx),
		UpdatedBy:    actingID,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return domain.User{}, dErrors.New(dErrors.CodeConflict, "Email already registered")
		}
		return domain.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.record(ctx, fmt.Sprintf("User created: %s", email), user.ID)
	return user, nil
}

// UpdateRequest carries the mutable profile fields. Password and created-at
// are preserved from the stored record.
type UpdateRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

func (s *Service) Update(ctx context.Context, id int, req UpdateRequest, actingID int) (domain.User, error) {
	if id <= 0 {
		return domain.User{}, dErrors.New(dErrors.CodeInvalidInput, "invalid user id")
	}
	current, err := s.store.UserByID(ctx, id)
	if err != nil {
		return domain.User{}, dErrors.New(dErrors.CodeNotFound, "User not found")
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		return domain.User{}, dErrors.New(dErrors.CodeInvalidInput, "name and email are required")
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return domain.User{}, dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	if s.store.EmailTaken(ctx, email, id) {
		return domain.User{}, dErrors.New(dErrors.CodeConflict, "Email already registered")
	}

	current.Name = name
	current.Email = email
	current.Role = role
	current.Active = req.Active
	current.UpdatedAt = requestcontext.Now(ctx)
	current.UpdatedBy = actingID
	if err := s.store.UpdateUser(ctx, current); err != nil {
		return domain.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	s.record(ctx, fmt.Sprintf("User updated: %s", email), actingID)
	return current, nil
}

// Deactivate is the only "delete" for users.
func (s *Service) Deactivate(ctx context.Context, id, actingID int) error {
	return s.setActive(ctx, id, actingID, func(bool) bool { return false })
}

// ToggleActive flips the active flag.
func (s *Service) ToggleActive(ctx context.Context, id, actingID int) error {
	return s.setActive(ctx, id, actingID, func(active bool) bool { return !active })
}

func (s *Service) setActive(ctx context.Context, id, actingID int, next func(bool) bool) error {
	if id <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid user id")
	}
	current, err := s.store.UserByID(ctx, id)
	if err != nil {
		return dErrors.New(dErrors.CodeNotFound, "User not found")
	}
	current.Active = next(current.Active)
	current.UpdatedAt = requestcontext.Now(ctx)
	current.UpdatedBy = actingID
	if err := s.store.UpdateUser(ctx, current); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	state := "deactivated"
	if current.Active {
		state = "activated"
	}
	s.record(ctx, fmt.Sprintf("User %s: %s", state, current.Email), actingID)
	return nil
}

func (s *Service) record(ctx context.Context, message string, userID int) {
	if s.recorder != nil {
		s.recorder.Info(ctx, message, "Users", userID)
	}
}
