// Package service implements the token lifecycle: credential login, account
// registration and two-phase token verification.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"roster/internal/auth/models"
	"roster/internal/domain"
	jwttoken "roster/internal/jwt_token"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/platform/sentinel"
)

var (
	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_logins_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roster_registrations_total",
		Help: "Accounts created through registration",
	})
	verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_token_verifications_total",
		Help: "Token verifications by outcome",
	}, []string{"outcome"})
)

// UserStore is the slice of the entity store the token service needs.
type UserStore interface {
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserByID(ctx context.Context, id int) (domain.User, error)
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
}

// Hasher verifies and produces password hashes.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) error
}

// TokenCache holds last-good verified identities keyed by JTI.
type TokenCache interface {
	Put(ctx context.Context, jti string, identity models.Identity, ttl time.Duration) error
	Get(ctx context.Context, jti string) (models.Identity, bool, error)
	Purge(ctx context.Context, jti string) error
}

// Recorder is the activity-log append surface.
type Recorder interface {
	Info(ctx context.Context, message, table string, userID int)
	Warn(ctx context.Context, message, table string, userID int)
}

type Service struct {
	users            UserStore
	hasher           Hasher
	tokens           *jwttoken.JWTService
	cache            TokenCache
	recorder         Recorder
	logger           *slog.Logger
	tracer           trace.Tracer
	tokenTTL         time.Duration
	refreshThreshold time.Duration
	cacheTTL         time.Duration
	now              func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithCache(cache TokenCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

// WithClock overrides the issuance time source used for expiry stamps and
// account creation times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.tokenTTL = ttl }
}

func WithRefreshThreshold(threshold time.Duration) Option {
	return func(s *Service) { s.refreshThreshold = threshold }
}

const (
	defaultTokenTTL         = 7 * 24 * time.Hour
	defaultRefreshThreshold = 5 * time.Minute
)

func NewService(users UserStore, hasher Hasher, tokens *jwttoken.JWTService, opts ...Option) *Service {
	s := &Service{
		users:            users,
		hasher:           hasher,
		tokens:           tokens,
		logger:           slog.Default(),
		tracer:           otel.Tracer("auth-service"),
		tokenTTL:         defaultTokenTTL,
		refreshThreshold: defaultRefreshThreshold,
		now:              func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// LoginResult pairs the signed token with a denormalized identity summary.
type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Identity  models.Identity `json:"user"`
}

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials")
var errAccountDisabled = dErrors.New(dErrors.CodeUnauthorized, "Account is disabled. Contact administrator.")

// Login checks the credentials and mints a token. Unknown accounts and wrong
// passwords share one generic message; inactive accounts get a distinct one.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.login")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		loginsTotal.WithLabelValues("failure").Inc()
		s.warn(ctx, "Failed login attempt for email: "+email, "Auth", 0)
		return LoginResult{}, errInvalidCredentials
	}
	if !user.Active {
		loginsTotal.WithLabelValues("failure").Inc()
		s.warn(ctx, "Login attempt on disabled account: "+email, "Auth", user.ID)
		return LoginResult{}, errAccountDisabled
	}
	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		loginsTotal.WithLabelValues("failure").Inc()
		s.warn(ctx, "Failed login attempt for email: "+email, "Auth", user.ID)
		return LoginResult{}, errInvalidCredentials
	}

	result, err := s.issue(ctx, user)
	if err != nil {
		loginsTotal.WithLabelValues("failure").Inc()
		return LoginResult{}, err
	}
	loginsTotal.WithLabelValues("success").Inc()
	s.info(ctx, "User logged in: "+email, "Auth", user.ID)
	return result, nil
}

// RegisterRequest carries the self-registration payload. Role defaults to
// student when absent.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Register creates the account and logs it straight in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.register")
	defer span.End()

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" {
		return LoginResult{}, dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if email == "" {
		return LoginResult{}, dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	if req.Password == "" {
		return LoginResult{}, dErrors.New(dErrors.CodeInvalidInput, "password is required")
	}
	role := domain.RoleStudent
	if req.Role != "" {
		parsed, ok := domain.ParseRole(req.Role)
		if !ok {
			return LoginResult{}, dErrors.New(dErrors.CodeInvalidInput, "invalid role")
		}
		role = parsed
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return LoginResult{}, err
	}
	user, err := s.users.CreateUser(ctx, domain.User{
		Name:         name,
		Email:        email,
		Role:         role,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return LoginResult{}, dErrors.New(dErrors.CodeConflict, "Email already registered")
		}
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	registrationsTotal.Inc()
	s.info(ctx, "User registered: "+email, "Users", user.ID)

	result, err := s.issue(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}
	return result, nil
}

func (s *Service) issue(ctx context.Context, user domain.User) (LoginResult, error) {
	token, err := s.tokens.GenerateAccessToken(user, s.tokenTTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "token signing failed", slog.Any("error", err))
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return LoginResult{
		Token:     token,
		ExpiresAt: s.now().Add(s.tokenTTL),
		Identity: models.Identity{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Role:   user.Role,
			Active: user.Active,
		},
	}, nil
}

func (s *Service) info(ctx context.Context, message, table string, userID int) {
	if s.recorder != nil {
		s.recorder.Info(ctx, message, table, userID)
	}
}

func (s *Service) warn(ctx context.Context, message, table string, userID int) {
	if s.recorder != nil {
		s.recorder.Warn(ctx, message, table, userID)
	}
}

