package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	tokencache "roster/internal/auth/store/token-cache"
	"roster/internal/domain"
	"roster/internal/identity/secrets"
	jwttoken "roster/internal/jwt_token"
	"roster/internal/store"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/requestcontext"
)

type AuthServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.Memory
	cache   *tokencache.InMemoryCache
	service *Service
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewMemory()
	s.cache = tokencache.NewInMemoryCache()

	hasher := secrets.Bcrypt{}
	hash, err := hasher.Hash("student123")
	s.Require().NoError(err)
	s.store.SaveUser(s.ctx, domain.User{
		ID: 2, Name: "Student User", Email: "student@school.edu",
		Role: domain.RoleStudent, Active: true, PasswordHash: hash,
	})
	s.store.SaveUser(s.ctx, domain.User{
		ID: 9, Name: "Former Student", Email: "gone@school.edu",
		Role: domain.RoleStudent, Active: false, PasswordHash: hash,
	})

	s.service = NewService(
		s.store,
		hasher,
		jwttoken.NewJWTService("test-key", "roster", "roster-api"),
		WithCache(s.cache, time.Minute),
	)
}

func (s *AuthServiceSuite) TestLoginSuccess() {
	result, err := s.service.Login(s.ctx, "  Student@School.EDU ", "student123")
	s.Require().NoError(err)
	s.NotEmpty(result.Token)
	s.Equal(2, result.Identity.UserID)
	s.Equal(domain.RoleStudent, result.Identity.Role)
	s.WithinDuration(time.Now().Add(7*24*time.Hour), result.ExpiresAt, time.Minute)
}

func (s *AuthServiceSuite) TestLoginExpiryUsesClock() {
	at := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(
		s.store,
		secrets.Bcrypt{},
		jwttoken.NewJWTService("test-key", "roster", "roster-api"),
		WithClock(func() time.Time { return at }),
		WithTokenTTL(time.Hour),
	)

	result, err := svc.Login(s.ctx, "student@school.edu", "student123")
	s.Require().NoError(err)
	s.Equal(at.Add(time.Hour), result.ExpiresAt)
}

func (s *AuthServiceSuite) TestLoginUnknownAccountGenericMessage() {
	_, err := s.service.Login(s.ctx, "nobody@school.edu", "whatever")
	s.Require().ErrorIs(err, dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials"))
}

func (s *AuthServiceSuite) TestLoginWrongPasswordGenericMessage() {
	_, err := s.service.Login(s.ctx, "student@school.edu", "wrong")
	s.Require().ErrorIs(err, dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials"))
}

func (s *AuthServiceSuite) TestLoginDisabledAccountDistinctMessage() {
	_, err := s.service.Login(s.ctx, "gone@school.edu", "student123")
	s.Require().ErrorIs(err, dErrors.New(dErrors.CodeUnauthorized, "Account is disabled. Contact administrator."))
}

func (s *AuthServiceSuite) TestRegisterDefaultsToStudent() {
	result, err := s.service.Register(s.ctx, RegisterRequest{
		Name: "New Person", Email: "NEW@School.edu", Password: "secret1",
	})
	s.Require().NoError(err)
	s.Equal(domain.RoleStudent, result.Identity.Role)
	s.NotEmpty(result.Token)

	stored, err := s.store.UserByEmail(s.ctx, "new@school.edu")
	s.Require().NoError(err)
	s.True(stored.Active)
	s.NotEqual("secret1", stored.PasswordHash)
}

func (s *AuthServiceSuite) TestRegisterDuplicateEmailConflict() {
	_, err := s.service.Register(s.ctx, RegisterRequest{
		Name: "Dup", Email: "student@school.edu", Password: "secret1",
	})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *AuthServiceSuite) TestRegisterValidation() {
	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing name", RegisterRequest{Email: "a@b.c", Password: "x"}},
		{"missing email", RegisterRequest{Name: "A", Password: "x"}},
		{"missing password", RegisterRequest{Name: "A", Email: "a@b.c"}},
		{"bad role", RegisterRequest{Name: "A", Email: "a@b.c", Password: "x", Role: "superuser"}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Register(s.ctx, tc.req)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func (s *AuthServiceSuite) TestVerifyFreshToken() {
	result, err := s.service.Login(s.ctx, "student@school.edu", "student123")
	s.Require().NoError(err)

	identity, err := s.service.Verify(s.ctx, result.Token)
	s.Require().NoError(err)
	s.Equal(2, identity.UserID)
	s.Equal("Student User", identity.Name)
	s.NotEmpty(identity.JTI)
	s.NotEmpty(identity.Claims)
}

func (s *AuthServiceSuite) TestVerifyReflectsCurrentStoreValues() {
	result, err := s.service.Login(s.ctx, "student@school.edu", "student123")
	s.Require().NoError(err)

	user, err := s.store.UserByID(s.ctx, 2)
	s.Require().NoError(err)
	user.Name = "Renamed User"
	user.Role = domain.RoleInstructor
	s.Require().NoError(s.store.UpdateUser(s.ctx, user))

	identity, err := s.service.Verify(s.ctx, result.Token)
	s.Require().NoError(err)
	s.Equal("Renamed User", identity.Name)
	s.Equal(domain.RoleInstructor, identity.Role)
}

func (s *AuthServiceSuite) TestVerifyFailsAfterDeactivation() {
	result, err := s.service.Login(s.ctx, "student@school.edu", "student123")
	s.Require().NoError(err)

	_, err = s.service.Verify(s.ctx, result.Token)
	s.Require().NoError(err)

	user, err := s.store.UserByID(s.ctx, 2)
	s.Require().NoError(err)
	user.Active = false
	s.Require().NoError(s.store.UpdateUser(s.ctx, user))

	_, err = s.service.Verify(s.ctx, result.Token)
	s.Require().ErrorIs(err, dErrors.New(dErrors.CodeUnauthorized, "Account is disabled. Contact administrator."))
}

func (s *AuthServiceSuite) TestVerifyPurgesCacheOnFailure() {
	result, err := s.service.Login(s.ctx, "student@school.edu", "student123")
	s.Require().NoError(err)

	_, err = s.service.Verify(s.ctx, result.Token)
	s.Require().NoError(err)
	_, ok := s.service.CachedIdentity(s.ctx, result.Token)
	s.Require().True(ok)

	user, err := s.store.UserByID(s.ctx, 2)
	s.Require().NoError(err)
	user.Active = false
	s.Require().NoError(s.store.UpdateUser(s.ctx, user))

	_, err = s.service.Verify(s.ctx, result.Token)
	s.Require().Error(err)

	_, ok = s.service.CachedIdentity(s.ctx, result.Token)
	s.False(ok)
}

func (s *AuthServiceSuite) TestVerifyRejectsTokenInsideRefreshThreshold() {
	result, err := s.service.Login(s.ctx, "student@school.edu", "student123")
	s.Require().NoError(err)

	// jump to 3 minutes before expiry; phase 1 must reject locally
	nearExpiry := time.Now().Add(7*24*time.Hour - 3*time.Minute)
	ctx := requestcontext.WithTime(s.ctx, nearExpiry)

	_, err = s.service.Verify(ctx, result.Token)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestVerifyFailsClosedOnCancelledContext() {
	result, err := s.service.Login(s.ctx, "student@school.edu", "student123")
	s.Require().NoError(err)

	cancelled, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err = s.service.Verify(cancelled, result.Token)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestVerifyRejectsForgedSignature() {
	forged := jwttoken.NewJWTService("other-key", "roster", "roster-api")
	token, err := forged.GenerateAccessToken(domain.User{
		ID: 2, Name: "Student User", Email: "student@school.edu", Role: domain.RoleStudent,
	}, time.Hour)
	s.Require().NoError(err)

	_, err = s.service.Verify(s.ctx, token)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestCachedIdentityHonorsThreshold() {
	result, err := s.service.Login(s.ctx, "student@school.edu", "student123")
	s.Require().NoError(err)

	_, err = s.service.Verify(s.ctx, result.Token)
	s.Require().NoError(err)

	nearExpiry := time.Now().Add(7*24*time.Hour - time.Minute)
	ctx := requestcontext.WithTime(s.ctx, nearExpiry)
	_, ok := s.service.CachedIdentity(ctx, result.Token)
	s.False(ok)
}

func (s *AuthServiceSuite) TestVerifyGarbage() {
	for _, token := range []string{"", "abc", "a.b.c"} {
		_, err := s.service.Verify(s.ctx, token)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	}
}
