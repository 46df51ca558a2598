package store

import (
	"context"
	"time"

	"roster/internal/domain"
)

// Hasher abstracts the credential hashing capability so seeding does not
// depend on a concrete implementation.
type Hasher interface {
	Hash(plain string) (string, error)
}

// Seed loads the development dataset: five courses, four users (passwords
// equal to their names) and a handful of back-dated enrollments. Not for
// production use.
func Seed(ctx context.Context, s *Memory, hasher Hasher) error {
	now := time.Now().UTC()

	courses := []domain.Course{
		{ID: 1, Title: "C# Advanced", Description: "Deep dive into C#", Active: true},
		{ID: 2, Title: "Blazor Mastery", Description: "Build SPAs with Blazor", Active: true},
		{ID: 3, Title: "Clean Architecture", Description: "Scalable .NET patterns", Active: true},
		{ID: 4, Title: "Minimal APIs", Description: "Build APIs in 10 lines", Active: true},
		{ID: 5, Title: "Performance .NET", Description: "Zero allocations & unsafe code", Active: true},
	}
	for _, c := range courses {
		s.SaveCourse(ctx, c)
	}

	users := []struct {
		user     domain.User
		password string
	}{
		{domain.User{ID: 1, Name: "admin", Email: "admin@gmail.com", Role: domain.RoleAdmin, Active: true, CreatedAt: now, UpdatedBy: 1}, "admin"},
		{domain.User{ID: 2, Name: "admin1", Email: "admin1@gmail.com", Role: domain.RoleAdmin, Active: true, CreatedAt: now, UpdatedBy: 1}, "admin1"},
		{domain.User{ID: 3, Name: "student", Email: "student@gmail.com", Role: domain.RoleStudent, Active: true, CreatedAt: now, UpdatedBy: 1}, "student"},
		{domain.User{ID: 4, Name: "teacher", Email: "teacher@example.com", Role: domain.RoleInstructor, Active: true, CreatedAt: now, UpdatedBy: 1}, "teacher"},
	}
	for _, u := range users {
		hash, err := hasher.Hash(u.password)
		if err != nil {
			return err
		}
		u.user.PasswordHash = hash
		s.SaveUser(ctx, u.user)
	}

	enrollments := []struct {
		userID, courseID int
		daysAgo          int
	}{
		{2, 1, 30}, {2, 3, 25}, {2, 5, 10},
		{3, 2, 20}, {3, 4, 15},
		{4, 1, 40},
	}
	for _, e := range enrollments {
		if err := s.Enroll(ctx, e.userID, e.courseID, now.AddDate(0, 0, -e.daysAgo)); err != nil {
			return err
		}
	}
	return nil
}
