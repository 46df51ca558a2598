package store

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"roster/internal/domain"
	"roster/pkg/platform/sentinel"
)

type MemorySuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
}

func (s *MemorySuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func TestMemorySuite(t *testing.T) {
	suite.Run(t, new(MemorySuite))
}

func (s *MemorySuite) addUser(id int, name string) {
	s.store.SaveUser(s.ctx, domain.User{
		ID: id, Name: name, Email: name + "@example.com",
		Role: domain.RoleStudent, Active: true, CreatedAt: time.Now(),
	})
}

func (s *MemorySuite) addCourse(id int, title string) {
	s.store.SaveCourse(s.ctx, domain.Course{ID: id, Title: title, Active: true})
}

func (s *MemorySuite) TestUserLookup() {
	s.Run("finds by id", func() {
		s.addUser(1, "jane")
		user, err := s.store.UserByID(s.ctx, 1)
		s.Require().NoError(err)
		s.Equal("jane", user.Name)
	})

	s.Run("email match is case-insensitive", func() {
		s.addUser(2, "Bob")
		user, err := s.store.UserByEmail(s.ctx, "BOB@EXAMPLE.COM")
		s.Require().NoError(err)
		s.Equal(2, user.ID)
	})

	s.Run("missing id returns ErrNotFound", func() {
		_, err := s.store.UserByID(s.ctx, 99)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemorySuite) TestNextIDAllocation() {
	s.Run("empty store starts at 1", func() {
		s.Equal(1, s.store.NextUserID(s.ctx))
		s.Equal(1, s.store.NextCourseID(s.ctx))
	})

	s.Run("is max key plus one, not count plus one", func() {
		s.addUser(7, "gap")
		s.Equal(8, s.store.NextUserID(s.ctx))
	})

	s.Run("create allocates and detects duplicate email", func() {
		created, err := s.store.CreateUser(s.ctx, domain.User{Name: "x", Email: "x@example.com"})
		s.Require().NoError(err)
		s.Equal(1, created.ID)

		_, err = s.store.CreateUser(s.ctx, domain.User{Name: "x2", Email: "X@Example.Com"})
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *MemorySuite) TestCreateCourseTitleConflict() {
	_, err := s.store.CreateCourse(s.ctx, domain.Course{Title: "Intro", Active: true})
	s.Require().NoError(err)
	_, err = s.store.CreateCourse(s.ctx, domain.Course{Title: "intro", Active: true})
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *MemorySuite) TestEnrollUnenroll() {
	now := time.Now().UTC()
	s.addUser(5, "five")
	s.addUser(6, "six")
	s.addCourse(1, "Intro")
	s.addCourse(2, "Adv")

	s.Run("enroll requires both sides to exist", func() {
		s.Require().ErrorIs(s.store.Enroll(s.ctx, 99, 1, now), sentinel.ErrNotFound)
		s.Require().ErrorIs(s.store.Enroll(s.ctx, 5, 99, now), sentinel.ErrNotFound)
	})

	s.Run("counts follow the scenario", func() {
		s.Require().NoError(s.store.Enroll(s.ctx, 5, 1, now))
		count, ok := s.store.EnrollmentCount(s.ctx, 1)
		s.True(ok)
		s.Equal(1, count)

		s.Require().NoError(s.store.Enroll(s.ctx, 6, 1, now))
		count, _ = s.store.EnrollmentCount(s.ctx, 1)
		s.Equal(2, count)

		s.Require().NoError(s.store.Unenroll(s.ctx, 5, 1))
		count, _ = s.store.EnrollmentCount(s.ctx, 1)
		s.Equal(1, count)

		// user 5 had no other courses, so the set entry is gone entirely
		s.Nil(s.store.CourseIDsOf(s.ctx, 5))
	})

	s.Run("repeat enroll conflicts", func() {
		s.Require().ErrorIs(s.store.Enroll(s.ctx, 6, 1, now), sentinel.ErrConflict)
	})

	s.Run("unenroll of a missing pair is not found", func() {
		s.Require().ErrorIs(s.store.Unenroll(s.ctx, 6, 2), sentinel.ErrNotFound)
	})

	s.Run("cache entry disappears at zero", func() {
		s.Require().NoError(s.store.Unenroll(s.ctx, 6, 1))
		_, ok := s.store.EnrollmentCount(s.ctx, 1)
		s.False(ok)
	})
}

func (s *MemorySuite) TestReEnrollResetsTimestamp() {
	s.addUser(1, "a")
	s.addCourse(1, "Intro")

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Enroll(s.ctx, 1, 1, first))
	at, ok := s.store.EnrolledAt(s.ctx, 1, 1)
	s.True(ok)
	s.Equal(first, at)

	s.Require().NoError(s.store.Unenroll(s.ctx, 1, 1))
	_, ok = s.store.EnrolledAt(s.ctx, 1, 1)
	s.False(ok, "round trip must not resurrect the old timestamp")

	s.Require().NoError(s.store.Enroll(s.ctx, 1, 1, second))
	at, _ = s.store.EnrolledAt(s.ctx, 1, 1)
	s.Equal(second, at)
}

func (s *MemorySuite) TestDeleteCourseCascades() {
	s.addUser(1, "a")
	s.addUser(2, "b")
	s.addCourse(1, "Intro")
	s.addCourse(2, "Adv")
	now := time.Now()
	s.Require().NoError(s.store.Enroll(s.ctx, 1, 1, now))
	s.Require().NoError(s.store.Enroll(s.ctx, 1, 2, now))
	s.Require().NoError(s.store.Enroll(s.ctx, 2, 1, now))

	s.Require().NoError(s.store.DeleteCourse(s.ctx, 1))

	s.Equal([]int{2}, s.store.CourseIDsOf(s.ctx, 1))
	s.Nil(s.store.CourseIDsOf(s.ctx, 2), "user 2 only had the deleted course")
	_, ok := s.store.EnrollmentCount(s.ctx, 1)
	s.False(ok)
	_, ok = s.store.EnrolledAt(s.ctx, 2, 1)
	s.False(ok)
	s.Zero(s.store.ReconcileCounts(s.ctx), "cascade must leave the cache consistent")
}

// TestRandomizedInvariants drives a random interleaving of enrolls and
// unenrolls and checks after every step that the set and the pair map agree
// and that the cache matches a scan of the relation.
func (s *MemorySuite) TestRandomizedInvariants() {
	const users, courses, steps = 8, 6, 500
	rng := rand.New(rand.NewSource(42))

	for u := 1; u <= users; u++ {
		s.addUser(u, "u")
	}
	for c := 1; c <= courses; c++ {
		s.addCourse(c, "c"+string(rune('A'+c)))
	}

	for i := 0; i < steps; i++ {
		userID := rng.Intn(users) + 1
		courseID := rng.Intn(courses) + 1
		if rng.Intn(2) == 0 {
			err := s.store.Enroll(s.ctx, userID, courseID, time.Now())
			if s.store.IsEnrolled(s.ctx, userID, courseID) {
				// either it just succeeded or it already existed
				s.True(err == nil || errors.Is(err, sentinel.ErrConflict))
			}
		} else {
			_ = s.store.Unenroll(s.ctx, userID, courseID)
		}

		// set membership <=> pair-map membership
		for u := 1; u <= users; u++ {
			ids := s.store.CourseIDsOf(s.ctx, u)
			inSet := make(map[int]bool, len(ids))
			for _, c := range ids {
				inSet[c] = true
			}
			for c := 1; c <= courses; c++ {
				_, inPairs := s.store.EnrolledAt(s.ctx, u, c)
				s.Require().Equal(inSet[c], inPairs,
					"set and pair map drifted for user %d course %d at step %d", u, c, i)
			}
		}

		// cache count == relation scan for every course
		for c := 1; c <= courses; c++ {
			scan := s.store.TotalEnrolled(s.ctx, c)
			cached, ok := s.store.EnrollmentCount(s.ctx, c)
			if scan == 0 {
				s.Require().False(ok, "zero-count entry retained for course %d", c)
			} else {
				s.Require().True(ok)
				s.Require().Equal(scan, cached, "cache drifted for course %d at step %d", c, i)
			}
		}
	}

	s.Zero(s.store.ReconcileCounts(s.ctx), "reconcile must find nothing to fix")
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := Seed(ctx, m, plainHasher{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := len(m.Courses(ctx)); got != 5 {
		t.Fatalf("expected 5 courses, got %d", got)
	}
	if got := len(m.Users(ctx)); got != 4 {
		t.Fatalf("expected 4 users, got %d", got)
	}
	if count, ok := m.EnrollmentCount(ctx, 1); !ok || count != 2 {
		t.Fatalf("expected course 1 count 2, got %d (ok=%v)", count, ok)
	}
	if m.ReconcileCounts(ctx) != 0 {
		t.Fatal("seeded cache out of sync with relation")
	}
}

type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hash:" + plain, nil }
