// Package store holds the canonical in-memory state: users, courses, the
// enrollment relation and the derived per-course count cache. One coarse
// RWMutex guards everything; composite mutations (enroll, unenroll, course
// delete) run entirely inside the lock so the relation, the pair-timestamp
// map and the count cache can never be observed half-applied.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"roster/internal/domain"
	"roster/pkg/platform/sentinel"
)

type pairKey struct {
	UserID   int
	CourseID int
}

type Memory struct {
	mu         sync.RWMutex
	users      map[int]domain.User
	courses    map[int]domain.Course
	enrolled   map[int]map[int]struct{} // user id -> set of course ids
	enrolledAt map[pairKey]time.Time
	counts     map[int]int // course id -> active enrollment count; entries at zero are removed
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[int]domain.User),
		courses:    make(map[int]domain.Course),
		enrolled:   make(map[int]map[int]struct{}),
		enrolledAt: make(map[pairKey]time.Time),
		counts:     make(map[int]int),
	}
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// CreateUser allocates the next id and inserts under one critical section.
// Fails with sentinel.ErrConflict when the email is already taken
// (case-insensitive).
func (s *Memory) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTakenLocked(user.Email, 0) {
		return domain.User{}, sentinel.ErrConflict
	}
	user.ID = s.nextUserIDLocked()
	s.users[user.ID] = user
	return user, nil
}

// SaveUser inserts or replaces a user at its existing id. Seeding and tests
// use it; regular creation goes through CreateUser.
func (s *Memory) SaveUser(_ context.Context, user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// UpdateUser replaces an existing user record.
func (s *Memory) UpdateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *Memory) UserByID(_ context.Context, id int) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return domain.User{}, sentinel.ErrNotFound
}

// UserByEmail matches case-insensitively.
func (s *Memory) UserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return domain.User{}, sentinel.ErrNotFound
}

// EmailTaken reports whether another user already owns the email.
// excludeID skips one user, for update checks.
func (s *Memory) EmailTaken(_ context.Context, email string, excludeID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emailTakenLocked(email, excludeID)
}

func (s *Memory) emailTakenLocked(email string, excludeID int) bool {
	for _, user := range s.users {
		if user.ID != excludeID && strings.EqualFold(user.Email, email) {
			return true
		}
	}
	return false
}

// Users returns a snapshot sorted by id.
func (s *Memory) Users(_ context.Context) []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NextUserID is max existing key + 1, or 1 when empty. Ids are not reused
// after deletion within a run.
func (s *Memory) NextUserID(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextUserIDLocked()
}

func (s *Memory) nextUserIDLocked() int {
	next := 1
	for id := range s.users {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// ---------------------------------------------------------------------------
// Courses
// ---------------------------------------------------------------------------

// CreateCourse allocates the next id and inserts. Fails with
// sentinel.ErrConflict when the title is already taken (case-insensitive).
func (s *Memory) CreateCourse(_ context.Context, course domain.Course) (domain.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.titleTakenLocked(course.Title, 0) {
		return domain.Course{}, sentinel.ErrConflict
	}
	course.ID = s.nextCourseIDLocked()
	s.courses[course.ID] = course
	return course, nil
}

func (s *Memory) SaveCourse(_ context.Context, course domain.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[course.ID] = course
}

func (s *Memory) UpdateCourse(_ context.Context, course domain.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[course.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.courses[course.ID] = course
	return nil
}

func (s *Memory) CourseByID(_ context.Context, id int) (domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if course, ok := s.courses[id]; ok {
		return course, nil
	}
	return domain.Course{}, sentinel.ErrNotFound
}

func (s *Memory) TitleTaken(_ context.Context, title string, excludeID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.titleTakenLocked(title, excludeID)
}

func (s *Memory) titleTakenLocked(title string, excludeID int) bool {
	for _, course := range s.courses {
		if course.ID != excludeID && strings.EqualFold(course.Title, title) {
			return true
		}
	}
	return false
}

func (s *Memory) Courses(_ context.Context) []domain.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Course, 0, len(s.courses))
	for _, course := range s.courses {
		out = append(out, course)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Memory) NextCourseID(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextCourseIDLocked()
}

func (s *Memory) nextCourseIDLocked() int {
	next := 1
	for id := range s.courses {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// DeleteCourse removes the course and, in the same critical section, every
// enrollment referencing it, so the relation cannot dangle.
func (s *Memory) DeleteCourse(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.courses, id)
	for userID, set := range s.enrolled {
		if _, ok := set[id]; !ok {
			continue
		}
		delete(set, id)
		delete(s.enrolledAt, pairKey{UserID: userID, CourseID: id})
		if len(set) == 0 {
			delete(s.enrolled, userID)
		}
	}
	delete(s.counts, id)
	return nil
}

// ---------------------------------------------------------------------------
// Enrollment relation
// ---------------------------------------------------------------------------

// Enroll adds the (user, course) pair. All three structures (the set, the
// timestamp map and the count cache) mutate inside one critical section.
// Fails with sentinel.ErrNotFound when either side is missing and
// sentinel.ErrConflict when the pair already exists.
func (s *Memory) Enroll(_ context.Context, userID, courseID int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return sentinel.ErrNotFound
	}
	if _, ok := s.courses[courseID]; !ok {
		return sentinel.ErrNotFound
	}
	set, ok := s.enrolled[userID]
	if !ok {
		set = make(map[int]struct{})
		s.enrolled[userID] = set
	}
	if _, ok := set[courseID]; ok {
		return sentinel.ErrConflict
	}
	set[courseID] = struct{}{}
	s.enrolledAt[pairKey{UserID: userID, CourseID: courseID}] = at
	s.adjustCountLocked(courseID, +1)
	return nil
}

// Unenroll removes the pair. A user whose set becomes empty loses the set
// entry entirely, keeping the relation sparse. Fails with
// sentinel.ErrNotFound when the pair does not exist.
func (s *Memory) Unenroll(_ context.Context, userID, courseID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.enrolled[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, ok := set[courseID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(set, courseID)
	delete(s.enrolledAt, pairKey{UserID: userID, CourseID: courseID})
	if len(set) == 0 {
		delete(s.enrolled, userID)
	}
	s.adjustCountLocked(courseID, -1)
	return nil
}

func (s *Memory) adjustCountLocked(courseID, delta int) {
	if count, ok := s.counts[courseID]; ok {
		next := count + delta
		if next <= 0 {
			delete(s.counts, courseID)
			return
		}
		s.counts[courseID] = next
		return
	}
	if delta > 0 {
		s.counts[courseID] = delta
	}
}

func (s *Memory) IsEnrolled(_ context.Context, userID, courseID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.enrolled[userID]
	if !ok {
		return false
	}
	_, ok = set[courseID]
	return ok
}

// CourseIDsOf returns the user's course ids sorted ascending, or nil when
// the user has no set entry.
func (s *Memory) CourseIDsOf(_ context.Context, userID int) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.enrolled[userID]
	if !ok {
		return nil
	}
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func (s *Memory) EnrolledAt(_ context.Context, userID, courseID int) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.enrolledAt[pairKey{UserID: userID, CourseID: courseID}]
	return at, ok
}

// PairsForCourse snapshots user id -> enrolled-at for one course.
func (s *Memory) PairsForCourse(_ context.Context, courseID int) map[int]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]time.Time)
	for userID, set := range s.enrolled {
		if _, ok := set[courseID]; ok {
			out[userID] = s.enrolledAt[pairKey{UserID: userID, CourseID: courseID}]
		}
	}
	return out
}

// AllEnrollments snapshots the raw relation, sorted by (user, course) for
// stable output.
func (s *Memory) AllEnrollments(_ context.Context) []domain.Enrollment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Enrollment
	for userID, set := range s.enrolled {
		for courseID := range set {
			out = append(out, domain.Enrollment{
				UserID:     userID,
				CourseID:   courseID,
				EnrolledAt: s.enrolledAt[pairKey{UserID: userID, CourseID: courseID}],
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].CourseID < out[j].CourseID
	})
	return out
}

// EnrollmentCount is the O(1) cache read. ok is false when no cache entry
// exists; absent and zero are indistinguishable because entries at zero
// are removed.
func (s *Memory) EnrollmentCount(_ context.Context, courseID int) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count, ok := s.counts[courseID]
	return count, ok
}

// TotalEnrolled recomputes the count from the relation by scanning. Read
// paths that list courses use this; EnrollmentCount serves the O(1) lookup.
func (s *Memory) TotalEnrolled(_ context.Context, courseID int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, set := range s.enrolled {
		if _, ok := set[courseID]; ok {
			total++
		}
	}
	return total
}

// ReconcileCounts rebuilds the count cache from the relation and returns the
// number of entries that had drifted. The incremental cache should make this
// a no-op; tests use it as the consistency oracle.
func (s *Memory) ReconcileCounts(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	rebuilt := make(map[int]int)
	for _, set := range s.enrolled {
		for courseID := range set {
			rebuilt[courseID]++
		}
	}
	drift := 0
	for courseID, count := range rebuilt {
		if s.counts[courseID] != count {
			drift++
		}
	}
	for courseID := range s.counts {
		if _, ok := rebuilt[courseID]; !ok {
			drift++
		}
	}
	s.counts = rebuilt
	return drift
}
