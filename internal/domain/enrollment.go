package domain

import "time"

// Enrollment is one (user, course) membership row with its timestamp.
// User and Course are denormalized copies filled in by read paths; they
// stay nil in raw relation snapshots.
type Enrollment struct {
	UserID     int       `json:"userId"`
	CourseID   int       `json:"courseId"`
	EnrolledAt time.Time `json:"enrolledAt"`
	User       *User     `json:"user,omitempty"`
	Course     *Course   `json:"course,omitempty"`
}

// EnrolledCourse is the per-course row of the viewer-scoped course listing.
type EnrolledCourse struct {
	CourseID    int    `json:"courseId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	TotalUsers  int    `json:"totalUsers"`
}

// EnrolledUser is the per-user row of a course roster. Name and Email fall
// back to placeholders when the user record is missing.
type EnrolledUser struct {
	UserID     int       `json:"userId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	EnrolledAt time.Time `json:"enrolledAt"`
	Active     bool      `json:"active"`
}
