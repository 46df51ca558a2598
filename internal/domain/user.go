package domain

import "time"

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

// ParseRole maps a wire string onto a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleStudent, RoleInstructor:
		return Role(s), true
	}
	return "", false
}

// User is the primary identity tracked by the service. Users are never
// physically deleted; deactivation (Active=false) is the only destructive
// operation, so historical enrollments keep a valid reference.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero"`
	UpdatedBy    int       `json:"updatedBy,omitempty"`
}
