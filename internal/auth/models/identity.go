package models

import "roster/internal/domain"

// Claim is one decoded token claim. Array-valued claims are expanded into
// one Claim per element before they reach this type.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Identity is the verified result of a token check: the account as it exists
// right now, not as it looked when the token was signed.
type Identity struct {
	UserID int         `json:"userId"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	Active bool        `json:"active"`
	JTI    string      `json:"jti"`
	Claims []Claim     `json:"claims,omitempty"`
}
