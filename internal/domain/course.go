package domain

// Course is a catalog entry. Titles are unique case-insensitively. Unlike
// users, courses are hard-deleted by id.
type Course struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}
