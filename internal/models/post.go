package models

import "time"

// Post is a blog entry owned by the user referenced in Author.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Author    Author    `json:"author"`
	Slug      string    `json:"slug"`
	Version   int       `json:"version"` // bumped on every successful update
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy reports whether userID is the post's author.
func (p Post) OwnedBy(userID string) bool {
	return p.Author.ID != "" && p.Author.ID == userID
}
