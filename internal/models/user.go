package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // don’t expose hash
	CreatedAt    time.Time `json:"createdAt"`
}

// Author is the public projection of a User embedded in post responses.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// AuthorOf projects u for embedding in a post.
func AuthorOf(u User) Author {
	return Author{ID: u.ID, Username: u.Username, Email: u.Email}
}
