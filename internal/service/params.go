package service

import "time"

// SignUpInput is the payload for creating an account.
type SignUpInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// PostInput is the payload for creating a post.
type PostInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// PostPatch holds optional replacements. A nil field leaves the value unchanged.
type PostPatch struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
}

// ListQuery selects a page of posts. Non-positive Page or Limit use defaults.
type ListQuery struct {
	Category string
	Page     int
	Limit    int
}

// LogFilter narrows the activity log. Zero times mean "unbounded".
type LogFilter struct {
	From   time.Time
	To     time.Time
	Type   string
	PostID string
}
