package models

import "time"

const (
	EventPostCreated = "POST_CREATED"
	EventPostUpdated = "POST_UPDATED"
	EventPostDeleted = "POST_DELETED"
)

// PostEvent is a single activity log entry.
type PostEvent struct {
	EventID     string    `json:"eventId"`
	OccurredAt  time.Time `json:"occurredAt"`
	Type        string    `json:"type"` // POST_CREATED | POST_UPDATED | POST_DELETED
	PostID      string    `json:"postId"`
	ActorID     string    `json:"actorId"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
