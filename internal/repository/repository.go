package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"blog_api/internal/models"
)

var (
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleVersion is returned when a conditional update finds a newer version.
	ErrStaleVersion = errors.New("stale version")
)

// Users persists accounts. Getters return (nil, nil) if not found.
type Users interface {
	Create(ctx context.Context, u models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// PostFilter narrows a post listing. Zero values mean "no constraint".
type PostFilter struct {
	Category string
	Offset   int
	Limit    int
}

// Posts persists blog posts. Reads join the author's username and email.
type Posts interface {
	Create(ctx context.Context, p models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, f PostFilter) ([]models.Post, error)
	// Update writes p if the stored version still equals p.Version and bumps it.
	Update(ctx context.Context, p models.Post) error
	Delete(ctx context.Context, id string) (bool, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
}

// EventFilter narrows an activity listing. From/To are inclusive, After is exclusive.
type EventFilter struct {
	From   time.Time
	To     time.Time
	After  time.Time
	Type   string
	PostID string
	Limit  int
}

type EventRepo interface {
	Append(ctx context.Context, e models.PostEvent) error
	List(ctx context.Context, f EventFilter) ([]models.PostEvent, error)
}

type Repository struct {
	Users     Users
	Posts     Posts
	EventRepo EventRepo
}

// NewRepository builds SQL-backed repositories sharing db.
func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{
		Users:     NewUserRepository(db, dialect),
		Posts:     NewPostRepository(db, dialect),
		EventRepo: NewEventRepository(db, dialect),
	}
}
