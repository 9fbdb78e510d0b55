package service

import (
	"context"
	"time"

	"blog_api/internal/logger"
	"blog_api/internal/models"
	"blog_api/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, in SignUpInput) (string, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	// Authenticate resolves a bearer token into its user.
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// Posts exposes post CRUD. Mutations take the authenticated caller explicitly.
type Posts interface {
	Create(ctx context.Context, caller models.User, in PostInput) (*models.Post, error)
	List(ctx context.Context, q ListQuery) ([]models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, caller models.User, id string, patch PostPatch) (*models.Post, error)
	Delete(ctx context.Context, caller models.User, id string) error
}

// EventLog exposes the append-only activity log.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.PostEvent, error)
	// Since returns at most limit events strictly newer than after.
	Since(ctx context.Context, after time.Time, limit int) ([]models.PostEvent, error)
}

type Service struct {
	Authorization
	Posts
	EventLog
}

// Config carries the settings services need from the application config.
type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
	// Clock drives token issue and expiry checks; nil means time.Now.
	Clock func() time.Time
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, cfg Config, log *logger.Logger) *Service {
	tokens := NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)
	if cfg.Clock != nil {
		tokens.now = cfg.Clock
	}
	return &Service{
		Authorization: NewAuthService(repos.Users, tokens),
		Posts:         NewPostService(repos.Posts, repos.EventRepo, log),
		EventLog:      NewEventLogService(repos.EventRepo),
	}
}
