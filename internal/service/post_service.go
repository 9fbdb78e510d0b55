package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"blog_api/internal/logger"
	"blog_api/internal/models"
	"blog_api/internal/repository"

	"github.com/google/uuid"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Client-facing messages.
const (
	msgFieldsRequired = "All fields are required"
	msgPostNotFound   = "Post not found"
	msgForbidden      = "Forbidden"
	msgPostModified   = "Post was modified concurrently, reload and retry"
)

// PostService enforces validation and ownership on top of the post store
// and records every successful mutation in the activity log.
type PostService struct {
	posts  repository.Posts
	events repository.EventRepo
	log    *logger.Logger
	now    func() time.Time
}

func NewPostService(posts repository.Posts, events repository.EventRepo, log *logger.Logger) *PostService {
	return &PostService{posts: posts, events: events, log: log, now: time.Now}
}

func (s *PostService) Create(ctx context.Context, caller models.User, in PostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	category := strings.TrimSpace(in.Category)
	if title == "" || strings.TrimSpace(in.Content) == "" || category == "" {
		return nil, newError(ErrValidation, msgFieldsRequired)
	}

	base := generateSlug(title)
	slug, err := ensureUniqueSlug(ctx, s.posts, base, "")
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := models.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   in.Content,
		Category:  category,
		Author:    models.AuthorOf(caller),
		Slug:      slug,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for attempt := 1; ; attempt++ {
		err := s.posts.Create(ctx, p)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt > maxSlugRetries {
			return nil, err
		}
		if p.Slug, err = nextSlug(ctx, s.posts, base, "", attempt); err != nil {
			return nil, err
		}
	}

	s.record(ctx, models.EventPostCreated, p.ID, caller.ID, "post created", map[string]any{
		"title":    p.Title,
		"category": p.Category,
		"slug":     p.Slug,
	})
	return &p, nil
}

// List returns one page of posts. Invalid paging falls back to defaults.
func (s *PostService) List(ctx context.Context, q ListQuery) ([]models.Post, error) {
	page, limit := normalizePaging(q.Page, q.Limit)
	return s.posts.List(ctx, repository.PostFilter{
		Category: strings.TrimSpace(q.Category),
		Offset:   (page - 1) * limit,
		Limit:    limit,
	})
}

func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.load(ctx, id)
}

// Update applies patch to a post owned by caller. The write only succeeds if
// nobody else changed the post since it was loaded.
func (s *PostService) Update(ctx context.Context, caller models.User, id string, patch PostPatch) (*models.Post, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.OwnedBy(caller.ID) {
		return nil, newError(ErrForbidden, msgForbidden)
	}

	var changed []string
	oldTitle := p.Title
	for _, f := range []struct {
		name  string
		value *string
		dst   *string
	}{
		{"title", patch.Title, &p.Title},
		{"content", patch.Content, &p.Content},
		{"category", patch.Category, &p.Category},
	} {
		if f.value == nil {
			continue
		}
		if strings.TrimSpace(*f.value) == "" {
			return nil, newError(ErrValidation, "%s cannot be empty", f.name)
		}
		v := *f.value
		if f.name != "content" {
			v = strings.TrimSpace(v)
		}
		if v != *f.dst {
			changed = append(changed, f.name)
		}
		*f.dst = v
	}

	base := generateSlug(p.Title)
	if p.Title != oldTitle {
		p.Slug, err = ensureUniqueSlug(ctx, s.posts, base, p.ID)
		if err != nil {
			return nil, err
		}
	}

	p.UpdatedAt = s.now().UTC()
	for attempt := 1; ; attempt++ {
		err := s.posts.Update(ctx, *p)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, repository.ErrStaleVersion):
			return nil, newError(ErrConflict, msgPostModified)
		case errors.Is(err, repository.ErrDuplicate) && attempt <= maxSlugRetries:
			if p.Slug, err = nextSlug(ctx, s.posts, base, p.ID, attempt); err != nil {
				return nil, err
			}
			continue
		}
		return nil, err
	}
	p.Version++

	s.record(ctx, models.EventPostUpdated, p.ID, caller.ID, "post updated", map[string]any{
		"fields":  changed,
		"version": p.Version,
	})
	return p, nil
}

func (s *PostService) Delete(ctx context.Context, caller models.User, id string) error {
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !p.OwnedBy(caller.ID) {
		return newError(ErrForbidden, msgForbidden)
	}

	deleted, err := s.posts.Delete(ctx, p.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return newError(ErrNotFound, msgPostNotFound)
	}

	s.record(ctx, models.EventPostDeleted, p.ID, caller.ID, "post deleted", map[string]any{
		"title": p.Title,
	})
	return nil
}

func (s *PostService) load(ctx context.Context, id string) (*models.Post, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, newError(ErrNotFound, msgPostNotFound)
	}
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, newError(ErrNotFound, msgPostNotFound)
	}
	return p, nil
}

// record appends an activity event. Failures are logged, never returned.
func (s *PostService) record(ctx context.Context, typ, postID, actorID, description string, meta map[string]any) {
	if s.events == nil {
		return
	}
	err := s.events.Append(ctx, models.PostEvent{
		OccurredAt:  s.now().UTC(),
		Type:        typ,
		PostID:      postID,
		ActorID:     actorID,
		Description: description,
		Metadata:    meta,
	})
	if err != nil && s.log != nil {
		s.log.Warnw("append activity event failed", "type", typ, "post_id", postID, "error", err)
	}
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
