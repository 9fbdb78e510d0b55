package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"blog_api/internal/models"
	"blog_api/internal/repository/db"

	"github.com/DATA-DOG/go-sqlmock"
)

// setupSQLiteRepo returns repositories over a fresh in-memory database with
// one registered user "u1".
func setupSQLiteRepo(t *testing.T) *Repository {
	t.Helper()
	conn, err := db.InitSQLite(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	repos := NewRepository(conn, SQLite)
	err = repos.Users.Create(context.Background(), models.User{
		ID: "u1", Username: "alice", Email: "alice@example.com", PasswordHash: "h", CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return repos
}

func newPost(id, title, category string, created time.Time) models.Post {
	return models.Post{
		ID:        id,
		Title:     title,
		Content:   "content of " + title,
		Category:  category,
		Author:    models.Author{ID: "u1"},
		Slug:      id + "-slug",
		Version:   1,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestPostRepository_CreateAndGetJoinsAuthor(t *testing.T) {
	repos := setupSQLiteRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	if err := repos.Posts.Create(ctx, newPost("p1", "Hello", "news", now)); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	got, err := repos.Posts.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got == nil {
		t.Fatal("expected post, got nil")
	}
	if got.Title != "Hello" || got.Category != "news" || got.Version != 1 {
		t.Errorf("unexpected post: %+v", got)
	}
	if got.Author != (models.Author{ID: "u1", Username: "alice", Email: "alice@example.com"}) {
		t.Errorf("author not joined: %+v", got.Author)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt, now)
	}

	missing, err := repos.Posts.GetByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing post, got (%+v, %v)", missing, err)
	}
}

func TestPostRepository_CreateDuplicateSlug(t *testing.T) {
	repos := setupSQLiteRepo(t)
	ctx := context.Background()
	now := time.Now()

	p := newPost("p1", "Hello", "news", now)
	if err := repos.Posts.Create(ctx, p); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	dup := newPost("p2", "Hello", "news", now)
	dup.Slug = p.Slug
	err := repos.Posts.Create(ctx, dup)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPostRepository_ListFilterAndPaging(t *testing.T) {
	repos := setupSQLiteRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		cat := "a"
		if i%2 == 1 {
			cat = "b"
		}
		p := newPost(fmt.Sprintf("p%d", i), fmt.Sprintf("Post %d", i), cat, base.Add(time.Duration(i)*time.Minute))
		if err := repos.Posts.Create(ctx, p); err != nil {
			t.Fatalf("Create(%d) error: %v", i, err)
		}
	}

	tests := []struct {
		name    string
		filter  PostFilter
		wantIDs []string
	}{
		{"all", PostFilter{}, []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6"}},
		{"category a", PostFilter{Category: "a"}, []string{"p0", "p2", "p4", "p6"}},
		{"first page", PostFilter{Limit: 3}, []string{"p0", "p1", "p2"}},
		{"second page", PostFilter{Offset: 3, Limit: 3}, []string{"p3", "p4", "p5"}},
		{"past end", PostFilter{Offset: 9, Limit: 3}, []string{}},
		{"category b paged", PostFilter{Category: "b", Offset: 1, Limit: 5}, []string{"p3", "p5"}},
		{"unknown category", PostFilter{Category: "zzz", Limit: 10}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := repos.Posts.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			if len(posts) != len(tt.wantIDs) {
				t.Fatalf("got %d posts, want %d", len(posts), len(tt.wantIDs))
			}
			for i, p := range posts {
				if p.ID != tt.wantIDs[i] {
					t.Errorf("posts[%d].ID = %q, want %q", i, p.ID, tt.wantIDs[i])
				}
				if p.Author.Username != "alice" {
					t.Errorf("posts[%d] author not joined: %+v", i, p.Author)
				}
			}
		})
	}
}

func TestPostRepository_UpdateVersioning(t *testing.T) {
	repos := setupSQLiteRepo(t)
	ctx := context.Background()

	p := newPost("p1", "Hello", "news", time.Now())
	if err := repos.Posts.Create(ctx, p); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	p.Title = "Changed"
	if err := repos.Posts.Update(ctx, p); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	got, _ := repos.Posts.GetByID(ctx, "p1")
	if got.Title != "Changed" || got.Version != 2 {
		t.Fatalf("unexpected post after update: %+v", got)
	}

	// p still carries version 1, which is now stale.
	p.Title = "Lost update"
	err := repos.Posts.Update(ctx, p)
	if !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("expected ErrStaleVersion, got %v", err)
	}
	got, _ = repos.Posts.GetByID(ctx, "p1")
	if got.Title != "Changed" {
		t.Fatalf("stale update must not be applied, got title %q", got.Title)
	}
}

func TestPostRepository_DeleteTwice(t *testing.T) {
	repos := setupSQLiteRepo(t)
	ctx := context.Background()
	if err := repos.Posts.Create(ctx, newPost("p1", "Hello", "news", time.Now())); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	deleted, err := repos.Posts.Delete(ctx, "p1")
	if err != nil || !deleted {
		t.Fatalf("first Delete() = (%v, %v), want (true, nil)", deleted, err)
	}
	deleted, err = repos.Posts.Delete(ctx, "p1")
	if err != nil || deleted {
		t.Fatalf("second Delete() = (%v, %v), want (false, nil)", deleted, err)
	}
}

func TestPostRepository_SlugExists(t *testing.T) {
	repos := setupSQLiteRepo(t)
	ctx := context.Background()
	p := newPost("p1", "Hello", "news", time.Now())
	p.Slug = "hello"
	if err := repos.Posts.Create(ctx, p); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	tests := []struct {
		name      string
		slug      string
		excludeID string
		want      bool
	}{
		{"taken", "hello", "", true},
		{"free", "other", "", false},
		{"same post excluded", "hello", "p1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repos.Posts.SlugExists(ctx, tt.slug, tt.excludeID)
			if err != nil {
				t.Fatalf("SlugExists() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SlugExists(%q, %q) = %v, want %v", tt.slug, tt.excludeID, got, tt.want)
			}
		})
	}
}

func TestPostRepository_QueryErrorsAreWrapped(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer conn.Close()
	repo := NewPostRepository(conn, SQLite)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(selectPostByIDSQL)).
		WithArgs("p1").
		WillReturnError(errors.New("connection reset"))
	if _, err := repo.GetByID(ctx, "p1"); err == nil || !regexp.MustCompile(`select post "p1": connection reset`).MatchString(err.Error()) {
		t.Fatalf("unexpected GetByID error: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(deletePostSQL)).
		WithArgs("p1").
		WillReturnError(errors.New("disk full"))
	if _, err := repo.Delete(ctx, "p1"); err == nil {
		t.Fatal("expected Delete error")
	}

	mock.ExpectExec("UPDATE posts SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.Update(ctx, models.Post{ID: "p1", Version: 3})
	if !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("expected ErrStaleVersion, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
