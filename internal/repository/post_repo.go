package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog_api/internal/models"
)

type PostRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewPostRepository(db *sql.DB, dialect Dialect) *PostRepository {
	return &PostRepository{db: db, dialect: dialect}
}

var _ Posts = (*PostRepository)(nil)

const (
	insertPostSQL = `
		INSERT INTO posts (id, title, content, category, author_id, slug, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	// selectPostColumnsSQL joins the author so reads carry username and email.
	selectPostColumnsSQL = `
		SELECT p.id, p.title, p.content, p.category, p.author_id,
			COALESCE(u.username, ''), COALESCE(u.email, ''),
			p.slug, p.version, p.created_at, p.updated_at
		FROM posts p LEFT JOIN users u ON u.id = p.author_id`

	selectPostByIDSQL = selectPostColumnsSQL + ` WHERE p.id = ?`

	updatePostSQL = `
		UPDATE posts SET title = ?, content = ?, category = ?, slug = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	deletePostSQL = `DELETE FROM posts WHERE id = ?`

	countSlugSQL = `SELECT COUNT(*) FROM posts WHERE slug = ? AND id <> ?`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (models.Post, error) {
	var p models.Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.Category, &p.Author.ID,
		&p.Author.Username, &p.Author.Email,
		&p.Slug, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, err
}

// Create inserts p as-is; the caller assigns id, slug, version and timestamps.
func (r *PostRepository) Create(ctx context.Context, p models.Post) error {
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(insertPostSQL),
		p.ID, p.Title, p.Content, p.Category, p.Author.ID, p.Slug, p.Version,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = errors.Join(ErrDuplicate, err)
		}
		return fmt.Errorf("insert post %q: %w", p.ID, err)
	}
	return nil
}

// GetByID fetches a post with its author joined. Returns (nil, nil) if not found.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, r.dialect.rebind(selectPostByIDSQL), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select post %q: %w", id, err)
	}
	return &p, nil
}

// List returns posts ordered by creation time, optionally filtered by category.
func (r *PostRepository) List(ctx context.Context, f PostFilter) ([]models.Post, error) {
	var (
		conds []string
		args  []any
	)
	if f.Category != "" {
		conds = append(conds, "p.category = ?")
		args = append(args, f.Category)
	}

	q := selectPostColumnsSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY p.created_at ASC, p.id ASC"
	if f.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, max(f.Offset, 0))
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	out := make([]models.Post, 0, max(f.Limit, 0))
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return out, nil
}

// Update writes the mutable fields of p when the stored version equals p.Version.
// Returns ErrStaleVersion if the row was changed or removed in the meantime.
func (r *PostRepository) Update(ctx context.Context, p models.Post) error {
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(updatePostSQL),
		p.Title, p.Content, p.Category, p.Slug, updatedAt.UTC(), p.ID, p.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = errors.Join(ErrDuplicate, err)
		}
		return fmt.Errorf("update post %q: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for post %q: %w", p.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update post %q at version %d: %w", p.ID, p.Version, ErrStaleVersion)
	}
	return nil
}

// Delete removes a post and reports whether a row existed.
func (r *PostRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(deletePostSQL), id)
	if err != nil {
		return false, fmt.Errorf("delete post %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for post %q: %w", id, err)
	}
	return n > 0, nil
}

// SlugExists reports whether another post (not excludeID) already uses slug.
func (r *PostRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, r.dialect.rebind(countSlugSQL), slug, excludeID).Scan(&count); err != nil {
		return false, fmt.Errorf("count slug %q: %w", slug, err)
	}
	return count > 0, nil
}
