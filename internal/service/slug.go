package service

import (
	"context"
	"fmt"
	"strings"

	"blog_api/internal/repository"

	"github.com/google/uuid"
)

const (
	fallbackSlug    = "untitled"
	maxSlugAttempts = 50
	maxSlugLength   = 80
	// maxSlugRetries bounds how often a write is retried after another post
	// claimed the slug between the check and the write.
	maxSlugRetries = 3
)

// generateSlug lowercases title, drops apostrophes and joins the remaining
// ASCII letter/digit runs with single hyphens.
func generateSlug(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '\'' || r == '’':
		default:
			pendingDash = true
		}
	}
	return truncateSlug(b.String(), maxSlugLength)
}

func truncateSlug(s string, n int) string {
	if len(s) > n {
		s = strings.TrimRight(s[:n], "-")
	}
	return s
}

// withSuffix appends suffix, shortening base so the result stays within
// maxSlugLength.
func withSuffix(base, suffix string) string {
	return truncateSlug(base, maxSlugLength-len(suffix)) + suffix
}

func randomSlug(base string) string {
	return withSuffix(base, "-"+uuid.NewString()[:8])
}

// ensureUniqueSlug returns base, or base with the first free "-N" suffix.
// The post with excludeID does not count as a clash.
func ensureUniqueSlug(ctx context.Context, posts repository.Posts, base, excludeID string) (string, error) {
	if base == "" {
		base = fallbackSlug
	}
	candidate := base
	for n := 2; n <= maxSlugAttempts; n++ {
		taken, err := posts.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = withSuffix(base, fmt.Sprintf("-%d", n))
	}
	return randomSlug(base), nil
}

// nextSlug picks a replacement after a write lost a race for its slug. The
// last retry uses a random suffix so it cannot collide again.
func nextSlug(ctx context.Context, posts repository.Posts, base, excludeID string, attempt int) (string, error) {
	if base == "" {
		base = fallbackSlug
	}
	if attempt >= maxSlugRetries {
		return randomSlug(base), nil
	}
	return ensureUniqueSlug(ctx, posts, base, excludeID)
}
