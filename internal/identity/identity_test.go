package identity

import (
	"context"
	"testing"

	"blog_api/internal/models"
)

func TestUserRoundTrip(t *testing.T) {
	if _, ok := UserFromContext(context.Background()); ok {
		t.Fatal("empty context must not carry a user")
	}
	u := models.User{ID: "u1", Username: "alice"}
	got, ok := UserFromContext(WithUser(context.Background(), u))
	if !ok || got.ID != "u1" || got.Username != "alice" {
		t.Fatalf("got (%+v, %v)", got, ok)
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	if _, ok := RequestIDFromContext(context.Background()); ok {
		t.Fatal("empty context must not carry a request id")
	}
	id, ok := RequestIDFromContext(WithRequestID(context.Background(), "r-1"))
	if !ok || id != "r-1" {
		t.Fatalf("got (%q, %v)", id, ok)
	}
}
