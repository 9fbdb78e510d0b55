package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"blog_api/internal/models"
	"blog_api/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      string
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	// tokens maps accepted bearer tokens to users; anything else fails with authErr.
	tokens  map[string]models.User
	authErr error

	lastSignUp      service.SignUpInput
	lastGenUsername string
	lastGenPassword string
	lastToken       string
}

func (m *mockAuth) SignUp(_ context.Context, in service.SignUpInput) (string, error) {
	m.lastSignUp = in
	return m.signUpID, m.signUpErr
}

func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}

func (m *mockAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	m.lastToken = token
	if u, ok := m.tokens[token]; ok {
		return &u, nil
	}
	if m.authErr != nil {
		return nil, m.authErr
	}
	return nil, service.ErrInvalidToken
}

type mockPosts struct {
	post  *models.Post
	posts []models.Post
	err   error

	lastCaller models.User
	lastID     string
	lastInput  service.PostInput
	lastPatch  service.PostPatch
	lastQuery  service.ListQuery
	calls      int
}

func (m *mockPosts) Create(_ context.Context, caller models.User, in service.PostInput) (*models.Post, error) {
	m.calls++
	m.lastCaller, m.lastInput = caller, in
	return m.post, m.err
}

func (m *mockPosts) List(_ context.Context, q service.ListQuery) ([]models.Post, error) {
	m.calls++
	m.lastQuery = q
	return m.posts, m.err
}

func (m *mockPosts) Get(_ context.Context, id string) (*models.Post, error) {
	m.calls++
	m.lastID = id
	return m.post, m.err
}

func (m *mockPosts) Update(_ context.Context, caller models.User, id string, patch service.PostPatch) (*models.Post, error) {
	m.calls++
	m.lastCaller, m.lastID, m.lastPatch = caller, id, patch
	return m.post, m.err
}

func (m *mockPosts) Delete(_ context.Context, caller models.User, id string) error {
	m.calls++
	m.lastCaller, m.lastID = caller, id
	return m.err
}

type mockEventLog struct {
	mu sync.Mutex

	resp       []models.PostEvent
	err        error
	lastFilter service.LogFilter

	// stream backs Since; events are returned when newer than the cursor.
	stream   []models.PostEvent
	sinceErr error
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.PostEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = f
	return m.resp, m.err
}

func (m *mockEventLog) Since(_ context.Context, after time.Time, _ int) ([]models.PostEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sinceErr != nil {
		return nil, m.sinceErr
	}
	var out []models.PostEvent
	for _, e := range m.stream {
		if e.OccurredAt.After(after) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEventLog) push(e models.PostEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stream = append(m.stream, e)
}

// ---- Shared Test Helpers ----

var (
	testAlice = models.User{ID: "u-alice", Username: "alice", Email: "alice@example.com"}
	testBob   = models.User{ID: "u-bob", Username: "bob", Email: "bob@example.com"}
)

// newTestAuth accepts "alice-token" and "bob-token".
func newTestAuth() *mockAuth {
	return &mockAuth{tokens: map[string]models.User{
		"alice-token": testAlice,
		"bob-token":   testBob,
	}}
}

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
