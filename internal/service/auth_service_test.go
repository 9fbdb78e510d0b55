package service

import (
	"context"
	"errors"
	"testing"

	"blog_api/internal/models"
	"blog_api/internal/repository"
)

// mockUserRepo is a lightweight in-test mock for repository.Users.
type mockUserRepo struct {
	CreateFn        func(u models.User) error
	GetByIDFn       func(id string) (*models.User, error)
	GetByUsernameFn func(username string) (*models.User, error)

	created  []models.User
	getCalls []string
}

func (m *mockUserRepo) Create(_ context.Context, u models.User) error {
	m.created = append(m.created, u)
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(u)
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	m.getCalls = append(m.getCalls, id)
	return m.GetByIDFn(id)
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.getCalls = append(m.getCalls, username)
	return m.GetByUsernameFn(username)
}

func newTestAuthService(repo *mockUserRepo) *AuthService {
	return NewAuthService(repo, NewTokenCodec(testSecret, 0))
}

// --- SignUp tests ---

func TestAuthService_SignUp_SuccessHashesPasswordAndCallsRepo(t *testing.T) {
	mock := &mockUserRepo{}
	svc := newTestAuthService(mock)

	id, err := svc.SignUp(context.Background(), SignUpInput{Username: " alice ", Email: "alice@example.com", Password: "s3cr3t"})
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	if len(mock.created) != 1 {
		t.Fatalf("expected 1 Create call, got %d", len(mock.created))
	}
	u := mock.created[0]
	if u.ID != id || u.Username != "alice" || u.Email != "alice@example.com" {
		t.Errorf("unexpected stored user: %+v", u)
	}
	if u.PasswordHash == "s3cr3t" {
		t.Errorf("expected hashed password not equal to raw password")
	}
	if err := verifyPassword(u.PasswordHash, "s3cr3t"); err != nil {
		t.Errorf("stored hash does not verify with original password: %v", err)
	}
}

func TestAuthService_SignUp_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   SignUpInput
		want error
	}{
		{"missing username", SignUpInput{Email: "a@example.com", Password: "pw"}, ErrValidation},
		{"missing email", SignUpInput{Username: "a", Password: "pw"}, ErrValidation},
		{"bad email", SignUpInput{Username: "a", Email: "nope", Password: "pw"}, ErrValidation},
		{"blank password", SignUpInput{Username: "a", Email: "a@example.com", Password: "   "}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockUserRepo{}
			_, err := newTestAuthService(mock).SignUp(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(mock.created) != 0 {
				t.Fatalf("expected no Create calls, got %d", len(mock.created))
			}
		})
	}
}

func TestAuthService_SignUp_Duplicate(t *testing.T) {
	mock := &mockUserRepo{CreateFn: func(models.User) error {
		return errors.Join(repository.ErrDuplicate, errors.New("UNIQUE constraint failed"))
	}}
	_, err := newTestAuthService(mock).SignUp(context.Background(), SignUpInput{Username: "a", Email: "a@example.com", Password: "pw"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if err.Error() != "User already exists" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestAuthService_SignUp_RepoError(t *testing.T) {
	mock := &mockUserRepo{CreateFn: func(models.User) error { return errors.New("db down") }}
	_, err := newTestAuthService(mock).SignUp(context.Background(), SignUpInput{Username: "a", Email: "a@example.com", Password: "pw"})
	if err == nil || errors.Is(err, ErrUserExists) || errors.Is(err, ErrValidation) {
		t.Fatalf("expected raw repo error, got %v", err)
	}
}

// --- GenerateToken tests ---

func TestAuthService_GenerateToken_Success(t *testing.T) {
	hash, err := hashPassword("letmein")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	mock := &mockUserRepo{
		GetByUsernameFn: func(username string) (*models.User, error) {
			if username != "diana" {
				t.Fatalf("expected username 'diana', got %q", username)
			}
			return &models.User{ID: "u7", Username: "diana", PasswordHash: hash}, nil
		},
	}
	svc := newTestAuthService(mock)

	token, err := svc.GenerateToken(context.Background(), "diana", "letmein")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	uid, err := svc.tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if uid != "u7" {
		t.Fatalf("expected user id u7 from token, got %q", uid)
	}
}

func TestAuthService_GenerateToken_UserNotFound(t *testing.T) {
	mock := &mockUserRepo{GetByUsernameFn: func(string) (*models.User, error) { return nil, nil }}
	_, err := newTestAuthService(mock).GenerateToken(context.Background(), "ghost", "pw")
	if !errors.Is(err, ErrInvalidCredentials) || !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrInvalidCredentials and ErrUserNotFound, got: %v", err)
	}
}

func TestAuthService_GenerateToken_InvalidPassword(t *testing.T) {
	correctHash, err := hashPassword("correct")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	mock := &mockUserRepo{GetByUsernameFn: func(string) (*models.User, error) {
		return &models.User{ID: "u1", Username: "eve", PasswordHash: correctHash}, nil
	}}
	_, err = newTestAuthService(mock).GenerateToken(context.Background(), "eve", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) || !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidCredentials and ErrInvalidPassword, got: %v", err)
	}
}

func TestAuthService_GenerateToken_RepoError(t *testing.T) {
	mock := &mockUserRepo{GetByUsernameFn: func(string) (*models.User, error) {
		return nil, errors.New("query failed")
	}}
	_, err := newTestAuthService(mock).GenerateToken(context.Background(), "john", "pw")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected raw repo error, got %v", err)
	}
}

// --- Authenticate tests ---

func TestAuthService_Authenticate(t *testing.T) {
	codec := NewTokenCodec(testSecret, 0)
	token, err := codec.Issue("u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name    string
		token   string
		lookup  func(string) (*models.User, error)
		wantErr error
	}{
		{
			name:  "ok",
			token: token,
			lookup: func(id string) (*models.User, error) {
				return &models.User{ID: id, Username: "alice", PasswordHash: "secret-hash"}, nil
			},
		},
		{name: "bad token", token: "garbage", wantErr: ErrInvalidToken},
		{
			name:    "unknown user",
			token:   token,
			lookup:  func(string) (*models.User, error) { return nil, nil },
			wantErr: ErrUserNotFound,
		},
		{
			name:    "store error",
			token:   token,
			lookup:  func(string) (*models.User, error) { return nil, errors.New("db down") },
			wantErr: ErrInvalidToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockUserRepo{GetByIDFn: tt.lookup}
			u, err := NewAuthService(mock, codec).Authenticate(context.Background(), tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrUnauthenticated) {
					t.Fatalf("expected %v and ErrUnauthenticated, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.ID != "u1" || u.Username != "alice" {
				t.Fatalf("unexpected user: %+v", u)
			}
			if u.PasswordHash != "" {
				t.Fatal("password hash must be stripped")
			}
		})
	}
}
