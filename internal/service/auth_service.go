package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog_api/internal/models"
	"blog_api/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

// Domain errors for auth flows.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
)

// AuthService handles user auth logic
type AuthService struct {
	users  repository.Users
	tokens *TokenCodec
	now    func() time.Time
}

func NewAuthService(users repository.Users, tokens *TokenCodec) *AuthService {
	return &AuthService{users: users, tokens: tokens, now: time.Now}
}

// SignUp hashes password and creates a new user
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (string, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return "", newError(ErrValidation, "All fields are required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return "", newError(ErrValidation, "Invalid email")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return "", newError(ErrValidation, "Invalid password: %v", err)
	}

	u := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", newError(ErrUserExists, "User already exists")
		}
		return "", err
	}
	return u.ID, nil
}

// GenerateToken validates credentials and returns JWT
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", errors.Join(ErrInvalidCredentials, ErrUserNotFound)
	}

	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return "", errors.Join(ErrInvalidCredentials, ErrInvalidPassword)
	}

	return s.tokens.Issue(u.ID)
}

// Authenticate verifies the token and loads its user. Every failure wraps
// ErrUnauthenticated. Failing to verify, including a store error during the
// lookup, also wraps ErrInvalidToken; a valid token for a missing user wraps
// ErrUserNotFound.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	id, err := s.tokens.Verify(accessToken)
	if err != nil {
		return nil, errors.Join(ErrUnauthenticated, err)
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Join(ErrUnauthenticated, ErrInvalidToken, err)
	}
	if u == nil {
		return nil, errors.Join(ErrUnauthenticated, ErrUserNotFound)
	}
	u.PasswordHash = ""
	return u, nil
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
