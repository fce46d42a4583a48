package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medvise.ai/server/internal/apperr"
	"medvise.ai/server/internal/auth"
	"medvise.ai/server/internal/store"
)

// UserStore is the slice of the credential store the auth service needs.
type UserStore interface {
	GetUserByEmail(email string) (*store.User, error)
	CreateUser(email, fullName, passwordHash, role string) (*store.User, error)
}

// UserSummary is the public shape of a user returned by registration.
type UserSummary struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthService validates credentials against the store and issues session
// tokens signed with a single process-wide secret.
type AuthService struct {
	store    UserStore
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(userStore UserStore, secret []byte, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		store:    userStore,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

// Register creates one user record. The duplicate-email pre-check runs before
// any hash is computed; the unique constraint in the store remains the real
// enforcement point, so a concurrent duplicate insert still maps to the same
// conflict.
func (s *AuthService) Register(ctx context.Context, fullName, email, password, role string) (*UserSummary, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if fullName == "" || email == "" || password == "" || role == "" {
		return nil, apperr.Validation("Please provide all fields.")
	}
	if !store.ValidRole(role) {
		return nil, apperr.Validation("Invalid role.")
	}

	existing, err := s.store.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("Email already in use.")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(email, fullName, hash, role)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, apperr.Conflict("Email already in use.")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &UserSummary{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// Login checks the credentials and issues a signed session token. The error
// is uniform for unknown email and wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *store.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", nil, apperr.Validation("Please provide email and password.")
	}

	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, apperr.InvalidCredentials()
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role, s.secret, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, user, nil
}

// Verify validates a session token's signature and expiry and returns the
// embedded identity. There is no revocation list; any unexpired token with a
// valid signature is accepted.
func (s *AuthService) Verify(tokenString string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(tokenString, s.secret)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid token")
	}
	return claims, nil
}
