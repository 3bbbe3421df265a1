package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"bilimbagdar/internal/auth"
	"bilimbagdar/internal/models"
	"bilimbagdar/internal/repository"
)

var (
	// ErrInvalidCredentials means the user exists but the password is wrong.
	// Distinguishable from repository.ErrUserNotFound internally; the UI may
	// unify the message.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrBootstrapRequired means no teacher account exists yet; normal login
	// is refused until the first teacher is registered.
	ErrBootstrapRequired = errors.New("first teacher registration required")

	// ErrBootstrapDone means a teacher already exists; the bootstrap path is
	// closed for good.
	ErrBootstrapDone = errors.New("bootstrap already completed")
)

// AuthService handles login resolution and the first-teacher bootstrap gate
type AuthService struct {
	userRepo *repository.UserRepository
	authSvc  *auth.Service
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo *repository.UserRepository, authSvc *auth.Service) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		authSvc:  authSvc,
	}
}

// BootstrapRequired reports whether the system has no teacher account yet
func (s *AuthService) BootstrapRequired(ctx context.Context) (bool, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return false, err
	}
	return bootstrapRequired(users), nil
}

// bootstrapRequired is true iff no user in the set has the teacher role
func bootstrapRequired(users []models.User) bool {
	for _, u := range users {
		if u.Role == models.RoleTeacher {
			return false
		}
	}
	return true
}

// RegisterFirstTeacher creates the single bootstrap teacher account. Only
// valid while no teacher exists; a second bootstrap attempt is refused.
func (s *AuthService) RegisterFirstTeacher(ctx context.Context, username, password, displayName string) (*models.User, error) {
	username = strings.TrimSpace(username)

	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if !bootstrapRequired(users) {
		return nil, ErrBootstrapDone
	}

	// imported student rows may already hold the name
	if err := checkUsernameFree(ctx, s.userRepo, username); err != nil {
		return nil, err
	}

	passwordHash, err := s.authSvc.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Role:         models.RoleTeacher,
		Username:     username,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("Bootstrap teacher registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// GetUser loads a user by ID
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Login resolves a username/password pair to a user and an access token.
// Refused with ErrBootstrapRequired while no teacher account exists.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, "", err
	}
	if bootstrapRequired(users) {
		return nil, "", ErrBootstrapRequired
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", err
	}

	if err := s.authSvc.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.authSvc.GenerateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}
