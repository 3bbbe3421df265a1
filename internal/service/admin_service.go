package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bilimbagdar/internal/auth"
	"bilimbagdar/internal/models"
	"bilimbagdar/internal/repository"
)

var (
	// ErrValidation marks a rejected operation due to missing required input.
	// No partial write happens.
	ErrValidation = errors.New("validation failed")

	// ErrUsernameTaken means another account already holds the username
	// under case-insensitive comparison.
	ErrUsernameTaken = errors.New("username already taken")
)

// AdminService covers homework publication and account administration
type AdminService struct {
	userRepo *repository.UserRepository
	hwRepo   *repository.HomeworkRepository
	authSvc  *auth.Service
}

// NewAdminService creates a new administration service
func NewAdminService(userRepo *repository.UserRepository, hwRepo *repository.HomeworkRepository, authSvc *auth.Service) *AdminService {
	return &AdminService{
		userRepo: userRepo,
		hwRepo:   hwRepo,
		authSvc:  authSvc,
	}
}

// HomeworkInput carries the teacher-authored fields of a new assignment
type HomeworkInput struct {
	Class          string
	Date           string
	Topic          string
	TaskText       string
	ExpectedAnswer string
	StepHints      []string
}

// CreateHomework validates and appends a new homework item
func (s *AdminService) CreateHomework(ctx context.Context, in HomeworkInput) (*models.Homework, error) {
	if strings.TrimSpace(in.Topic) == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrValidation)
	}
	if strings.TrimSpace(in.TaskText) == "" {
		return nil, fmt.Errorf("%w: task text is required", ErrValidation)
	}

	hw := &models.Homework{
		ID:             uuid.NewString(),
		Class:          strings.TrimSpace(in.Class),
		Date:           strings.TrimSpace(in.Date),
		Topic:          strings.TrimSpace(in.Topic),
		TaskText:       in.TaskText,
		ExpectedAnswer: strings.TrimSpace(in.ExpectedAnswer),
		StepHints:      in.StepHints,
		CreatedAt:      time.Now(),
	}
	if err := s.hwRepo.Create(ctx, hw); err != nil {
		return nil, err
	}
	return hw, nil
}

// ListHomework returns all published assignments
func (s *AdminService) ListHomework(ctx context.Context) ([]models.Homework, error) {
	return s.hwRepo.GetAll(ctx)
}

// ListHomeworkForClassDate returns the assignments for a class on one date
func (s *AdminService) ListHomeworkForClassDate(ctx context.Context, class, date string) ([]models.Homework, error) {
	return s.hwRepo.GetForClassDate(ctx, class, date)
}

// StudentInput carries the fields of a new student account
type StudentInput struct {
	Username    string
	Password    string
	DisplayName string
	Class       string
}

// AddStudent validates username uniqueness and appends a student account
func (s *AdminService) AddStudent(ctx context.Context, in StudentInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}

	if err := checkUsernameFree(ctx, s.userRepo, username); err != nil {
		return nil, err
	}

	passwordHash, err := s.authSvc.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Role:         models.RoleStudent,
		Username:     username,
		PasswordHash: passwordHash,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Class:        strings.TrimSpace(in.Class),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns every account, the teacher's roster view
func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.GetAll(ctx)
}

// checkUsernameFree enforces case-insensitive username uniqueness across all
// accounts, via the repository's normalized lookup. Shared by every path
// that creates a user.
func checkUsernameFree(ctx context.Context, userRepo *repository.UserRepository, username string) error {
	_, err := userRepo.GetByUsername(ctx, username)
	if err == nil {
		return ErrUsernameTaken
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil
	}
	return err
}
