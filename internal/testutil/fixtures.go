package testutil

import (
	"context"
	"testing"
	"time"

	"bilimbagdar/internal/models"
	"bilimbagdar/internal/repository"
	"bilimbagdar/internal/store"
)

// Repos bundles the three repositories over a throwaway file store
type Repos struct {
	Users       *repository.UserRepository
	Homeworks   *repository.HomeworkRepository
	Submissions *repository.SubmissionRepository
}

// SetupRepos creates a file-store backed repository set in a temp directory
func SetupRepos(t *testing.T) *Repos {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	repos := &Repos{
		Users:       repository.NewUserRepository(st),
		Homeworks:   repository.NewHomeworkRepository(st),
		Submissions: repository.NewSubmissionRepository(st),
	}

	ctx := context.Background()
	if err := repos.Users.Init(ctx); err != nil {
		t.Fatalf("Failed to init users table: %v", err)
	}
	if err := repos.Homeworks.Init(ctx); err != nil {
		t.Fatalf("Failed to init homeworks table: %v", err)
	}
	if err := repos.Submissions.Init(ctx); err != nil {
		t.Fatalf("Failed to init submissions table: %v", err)
	}

	return repos
}

// CreateTeacher seeds a teacher account
func (r *Repos) CreateTeacher(t *testing.T, username, passwordHash string) *models.User {
	t.Helper()

	user := &models.User{
		ID:           "teacher-" + username,
		Role:         models.RoleTeacher,
		Username:     username,
		PasswordHash: passwordHash,
		DisplayName:  "Teacher " + username,
	}
	if err := r.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create teacher %s: %v", username, err)
	}
	return user
}

// CreateStudent seeds a student account
func (r *Repos) CreateStudent(t *testing.T, username, class string) *models.User {
	t.Helper()

	user := &models.User{
		ID:          "student-" + username,
		Role:        models.RoleStudent,
		Username:    username,
		DisplayName: "Student " + username,
		Class:       class,
	}
	if err := r.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create student %s: %v", username, err)
	}
	return user
}

// CreateHomework seeds an assignment
func (r *Repos) CreateHomework(t *testing.T, id, class, topic, expectedAnswer string) *models.Homework {
	t.Helper()

	hw := &models.Homework{
		ID:        id,
		Class:     class,
		Date:      "2026-01-15",
		Topic:     topic,
		TaskText:  "Solve the exercise for " + topic,
		CreatedAt: time.Now(),
	}
	hw.ExpectedAnswer = expectedAnswer
	if err := r.Homeworks.Create(context.Background(), hw); err != nil {
		t.Fatalf("Failed to create homework %s: %v", id, err)
	}
	return hw
}
