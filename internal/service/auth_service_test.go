package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilimbagdar/internal/auth"
	"bilimbagdar/internal/config"
	"bilimbagdar/internal/models"
	"bilimbagdar/internal/testutil"
)

func newAuthService(t *testing.T) (*AuthService, *testutil.Repos) {
	t.Helper()

	repos := testutil.SetupRepos(t)
	authSvc := auth.NewService(&config.JWTConfig{Expiration: time.Hour})
	return NewAuthService(repos.Users, authSvc), repos
}

func TestBootstrapGate(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	required, err := svc.BootstrapRequired(ctx)
	if err != nil {
		t.Fatalf("Failed to check bootstrap: %v", err)
	}
	if !required {
		t.Fatal("Empty system should require bootstrap")
	}

	teacher, err := svc.RegisterFirstTeacher(ctx, "mugalim", "password123", "Айгүл Мұғалім")
	if err != nil {
		t.Fatalf("Failed to register first teacher: %v", err)
	}
	if teacher.Role != models.RoleTeacher {
		t.Errorf("Expected teacher role, got %s", teacher.Role)
	}

	required, err = svc.BootstrapRequired(ctx)
	if err != nil {
		t.Fatalf("Failed to check bootstrap: %v", err)
	}
	if required {
		t.Error("Bootstrap should be closed after the first teacher")
	}
}

func TestSecondBootstrapRefused(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.RegisterFirstTeacher(ctx, "mugalim", "password123", "Айгүл"); err != nil {
		t.Fatalf("Failed to register first teacher: %v", err)
	}

	_, err := svc.RegisterFirstTeacher(ctx, "another", "password123", "Басқа")
	if !errors.Is(err, ErrBootstrapDone) {
		t.Errorf("Expected ErrBootstrapDone, got %v", err)
	}
}

func TestBootstrapRejectsTakenUsername(t *testing.T) {
	svc, repos := newAuthService(t)
	ctx := context.Background()

	// an imported student row already holds the name
	repos.CreateStudent(t, "aruzhan", "7")

	_, err := svc.RegisterFirstTeacher(ctx, "ARUZHAN", "password123", "Аружан")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("Expected ErrUsernameTaken, got %v", err)
	}

	// the student row is untouched and still resolves
	user, err := repos.Users.GetByUsername(ctx, "aruzhan")
	if err != nil {
		t.Fatalf("Failed to load student: %v", err)
	}
	if user.Role != models.RoleStudent {
		t.Errorf("Expected the original student row, got role %s", user.Role)
	}

	users, err := repos.Users.GetAll(ctx)
	if err != nil {
		t.Fatalf("Failed to list users: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("Expected 1 user after refused bootstrap, got %d", len(users))
	}
}

func TestLoginRefusedBeforeBootstrap(t *testing.T) {
	svc, repos := newAuthService(t)
	ctx := context.Background()

	// a student row alone does not open the system
	repos.CreateStudent(t, "aruzhan", "7")

	_, _, err := svc.Login(ctx, "aruzhan", "whatever")
	if !errors.Is(err, ErrBootstrapRequired) {
		t.Errorf("Expected ErrBootstrapRequired, got %v", err)
	}
}

func TestLoginFlow(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.RegisterFirstTeacher(ctx, "mugalim", "password123", "Айгүл"); err != nil {
		t.Fatalf("Failed to register first teacher: %v", err)
	}

	user, token, err := svc.Login(ctx, "mugalim", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" {
		t.Error("Token should not be empty")
	}
	if user.Username != "mugalim" {
		t.Errorf("Wrong user resolved: %s", user.Username)
	}

	// usernames resolve case-insensitively
	if _, _, err := svc.Login(ctx, "MUGALIM", "password123"); err != nil {
		t.Errorf("Case-insensitive login failed: %v", err)
	}

	if _, _, err := svc.Login(ctx, "mugalim", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginWithLegacyHash(t *testing.T) {
	svc, repos := newAuthService(t)
	ctx := context.Background()

	repos.CreateTeacher(t, "mugalim", auth.LegacySHA256("eskiparol"))

	user, _, err := svc.Login(ctx, "mugalim", "eskiparol")
	if err != nil {
		t.Fatalf("Legacy-hash login failed: %v", err)
	}
	if user.Username != "mugalim" {
		t.Errorf("Wrong user resolved: %s", user.Username)
	}
}
