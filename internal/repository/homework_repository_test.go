package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilimbagdar/internal/models"
	"bilimbagdar/internal/store"
)

func newHomeworkRepo(t *testing.T) *HomeworkRepository {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	repo := NewHomeworkRepository(st)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("Failed to init: %v", err)
	}
	return repo
}

func seedHomework(t *testing.T, repo *HomeworkRepository, id, class, date string) {
	t.Helper()
	hw := &models.Homework{
		ID:        id,
		Class:     class,
		Date:      date,
		Topic:     "Тақырып " + id,
		TaskText:  "Тапсырма " + id,
		StepHints: []string{"бірінші қадам"},
		CreatedAt: time.Now(),
	}
	if err := repo.Create(context.Background(), hw); err != nil {
		t.Fatalf("Failed to create homework %s: %v", id, err)
	}
}

func TestHomeworkClassDateFilter(t *testing.T) {
	repo := newHomeworkRepo(t)
	ctx := context.Background()

	seedHomework(t, repo, "hw-1", "7", "2026-01-15")
	seedHomework(t, repo, "hw-2", "7", "2026-01-16")
	seedHomework(t, repo, "hw-3", "8", "2026-01-15")

	items, err := repo.GetForClassDate(ctx, "7", "2026-01-15")
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != "hw-1" {
		t.Errorf("Expected only hw-1, got %v", items)
	}

	// empty date matches every date for the class
	items, err = repo.GetForClassDate(ctx, "7", "")
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 items for class 7, got %v", items)
	}
}

func TestHomeworkRoundTrip(t *testing.T) {
	repo := newHomeworkRepo(t)
	ctx := context.Background()

	seedHomework(t, repo, "hw-1", "7", "2026-01-15")

	hw, err := repo.GetByID(ctx, "hw-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(hw.StepHints) != 1 || hw.StepHints[0] != "бірінші қадам" {
		t.Errorf("Step hints lost in round trip: %v", hw.StepHints)
	}
	if hw.CreatedAt.IsZero() {
		t.Error("CreatedAt lost in round trip")
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrHomeworkNotFound) {
		t.Errorf("Expected ErrHomeworkNotFound, got %v", err)
	}
}
