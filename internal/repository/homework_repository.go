package repository

import (
	"context"
	"errors"
	"fmt"

	"bilimbagdar/internal/models"
	"bilimbagdar/internal/store"
)

var ErrHomeworkNotFound = errors.New("homework not found")

// HomeworksTable is the backing table name for assignments
const HomeworksTable = "homeworks"

var homeworkHeaders = []string{"id", "class", "date", "topic", "task_text", "expected_answer", "step_hints", "created_at"}

// HomeworkRepository handles homework persistence over the record store.
// Homework rows are immutable once appended; there is no update path.
type HomeworkRepository struct {
	store store.Store
}

// NewHomeworkRepository creates a new homework repository
func NewHomeworkRepository(s store.Store) *HomeworkRepository {
	return &HomeworkRepository{store: s}
}

// Init ensures the backing table exists with the expected schema
func (r *HomeworkRepository) Init(ctx context.Context) error {
	return r.store.EnsureTable(ctx, HomeworksTable, homeworkHeaders)
}

// Create appends a new homework row
func (r *HomeworkRepository) Create(ctx context.Context, hw *models.Homework) error {
	if err := r.store.Append(ctx, HomeworksTable, homeworkToRecord(hw)); err != nil {
		return fmt.Errorf("failed to create homework: %w", err)
	}
	return nil
}

// GetAll returns every homework item in insertion order
func (r *HomeworkRepository) GetAll(ctx context.Context) ([]models.Homework, error) {
	recs, err := r.store.ReadAll(ctx, HomeworksTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read homeworks: %w", err)
	}

	items := make([]models.Homework, 0, len(recs))
	for _, rec := range recs {
		items = append(items, recordToHomework(rec))
	}
	return items, nil
}

// GetByID finds a homework item by id
func (r *HomeworkRepository) GetByID(ctx context.Context, id string) (*models.Homework, error) {
	items, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, ErrHomeworkNotFound
}

// GetForClassDate returns the items published for a class on a given date,
// the student's "today" view. An empty class or date matches everything.
func (r *HomeworkRepository) GetForClassDate(ctx context.Context, class, date string) ([]models.Homework, error) {
	items, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.Homework
	for _, hw := range items {
		if class != "" && hw.Class != class {
			continue
		}
		if date != "" && hw.Date != date {
			continue
		}
		out = append(out, hw)
	}
	return out, nil
}

func homeworkToRecord(hw *models.Homework) store.Record {
	return store.Record{
		"id":              hw.ID,
		"class":           hw.Class,
		"date":            hw.Date,
		"topic":           hw.Topic,
		"task_text":       hw.TaskText,
		"expected_answer": hw.ExpectedAnswer,
		"step_hints":      encodeStringList(hw.StepHints),
		"created_at":      encodeTime(hw.CreatedAt),
	}
}

func recordToHomework(rec store.Record) models.Homework {
	return models.Homework{
		ID:             rec["id"],
		Class:          rec["class"],
		Date:           rec["date"],
		Topic:          rec["topic"],
		TaskText:       rec["task_text"],
		ExpectedAnswer: rec["expected_answer"],
		StepHints:      decodeStringList(rec["step_hints"]),
		CreatedAt:      decodeTime(rec["created_at"]),
	}
}
