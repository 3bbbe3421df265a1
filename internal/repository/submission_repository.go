package repository

import (
	"context"
	"fmt"

	"bilimbagdar/internal/models"
	"bilimbagdar/internal/store"
)

// SubmissionsTable is the backing table name for student submissions
const SubmissionsTable = "submissions"

var submissionHeaders = []string{
	"id", "submitted_at", "student_name", "student_username", "class", "date",
	"hw_id", "topic", "task_text", "work_text", "final_answer", "attachments",
	"ai_reflection", "needs_review", "next_steps", "correct", "flags",
}

// SubmissionRepository handles submission persistence over the record
// store. Submissions are append-only: no update or delete path exists.
type SubmissionRepository struct {
	store store.Store
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(s store.Store) *SubmissionRepository {
	return &SubmissionRepository{store: s}
}

// Init ensures the backing table exists with the expected schema
func (r *SubmissionRepository) Init(ctx context.Context) error {
	return r.store.EnsureTable(ctx, SubmissionsTable, submissionHeaders)
}

// Create appends a new submission row
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if err := r.store.Append(ctx, SubmissionsTable, submissionToRecord(sub)); err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// GetAll returns every submission in insertion order
func (r *SubmissionRepository) GetAll(ctx context.Context) ([]models.Submission, error) {
	recs, err := r.store.ReadAll(ctx, SubmissionsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read submissions: %w", err)
	}

	subs := make([]models.Submission, 0, len(recs))
	for _, rec := range recs {
		subs = append(subs, recordToSubmission(rec))
	}
	return subs, nil
}

// GetByStudent returns the submissions of one student, newest last
func (r *SubmissionRepository) GetByStudent(ctx context.Context, username string) ([]models.Submission, error) {
	subs, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	want := normalizeUsername(username)
	var out []models.Submission
	for _, s := range subs {
		if normalizeUsername(s.StudentUsername) == want {
			out = append(out, s)
		}
	}
	return out, nil
}

// GetByHomework returns the submissions recorded for one assignment
func (r *SubmissionRepository) GetByHomework(ctx context.Context, hwID string) ([]models.Submission, error) {
	subs, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.Submission
	for _, s := range subs {
		if s.HomeworkID == hwID {
			out = append(out, s)
		}
	}
	return out, nil
}

func submissionToRecord(s *models.Submission) store.Record {
	return store.Record{
		"id":               s.ID,
		"submitted_at":     encodeTime(s.SubmittedAt),
		"student_name":     s.StudentName,
		"student_username": s.StudentUsername,
		"class":            s.Class,
		"date":             s.Date,
		"hw_id":            s.HomeworkID,
		"topic":            s.Topic,
		"task_text":        s.TaskText,
		"work_text":        s.WorkText,
		"final_answer":     s.FinalAnswer,
		"attachments":      encodeAttachments(s.Attachments),
		"ai_reflection":    s.AIReflection,
		"needs_review":     encodeStringList(s.NeedsReview),
		"next_steps":       encodeStringList(s.NextSteps),
		"correct":          string(s.Correct),
		"flags":            encodeStringList(s.Flags),
	}
}

func recordToSubmission(rec store.Record) models.Submission {
	return models.Submission{
		ID:              rec["id"],
		SubmittedAt:     decodeTime(rec["submitted_at"]),
		StudentName:     rec["student_name"],
		StudentUsername: rec["student_username"],
		Class:           rec["class"],
		Date:            rec["date"],
		HomeworkID:      rec["hw_id"],
		Topic:           rec["topic"],
		TaskText:        rec["task_text"],
		WorkText:        rec["work_text"],
		FinalAnswer:     rec["final_answer"],
		Attachments:     decodeAttachments(rec["attachments"]),
		AIReflection:    rec["ai_reflection"],
		NeedsReview:     decodeStringList(rec["needs_review"]),
		NextSteps:       decodeStringList(rec["next_steps"]),
		Correct:         models.Correctness(rec["correct"]),
		Flags:           decodeStringList(rec["flags"]),
	}
}
