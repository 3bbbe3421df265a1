package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"bilimbagdar/internal/blob"
	"bilimbagdar/internal/models"
	"bilimbagdar/internal/repository"
)

// ErrHomeworkRequired means the submission referenced no resolvable homework.
var ErrHomeworkRequired = errors.New("homework not found for submission")

// FileUpload is one raw file handed in alongside a submission
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// SubmissionService runs the submit workflow: attachment handling, reflection
// generation and the append to the submissions table.
type SubmissionService struct {
	subRepo    *repository.SubmissionRepository
	hwRepo     *repository.HomeworkRepository
	reflection *ReflectionService
	uploader   blob.Uploader // nil when no bucket is configured
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(subRepo *repository.SubmissionRepository, hwRepo *repository.HomeworkRepository, reflection *ReflectionService, uploader blob.Uploader) *SubmissionService {
	return &SubmissionService{
		subRepo:    subRepo,
		hwRepo:     hwRepo,
		reflection: reflection,
		uploader:   uploader,
	}
}

// SubmitInput carries everything a student hands in
type SubmitInput struct {
	HomeworkID  string
	WorkText    string
	FinalAnswer string
	Files       []FileUpload
	Transcript  []models.ChatMessage
}

// Submit validates, generates the reflection and appends the submission.
// The write is not atomic with attachment uploads: a failed append after a
// successful upload surfaces as an error and the caller may retry.
func (s *SubmissionService) Submit(ctx context.Context, student *models.User, in SubmitInput) (*models.Submission, error) {
	if strings.TrimSpace(in.WorkText) == "" {
		return nil, fmt.Errorf("%w: work text is required", ErrValidation)
	}

	hw, err := s.hwRepo.GetByID(ctx, in.HomeworkID)
	if err != nil {
		if errors.Is(err, repository.ErrHomeworkNotFound) {
			return nil, ErrHomeworkRequired
		}
		return nil, err
	}

	attachments, err := s.storeFiles(ctx, in.Files)
	if err != nil {
		return nil, err
	}

	refl := s.reflection.Reflect(ctx, hw, in.FinalAnswer, in.Transcript)

	sub := &models.Submission{
		ID:              uuid.NewString(),
		SubmittedAt:     time.Now(),
		StudentName:     student.DisplayName,
		StudentUsername: student.Username,
		Class:           student.Class,
		Date:            hw.Date,
		HomeworkID:      hw.ID,
		Topic:           hw.Topic,
		TaskText:        hw.TaskText,
		WorkText:        in.WorkText,
		FinalAnswer:     strings.TrimSpace(in.FinalAnswer),
		Attachments:     attachments,
		AIReflection:    refl.Text,
		NeedsReview:     refl.NeedsReview,
		NextSteps:       refl.NextSteps,
		Correct:         refl.Correct,
		Flags:           refl.Flags,
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to record submission: %w", err)
	}

	slog.Info("Submission recorded",
		"submission_id", sub.ID,
		"student", sub.StudentUsername,
		"hw_id", sub.HomeworkID,
		"attachments", len(sub.Attachments))
	return sub, nil
}

// Coach produces the next assistant turn for a coaching session. The
// transcript travels with the request; the server keeps no session state.
func (s *SubmissionService) Coach(ctx context.Context, homeworkID string, transcript []models.ChatMessage) (string, error) {
	hw, err := s.hwRepo.GetByID(ctx, homeworkID)
	if err != nil {
		if errors.Is(err, repository.ErrHomeworkNotFound) {
			return "", ErrHomeworkRequired
		}
		return "", err
	}
	return s.reflection.CoachReply(ctx, hw, transcript), nil
}

// ListForStudent returns the student's own submissions
func (s *SubmissionService) ListForStudent(ctx context.Context, username string) ([]models.Submission, error) {
	return s.subRepo.GetByStudent(ctx, username)
}

// ListAll returns every submission, the teacher's review queue
func (s *SubmissionService) ListAll(ctx context.Context) ([]models.Submission, error) {
	return s.subRepo.GetAll(ctx)
}

// ListForHomework returns the submissions handed in for one assignment
func (s *SubmissionService) ListForHomework(ctx context.Context, hwID string) ([]models.Submission, error) {
	return s.subRepo.GetByHomework(ctx, hwID)
}

// storeFiles uploads each file to blob storage, falling back to inline
// base64 encoding when no uploader is configured or an upload fails.
func (s *SubmissionService) storeFiles(ctx context.Context, files []FileUpload) ([]models.Attachment, error) {
	attachments := []models.Attachment{}
	for _, f := range files {
		if len(f.Data) == 0 {
			continue
		}
		if s.uploader != nil {
			obj, err := s.uploader.Upload(ctx, f.Name, f.ContentType, f.Data)
			if err == nil {
				attachments = append(attachments, models.Attachment{
					Name: f.Name,
					Type: f.ContentType,
					URL:  obj.URL,
					Size: int64(len(f.Data)),
				})
				continue
			}
			slog.Warn("Blob upload failed, storing attachment inline", "file", f.Name, "error", err)
		}
		attachments = append(attachments, models.Attachment{
			Name:    f.Name,
			Type:    f.ContentType,
			DataB64: base64.StdEncoding.EncodeToString(f.Data),
			Size:    int64(len(f.Data)),
		})
	}
	return attachments, nil
}
