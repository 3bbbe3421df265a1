package service

import (
	"context"
	"errors"
	"testing"

	"bilimbagdar/internal/models"
	"bilimbagdar/internal/testutil"
)

func newSubmissionService(t *testing.T) (*SubmissionService, *testutil.Repos) {
	t.Helper()

	repos := testutil.SetupRepos(t)
	svc := NewSubmissionService(repos.Submissions, repos.Homeworks, testReflectionService(), nil)
	return svc, repos
}

func TestSubmitWorkflow(t *testing.T) {
	svc, repos := newSubmissionService(t)
	ctx := context.Background()

	student := repos.CreateStudent(t, "aruzhan", "7")
	hw := repos.CreateHomework(t, "hw-1", "7", "Linear equations", "")

	sub, err := svc.Submit(ctx, student, SubmitInput{
		HomeworkID:  hw.ID,
		WorkText:    "2x + 3 = 11, сондықтан 2x = 8, x = 4",
		FinalAnswer: "4",
		Transcript: []models.ChatMessage{
			{Role: "user", Content: "Қалай бастаймын?"},
			{Role: "assistant", Content: "Алдымен белгісізді оқшаула"},
		},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if sub.ID == "" || sub.SubmittedAt.IsZero() {
		t.Error("Submission should get an ID and timestamp")
	}
	if sub.StudentUsername != "aruzhan" || sub.Class != "7" {
		t.Errorf("Student snapshot wrong: %+v", sub)
	}
	if sub.Topic != "Linear equations" || sub.TaskText != hw.TaskText {
		t.Errorf("Homework snapshot wrong: %+v", sub)
	}

	// no expected answer: correctness stays unknown
	if sub.Correct != models.CorrectnessUnknown {
		t.Errorf("Expected unknown correctness, got %q", sub.Correct)
	}
	if sub.AIReflection == "" {
		t.Error("Reflection text should be present")
	}
	if len(sub.NeedsReview) == 0 {
		t.Error("Review topics should be seeded")
	}
	if sub.Attachments == nil || len(sub.Attachments) != 0 {
		t.Errorf("Expected empty attachment list, got %v", sub.Attachments)
	}

	stored, err := repos.Submissions.GetByStudent(ctx, "aruzhan")
	if err != nil {
		t.Fatalf("Failed to reload submissions: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != sub.ID {
		t.Errorf("Submission not persisted correctly: %v", stored)
	}
}

func TestSubmitGradesAgainstExpectedAnswer(t *testing.T) {
	svc, repos := newSubmissionService(t)
	ctx := context.Background()

	student := repos.CreateStudent(t, "dias", "7")
	hw := repos.CreateHomework(t, "hw-2", "7", "Теңдеулер", "4")

	sub, err := svc.Submit(ctx, student, SubmitInput{
		HomeworkID:  hw.ID,
		WorkText:    "x = 4",
		FinalAnswer: "4",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if sub.Correct != models.CorrectnessCorrect {
		t.Errorf("Expected correct, got %q", sub.Correct)
	}

	sub, err = svc.Submit(ctx, student, SubmitInput{
		HomeworkID:  hw.ID,
		WorkText:    "x = 5",
		FinalAnswer: "5",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if sub.Correct != models.CorrectnessIncorrect {
		t.Errorf("Expected incorrect, got %q", sub.Correct)
	}
}

func TestSubmitRequiresWorkText(t *testing.T) {
	svc, repos := newSubmissionService(t)
	ctx := context.Background()

	student := repos.CreateStudent(t, "aruzhan", "7")
	hw := repos.CreateHomework(t, "hw-1", "7", "Теңдеулер", "")

	_, err := svc.Submit(ctx, student, SubmitInput{
		HomeworkID: hw.ID,
		WorkText:   "   ",
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Blank work text should fail validation, got %v", err)
	}

	subs, _ := repos.Submissions.GetAll(ctx)
	if len(subs) != 0 {
		t.Error("Nothing should be written on validation failure")
	}
}

func TestSubmitUnknownHomework(t *testing.T) {
	svc, repos := newSubmissionService(t)
	ctx := context.Background()

	student := repos.CreateStudent(t, "aruzhan", "7")

	_, err := svc.Submit(ctx, student, SubmitInput{
		HomeworkID: "missing",
		WorkText:   "some work",
	})
	if !errors.Is(err, ErrHomeworkRequired) {
		t.Errorf("Expected ErrHomeworkRequired, got %v", err)
	}
}

func TestSubmitInlinesFilesWithoutUploader(t *testing.T) {
	svc, repos := newSubmissionService(t)
	ctx := context.Background()

	student := repos.CreateStudent(t, "aruzhan", "7")
	hw := repos.CreateHomework(t, "hw-1", "7", "Теңдеулер", "")

	sub, err := svc.Submit(ctx, student, SubmitInput{
		HomeworkID: hw.ID,
		WorkText:   "жұмыс фотода",
		Files: []FileUpload{
			{Name: "work.jpg", ContentType: "image/jpeg", Data: []byte("fake-jpeg-bytes")},
		},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if len(sub.Attachments) != 1 {
		t.Fatalf("Expected 1 attachment, got %d", len(sub.Attachments))
	}
	att := sub.Attachments[0]
	if att.URL != "" {
		t.Error("No uploader configured, URL should be empty")
	}
	if att.DataB64 == "" || att.Name != "work.jpg" || att.Size != int64(len("fake-jpeg-bytes")) {
		t.Errorf("Inline attachment wrong: %+v", att)
	}
}

func TestCoachUnknownHomework(t *testing.T) {
	svc, _ := newSubmissionService(t)

	_, err := svc.Coach(context.Background(), "missing", nil)
	if !errors.Is(err, ErrHomeworkRequired) {
		t.Errorf("Expected ErrHomeworkRequired, got %v", err)
	}
}
