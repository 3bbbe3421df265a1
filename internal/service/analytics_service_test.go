package service

import (
	"context"
	"testing"

	"bilimbagdar/internal/testutil"
)

func TestAnalyticsOverview(t *testing.T) {
	repos := testutil.SetupRepos(t)
	subSvc := NewSubmissionService(repos.Submissions, repos.Homeworks, testReflectionService(), nil)
	svc := NewAnalyticsService(repos.Users, repos.Homeworks, repos.Submissions)
	ctx := context.Background()

	repos.CreateTeacher(t, "mugalim", "hash")
	aruzhan := repos.CreateStudent(t, "aruzhan", "7")
	dias := repos.CreateStudent(t, "dias", "7")
	hw1 := repos.CreateHomework(t, "hw-1", "7", "Linear equations", "")
	hw2 := repos.CreateHomework(t, "hw-2", "7", "Пайыздар", "")

	if _, err := subSvc.Submit(ctx, aruzhan, SubmitInput{HomeworkID: hw1.ID, WorkText: "w"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := subSvc.Submit(ctx, dias, SubmitInput{HomeworkID: hw1.ID, WorkText: "w"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := subSvc.Submit(ctx, aruzhan, SubmitInput{HomeworkID: hw2.ID, WorkText: "w"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	overview, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}

	if overview.Students != 2 {
		t.Errorf("Expected 2 students, got %d", overview.Students)
	}
	if overview.Homeworks != 2 {
		t.Errorf("Expected 2 homeworks, got %d", overview.Homeworks)
	}
	if overview.Submissions != 3 {
		t.Errorf("Expected 3 submissions, got %d", overview.Submissions)
	}

	// the busier topic ranks first
	if len(overview.SubmissionsByTopic) != 2 {
		t.Fatalf("Expected 2 topic rows, got %v", overview.SubmissionsByTopic)
	}
	if overview.SubmissionsByTopic[0].Topic != "Linear equations" || overview.SubmissionsByTopic[0].Count != 2 {
		t.Errorf("Topic ranking wrong: %v", overview.SubmissionsByTopic)
	}

	if len(overview.ReviewTopics) == 0 {
		t.Error("Review topic ranking should not be empty")
	}

	if len(overview.Roster) != 2 {
		t.Fatalf("Expected 2 roster rows, got %v", overview.Roster)
	}
	counts := map[string]int{}
	for _, row := range overview.Roster {
		counts[row.Username] = row.Submissions
	}
	if counts["aruzhan"] != 2 || counts["dias"] != 1 {
		t.Errorf("Roster submission counts wrong: %v", overview.Roster)
	}
}
