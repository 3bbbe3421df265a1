package service

import (
	"context"
	"sort"

	"bilimbagdar/internal/models"
	"bilimbagdar/internal/repository"
)

// TopicCount is one row of the per-topic submission tally
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// ReviewTopicCount ranks how often a subtopic was marked for review
type ReviewTopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// StudentActivity pairs a student with their submission count
type StudentActivity struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Class       string `json:"class"`
	Submissions int    `json:"submissions"`
}

// ClassOverview summarizes activity for the teacher dashboard
type ClassOverview struct {
	Students           int                `json:"students"`
	Homeworks          int                `json:"homeworks"`
	Submissions        int                `json:"submissions"`
	SubmissionsByTopic []TopicCount       `json:"submissions_by_topic"`
	ReviewTopics       []ReviewTopicCount `json:"review_topics"`
	Roster             []StudentActivity  `json:"roster"`
}

// AnalyticsService aggregates submissions into teacher-facing summaries
type AnalyticsService struct {
	userRepo *repository.UserRepository
	hwRepo   *repository.HomeworkRepository
	subRepo  *repository.SubmissionRepository
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(userRepo *repository.UserRepository, hwRepo *repository.HomeworkRepository, subRepo *repository.SubmissionRepository) *AnalyticsService {
	return &AnalyticsService{
		userRepo: userRepo,
		hwRepo:   hwRepo,
		subRepo:  subRepo,
	}
}

// Overview computes the dashboard summary across all stored records
func (s *AnalyticsService) Overview(ctx context.Context) (*ClassOverview, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	homeworks, err := s.hwRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	submissions, err := s.subRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	students := 0
	for _, u := range users {
		if u.Role == models.RoleStudent {
			students++
		}
	}

	return &ClassOverview{
		Students:           students,
		Homeworks:          len(homeworks),
		Submissions:        len(submissions),
		SubmissionsByTopic: tallyTopics(submissions),
		ReviewTopics:       tallyReviewTopics(submissions),
		Roster:             buildRoster(users, submissions),
	}, nil
}

// buildRoster lists every student with their submission count, in roster
// order. Students with no submissions still appear with a zero count.
func buildRoster(users []models.User, subs []models.Submission) []StudentActivity {
	perStudent := map[string]int{}
	for _, sub := range subs {
		perStudent[sub.StudentUsername]++
	}
	out := make([]StudentActivity, 0, len(users))
	for _, u := range users {
		if u.Role != models.RoleStudent {
			continue
		}
		out = append(out, StudentActivity{
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Class:       u.Class,
			Submissions: perStudent[u.Username],
		})
	}
	return out
}

func tallyTopics(subs []models.Submission) []TopicCount {
	counts := map[string]int{}
	for _, sub := range subs {
		if sub.Topic == "" {
			continue
		}
		counts[sub.Topic]++
	}
	out := make([]TopicCount, 0, len(counts))
	for topic, n := range counts {
		out = append(out, TopicCount{Topic: topic, Count: n})
	}
	// descending by count, alphabetical tie-break for stable output
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}

func tallyReviewTopics(subs []models.Submission) []ReviewTopicCount {
	counts := map[string]int{}
	for _, sub := range subs {
		for _, topic := range sub.NeedsReview {
			counts[topic]++
		}
	}
	out := make([]ReviewTopicCount, 0, len(counts))
	for topic, n := range counts {
		out = append(out, ReviewTopicCount{Topic: topic, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}
