package models

import (
	"time"
)

// Role identifies the two account types in the system
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether the role is one of the two enumerated values
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// Correctness is the tri-state result of comparing a final answer against
// the teacher's expected answer. Unknown is used whenever the homework has
// no expected answer.
type Correctness string

const (
	CorrectnessUnknown   Correctness = ""
	CorrectnessCorrect   Correctness = "true"
	CorrectnessIncorrect Correctness = "false"
)

// User represents a teacher or student account
type User struct {
	ID           string `json:"id"`
	Role         Role   `json:"role"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	DisplayName  string `json:"display_name"`
	Class        string `json:"class,omitempty"` // students only
}

// Homework represents a published assignment. Immutable after creation.
type Homework struct {
	ID             string    `json:"id"`
	Class          string    `json:"class"`
	Date           string    `json:"date"` // calendar date, YYYY-MM-DD
	Topic          string    `json:"topic"`
	TaskText       string    `json:"task_text"`
	ExpectedAnswer string    `json:"expected_answer,omitempty"`
	StepHints      []string  `json:"step_hints,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Attachment describes one uploaded file on a submission. Exactly one of
// URL (externally hosted) or DataB64 (inline-encoded bytes) is set.
type Attachment struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	URL     string `json:"url,omitempty"`
	DataB64 string `json:"data_b64,omitempty"`
	Size    int64  `json:"size"`
}

// Submission represents a student's completed homework submission.
// Append-only: never mutated or deleted after creation.
type Submission struct {
	ID              string       `json:"id"`
	SubmittedAt     time.Time    `json:"submitted_at"`
	StudentName     string       `json:"student_name"`
	StudentUsername string       `json:"student_username"`
	Class           string       `json:"class"`
	Date            string       `json:"date"`
	HomeworkID      string       `json:"hw_id"`
	Topic           string       `json:"topic"`
	TaskText        string       `json:"task_text"` // snapshot, not a live reference
	WorkText        string       `json:"work_text"`
	FinalAnswer     string       `json:"final_answer"`
	Attachments     []Attachment `json:"attachments"`
	AIReflection    string       `json:"ai_reflection"`
	NeedsReview     []string     `json:"needs_review"`
	NextSteps       []string     `json:"next_steps"`
	Correct         Correctness  `json:"correct"`
	Flags           []string     `json:"flags"`
}

// ChatMessage is one entry in a coaching session transcript
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Reflection is the structured feedback generated for a submission
type Reflection struct {
	Text        string      `json:"text"`
	NeedsReview []string    `json:"needs_review"`
	NextSteps   []string    `json:"next_steps"`
	Correct     Correctness `json:"correct"`
	Flags       []string    `json:"flags"`
}
