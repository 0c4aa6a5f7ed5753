package models

import (
	"time"

	"github.com/dustin/go-humanize"
)

// QuestionType names the answer shape a question collects.
type QuestionType string

// Question type constants
const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	Rating         QuestionType = "rating"
	Text           QuestionType = "text"
)

// Rating bounds (inclusive)
const (
	RatingMin = 0
	RatingMax = 10
)

// Fixed true/false option labels
const (
	TrueLabel  = "正确"
	FalseLabel = "错误"
)

// TrueFalseOptions returns a fresh copy of the fixed true/false option list.
func TrueFalseOptions() []string {
	return []string{TrueLabel, FalseLabel}
}

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case SingleChoice, MultipleChoice, TrueFalse, Rating, Text:
		return true
	}
	return false
}

// IsChoice reports whether answers are drawn from an option list.
func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultipleChoice || t == TrueFalse
}

// Domain types

type Survey struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	CreatorID       string    `json:"creator_id"`
	IsPrivate       bool      `json:"is_private"`
	PasswordHash    string    `json:"-"`
	Version         int       `json:"version"`
	ResponseVersion int       `json:"response_version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Question struct {
	ID           string       `json:"id"`
	SurveyID     string       `json:"survey_id"`
	Text         string       `json:"question_text"`
	Type         QuestionType `json:"question_type"`
	Options      []string     `json:"options"`
	DisplayOrder int          `json:"display_order"`
}

// Response is one stored answer to one question. Responses are never mutated.
type Response struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	SurveyID     string    `json:"survey_id"`
	QuestionID   string    `json:"question_id"`
	UserID       string    `json:"user_id"`
	Answer       Answer    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Submission records one accepted batch of responses.
// Token is the client idempotency token; replays return the original row.
type Submission struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	SurveyID  string    `json:"survey_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Replayed  bool      `json:"replayed,omitempty"`
}

type Profile struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Read models

// SurveyWithQuestions is a survey plus its questions in display order.
type SurveyWithQuestions struct {
	Survey    Survey     `json:"survey"`
	Questions []Question `json:"questions"`
}

// SurveyListing is a creator's view of one of their surveys.
type SurveyListing struct {
	Survey          Survey `json:"survey"`
	QuestionCount   int    `json:"question_count"`
	RespondentCount int    `json:"respondent_count"`
}

// CompletedSurvey is a survey the caller has answered at least once.
type CompletedSurvey struct {
	SurveyID           string    `json:"survey_id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	CreatorID          string    `json:"creator_id"`
	CreatorDisplayName string    `json:"creator_display_name"`
	CompletedAt        time.Time `json:"completed_at"`
}

// Age describes CompletedAt relative to now, e.g. "3 days ago".
func (c CompletedSurvey) Age(now time.Time) string {
	return humanize.RelTime(c.CompletedAt, now, "ago", "from now")
}
