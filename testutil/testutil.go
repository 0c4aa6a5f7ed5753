// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-survey/auth"
	"github.com/danielhkuo/quickly-survey/cliparse"
	"github.com/danielhkuo/quickly-survey/db"
	"github.com/danielhkuo/quickly-survey/identity"
	"github.com/danielhkuo/quickly-survey/models"
)

// SetupTestDB creates a fresh in-memory SQLite database with the full schema.
// The pool is pinned to one connection so every query sees the same database.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, db.SQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupTestStore returns a Store over a fresh test database
func SetupTestStore(t *testing.T) *db.Store {
	t.Helper()
	return db.NewStore(SetupTestDB(t))
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		DatabaseURL:    ":memory:",
		DatabaseType:   db.SQLite,
		PasswordPepper: "test-pepper",
		TokenSecret:    "test-token-secret",
		TokenTTL:       time.Hour,
		StatsCacheTTL:  time.Minute,
	}
}

// SampleQuestions returns one question of every type, in display order, without ids
func SampleQuestions() []models.Question {
	return []models.Question{
		{Text: "Favourite colour?", Type: models.SingleChoice, Options: []string{"Red", "Green", "Blue"}},
		{Text: "Which languages?", Type: models.MultipleChoice, Options: []string{"Go", "Rust", "Zig"}},
		{Text: "Is the sky blue?", Type: models.TrueFalse, Options: models.TrueFalseOptions()},
		{Text: "Rate the workshop", Type: models.Rating, Options: []string{}},
		{Text: "Any comments?", Type: models.Text, Options: []string{}},
	}
}

// CreateTestSurvey stores a survey with SampleQuestions. A non-empty
// password makes it private.
func CreateTestSurvey(t *testing.T, store *db.Store, creatorID, password string) (models.Survey, []models.Question) {
	t.Helper()

	now := time.Now().UTC()
	s := models.Survey{
		ID:          auth.GenerateID(),
		Title:       "Test Survey",
		Description: "A test survey",
		CreatorID:   creatorID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if password != "" {
		hash, err := auth.HashPassword(password, GetTestConfig().PasswordPepper)
		if err != nil {
			t.Fatalf("Failed to hash password: %v", err)
		}
		s.IsPrivate = true
		s.PasswordHash = hash
	}

	questions := SampleQuestions()
	for i := range questions {
		questions[i].ID = auth.GenerateID()
		questions[i].SurveyID = s.ID
		questions[i].DisplayOrder = i
	}

	if err := store.CreateSurvey(context.Background(), s, questions); err != nil {
		t.Fatalf("Failed to create test survey: %v", err)
	}
	return s, questions
}

// CompleteAnswers returns a valid answer for every SampleQuestions question
func CompleteAnswers(questions []models.Question) map[string]models.Answer {
	answers := make(map[string]models.Answer, len(questions))
	for _, q := range questions {
		switch q.Type {
		case models.SingleChoice:
			answers[q.ID] = models.SingleChoiceAnswer(q.Options[0])
		case models.MultipleChoice:
			answers[q.ID] = models.NewMultipleChoiceAnswer(q.Options[0], q.Options[1])
		case models.TrueFalse:
			answers[q.ID] = models.TrueFalseAnswer(models.TrueLabel)
		case models.Rating:
			answers[q.ID] = models.RatingAnswer(8)
		case models.Text:
			answers[q.ID] = models.TextAnswer("Great session")
		}
	}
	return answers
}

// CreateTestProfile stores a display name for a user
func CreateTestProfile(t *testing.T, store *db.Store, userID, displayName string) {
	t.Helper()

	err := store.UpsertProfile(context.Background(), models.Profile{
		UserID:      userID,
		DisplayName: displayName,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}
}

// NewTestSession returns a session signed in as userID
func NewTestSession(t *testing.T, cfg cliparse.Config, userID string) *identity.Session {
	t.Helper()

	v := identity.NewVerifier(cfg.TokenSecret, cfg.TokenTTL)
	session := identity.NewSession(v)
	SignIn(t, session, cfg, userID)
	return session
}

// SignIn switches session to userID using a freshly issued token
func SignIn(t *testing.T, session *identity.Session, cfg cliparse.Config, userID string) {
	t.Helper()

	token, err := identity.NewVerifier(cfg.TokenSecret, cfg.TokenTTL).Issue(identity.User{ID: userID})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	if _, err := session.SignIn(token); err != nil {
		t.Fatalf("Failed to sign in: %v", err)
	}
}
