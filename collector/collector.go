// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/quickly-survey/auth"
	"github.com/danielhkuo/quickly-survey/models"
)

// Store is the persistence the collector needs.
type Store interface {
	ListQuestions(ctx context.Context, surveyID string) ([]models.Question, error)
	FindSubmission(ctx context.Context, token string) (models.Submission, error)
	AppendResponses(ctx context.Context, sub models.Submission, responses []models.Response) (models.Submission, error)
}

type Collector struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Collector {
	return &Collector{store: store, now: time.Now}
}

// ValidateCompleteness returns the id of every question that has no answer
// or an empty one, in the questions' order.
func ValidateCompleteness(questions []models.Question, answers map[string]models.Answer) []string {
	missing := []string{}
	for _, q := range questions {
		a, ok := answers[q.ID]
		if !ok || a == nil || a.IsEmpty() {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// ValidateAnswers checks that each answer's shape matches its question's
// type and that ratings are in range. Membership of choice answers in the
// declared options is not checked.
func ValidateAnswers(questions []models.Question, answers map[string]models.Answer) error {
	var errs []error
	for _, q := range questions {
		a, ok := answers[q.ID]
		if !ok || a == nil {
			continue
		}
		field := fmt.Sprintf("answers[%s]", q.ID)
		if a.QuestionType() != q.Type {
			errs = append(errs, &models.FieldError{
				Field: field,
				Err:   fmt.Errorf("%w: %s answer for %s question", models.ErrInvalidAnswer, a.QuestionType(), q.Type),
			})
			continue
		}
		if r, ok := a.(models.RatingAnswer); ok && (int(r) < models.RatingMin || int(r) > models.RatingMax) {
			errs = append(errs, &models.FieldError{
				Field: field,
				Err:   fmt.Errorf("%w: rating %d outside %d..%d", models.ErrInvalidAnswer, r, models.RatingMin, models.RatingMax),
			})
		}
	}
	return errors.Join(errs...)
}

// Submit validates a respondent's full answer set and stores it as one
// batch. token identifies the attempt: resubmitting with the same token
// returns the original submission without writing again. An empty token
// makes the call non-idempotent.
func (c *Collector) Submit(ctx context.Context, surveyID, userID, token string, answers map[string]models.Answer) (models.Submission, error) {
	if token == "" {
		token = auth.NewSubmissionToken()
	} else {
		// A retry returns the original even if the questions changed since
		existing, err := c.store.FindSubmission(ctx, token)
		switch {
		case err == nil:
			if existing.SurveyID != surveyID || existing.UserID != userID {
				return models.Submission{}, models.ErrTokenReused
			}
			existing.Replayed = true
			return existing, nil
		case !errors.Is(err, models.ErrNotFound):
			return models.Submission{}, &models.PersistenceError{Op: "find submission", Err: err}
		}
	}

	questions, err := c.store.ListQuestions(ctx, surveyID)
	if err != nil {
		return models.Submission{}, &models.PersistenceError{Op: "load questions", Err: err}
	}
	if len(questions) == 0 {
		return models.Submission{}, models.ErrNotFound
	}

	// All validation happens before any write
	if missing := ValidateCompleteness(questions, answers); len(missing) > 0 {
		return models.Submission{}, &models.IncompleteSubmissionError{Missing: missing}
	}
	if err := ValidateAnswers(questions, answers); err != nil {
		return models.Submission{}, err
	}

	now := c.now().UTC()
	sub := models.Submission{
		ID:        auth.GenerateID(),
		Token:     token,
		SurveyID:  surveyID,
		UserID:    userID,
		CreatedAt: now,
	}

	rows := make([]models.Response, 0, len(questions))
	for _, q := range questions {
		answer := answers[q.ID]
		if mc, ok := answer.(models.MultipleChoiceAnswer); ok {
			answer = models.NewMultipleChoiceAnswer(mc...)
		}
		rows = append(rows, models.Response{
			ID:           auth.GenerateID(),
			SubmissionID: sub.ID,
			SurveyID:     surveyID,
			QuestionID:   q.ID,
			UserID:       userID,
			Answer:       answer,
			CreatedAt:    now,
		})
	}

	stored, err := c.store.AppendResponses(ctx, sub, rows)
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrTokenReused) {
		return models.Submission{}, err
	}
	if err != nil {
		return models.Submission{}, &models.PersistenceError{Op: "append responses", Err: err}
	}
	return stored, nil
}
