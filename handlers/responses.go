// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielhkuo/quickly-survey/auth"
	"github.com/danielhkuo/quickly-survey/cliparse"
	"github.com/danielhkuo/quickly-survey/collector"
	"github.com/danielhkuo/quickly-survey/db"
	"github.com/danielhkuo/quickly-survey/identity"
	"github.com/danielhkuo/quickly-survey/models"
	"github.com/danielhkuo/quickly-survey/stats"
)

type ResponseHandler struct {
	store     *db.Store
	cfg       cliparse.Config
	users     identity.Provider
	collector *collector.Collector
}

func NewResponseHandler(store *db.Store, cfg cliparse.Config, users identity.Provider) *ResponseHandler {
	return &ResponseHandler{store: store, cfg: cfg, users: users, collector: collector.New(store)}
}

// SubmitRequest is one respondent's answer set. Token is minted once per
// attempt with auth.NewSubmissionToken and reused on retries.
type SubmitRequest struct {
	SurveyID string
	Password string
	Token    string
	Answers  map[string]models.Answer
}

// Submit re-checks survey access and stores the caller's answers.
func (h *ResponseHandler) Submit(ctx context.Context, req SubmitRequest) (models.Submission, error) {
	user, err := h.users.CurrentUser(ctx)
	if err != nil {
		return models.Submission{}, err
	}

	s, err := h.store.GetSurvey(ctx, req.SurveyID)
	if err != nil {
		return models.Submission{}, persistenceError("load survey", err)
	}
	if err := auth.VerifyAccess(s, req.Password, h.cfg.PasswordPepper); err != nil {
		return models.Submission{}, err
	}

	sub, err := h.collector.Submit(ctx, s.ID, user.ID, req.Token, req.Answers)
	if err != nil {
		var perr *models.PersistenceError
		if errors.As(err, &perr) {
			slog.Error("failed to store submission", "error", err, "survey_id", s.ID, "user_id", user.ID)
		}
		return models.Submission{}, err
	}

	if sub.Replayed {
		slog.Info("submission replayed", "survey_id", s.ID, "submission_id", sub.ID)
	} else {
		slog.Info("submission stored", "survey_id", s.ID, "submission_id", sub.ID, "answers", len(req.Answers))
	}
	return sub, nil
}

// MyAnswers returns the caller's answers to a survey keyed by question id.
// When the caller submitted more than once the latest answer wins.
func (h *ResponseHandler) MyAnswers(ctx context.Context, surveyID string) (map[string]models.Answer, error) {
	user, err := h.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := h.store.ListResponses(ctx, db.ResponseFilter{SurveyID: surveyID, UserID: user.ID})
	if err != nil {
		return nil, persistenceError("load responses", err)
	}

	// Rows are oldest first
	answers := make(map[string]models.Answer, len(rows))
	for _, r := range rows {
		if r.Answer != nil {
			answers[r.QuestionID] = r.Answer
		}
	}
	return answers, nil
}

// Completed lists the surveys the caller has answered, latest first.
func (h *ResponseHandler) Completed(ctx context.Context) ([]models.CompletedSurvey, error) {
	user, err := h.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	completed, err := h.store.ListCompletedSurveys(ctx, user.ID)
	if err != nil {
		return nil, persistenceError("list completed surveys", err)
	}
	for i := range completed {
		if completed[i].CreatorDisplayName == "" {
			completed[i].CreatorDisplayName = stats.UnknownRespondent
		}
	}
	return completed, nil
}
