// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/danielhkuo/quickly-survey/auth"
	"github.com/danielhkuo/quickly-survey/cliparse"
	"github.com/danielhkuo/quickly-survey/db"
	"github.com/danielhkuo/quickly-survey/draft"
	"github.com/danielhkuo/quickly-survey/identity"
	"github.com/danielhkuo/quickly-survey/models"
)

type SurveyHandler struct {
	store *db.Store
	cfg   cliparse.Config
	users identity.Provider
	now   func() time.Time
}

func NewSurveyHandler(store *db.Store, cfg cliparse.Config, users identity.Provider) *SurveyHandler {
	return &SurveyHandler{store: store, cfg: cfg, users: users, now: time.Now}
}

// persistenceError passes domain outcomes through and wraps everything else
func persistenceError(op string, err error) error {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrVersionConflict) {
		return err
	}
	return &models.PersistenceError{Op: op, Err: err}
}

// Save validates a draft and stores it: a new survey when the draft has no
// id, otherwise a version-checked replacement of the stored one. On success
// the draft carries the saved id and version.
func (h *SurveyHandler) Save(ctx context.Context, d *draft.SurveyDraft) (models.Survey, error) {
	user, err := h.users.CurrentUser(ctx)
	if err != nil {
		return models.Survey{}, err
	}

	// Validate input
	if err := d.Validate(); err != nil {
		return models.Survey{}, err
	}

	now := h.now().UTC()
	s := models.Survey{
		ID:          d.SurveyID,
		Title:       d.Title,
		Description: d.Description,
		CreatorID:   user.ID,
		IsPrivate:   d.IsPrivate,
		UpdatedAt:   now,
	}

	var existing models.Survey
	if d.SurveyID != "" {
		existing, err = h.store.GetSurvey(ctx, d.SurveyID)
		if err != nil {
			return models.Survey{}, persistenceError("load survey", err)
		}
		if err := auth.RequireCreator(existing, user.ID); err != nil {
			return models.Survey{}, err
		}
	}

	// A blank password on a private survey keeps the stored hash
	if s.IsPrivate {
		switch {
		case d.Password != "":
			s.PasswordHash, err = auth.HashPassword(d.Password, h.cfg.PasswordPepper)
			if err != nil {
				return models.Survey{}, err
			}
		case existing.PasswordHash != "":
			s.PasswordHash = existing.PasswordHash
		default:
			return models.Survey{}, &models.FieldError{Field: "password", Err: models.ErrPasswordRequired}
		}
	}

	if d.SurveyID == "" {
		s.ID = auth.GenerateID()
		s.Version = 1
		s.CreatedAt = now
		if err := h.store.CreateSurvey(ctx, s, buildQuestions(s.ID, d.Questions)); err != nil {
			slog.Error("failed to create survey", "error", err, "creator_id", user.ID)
			return models.Survey{}, persistenceError("create survey", err)
		}
	} else {
		s.Version = d.Version + 1
		s.ResponseVersion = existing.ResponseVersion
		s.CreatedAt = existing.CreatedAt
		if err := h.store.UpdateSurvey(ctx, s, d.Version, buildQuestions(s.ID, d.Questions)); err != nil {
			if errors.Is(err, models.ErrVersionConflict) {
				slog.Warn("survey save lost a concurrent edit", "survey_id", s.ID, "version", d.Version)
			} else {
				slog.Error("failed to update survey", "error", err, "survey_id", s.ID)
			}
			return models.Survey{}, persistenceError("update survey", err)
		}
	}

	d.SurveyID = s.ID
	d.Version = s.Version
	d.Password = ""
	d.HasStoredPassword = s.PasswordHash != ""

	slog.Info("survey saved", "survey_id", s.ID, "version", s.Version, "questions", len(d.Questions))

	return s, nil
}

// buildQuestions assigns fresh ids and display order to drafted questions
func buildQuestions(surveyID string, drafts []draft.QuestionDraft) []models.Question {
	questions := make([]models.Question, len(drafts))
	for i, q := range drafts {
		options := append([]string{}, q.Options...)
		questions[i] = models.Question{
			ID:           auth.GenerateID(),
			SurveyID:     surveyID,
			Text:         q.Text,
			Type:         q.Type,
			Options:      options,
			DisplayOrder: i,
		}
	}
	return questions
}

// LoadDraft opens one of the caller's surveys for editing.
func (h *SurveyHandler) LoadDraft(ctx context.Context, surveyID string) (*draft.SurveyDraft, error) {
	user, err := h.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	s, err := h.store.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, persistenceError("load survey", err)
	}
	if err := auth.RequireCreator(s, user.ID); err != nil {
		return nil, err
	}

	questions, err := h.store.ListQuestions(ctx, surveyID)
	if err != nil {
		return nil, persistenceError("load questions", err)
	}

	return draft.FromSurvey(s, questions), nil
}

// Open returns a survey and its questions to a respondent once the access
// policy grants it.
func (h *SurveyHandler) Open(ctx context.Context, surveyID, password string) (models.SurveyWithQuestions, error) {
	if _, err := h.users.CurrentUser(ctx); err != nil {
		return models.SurveyWithQuestions{}, err
	}

	s, err := h.store.GetSurvey(ctx, surveyID)
	if err != nil {
		return models.SurveyWithQuestions{}, persistenceError("load survey", err)
	}

	if err := auth.VerifyAccess(s, password, h.cfg.PasswordPepper); err != nil {
		slog.Info("survey access denied", "survey_id", surveyID)
		return models.SurveyWithQuestions{}, err
	}

	questions, err := h.store.ListQuestions(ctx, surveyID)
	if err != nil {
		return models.SurveyWithQuestions{}, persistenceError("load questions", err)
	}

	s.PasswordHash = ""
	return models.SurveyWithQuestions{Survey: s, Questions: questions}, nil
}

// Delete removes one of the caller's surveys with all its responses.
func (h *SurveyHandler) Delete(ctx context.Context, surveyID string) error {
	user, err := h.users.CurrentUser(ctx)
	if err != nil {
		return err
	}

	s, err := h.store.GetSurvey(ctx, surveyID)
	if err != nil {
		return persistenceError("load survey", err)
	}
	if err := auth.RequireCreator(s, user.ID); err != nil {
		return err
	}

	if err := h.store.DeleteSurvey(ctx, surveyID); err != nil {
		slog.Error("failed to delete survey", "error", err, "survey_id", surveyID)
		return persistenceError("delete survey", err)
	}

	slog.Info("survey deleted", "survey_id", surveyID)
	return nil
}

// ListMine returns the caller's surveys with respondent counts.
func (h *SurveyHandler) ListMine(ctx context.Context) ([]models.SurveyListing, error) {
	user, err := h.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	listings, err := h.store.ListSurveysByCreator(ctx, user.ID)
	if err != nil {
		return nil, persistenceError("list surveys", err)
	}
	for i := range listings {
		listings[i].Survey.PasswordHash = ""
	}
	return listings, nil
}
