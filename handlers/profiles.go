// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-survey/db"
	"github.com/danielhkuo/quickly-survey/identity"
	"github.com/danielhkuo/quickly-survey/models"
)

type ProfileHandler struct {
	store *db.Store
	users identity.Provider
	now   func() time.Time
}

func NewProfileHandler(store *db.Store, users identity.Provider) *ProfileHandler {
	return &ProfileHandler{store: store, users: users, now: time.Now}
}

// Get returns the caller's profile, or models.ErrNotFound before the first Save.
func (h *ProfileHandler) Get(ctx context.Context) (models.Profile, error) {
	user, err := h.users.CurrentUser(ctx)
	if err != nil {
		return models.Profile{}, err
	}

	p, err := h.store.GetProfile(ctx, user.ID)
	if err != nil {
		return models.Profile{}, persistenceError("load profile", err)
	}
	return p, nil
}

// Save sets the caller's display name.
func (h *ProfileHandler) Save(ctx context.Context, displayName string) (models.Profile, error) {
	user, err := h.users.CurrentUser(ctx)
	if err != nil {
		return models.Profile{}, err
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return models.Profile{}, &models.FieldError{Field: "display_name", Err: models.ErrMissingRequiredField}
	}

	p := models.Profile{
		UserID:      user.ID,
		DisplayName: displayName,
		UpdatedAt:   h.now().UTC(),
	}
	if err := h.store.UpsertProfile(ctx, p); err != nil {
		slog.Error("failed to save profile", "error", err, "user_id", user.ID)
		return models.Profile{}, persistenceError("save profile", err)
	}

	slog.Info("profile saved", "user_id", user.ID)
	return p, nil
}
