// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/quickly-survey/auth"
	"github.com/danielhkuo/quickly-survey/cache"
	"github.com/danielhkuo/quickly-survey/cliparse"
	"github.com/danielhkuo/quickly-survey/db"
	"github.com/danielhkuo/quickly-survey/identity"
	"github.com/danielhkuo/quickly-survey/stats"
)

const defaultMemoryCacheEntries = 1024

type StatsHandler struct {
	store *db.Store
	cfg   cliparse.Config
	users identity.Provider
	cache cache.StatsCache
	group singleflight.Group
}

// NewStatsHandler uses c to memoize summaries; nil selects an in-process cache.
func NewStatsHandler(store *db.Store, cfg cliparse.Config, users identity.Provider, c cache.StatsCache) *StatsHandler {
	if c == nil {
		c = cache.NewMemoryCache(cfg.StatsCacheTTL, defaultMemoryCacheEntries)
	}
	return &StatsHandler{store: store, cfg: cfg, users: users, cache: c}
}

// Statistics returns the per-question summary of a survey. Only its creator
// may see it.
func (h *StatsHandler) Statistics(ctx context.Context, surveyID string) (*stats.SurveySummary, error) {
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

	// Display names are an input too, so their latest change is in the key
	renamed, err := h.store.RespondentProfilesUpdatedAt(ctx, s.ID)
	if err != nil {
		return nil, persistenceError("load profile stamp", err)
	}
	var namesStamp int64
	if !renamed.IsZero() {
		namesStamp = renamed.UnixNano()
	}
	key := cache.StatsKey(s.ID, s.Version, s.ResponseVersion, namesStamp)

	cached, err := h.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("stats cache read failed", "error", err, "key", key)
	} else if cached != nil {
		return cached, nil
	}

	// Identical concurrent requests share one computation. It must not fail
	// because the caller that started it went away.
	shared := context.WithoutCancel(ctx)
	v, err, _ := h.group.Do(key, func() (interface{}, error) {
		summary, err := h.compute(shared, s.ID)
		if err != nil {
			return nil, err
		}
		if err := h.cache.Set(shared, key, summary); err != nil {
			slog.Warn("stats cache write failed", "error", err, "key", key)
		}
		return summary, nil
	})
	if err != nil {
		return nil, err
	}

	// Every caller gets its own copy of the shared result
	return v.(*stats.SurveySummary).Clone(), nil
}

func (h *StatsHandler) compute(ctx context.Context, surveyID string) (*stats.SurveySummary, error) {
	questions, err := h.store.ListQuestions(ctx, surveyID)
	if err != nil {
		return nil, persistenceError("load questions", err)
	}

	responses, err := h.store.ListResponses(ctx, db.ResponseFilter{SurveyID: surveyID})
	if err != nil {
		return nil, persistenceError("load responses", err)
	}

	seen := make(map[string]bool)
	var userIDs []string
	for _, r := range responses {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			userIDs = append(userIDs, r.UserID)
		}
	}
	names, err := h.store.DisplayNames(ctx, userIDs)
	if err != nil {
		return nil, persistenceError("load profiles", err)
	}

	summary := stats.Summarize(surveyID, questions, responses, names)

	slog.Info("statistics computed", "survey_id", surveyID, "responses", len(responses), "respondents", summary.DistinctRespondents)

	return &summary, nil
}

