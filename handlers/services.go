// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/quickly-survey/cache"
	"github.com/danielhkuo/quickly-survey/cliparse"
	"github.com/danielhkuo/quickly-survey/db"
	"github.com/danielhkuo/quickly-survey/identity"
)

// Services bundles every handler over one store and identity provider.
type Services struct {
	Surveys   *SurveyHandler
	Responses *ResponseHandler
	Stats     *StatsHandler
	Profiles  *ProfileHandler

	redis *redis.Client
}

// NewServices initializes the handlers. A non-nil redisClient backs the
// statistics cache; Close releases it.
func NewServices(store *db.Store, cfg cliparse.Config, users identity.Provider, redisClient *redis.Client) *Services {
	var statsCache cache.StatsCache
	if redisClient != nil {
		statsCache = cache.NewRedisCache(redisClient, cfg.StatsCacheTTL)
	}

	return &Services{
		Surveys:   NewSurveyHandler(store, cfg, users),
		Responses: NewResponseHandler(store, cfg, users),
		Stats:     NewStatsHandler(store, cfg, users, statsCache),
		Profiles:  NewProfileHandler(store, users),
		redis:     redisClient,
	}
}

func (s *Services) Close() error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}
