// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cache memoizes survey statistics.

Keys come from StatsKey and embed the survey's save version, its response
version and the latest profile change among its respondents:

	stats:{surveyID}:v{version}:r{responseVersion}:n{namesStamp}

Saving a survey, accepting a submission or renaming a respondent changes
the key, so a stale summary is never served and nothing needs explicit
invalidation. Old keys simply age out.

Both implementations hand out copies; callers may modify what Get returns.

Two implementations:

	client, err := cache.Connect(ctx, cfg.RedisAddr)
	c := cache.NewRedisCache(client, cfg.StatsCacheTTL)   // shared, JSON values

	c := cache.NewMemoryCache(cfg.StatsCacheTTL, 1024)    // per process

Get returns (nil, nil) on a miss.
*/
package cache
