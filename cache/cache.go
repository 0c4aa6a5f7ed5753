// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/quickly-survey/stats"
)

// StatsCache memoizes survey summaries. Get returns (nil, nil) on a miss.
type StatsCache interface {
	Get(ctx context.Context, key string) (*stats.SurveySummary, error)
	Set(ctx context.Context, key string, summary *stats.SurveySummary) error
}

// StatsKey identifies a summary by survey, by the versions of its question
// set and response set, and by namesStamp, the latest profile change among
// its respondents. Any save, submission or respondent rename changes the key.
func StatsKey(surveyID string, version, responseVersion int, namesStamp int64) string {
	return fmt.Sprintf("stats:%s:v%d:r%d:n%d", surveyID, version, responseVersion, namesStamp)
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache stores summaries as JSON in Redis with the given TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) StatsCache {
	return &redisCache{client: client, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context, key string) (*stats.SurveySummary, error) {
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var summary stats.SurveySummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *redisCache) Set(ctx context.Context, key string, summary *stats.SurveySummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

type memoryEntry struct {
	summary   *stats.SurveySummary
	expiresAt time.Time
}

type memoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryCache keeps up to maxEntries summaries in process. When full,
// expired entries are dropped first, then everything.
func NewMemoryCache(ttl time.Duration, maxEntries int) StatsCache {
	return &memoryCache{
		entries:    make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *memoryCache) Get(ctx context.Context, key string) (*stats.SurveySummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, nil
	}
	return e.summary.Clone(), nil
}

func (c *memoryCache) Set(ctx context.Context, key string, summary *stats.SurveySummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		now := c.now()
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
		if len(c.entries) >= c.maxEntries {
			clear(c.entries)
		}
	}

	c.entries[key] = memoryEntry{summary: summary.Clone(), expiresAt: c.now().Add(c.ttl)}
	return nil
}

// Connect opens a Redis client and checks it with PING.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
