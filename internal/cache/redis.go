// Package cache provides the optional Redis read-through cache for stored
// assessments.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

// RedisCache caches assessments by ID. Cache errors are reported as misses;
// the store of record always wins.
type RedisCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
	log        *logrus.Logger
}

// NewRedisCache creates a new cache client and verifies connectivity.
func NewRedisCache(config domain.CacheConfig, logger *logrus.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &RedisCache{
		redis:      client,
		defaultTTL: ttl,
		log:        logger,
	}, nil
}

func assessmentKey(id int64) string {
	return fmt.Sprintf("assessment:%d", id)
}

// GetAssessment returns a cached assessment, or a miss.
func (c *RedisCache) GetAssessment(ctx context.Context, id int64) (*domain.Assessment, bool) {
	val, err := c.redis.Get(ctx, assessmentKey(id)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.WithError(err).Debug("Assessment cache read failed")
		return nil, false
	}

	var assessment domain.Assessment
	if err := json.Unmarshal([]byte(val), &assessment); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, assessmentKey(id))
		return nil, false
	}
	return &assessment, true
}

// SetAssessment caches an assessment with the default TTL.
func (c *RedisCache) SetAssessment(ctx context.Context, assessment *domain.Assessment) {
	payload, err := json.Marshal(assessment)
	if err != nil {
		c.log.WithError(err).Debug("Could not encode assessment for cache")
		return
	}
	if err := c.redis.Set(ctx, assessmentKey(assessment.ID), payload, c.defaultTTL).Err(); err != nil {
		c.log.WithError(err).Debug("Assessment cache write failed")
	}
}

// InvalidateAssessment drops a cached assessment after its risk fields
// change.
func (c *RedisCache) InvalidateAssessment(ctx context.Context, id int64) {
	if err := c.redis.Del(ctx, assessmentKey(id)).Err(); err != nil {
		c.log.WithError(err).Debug("Assessment cache invalidation failed")
	}
}

// Health verifies the Redis connection.
func (c *RedisCache) Health(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.redis.Close()
}
