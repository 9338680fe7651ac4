// Package cache provides a Redis read-through cache in front of the course content repository
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eduportal/progress-service/internal/models"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	courseLessonsKey = "progress:content:course_lessons"
	coursesKey       = "progress:content:courses"
)

// RedisStore is the subset of *redis.Client used by the cache
type RedisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// ContentRepository defines the content source the cache reads through to
type ContentRepository interface {
	// GetAllCourseLessons retrieves every course/lesson association
	GetAllCourseLessons(ctx context.Context, token string) ([]models.CourseLessonMembership, error)
	// GetCourses retrieves course metadata
	GetCourses(ctx context.Context, token string) ([]models.Course, error)
}

type membershipCache struct {
	redis  RedisStore
	next   ContentRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewMembershipCache wraps "next" with a Redis cache whose entries live for "ttl"
//
// Redis failures never fail a read: the cache logs them and falls through to "next".
func NewMembershipCache(redis RedisStore, next ContentRepository, ttl time.Duration, logger *zap.Logger) *membershipCache {
	return &membershipCache{
		redis:  redis,
		next:   next,
		ttl:    ttl,
		logger: logger,
	}
}

// GetAllCourseLessons returns the cached membership list, loading it from the content repository on a miss
func (c *membershipCache) GetAllCourseLessons(ctx context.Context, token string) ([]models.CourseLessonMembership, error) {
	var memberships []models.CourseLessonMembership
	if c.lookup(ctx, courseLessonsKey, &memberships) {
		return memberships, nil
	}

	memberships, err := c.next.GetAllCourseLessons(ctx, token)
	if err != nil {
		return nil, err
	}
	c.store(ctx, courseLessonsKey, memberships)
	return memberships, nil
}

// GetCourses returns the cached course list, loading it from the content repository on a miss
func (c *membershipCache) GetCourses(ctx context.Context, token string) ([]models.Course, error) {
	var courses []models.Course
	if c.lookup(ctx, coursesKey, &courses) {
		return courses, nil
	}

	courses, err := c.next.GetCourses(ctx, token)
	if err != nil {
		return nil, err
	}
	c.store(ctx, coursesKey, courses)
	return courses, nil
}

// Refresh reloads both lists from the content repository and overwrites the cached copies
func (c *membershipCache) Refresh(ctx context.Context, token string) error {
	memberships, err := c.next.GetAllCourseLessons(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to refresh course lessons: %w", err)
	}
	courses, err := c.next.GetCourses(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to refresh courses: %w", err)
	}

	if err := c.set(ctx, courseLessonsKey, memberships); err != nil {
		return err
	}
	if err := c.set(ctx, coursesKey, courses); err != nil {
		return err
	}

	c.logger.Info("membership cache refreshed",
		zap.Int("memberships", len(memberships)),
		zap.Int("courses", len(courses)),
	)
	return nil
}

// lookup decodes the cached value of "key" into "out" and reports whether it was a usable hit
func (c *membershipCache) lookup(ctx context.Context, key string, out any) bool {
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("membership cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// store caches "value" under "key", logging failures
func (c *membershipCache) store(ctx context.Context, key string, value any) {
	if err := c.set(ctx, key, value); err != nil {
		c.logger.Warn("membership cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *membershipCache) set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}
