package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/askwhyharsh/proxipal/internal/config"
	"github.com/askwhyharsh/proxipal/internal/storage"
)

// RateLimiter defines the contract for enforcing rate limits.
type RateLimiter interface {
	// AllowLocationUpdate checks if a user can update their location right now.
	AllowLocationUpdate(ctx context.Context, userID int64) (bool, error)

	// AllowLoginAttempt checks if an IP can submit the login form.
	AllowLoginAttempt(ctx context.Context, ip string) (bool, error)
}

type Limiter struct {
	redis  storage.RedisClient
	config config.RateLimitConfig
	now    func() time.Time
}

func NewLimiter(redisClient storage.RedisClient, config config.RateLimitConfig) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: config,
		now:    time.Now,
	}
}

// AllowLocationUpdate checks if a user can update location
func (l *Limiter) AllowLocationUpdate(ctx context.Context, userID int64) (bool, error) {
	key := fmt.Sprintf("ratelimit:location:%d", userID)
	return l.checkSlidingWindow(ctx, key, l.config.LocationUpdatesPerMin, time.Minute)
}

// AllowLoginAttempt checks if an IP can try to log in
func (l *Limiter) AllowLoginAttempt(ctx context.Context, ip string) (bool, error) {
	key := fmt.Sprintf("ratelimit:login:%s", ip)
	return l.checkSlidingWindow(ctx, key, l.config.LoginAttemptsPerMin, time.Minute)
}

// checkSlidingWindow implements a sliding window rate limiter using sorted sets
func (l *Limiter) checkSlidingWindow(ctx context.Context, key string, maxCount int, window time.Duration) (bool, error) {
	now := l.now()
	windowStart := now.Add(-window).UnixNano()

	// Remove old entries outside the window
	if err := l.redis.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", windowStart)); err != nil {
		return false, fmt.Errorf("failed to clean old entries: %w", err)
	}

	// Count entries in current window
	count, err := l.redis.ZCard(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to count entries: %w", err)
	}

	if count >= int64(maxCount) {
		return false, nil
	}

	// Members must be unique or hits in the same instant collapse into one.
	if err := l.redis.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	}); err != nil {
		return false, fmt.Errorf("failed to add entry: %w", err)
	}

	// Set expiration
	if err := l.redis.Expire(ctx, key, window); err != nil {
		return false, fmt.Errorf("failed to set expiration: %w", err)
	}

	return true, nil
}
