package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/askwhyharsh/proxipal/internal/storage"
	apperrors "github.com/askwhyharsh/proxipal/pkg/errors"
)

// CookieName is the cookie carrying the session id.
const CookieName = "session_id"

type SessionService interface {
	Create(ctx context.Context, userID int64) (string, error)
	Get(ctx context.Context, sessionID string) (int64, error)
	Refresh(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
	TTL() time.Duration
}

// Service maps session:<uuid> keys to user ids in redis.
type Service struct {
	redis storage.RedisClient
	ttl   time.Duration
}

func NewService(redisClient storage.RedisClient, ttl time.Duration) *Service {
	return &Service{
		redis: redisClient,
		ttl:   ttl,
	}
}

func (s *Service) Create(ctx context.Context, userID int64) (string, error) {
	sessionID := uuid.New().String()
	if err := s.redis.Set(ctx, s.sessionKey(sessionID), userID, s.ttl); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return sessionID, nil
}

// Get returns the user id bound to sessionID or apperrors.ErrSessionNotFound.
func (s *Service) Get(ctx context.Context, sessionID string) (int64, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return 0, apperrors.ErrSessionNotFound
	}

	data, err := s.redis.Get(ctx, s.sessionKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, apperrors.ErrSessionNotFound
		}
		return 0, fmt.Errorf("failed to get session: %w", err)
	}

	userID, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session %s: %w", sessionID, err)
	}
	return userID, nil
}

// Refresh extends the session by another TTL.
func (s *Service) Refresh(ctx context.Context, sessionID string) error {
	return s.redis.Expire(ctx, s.sessionKey(sessionID), s.ttl)
}

func (s *Service) Delete(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, s.sessionKey(sessionID))
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}
