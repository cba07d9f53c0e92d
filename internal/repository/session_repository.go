package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/pkg/cache"
)

var (
	// ErrSessionNotFound is returned when no session is stored under an ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCorrupt is returned when a stored session cannot be decoded.
	ErrSessionCorrupt = errors.New("session corrupt")
)

// SessionRepository stores sessions as JSON documents in Redis.
type SessionRepository struct {
	client redis.Cmdable
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(client redis.Cmdable) *SessionRepository {
	return &SessionRepository{client: client}
}

func sessionKey(id string) string {
	return cache.Key("session", id)
}

// Get loads the session stored under id.
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSessionCorrupt, id, err)
	}
	return &session, nil
}

// Save writes the session and refreshes its TTL.
func (r *SessionRepository) Save(ctx context.Context, session *models.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}
	if err := r.client.Set(ctx, sessionKey(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Delete removes a stored session.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
