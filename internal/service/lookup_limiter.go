package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type counterStore interface {
	Count(ctx context.Context, key string) (int64, error)
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// LookupLimiter caps national ID lookups per session in a fixed window.
// Redis failures let lookups through.
type LookupLimiter struct {
	store  counterStore
	max    int64
	window time.Duration
	logger *zap.Logger
}

// NewLookupLimiter constructs a LookupLimiter.
func NewLookupLimiter(store counterStore, max int, window time.Duration, logger *zap.Logger) *LookupLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &LookupLimiter{store: store, max: int64(max), window: window, logger: logger}
}

// Allow reports whether the session has quota left.
func (l *LookupLimiter) Allow(ctx context.Context, sessionID string) bool {
	n, err := l.store.Count(ctx, sessionID)
	if err != nil {
		l.logger.Warn("lookup limiter unavailable", zap.String("session_id", sessionID), zap.Error(err))
		return true
	}
	return n < l.max
}

// Consume takes one lookup from the session's quota and reports whether it
// is still within the limit. The counter orders concurrent callers, so at
// most max of them get through per window.
func (l *LookupLimiter) Consume(ctx context.Context, sessionID string) bool {
	n, err := l.store.Increment(ctx, sessionID, l.window)
	if err != nil {
		l.logger.Warn("failed to count lookup", zap.String("session_id", sessionID), zap.Error(err))
		return true
	}
	return n <= l.max
}
