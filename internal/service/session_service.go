package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/internal/repository"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
)

type sessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// SessionService loads and persists browser sessions and detects responses
// that were overtaken by a newer action on the same session.
type SessionService struct {
	store  sessionStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(store sessionStore, ttl time.Duration, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &SessionService{store: store, ttl: ttl, logger: logger, now: time.Now}
}

// Load returns the session stored under id, or a fresh anonymous session
// when id is empty, unknown or unreadable.
func (s *SessionService) Load(ctx context.Context, id string) (*models.Session, error) {
	if id != "" {
		session, err := s.store.Get(ctx, id)
		switch {
		case err == nil:
			return session, nil
		case errors.Is(err, repository.ErrSessionCorrupt):
			s.logger.Warn("discarding unreadable session", zap.String("session_id", id), zap.Error(err))
			if err := s.store.Delete(ctx, id); err != nil {
				s.logger.Warn("failed to delete unreadable session", zap.Error(err))
			}
		case !errors.Is(err, repository.ErrSessionNotFound):
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
		}
	}
	return models.NewSession(uuid.NewString(), s.now().UTC()), nil
}

// Save persists the session and refreshes its TTL.
func (s *SessionService) Save(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, session, s.ttl); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save session")
	}
	return nil
}

// EnsureCurrent fails with STALE_RESPONSE when the stored copy of the
// session has moved past generation. A session that was never stored is
// current by definition.
func (s *SessionService) EnsureCurrent(ctx context.Context, sessionID string, generation uint64) error {
	stored, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil
		}
		s.logger.Warn("stale check skipped", zap.String("session_id", sessionID), zap.Error(err))
		return nil
	}
	if stored.Generation != generation {
		s.logger.Info("discarding stale response",
			zap.String("session_id", sessionID),
			zap.Uint64("expected_generation", generation),
			zap.Uint64("stored_generation", stored.Generation),
		)
		return appErrors.ErrStaleResponse
	}
	return nil
}
