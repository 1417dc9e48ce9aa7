package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tech-arch1tect/backoffice/config"
	"github.com/tech-arch1tect/backoffice/services/account"
	"github.com/tech-arch1tect/backoffice/services/logging"
	"go.uber.org/zap"
)

// Service is the registry of live device sessions. Absence is never an
// error here: lookups return nil and mutations report false, because
// concurrent logouts and renewals for the same session are expected.
type Service struct {
	store  account.Store
	config *config.Config
	logger *logging.Service
	now    func() time.Time
}

func NewService(store account.Store, cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		store:  store,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// AddSession records a new device for userID bound to refreshToken.
func (s *Service) AddSession(ctx context.Context, userID, refreshToken, ip string, metadata account.Metadata) (*account.DeviceSession, error) {
	session := &account.DeviceSession{
		PublicID:  uuid.New().String(),
		TokenHash: account.HashToken(refreshToken),
		IP:        ip,
		LastLogin: s.now(),
		Metadata:  metadata,
	}

	evicted, err := s.store.AppendSession(ctx, userID, session, s.config.Session.MaxPerUser)
	if err != nil {
		s.logger.Error("failed to add device session", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to add session: %w", err)
	}

	s.logger.Info("device session added",
		zap.String("user_id", userID),
		zap.String("session_id", session.PublicID),
		zap.String("ip", ip))
	if evicted > 0 {
		s.logger.Info("oldest device sessions evicted",
			zap.String("user_id", userID),
			zap.Int("evicted", evicted),
			zap.Int("max_per_user", s.config.Session.MaxPerUser))
	}

	return session, nil
}

// FindByRefreshToken looks the raw token up across all users. It returns
// nils when no session currently holds it.
func (s *Service) FindByRefreshToken(ctx context.Context, token string) (*account.User, *account.DeviceSession, error) {
	user, session, err := s.store.FindByRefreshToken(ctx, token)
	if errors.Is(err, account.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up session: %w", err)
	}
	return user, session, nil
}

// Holds reports whether one of userID's sessions is bound to token.
func (s *Service) Holds(ctx context.Context, userID, token string) (bool, error) {
	held, err := s.store.HasSession(ctx, userID, token)
	if err != nil {
		return false, fmt.Errorf("failed to look up session: %w", err)
	}
	return held, nil
}

// Rotate replaces oldToken with newToken and refreshes lastLogin. A false
// result means the session was already rotated or revoked elsewhere.
func (s *Service) Rotate(ctx context.Context, userID, oldToken, newToken string) (bool, error) {
	rotated, err := s.store.ReplaceSessionToken(ctx, userID, oldToken, newToken, s.now())
	if err != nil {
		s.logger.Error("failed to rotate device session", zap.String("user_id", userID), zap.Error(err))
		return false, fmt.Errorf("failed to rotate session: %w", err)
	}

	if !rotated {
		s.logger.Warn("rotation found no session for token",
			zap.String("user_id", userID),
			logging.TokenField("token", oldToken))
	}
	return rotated, nil
}

// Revoke removes the session bound to token. An empty userID matches any owner.
func (s *Service) Revoke(ctx context.Context, userID, token string) (bool, error) {
	removed, err := s.store.RemoveSessionByToken(ctx, userID, token)
	if err != nil {
		s.logger.Error("failed to revoke device session", zap.String("user_id", userID), zap.Error(err))
		return false, fmt.Errorf("failed to revoke session: %w", err)
	}

	if removed {
		s.logger.Info("device session revoked", zap.String("user_id", userID), logging.TokenField("token", token))
	}
	return removed, nil
}

func (s *Service) RevokeByID(ctx context.Context, userID, sessionID string) (bool, error) {
	removed, err := s.store.RemoveSessionByID(ctx, userID, sessionID)
	if err != nil {
		s.logger.Error("failed to revoke device session", zap.String("user_id", userID), zap.Error(err))
		return false, fmt.Errorf("failed to revoke session: %w", err)
	}

	if removed {
		s.logger.Info("device session revoked", zap.String("user_id", userID), zap.String("session_id", sessionID))
	}
	return removed, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]account.DeviceSession, error) {
	sessions, err := s.store.ListSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// PruneIdle removes sessions whose lastLogin is older than the configured
// idle retention. It is a no-op when retention is zero.
func (s *Service) PruneIdle(ctx context.Context) (int64, error) {
	retention := s.config.Session.IdleRetention
	if retention <= 0 {
		return 0, nil
	}

	s.logger.Debug("starting idle session cleanup")

	removed, err := s.store.RemoveSessionsIdleSince(ctx, s.now().Add(-retention))
	if err != nil {
		s.logger.Error("failed to prune idle sessions", zap.Error(err))
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}

	if removed > 0 {
		s.logger.Info("idle sessions pruned", zap.Int64("removed", removed))
	}
	return removed, nil
}

// StartCleanupWorker runs PruneIdle every interval until ctx is done.
func (s *Service) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.PruneIdle(ctx); err != nil && ctx.Err() == nil {
					s.logger.Error("idle session cleanup worker failed", zap.Error(err))
				}
			}
		}
	}()

	s.logger.Info("idle session cleanup worker started",
		zap.Duration("interval", interval),
		zap.Duration("retention", s.config.Session.IdleRetention))
}
