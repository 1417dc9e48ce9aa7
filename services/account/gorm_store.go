package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateUser(ctx context.Context, user *User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).
			Where("username = ? OR email = ?", user.Username, user.Email).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing accounts: %w", err)
		}
		if count > 0 {
			return ErrAccountExists
		}

		if err := tx.Omit("Sessions").Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAccountExists
			}
			return fmt.Errorf("failed to create account: %w", err)
		}
		return nil
	})
}

func (s *GormStore) GetByID(ctx context.Context, userID string) (*User, error) {
	return s.first(ctx, "user_id = ?", userID)
}

func (s *GormStore) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return s.first(ctx, "username = ? OR email = ?", identifier, identifier)
}

func (s *GormStore) first(ctx context.Context, query string, args ...any) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where(query, args...).Order("id").First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &user, nil
}

func (s *GormStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing accounts: %w", err)
	}
	return count > 0, nil
}

func (s *GormStore) AppendSession(ctx context.Context, userID string, session *DeviceSession, maxSessions int) (int, error) {
	evicted := 0

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owners int64
		if err := tx.Model(&User{}).Where("user_id = ?", userID).Count(&owners).Error; err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		if owners == 0 {
			return ErrNotFound
		}

		session.UserID = userID
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}

		if maxSessions <= 0 {
			return nil
		}

		var keep []uint
		if err := tx.Model(&DeviceSession{}).
			Where("user_id = ?", userID).
			Order("id DESC").
			Limit(maxSessions).
			Pluck("id", &keep).Error; err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		result := tx.Where("user_id = ? AND id NOT IN ?", userID, keep).Delete(&DeviceSession{})
		if result.Error != nil {
			return fmt.Errorf("failed to evict sessions: %w", result.Error)
		}
		evicted = int(result.RowsAffected)
		return nil
	})

	return evicted, err
}

func (s *GormStore) FindByRefreshToken(ctx context.Context, token string) (*User, *DeviceSession, error) {
	var session DeviceSession
	err := s.db.WithContext(ctx).Where("token_hash = ?", HashToken(token)).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to look up session: %w", err)
	}

	user, err := s.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}

	return user, &session, nil
}

func (s *GormStore) HasSession(ctx context.Context, userID, token string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&DeviceSession{}).
		Where("user_id = ? AND token_hash = ?", userID, HashToken(token)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up session: %w", err)
	}
	return count > 0, nil
}

func (s *GormStore) ReplaceSessionToken(ctx context.Context, userID, oldToken, newToken string, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&DeviceSession{}).
		Where("user_id = ? AND token_hash = ?", userID, HashToken(oldToken)).
		Updates(map[string]any{
			"token_hash": HashToken(newToken),
			"last_login": at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to rotate session: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStore) RemoveSessionByToken(ctx context.Context, userID, token string) (bool, error) {
	query := s.db.WithContext(ctx).Where("token_hash = ?", HashToken(token))
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	result := query.Delete(&DeviceSession{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to remove session: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStore) RemoveSessionByID(ctx context.Context, userID, publicID string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND public_id = ?", userID, publicID).
		Delete(&DeviceSession{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to remove session: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStore) ListSessions(ctx context.Context, userID string) ([]DeviceSession, error) {
	var sessions []DeviceSession
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (s *GormStore) RemoveSessionsIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("last_login < ?", cutoff).Delete(&DeviceSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
