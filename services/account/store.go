package account

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound signals absence. Callers treat it as an outcome, not a failure.
	ErrNotFound      = errors.New("account not found")
	ErrAccountExists = errors.New("username or email already exists")
)

// Store persists accounts and their device sessions. Every mutation touches a
// single account and is atomic on its own; no operation spans two accounts.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID string) (*User, error)
	// FindByIdentifier matches either the username or the email.
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// AppendSession adds a session to the end of the user's list. When
	// maxSessions > 0 the oldest sessions beyond the cap are removed in the
	// same write and their count is returned.
	AppendSession(ctx context.Context, userID string, session *DeviceSession, maxSessions int) (int, error)
	// FindByRefreshToken locates the single session bound to token across all users.
	FindByRefreshToken(ctx context.Context, token string) (*User, *DeviceSession, error)
	HasSession(ctx context.Context, userID, token string) (bool, error)
	// ReplaceSessionToken swaps oldToken for newToken in place. It reports
	// false, without error, when oldToken is no longer bound to the user.
	ReplaceSessionToken(ctx context.Context, userID, oldToken, newToken string, at time.Time) (bool, error)
	// RemoveSessionByToken deletes the session bound to token. An empty userID matches any owner.
	RemoveSessionByToken(ctx context.Context, userID, token string) (bool, error)
	RemoveSessionByID(ctx context.Context, userID, publicID string) (bool, error)
	ListSessions(ctx context.Context, userID string) ([]DeviceSession, error)
	RemoveSessionsIdleSince(ctx context.Context, cutoff time.Time) (int64, error)
}
