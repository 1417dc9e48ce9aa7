package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/backoffice/services/account"
	"github.com/tech-arch1tect/backoffice/services/jwt"
	"github.com/tech-arch1tect/backoffice/services/sessions"
	"github.com/tech-arch1tect/backoffice/testutils"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	service  *Service
	store    account.Store
	tokens   *jwt.Service
	sessions *sessions.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()

	cfg := testutils.GetTestConfig()
	store := account.NewGormStore(testutils.SetupTestDB(t, account.Models()...))
	tokens := jwt.NewService(cfg, nil)
	registry := sessions.NewService(store, cfg, nil)

	return &fixture{
		service:  NewService(cfg, store, tokens, registry, nil),
		store:    store,
		tokens:   tokens,
		sessions: registry,
	}
}

func registerAlice(t *testing.T, f *fixture) *account.User {
	t.Helper()
	user, err := f.service.Register(context.Background(), RegisterInput{
		Username: testutils.TestUsers.Alice.Username,
		Email:    testutils.TestUsers.Alice.Email,
		Password: testutils.TestUsers.Alice.Password,
	})
	require.NoError(t, err)
	return user
}

func TestNewService_ClampsBcryptCost(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.Auth.BcryptCost = 99

	service := NewService(cfg, nil, nil, nil, nil)

	assert.Equal(t, bcrypt.DefaultCost, service.config.Auth.BcryptCost)
}

func TestService_HashPassword(t *testing.T) {
	f := setup(t)

	hash, err := f.service.HashPassword("pw123")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123", hash)

	assert.NoError(t, f.service.VerifyPassword(hash, "pw123"))
	assert.ErrorIs(t, f.service.VerifyPassword(hash, "pw124"), ErrInvalidCredentials)
	assert.ErrorIs(t, f.service.VerifyPassword("not-a-hash", "pw123"), ErrInvalidCredentials)
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account", func(t *testing.T) {
		f := setup(t)
		user := registerAlice(t, f)

		assert.Regexp(t, `^USER-[0-9A-Z]{4}-[0-9A-F]{5}$`, user.UserID)
		assert.NotEqual(t, testutils.TestUsers.Alice.Password, user.PasswordHash)

		stored, err := f.store.GetByID(ctx, user.UserID)
		require.NoError(t, err)
		assert.Equal(t, "alice", stored.Username)
		assert.NoError(t, f.service.VerifyPassword(stored.PasswordHash, "pw123"))

		sessions, err := f.store.ListSessions(ctx, user.UserID)
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := setup(t)
		inputs := []RegisterInput{
			{Password: "pw", Email: "a@x.com"},
			{Username: "a", Email: "a@x.com"},
			{Username: "a", Password: "pw"},
			{Username: "  ", Password: "pw", Email: "a@x.com"},
		}
		for _, input := range inputs {
			_, err := f.service.Register(ctx, input)
			assert.ErrorIs(t, err, ErrValidation)
		}
	})

	t.Run("password shorter than minimum", func(t *testing.T) {
		f := setup(t)
		f.service.config.Auth.MinPasswordLength = 8

		_, err := f.service.Register(ctx, RegisterInput{Username: "a", Password: "short", Email: "a@x.com"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("duplicate email or username", func(t *testing.T) {
		f := setup(t)
		registerAlice(t, f)

		_, err := f.service.Register(ctx, RegisterInput{Username: "alice2", Password: "pw", Email: "alice@x.com"})
		assert.ErrorIs(t, err, ErrAccountExists)

		_, err = f.service.Register(ctx, RegisterInput{Username: "alice", Password: "pw", Email: "other@x.com"})
		assert.ErrorIs(t, err, ErrAccountExists)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("by username", func(t *testing.T) {
		f := setup(t)
		user := registerAlice(t, f)

		result, err := f.service.Login(ctx, LoginInput{
			Identifier: "alice",
			Password:   "pw123",
			IP:         "198.51.100.7",
			UserAgent:  "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0",
			DeviceInfo: map[string]any{"screen": "1920x1080"},
		})
		require.NoError(t, err)
		assert.Equal(t, user.UserID, result.User.UserID)

		claims, err := f.tokens.Verify(result.Tokens.AccessToken, jwt.Access)
		require.NoError(t, err)
		assert.Equal(t, user.UserID, claims.UserID)
		assert.Equal(t, "alice", claims.Username)

		held, err := f.sessions.Holds(ctx, user.UserID, result.Tokens.RefreshToken)
		require.NoError(t, err)
		assert.True(t, held)

		assert.Equal(t, "198.51.100.7", result.Session.IP)
		assert.Equal(t, "1920x1080", result.Session.Metadata["screen"])
		assert.Contains(t, result.Session.Metadata["browser"], "Firefox")
	})

	t.Run("by email", func(t *testing.T) {
		f := setup(t)
		registerAlice(t, f)

		_, err := f.service.Login(ctx, LoginInput{Identifier: "alice@x.com", Password: "pw123"})
		assert.NoError(t, err)
	})

	t.Run("every login adds a device", func(t *testing.T) {
		f := setup(t)
		user := registerAlice(t, f)

		for range 3 {
			_, err := f.service.Login(ctx, LoginInput{Identifier: "alice", Password: "pw123"})
			require.NoError(t, err)
		}

		sessions, err := f.sessions.List(ctx, user.UserID)
		require.NoError(t, err)
		assert.Len(t, sessions, 3)
	})

	t.Run("no account enumeration", func(t *testing.T) {
		f := setup(t)
		registerAlice(t, f)

		_, wrongPassword := f.service.Login(ctx, LoginInput{Identifier: "alice", Password: "wrongpw"})
		_, unknownUser := f.service.Login(ctx, LoginInput{Identifier: "mallory", Password: "pw123"})

		assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
		assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
		assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	})

	t.Run("missing fields", func(t *testing.T) {
		f := setup(t)

		_, err := f.service.Login(ctx, LoginInput{Identifier: "alice"})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = f.service.Login(ctx, LoginInput{Password: "pw123"})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestDeviceMetadata(t *testing.T) {
	t.Run("empty user agent", func(t *testing.T) {
		metadata := DeviceMetadata("", nil)

		assert.Equal(t, "Unknown Browser", metadata["browser"])
		assert.Equal(t, "Unknown OS", metadata["os"])
	})

	t.Run("mobile user agent", func(t *testing.T) {
		metadata := DeviceMetadata("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", nil)

		assert.Equal(t, "Mobile", metadata["device_type"])
		assert.Contains(t, metadata["os"], "iOS")
	})

	t.Run("reported fields win", func(t *testing.T) {
		metadata := DeviceMetadata("Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0", map[string]any{"browser": "Custom"})

		assert.Equal(t, "Custom", metadata["browser"])
		assert.Equal(t, "Desktop", metadata["device_type"])
	})
}
