package gate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/backoffice/envelope"
	"github.com/tech-arch1tect/backoffice/services/account"
	"github.com/tech-arch1tect/backoffice/services/authn"
	"github.com/tech-arch1tect/backoffice/services/jwt"
	"github.com/tech-arch1tect/backoffice/services/sessions"
	"github.com/tech-arch1tect/backoffice/testutils"
)

func setup(t *testing.T) (echo.MiddlewareFunc, *jwt.Service, *testutils.Clock) {
	t.Helper()

	cfg := testutils.GetTestConfig()
	store := account.NewGormStore(testutils.SetupTestDB(t, account.Models()...))
	require.NoError(t, store.CreateUser(context.Background(), &account.User{
		UserID: "USER-A1B2-C3D4E", Username: "alice", Email: "alice@x.com", PasswordHash: "h",
	}))

	clock := testutils.NewClock(time.Now())
	tokens := jwt.NewService(cfg, nil)
	tokens.SetClock(clock.Now)
	protocol := authn.NewProtocol(tokens, store, sessions.NewService(store, cfg, nil), nil)

	return Require(protocol), tokens, clock
}

func TestRequire(t *testing.T) {
	e := echo.New()
	middleware, tokens, clock := setup(t)

	reached := false
	handler := func(c echo.Context) error {
		reached = true
		assert.Equal(t, "USER-A1B2-C3D4E", UserID(c))
		assert.Equal(t, "alice", User(c).Username)
		return c.NoContent(http.StatusOK)
	}

	pair, err := tokens.Issue(jwt.Subject{UserID: "USER-A1B2-C3D4E", Username: "alice"})
	require.NoError(t, err)

	run := func(req *http.Request) *httptest.ResponseRecorder {
		reached = false
		rec := httptest.NewRecorder()
		require.NoError(t, middleware(handler)(e.NewContext(req, rec)))
		return rec
	}

	assertRejected := func(t *testing.T, rec *httptest.ResponseRecorder) {
		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var body envelope.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body.Message, "ACCESS_DENIED")
	}

	t.Run("access token cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/data", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: pair.AccessToken})

		rec := run(req)

		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/data", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.AccessToken)

		run(req)

		assert.True(t, reached)
	})

	t.Run("no token", func(t *testing.T) {
		assertRejected(t, run(httptest.NewRequest(http.MethodGet, "/api/dashboard/data", nil)))
	})

	t.Run("refresh token alone is not enough", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/data", nil)
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: pair.RefreshToken})

		rec := run(req)

		assertRejected(t, rec)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("tampered token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/data", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: pair.AccessToken + "x"})

		assertRejected(t, run(req))
	})

	t.Run("expired token", func(t *testing.T) {
		clock.Advance(time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/data", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: pair.AccessToken})

		assertRejected(t, run(req))
	})
}

func TestTokenExtraction(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"})
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "refresh"})
	req.Header.Set(echo.HeaderAuthorization, "Bearer from-header")
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, "from-cookie", AccessToken(c))
	assert.Equal(t, "refresh", RefreshToken(c))

	bare := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Empty(t, AccessToken(bare))
	assert.Empty(t, RefreshToken(bare))
	assert.Empty(t, UserID(bare))
	assert.Nil(t, User(bare))
}
