package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/backoffice/config"
	"github.com/tech-arch1tect/backoffice/envelope"
	"github.com/tech-arch1tect/backoffice/services/auth"
	"github.com/tech-arch1tect/backoffice/testutils"
)

func testConfig(t *testing.T, mutate func(*config.Config)) *config.Config {
	t.Helper()
	cfg := testutils.GetTestConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Log.Level = "error"
	cfg.Log.Format = "json"
	cfg.Log.Output = "stderr"
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

func startApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := NewApp().WithConfig(cfg).Build()
	require.NoError(t, err)
	require.NoError(t, app.Start())
	t.Cleanup(func() { app.Stop() })
	return app
}

// client keeps the cookies the server sets, like a browser would.
type client struct {
	t       *testing.T
	e       *echo.Echo
	cookies map[string]string
}

func newClient(t *testing.T, app *App) *client {
	require.NotNil(t, app.Server())
	return &client{t: t, e: app.Server(), cookies: map[string]string{}}
}

func (c *client) do(method, path string, body any) (int, envelope.Response) {
	c.t.Helper()

	raw := ""
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(c.t, err)
		raw = string(encoded)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
		} else {
			c.cookies[cookie.Name] = cookie.Value
		}
	}

	var resp envelope.Response
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func exerciseBackOffice(t *testing.T, app *App) {
	c := newClient(t, app)

	code, _ := c.do(http.MethodPost, "/auth/register", map[string]string{
		"username": "alice", "password": "pw123", "email": "alice@x.com",
	})
	require.Equal(t, http.StatusOK, code)

	code, _ = c.do(http.MethodGet, "/product/list", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp := c.do(http.MethodPost, "/auth/signin", map[string]string{"username": "alice@x.com", "password": "pw123"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, c.cookies, "accessToken")
	assert.Contains(t, c.cookies, "refreshToken")
	user := resp.Data.(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])

	code, _ = c.do(http.MethodPost, "/auth/authenticated", nil)
	assert.Equal(t, http.StatusOK, code)

	code, resp = c.do(http.MethodPost, "/product", map[string]any{"name": "Widget", "sku": "W-1", "stock": 3, "cost": 9.5})
	require.Equal(t, http.StatusOK, code)
	product := resp.Data.(map[string]any)

	code, resp = c.do(http.MethodGet, "/product/list", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Data, 1)

	code, _ = c.do(http.MethodDelete, "/product/"+product["id"].(string), nil)
	assert.Equal(t, http.StatusOK, code)

	code, resp = c.do(http.MethodGet, "/api/dashboard/data", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, user["userID"], resp.Data.(map[string]any)["userID"])

	code, _ = c.do(http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, c.cookies)

	code, resp = c.do(http.MethodPost, "/auth/authenticated", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "ACCESS_DENIED", resp.Data.(map[string]any)["reason"])
}

func TestApp_SQLite(t *testing.T) {
	app := startApp(t, testConfig(t, nil))

	exerciseBackOffice(t, app)
	assert.NotNil(t, app.Database().SQL)
}

func TestApp_Bolt(t *testing.T) {
	app := startApp(t, testConfig(t, func(cfg *config.Config) {
		cfg.Database.Driver = "bolt"
		cfg.Database.DSN = filepath.Join(t.TempDir(), "backoffice.bolt")
	}))

	exerciseBackOffice(t, app)
	assert.NotNil(t, app.Database().Bolt)
}

func TestApp_OpenAPI(t *testing.T) {
	app := startApp(t, testConfig(t, nil))

	for _, path := range []string{"/openapi.json", "/openapi.yaml"} {
		rec := httptest.NewRecorder()
		app.Server().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "/auth/authenticated", path)
	}
}

func TestApp_SignInRateLimit(t *testing.T) {
	app := startApp(t, testConfig(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.SignInRate = 2
	}))
	c := newClient(t, app)

	for range 2 {
		code, _ := c.do(http.MethodPost, "/auth/signin", map[string]string{"username": "nobody", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, code)
	}

	code, _ := c.do(http.MethodPost, "/auth/signin", map[string]string{"username": "nobody", "password": "wrong"})
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestApp_WithoutServer(t *testing.T) {
	app, err := NewApp().WithConfig(testConfig(t, nil)).WithoutServer().Build()
	require.NoError(t, err)
	require.NoError(t, app.Start())
	defer app.Stop()

	assert.Nil(t, app.Server())
	require.NotNil(t, app.Auth())

	user, err := app.Auth().Register(context.Background(), auth.RegisterInput{
		Username: "ops", Password: "secret", Email: "ops@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "ops", user.Username)
}
