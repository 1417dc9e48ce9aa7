package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/backoffice/config"
	"github.com/tech-arch1tect/backoffice/envelope"
	"github.com/tech-arch1tect/backoffice/services/logging"
	"github.com/tech-arch1tect/backoffice/testutils"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := testutils.GetTestConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg, logging.NewWithLogger(zap.NewNop()))
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope.Response {
	t.Helper()
	var body envelope.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNew(t *testing.T) {
	srv := newTestServer(t, nil)

	require.NotNil(t, srv.Echo())
	assert.True(t, srv.Echo().HideBanner)
	assert.Equal(t, "localhost:2105", srv.Addr())
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec).Message)
}

func TestServer_ErrorEnvelope(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.Get("/boom", func(c echo.Context) error {
		panic("kaboom")
	})

	t.Run("not found", func(t *testing.T) {
		rec := do(srv, httptest.NewRequest(http.MethodGet, "/missing", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, http.StatusNotFound, body.Code)
		assert.Equal(t, "Not Found", body.Message)
		assert.Nil(t, body.Data)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		rec := do(srv, httptest.NewRequest(http.MethodGet, "/boom", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "kaboom")
	})
}

func TestServer_SecurityHeaders(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
}

func TestServer_CORS(t *testing.T) {
	srv := newTestServer(t, nil)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/auth/signin", nil)
		req.Header.Set(echo.HeaderOrigin, origin)
		req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
		return do(srv, req)
	}

	t.Run("allowed origin", func(t *testing.T) {
		rec := preflight("http://localhost:5173")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
	})

	t.Run("unknown origin", func(t *testing.T) {
		rec := preflight("http://evil.example")

		assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	})
}

func TestServer_BodyLimit(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.Server.BodyLimit = "1K" })
	srv.Echo().POST("/echo", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 4096)))
	rec := do(srv, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, decode(t, rec).Code)
}

func TestServer_Group(t *testing.T) {
	srv := newTestServer(t, nil)
	g := srv.Group("/api")
	g.GET("/ping", func(c echo.Context) error {
		return envelope.OK(c, "pong", nil)
	})

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", decode(t, rec).Message)
}

func TestServer_ListenServeShutdown(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.Host = "127.0.0.1"
		cfg.Server.Port = "0"
	})

	require.NoError(t, srv.Listen())
	go srv.Serve()

	resp, err := http.Get("http://" + srv.Echo().ListenerAddr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
}

func TestInitSentry_Disabled(t *testing.T) {
	enabled, err := InitSentry(testutils.GetTestConfig(), "test")

	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestNewProvider(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"

	var srv *Server
	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Supply(logging.NewWithLogger(zap.NewNop())),
		NewProvider(),
		fx.Populate(&srv),
	)
	app.RequireStart()

	resp, err := http.Get("http://" + srv.Echo().ListenerAddr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	app.RequireStop()
}
