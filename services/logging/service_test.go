package logging

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewService(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		service, err := NewService(Config{Level: Info, Format: "json", OutputPath: "stdout"})

		require.NoError(t, err)
		assert.NotNil(t, service.Logger())
	})

	t.Run("console format", func(t *testing.T) {
		service, err := NewService(Config{Level: Debug, Format: "console"})

		require.NoError(t, err)
		assert.NotNil(t, service.Logger())
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "backoffice.log")

		service, err := NewService(Config{Level: Warn, Format: "json", OutputPath: logFile})
		require.NoError(t, err)

		service.Warn("written to file")
		_ = service.Sync()

		_, err = os.Stat(logFile)
		assert.NoError(t, err)
	})
}

func TestService_LoggingMethods(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	service := NewWithLogger(zap.New(core))

	service.Debug("debug message")
	service.Info("info message")
	service.Warn("warn message")
	service.Error("error message")

	logs := recorded.TakeAll()
	require.Len(t, logs, 4)
	assert.Equal(t, zapcore.DebugLevel, logs[0].Level)
	assert.Equal(t, zapcore.InfoLevel, logs[1].Level)
	assert.Equal(t, zapcore.WarnLevel, logs[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs[3].Level)
}

func TestService_With(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	service := NewWithLogger(zap.New(core)).With(zap.String("component", "sessions"))

	service.Info("session added")

	logs := recorded.TakeAll()
	require.Len(t, logs, 1)
	assert.Equal(t, "sessions", logs[0].ContextMap()["component"])
}

func TestService_NilSafety(t *testing.T) {
	var service *Service

	assert.NotPanics(t, func() {
		service.Debug("debug")
		service.Info("info")
		service.Warn("warn")
		service.Error("error")
		assert.Nil(t, service.With(zap.String("k", "v")))
		assert.Nil(t, service.Logger())
		assert.NoError(t, service.Sync())
	})
}

func TestTokenField(t *testing.T) {
	field := TokenField("token", "eyJhbGciOiJIUzI1NiJ9.payload.signature")

	assert.Equal(t, "token", field.Key)
	assert.Len(t, field.String, 12)
	assert.NotContains(t, field.String, "payload")

	assert.Equal(t, "", TokenField("token", "").String)
	assert.Equal(t, field.String, TokenField("token", "eyJhbGciOiJIUzI1NiJ9.payload.signature").String)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected zapcore.Level
	}{
		{Debug, zapcore.DebugLevel},
		{Info, zapcore.InfoLevel},
		{Warn, zapcore.WarnLevel},
		{Error, zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.level))
		})
	}
}

func TestRequestLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	service := NewWithLogger(zap.New(core))

	e := echo.New()
	e.Use(RequestLogger(service, "/healthz"))
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/product/list", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/broken", func(c echo.Context) error { return c.NoContent(http.StatusInternalServerError) })

	for _, path := range []string{"/healthz", "/product/list", "/broken", "/missing"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	logs := recorded.TakeAll()
	require.Len(t, logs, 3)
	assert.Equal(t, "request", logs[0].Message)
	assert.Equal(t, "server error", logs[1].Message)
	assert.Equal(t, "client error", logs[2].Message)
}
