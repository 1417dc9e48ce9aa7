package envelope

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/backoffice/services/logging"
	"go.uber.org/zap"
)

// Response is the body of every API response.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func OK(c echo.Context, message string, data any) error {
	return c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: message, Data: data})
}

func Fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Response{Code: status, Message: message, Data: nil})
}

// Reject renders an authentication failure. The reason prefixes the
// message and is repeated in data.reason.
func Reject(c echo.Context, status int, reason, message string) error {
	return c.JSON(status, Response{
		Code:    status,
		Message: fmt.Sprintf("%s: %s", reason, message),
		Data:    map[string]string{"reason": reason},
	})
}

// ServerError is the generic 500 body. Details stay in the log.
func ServerError(c echo.Context) error {
	return Fail(c, http.StatusInternalServerError, "internal server error")
}

// NewErrorHandler renders echo errors in the envelope. Anything that is not
// an *echo.HTTPError is logged, reported to sentry and hidden behind a
// generic 500.
func NewErrorHandler(logger *logging.Service) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
			message := http.StatusText(he.Code)
			if m, ok := he.Message.(string); ok {
				message = m
			}
			writeError(c, logger, Fail(c, he.Code, message))
			return
		}

		logger.Error("unhandled server error",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
		Report(c, err)

		writeError(c, logger, ServerError(c))
	}
}

// Report sends err to sentry with the request attached. It is a no-op
// when sentry is not initialised.
func Report(c echo.Context, err error) {
	hub := sentry.CurrentHub().Clone()
	hub.Scope().SetRequest(c.Request())
	hub.CaptureException(err)
}

func writeError(c echo.Context, logger *logging.Service, err error) {
	if err != nil {
		logger.Error("failed to write error response", zap.String("path", c.Path()), zap.Error(err))
	}
}
