package gate

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/backoffice/envelope"
	"github.com/tech-arch1tect/backoffice/services/account"
	"github.com/tech-arch1tect/backoffice/services/authn"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	UserIDKey = "_gate_user_id"
	UserKey   = "_gate_user"
)

// Require resolves the caller from the access token and rejects the request
// with 401 before the handler runs when no identity resolves. It never
// renews tokens; clients renew through the authentication check endpoint.
func Require(protocol *authn.Protocol) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := protocol.Resolve(c.Request().Context(), AccessToken(c))
			if errors.Is(err, authn.ErrUnauthenticated) {
				reason := authn.ReasonAccessDenied
				return envelope.Reject(c, http.StatusUnauthorized, string(reason), reason.Message())
			}
			if err != nil {
				return err
			}

			c.Set(UserIDKey, user.UserID)
			c.Set(UserKey, user)

			return next(c)
		}
	}
}

// AccessToken reads the access token from its cookie, falling back to a
// bearer Authorization header.
func AccessToken(c echo.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func RefreshToken(c echo.Context) string {
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func UserID(c echo.Context) string {
	if userID, ok := c.Get(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

func User(c echo.Context) *account.User {
	if user, ok := c.Get(UserKey).(*account.User); ok {
		return user
	}
	return nil
}
