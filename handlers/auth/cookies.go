package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/backoffice/middleware/gate"
)

func (h *Handler) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     h.config.Cookie.Path,
		Domain:   h.config.Cookie.Domain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure(),
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *Handler) setAccessCookie(c echo.Context, token string) {
	c.SetCookie(h.cookie(gate.AccessTokenCookie, token, h.config.JWT.AccessExpiry))
}

func (h *Handler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(h.cookie(gate.RefreshTokenCookie, token, h.config.JWT.RefreshExpiry))
}

func (h *Handler) clearCookies(c echo.Context) {
	for _, name := range []string{gate.AccessTokenCookie, gate.RefreshTokenCookie} {
		cookie := h.cookie(name, "", 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		c.SetCookie(cookie)
	}
}
