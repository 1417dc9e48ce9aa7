package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/backoffice/config"
	"github.com/tech-arch1tect/backoffice/envelope"
	"github.com/tech-arch1tect/backoffice/middleware/gate"
	"github.com/tech-arch1tect/backoffice/services/account"
	"github.com/tech-arch1tect/backoffice/services/auth"
	"github.com/tech-arch1tect/backoffice/services/authn"
	"github.com/tech-arch1tect/backoffice/services/logging"
	"github.com/tech-arch1tect/backoffice/services/sessions"
	"go.uber.org/zap"
)

const reasonServerError = "SERVER_ERROR"

type Handler struct {
	config   *config.Config
	auth     *auth.Service
	protocol *authn.Protocol
	sessions *sessions.Service
	logger   *logging.Service
}

func NewHandler(cfg *config.Config, authService *auth.Service, protocol *authn.Protocol, registry *sessions.Service, logger *logging.Service) *Handler {
	return &Handler{
		config:   cfg,
		auth:     authService,
		protocol: protocol,
		sessions: registry,
		logger:   logger,
	}
}

// Routes mounts the /auth endpoints. signInLimit guards the credential
// endpoints; requireAuth guards session management.
func (h *Handler) Routes(g *echo.Group, signInLimit, requireAuth echo.MiddlewareFunc) {
	g.POST("/signin", h.SignIn, signInLimit)
	g.POST("/register", h.Register, signInLimit)
	g.POST("/authenticated", h.Authenticated)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me)
	g.GET("/sessions", h.ListSessions, requireAuth)
	g.DELETE("/sessions/:id", h.RevokeSession, requireAuth)
}

type signInRequest struct {
	Username   string         `json:"username"`
	Password   string         `json:"password"`
	DeviceInfo map[string]any `json:"deviceInfo"`
}

func (h *Handler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid request body")
	}

	result, err := h.auth.Login(c.Request().Context(), auth.LoginInput{
		Identifier: req.Username,
		Password:   req.Password,
		IP:         c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
		DeviceInfo: req.DeviceInfo,
	})
	switch {
	case errors.Is(err, auth.ErrValidation):
		return envelope.Fail(c, http.StatusBadRequest, "username/email and password are required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return envelope.Fail(c, http.StatusUnauthorized, "invalid username/email or password")
	case err != nil:
		return err
	}

	h.setAccessCookie(c, result.Tokens.AccessToken)
	h.setRefreshCookie(c, result.Tokens.RefreshToken)

	return envelope.OK(c, "signed in", map[string]any{
		"user":        result.User.Profile(),
		"accessToken": result.Tokens.AccessToken,
	})
}

func (h *Handler) Register(c echo.Context) error {
	var req auth.RegisterInput
	if err := c.Bind(&req); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid request body")
	}

	user, err := h.auth.Register(c.Request().Context(), req)
	switch {
	case errors.Is(err, auth.ErrValidation):
		return envelope.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrAccountExists):
		return envelope.Fail(c, http.StatusConflict, "username or email already exists")
	case err != nil:
		return err
	}

	return envelope.OK(c, "account created", map[string]any{"user": user.Profile()})
}

// Authenticated runs the full cookie check, renewing tokens when the
// access token has expired.
func (h *Handler) Authenticated(c echo.Context) error {
	outcome, err := h.protocol.Check(c.Request().Context(), gate.AccessToken(c), gate.RefreshToken(c))
	if err != nil {
		h.logger.Error("authentication check failed", zap.Error(err))
		envelope.Report(c, err)
		return envelope.Reject(c, http.StatusInternalServerError, reasonServerError, "could not verify the session, please sign in again")
	}

	if !outcome.Authenticated() {
		if outcome.ClearCookies {
			h.clearCookies(c)
		}
		return envelope.Reject(c, outcome.StatusCode(), string(outcome.Reason), outcome.Reason.Message())
	}

	data := map[string]any{"user": outcome.User.Profile()}
	if outcome.AccessToken != "" {
		h.setAccessCookie(c, outcome.AccessToken)
		data["accessToken"] = outcome.AccessToken
	}
	if outcome.RefreshToken != "" {
		h.setRefreshCookie(c, outcome.RefreshToken)
	}

	return envelope.OK(c, "authenticated", data)
}

func (h *Handler) Logout(c echo.Context) error {
	h.protocol.Logout(c.Request().Context(), gate.RefreshToken(c))
	h.clearCookies(c)
	return envelope.OK(c, "signed out", nil)
}

// Me reports the current user without renewing anything; data.user is null
// when no token resolves.
func (h *Handler) Me(c echo.Context) error {
	user, err := h.protocol.WhoAmI(c.Request().Context(), gate.AccessToken(c), gate.RefreshToken(c))
	if err != nil {
		return err
	}

	if user == nil {
		return envelope.OK(c, "no active user session", map[string]any{"user": nil})
	}
	return envelope.OK(c, "active user session", map[string]any{"user": user.Profile()})
}

type sessionView struct {
	account.DeviceSession
	Current bool `json:"current"`
}

func (h *Handler) ListSessions(c echo.Context) error {
	list, err := h.sessions.List(c.Request().Context(), gate.UserID(c))
	if err != nil {
		return err
	}

	refreshToken := gate.RefreshToken(c)
	views := make([]sessionView, 0, len(list))
	for _, session := range list {
		views = append(views, sessionView{
			DeviceSession: session,
			Current:       refreshToken != "" && session.Holds(refreshToken),
		})
	}

	return envelope.OK(c, "active sessions", map[string]any{"sessions": views})
}

func (h *Handler) RevokeSession(c echo.Context) error {
	ctx := c.Request().Context()
	userID := gate.UserID(c)
	refreshToken := gate.RefreshToken(c)

	current := false
	if refreshToken != "" {
		if _, session, err := h.sessions.FindByRefreshToken(ctx, refreshToken); err == nil && session != nil {
			current = session.PublicID == c.Param("id")
		}
	}

	removed, err := h.sessions.RevokeByID(ctx, userID, c.Param("id"))
	if err != nil {
		return err
	}
	if !removed {
		return envelope.Fail(c, http.StatusNotFound, "session not found")
	}

	if current {
		h.clearCookies(c)
	}
	return envelope.OK(c, "session revoked", nil)
}
