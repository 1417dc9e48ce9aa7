package dashboard

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/backoffice/envelope"
	"github.com/tech-arch1tect/backoffice/middleware/gate"
)

type Handler struct {
	now func() time.Time
}

func NewHandler() *Handler {
	return &Handler{now: time.Now}
}

func (h *Handler) Routes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("/data", h.Data, requireAuth)
}

func (h *Handler) Data(c echo.Context) error {
	return envelope.OK(c, "dashboard data", map[string]any{
		"userID":    gate.UserID(c),
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
