package products

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/backoffice/envelope"
	"github.com/tech-arch1tect/backoffice/middleware/gate"
	"github.com/tech-arch1tect/backoffice/services/inventory"
)

type Handler struct {
	inventory *inventory.Service
}

func NewHandler(service *inventory.Service) *Handler {
	return &Handler{inventory: service}
}

// Routes mounts the product endpoints. Every route requires an identity.
func (h *Handler) Routes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("/list", h.List, requireAuth)
	g.POST("", h.Add, requireAuth)
	g.DELETE("/:id", h.Delete, requireAuth)
}

func (h *Handler) List(c echo.Context) error {
	products, err := h.inventory.List(c.Request().Context())
	if err != nil {
		return err
	}
	return envelope.OK(c, "products loaded", products)
}

func (h *Handler) Add(c echo.Context) error {
	var input inventory.ProductInput
	if err := c.Bind(&input); err != nil {
		return envelope.Fail(c, http.StatusBadRequest, "invalid request body")
	}

	product, err := h.inventory.Add(c.Request().Context(), gate.UserID(c), input)
	switch {
	case errors.Is(err, inventory.ErrValidation):
		return envelope.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrDuplicateSKU):
		return envelope.Fail(c, http.StatusConflict, err.Error())
	case err != nil:
		return err
	}

	return envelope.OK(c, "product added", product)
}

func (h *Handler) Delete(c echo.Context) error {
	err := h.inventory.Delete(c.Request().Context(), gate.UserID(c), c.Param("id"))
	if errors.Is(err, inventory.ErrNotFound) {
		return envelope.Fail(c, http.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	return envelope.OK(c, "product deleted", nil)
}
