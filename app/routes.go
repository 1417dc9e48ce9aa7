package app

import (
	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/backoffice/apidoc"
	"github.com/tech-arch1tect/backoffice/config"
	authhandler "github.com/tech-arch1tect/backoffice/handlers/auth"
	"github.com/tech-arch1tect/backoffice/handlers/dashboard"
	"github.com/tech-arch1tect/backoffice/handlers/products"
	"github.com/tech-arch1tect/backoffice/middleware/gate"
	"github.com/tech-arch1tect/backoffice/middleware/ratelimit"
	"github.com/tech-arch1tect/backoffice/server"
	"github.com/tech-arch1tect/backoffice/services/authn"
	"go.uber.org/fx"
)

type routeParams struct {
	fx.In

	Config    *config.Config
	Server    *server.Server
	Limits    ratelimit.Store
	Protocol  *authn.Protocol
	Docs      *apidoc.OpenAPI
	Auth      *authhandler.Handler
	Products  *products.Handler
	Dashboard *dashboard.Handler
}

func registerRoutes(p routeParams) {
	var signInLimit echo.MiddlewareFunc = passthrough
	if p.Config.RateLimit.Enabled {
		p.Server.Use(ratelimit.Global(p.Limits, p.Config.RateLimit))
		signInLimit = ratelimit.SignIn(p.Limits, p.Config.RateLimit)
	}
	requireAuth := gate.Require(p.Protocol)

	p.Auth.Routes(p.Server.Group("/auth"), signInLimit, requireAuth)
	p.Products.Routes(p.Server.Group("/product"), requireAuth)
	p.Dashboard.Routes(p.Server.Group("/api/dashboard"), requireAuth)

	p.Server.Get("/openapi.json", p.Docs.JSONHandler())
	p.Server.Get("/openapi.yaml", p.Docs.YAMLHandler())
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc {
	return next
}
