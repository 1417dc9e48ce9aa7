package jwt

import (
	"github.com/tech-arch1tect/backoffice/config"
	"github.com/tech-arch1tect/backoffice/services/logging"
	"go.uber.org/fx"
)

func NewJWTService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(cfg, logger)
}

var Options = fx.Options(
	fx.Provide(NewJWTService),
)
