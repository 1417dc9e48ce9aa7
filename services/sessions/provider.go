package sessions

import (
	"context"

	"github.com/tech-arch1tect/backoffice/config"
	"github.com/tech-arch1tect/backoffice/services/account"
	"github.com/tech-arch1tect/backoffice/services/logging"
	"go.uber.org/fx"
)

func ProvideSessionService(lc fx.Lifecycle, store account.Store, cfg *config.Config, logger *logging.Service) *Service {
	service := NewService(store, cfg, logger)

	if cfg.Session.CleanupInterval > 0 && cfg.Session.IdleRetention > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				service.StartCleanupWorker(ctx, cfg.Session.CleanupInterval)
				return nil
			},
			OnStop: func(context.Context) error {
				cancel()
				return nil
			},
		})
	}

	return service
}

var Options = fx.Options(
	fx.Provide(ProvideSessionService),
)
