package server

import (
	"context"

	"github.com/tech-arch1tect/backoffice/config"
	"github.com/tech-arch1tect/backoffice/services/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Release is reported to sentry; cmd/backoffice overrides it at build time.
var Release = "dev"

func NewProvider() fx.Option {
	return fx.Options(
		fx.Provide(New),
		fx.Invoke(registerSentry),
		fx.Invoke(registerLifecycle),
	)
}

func registerSentry(lc fx.Lifecycle, cfg *config.Config, logger *logging.Service) error {
	enabled, err := InitSentry(cfg, Release)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	logger.Info("sentry error reporting enabled", zap.String("environment", cfg.Sentry.Environment))
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			FlushSentry()
			return nil
		},
	})
	return nil
}

func registerLifecycle(lc fx.Lifecycle, srv *Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := srv.Listen(); err != nil {
				return err
			}
			go srv.Serve()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
