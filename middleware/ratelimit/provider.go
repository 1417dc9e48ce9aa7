package ratelimit

import (
	"context"

	"go.uber.org/fx"
)

func ProvideRateLimitStore(lc fx.Lifecycle) Store {
	store := NewMemoryStore()
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			store.Close()
			return nil
		},
	})
	return store
}

var Options = fx.Options(
	fx.Provide(ProvideRateLimitStore),
)
