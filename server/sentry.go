package server

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/tech-arch1tect/backoffice/config"
)

const sentryFlushTimeout = 2 * time.Second

// InitSentry configures the global sentry client. It reports false when no
// DSN is set, in which case captures are dropped.
func InitSentry(cfg *config.Config, release string) (bool, error) {
	if cfg.Sentry.DSN == "" {
		return false, nil
	}

	environment := cfg.Sentry.Environment
	if environment == "" {
		environment = cfg.App.Env
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: environment,
		Release:     release,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func FlushSentry() {
	sentry.Flush(sentryFlushTimeout)
}
