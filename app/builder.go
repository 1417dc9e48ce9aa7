package app

import (
	"errors"
	"fmt"

	"github.com/tech-arch1tect/backoffice/apidoc"
	"github.com/tech-arch1tect/backoffice/config"
	"github.com/tech-arch1tect/backoffice/database"
	authhandler "github.com/tech-arch1tect/backoffice/handlers/auth"
	"github.com/tech-arch1tect/backoffice/handlers/dashboard"
	"github.com/tech-arch1tect/backoffice/handlers/products"
	"github.com/tech-arch1tect/backoffice/middleware/ratelimit"
	"github.com/tech-arch1tect/backoffice/server"
	"github.com/tech-arch1tect/backoffice/services/account"
	"github.com/tech-arch1tect/backoffice/services/auth"
	"github.com/tech-arch1tect/backoffice/services/authn"
	"github.com/tech-arch1tect/backoffice/services/inventory"
	"github.com/tech-arch1tect/backoffice/services/jwt"
	"github.com/tech-arch1tect/backoffice/services/logging"
	"github.com/tech-arch1tect/backoffice/services/sessions"
	"go.uber.org/fx"
)

type AppBuilder struct {
	config     *config.Config
	models     []any
	fxOptions  []fx.Option
	withServer bool
	errors     []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		models:     make([]any, 0),
		fxOptions:  make([]fx.Option, 0),
		withServer: true,
		errors:     make([]error, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.addError("config cannot be nil")
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.addError(fmt.Sprintf("failed to load config: %v", err))
		return b
	}
	b.config = cfg
	return b
}

// WithModels migrates extra models alongside the account and inventory tables.
func (b *AppBuilder) WithModels(models ...any) *AppBuilder {
	b.models = append(b.models, models...)
	return b
}

// WithoutServer builds the services only, for one-off commands.
func (b *AppBuilder) WithoutServer() *AppBuilder {
	b.withServer = false
	return b
}

func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	if b.config == nil {
		if err := b.WithAutoConfig().validate(); err != nil {
			return nil, err
		}
	}

	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &App{}
	options := b.buildFxOptions()
	options = append(options, fx.Populate(&app.config, &app.logger, &app.conn, &app.auth))
	if b.withServer {
		options = append(options, fx.Populate(&app.server))
	}

	fxApp := fx.New(options...)
	if err := fxApp.Err(); err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}
	app.fx = fxApp

	return app, nil
}

func (b *AppBuilder) addError(msg string) {
	b.errors = append(b.errors, errors.New(msg))
}

func (b *AppBuilder) validate() error {
	if len(b.errors) > 0 {
		return fmt.Errorf("configuration errors: %v", b.errors)
	}
	return nil
}

func (b *AppBuilder) allModels() []any {
	models := append([]any{}, account.Models()...)
	models = append(models, inventory.Models()...)
	return append(models, b.models...)
}

func (b *AppBuilder) buildFxOptions() []fx.Option {
	options := []fx.Option{
		fx.NopLogger,
		config.NewProvider(b.config),
		logging.Module,
		fx.Supply(database.WithModels(b.allModels()...)),
		database.Module,
		account.Options,
		jwt.Options,
		sessions.Options,
		auth.Options,
		authn.Options,
		inventory.Options,
	}

	if b.withServer {
		options = append(options,
			ratelimit.Options,
			server.NewProvider(),
			fx.Provide(
				provideDocs,
				authhandler.NewHandler,
				products.NewHandler,
				dashboard.NewHandler,
			),
			fx.Invoke(registerRoutes),
		)
	}

	return append(options, b.fxOptions...)
}

func provideDocs(cfg *config.Config) (*apidoc.OpenAPI, error) {
	return apidoc.Build(cfg.App.Name+" API", server.Release)
}
