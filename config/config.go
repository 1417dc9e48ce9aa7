package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const minSecretLength = 32

var (
	ErrMissingSecret     = errors.New("JWT access and refresh secrets are required")
	ErrWeakSecret        = fmt.Errorf("JWT secrets must be at least %d bytes", minSecretLength)
	ErrSharedSecret      = errors.New("JWT access and refresh secrets must differ")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Server    ServerConfig    `envPrefix:"SERVER_"`
	Log       LogConfig       `envPrefix:"LOG_"`
	Database  DatabaseConfig  `envPrefix:"DATABASE_"`
	JWT       JWTConfig       `envPrefix:"JWT_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	Cookie    CookieConfig    `envPrefix:"COOKIE_"`
	Session   SessionConfig   `envPrefix:"SESSION_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Sentry    SentryConfig    `envPrefix:"SENTRY_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"Back Office"`
	Env  string `env:"ENV" envDefault:"development"`
}

func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

type ServerConfig struct {
	Host           string   `env:"HOST" envDefault:"localhost"`
	Port           string   `env:"PORT" envDefault:"2105"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	BodyLimit      string   `env:"BODY_LIMIT" envDefault:"50M"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	// Driver is one of sqlite, postgres, mysql or bolt.
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"backoffice.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

func (d DatabaseConfig) IsDocumentStore() bool {
	return d.Driver == "bolt"
}

type JWTConfig struct {
	AccessSecret  string        `env:"ACCESS_SECRET"`
	RefreshSecret string        `env:"REFRESH_SECRET"`
	AccessExpiry  time.Duration `env:"ACCESS_EXPIRY" envDefault:"15m"`
	RefreshExpiry time.Duration `env:"REFRESH_EXPIRY" envDefault:"168h"`
	Issuer        string        `env:"ISSUER" envDefault:"backoffice"`
}

type AuthConfig struct {
	BcryptCost        int    `env:"BCRYPT_COST" envDefault:"10"`
	MinPasswordLength int    `env:"MIN_PASSWORD_LENGTH" envDefault:"1"`
	UserIDPrefix      string `env:"USER_ID_PREFIX" envDefault:"USER"`
}

type CookieConfig struct {
	Secure bool   `env:"SECURE" envDefault:"false"`
	Domain string `env:"DOMAIN"`
	Path   string `env:"PATH" envDefault:"/"`
}

type SessionConfig struct {
	// MaxPerUser caps device sessions per account; 0 keeps the list unbounded.
	MaxPerUser      int           `env:"MAX_PER_USER" envDefault:"0"`
	IdleRetention   time.Duration `env:"IDLE_RETENTION" envDefault:"0"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"0"`
}

type RateLimitConfig struct {
	Enabled      bool          `env:"ENABLED" envDefault:"true"`
	SignInRate   int           `env:"SIGNIN_RATE" envDefault:"10"`
	SignInPeriod time.Duration `env:"SIGNIN_PERIOD" envDefault:"1m"`
	GlobalRate   int           `env:"GLOBAL_RATE" envDefault:"500"`
	GlobalPeriod time.Duration `env:"GLOBAL_PERIOD" envDefault:"5m"`
}

type SentryConfig struct {
	DSN         string `env:"DSN"`
	Environment string `env:"ENVIRONMENT"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	return env.Parse(cfg)
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return ErrMissingSecret
	}
	if len(c.JWT.AccessSecret) < minSecretLength || len(c.JWT.RefreshSecret) < minSecretLength {
		return ErrWeakSecret
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return ErrSharedSecret
	}

	switch c.Database.Driver {
	case "sqlite", "postgres", "postgresql", "mysql", "bolt":
	default:
		return fmt.Errorf("%w: %s (supported: sqlite, postgres, mysql, bolt)", ErrUnsupportedDriver, c.Database.Driver)
	}

	return nil
}

// CookieSecure reports whether auth cookies carry the Secure flag.
func (c *Config) CookieSecure() bool {
	return c.Cookie.Secure || c.App.IsProduction()
}
