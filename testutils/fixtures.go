package testutils

import (
	"time"

	"github.com/tech-arch1tect/backoffice/config"
	"golang.org/x/crypto/bcrypt"
)

const (
	AccessSecret  = "test-access-secret-32-chars-long!!"
	RefreshSecret = "test-refresh-secret-32-chars-long!"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "Test Back Office",
			Env:  "test",
		},
		Server: config.ServerConfig{
			Host:           "localhost",
			Port:           "2105",
			AllowedOrigins: []string{"http://localhost:5173"},
			BodyLimit:      "1M",
		},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		JWT: config.JWTConfig{
			AccessSecret:  AccessSecret,
			RefreshSecret: RefreshSecret,
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 7 * 24 * time.Hour,
			Issuer:        "test-issuer",
		},
		Auth: config.AuthConfig{
			BcryptCost:        bcrypt.MinCost,
			MinPasswordLength: 1,
			UserIDPrefix:      "USER",
		},
		Cookie: config.CookieConfig{
			Path: "/",
		},
		RateLimit: config.RateLimitConfig{
			Enabled:      false,
			SignInRate:   10,
			SignInPeriod: time.Minute,
			GlobalRate:   500,
			GlobalPeriod: 5 * time.Minute,
		},
	}
}

var TestUsers = struct {
	Alice struct{ Username, Email, Password string }
	Bob   struct{ Username, Email, Password string }
}{
	Alice: struct{ Username, Email, Password string }{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "pw123",
	},
	Bob: struct{ Username, Email, Password string }{
		Username: "bob",
		Email:    "bob@x.com",
		Password: "hunter2",
	},
}

// Clock is a settable time source for code that accepts func() time.Time.
type Clock struct {
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
