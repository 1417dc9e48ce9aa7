package ratelimit

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/backoffice/config"
)

// CountMode decides which responses consume the budget.
type CountMode string

const (
	CountAll      CountMode = "all"
	CountFailures CountMode = "failures"
	CountSuccess  CountMode = "success"
)

type Config struct {
	Store          Store
	Rate           int
	Period         time.Duration
	CountMode      CountMode
	KeyGenerator   func(c echo.Context) string
	OnLimitReached func(c echo.Context) error
	Skipper        func(c echo.Context) bool
}

func Middleware(cfg *Config) echo.MiddlewareFunc {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}

	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}

	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}

	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = DefaultKeyGenerator
	}

	if cfg.OnLimitReached == nil {
		cfg.OnLimitReached = DefaultOnLimitReached
	}

	if cfg.CountMode == "" {
		cfg.CountMode = CountAll
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			key := cfg.KeyGenerator(c)
			resetTime := time.Now().Add(cfg.Period)

			count, existingResetTime, exists := cfg.Store.Get(key)
			if exists {
				resetTime = existingResetTime
			}

			if count >= cfg.Rate {
				setHeaders(c, cfg.Rate, 0, resetTime)
				return cfg.OnLimitReached(c)
			}

			newCount := count + 1
			if cfg.CountMode == CountAll {
				newCount = cfg.Store.Increment(key, resetTime)
			}
			setHeaders(c, cfg.Rate, max(cfg.Rate-newCount, 0), resetTime)

			err := next(c)

			if cfg.CountMode != CountAll {
				status := c.Response().Status
				if err != nil {
					status = http.StatusInternalServerError
					if he, ok := err.(*echo.HTTPError); ok {
						status = he.Code
					}
				}

				failed := status >= http.StatusBadRequest
				if (cfg.CountMode == CountFailures) == failed {
					cfg.Store.Increment(key, resetTime)
				}
			}

			return err
		}
	}
}

func setHeaders(c echo.Context, limit, remaining int, reset time.Time) {
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
}

func DefaultKeyGenerator(c echo.Context) string {
	return "rate_limit:" + clientIP(c)
}

// SecureKeyGenerator keys on IP and User-Agent so clients behind one NAT do
// not share a sign-in budget.
func SecureKeyGenerator(c echo.Context) string {
	return fmt.Sprintf("rate_limit:%s:%s", clientIP(c), uaHash(c.Request().UserAgent()))
}

func clientIP(c echo.Context) string {
	ip := c.RealIP()
	if ip == "" || ip == "unknown" {
		return "fallback"
	}
	return ip
}

func uaHash(s string) string {
	if s == "" {
		return "none"
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return strconv.FormatUint(uint64(h.Sum32()), 16)
}

func DefaultOnLimitReached(c echo.Context) error {
	return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
}

// SignIn limits failed credential submissions per client.
func SignIn(store Store, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	return Middleware(&Config{
		Store:        store,
		Rate:         cfg.SignInRate,
		Period:       cfg.SignInPeriod,
		CountMode:    CountFailures,
		KeyGenerator: func(c echo.Context) string { return "signin:" + SecureKeyGenerator(c) },
	})
}

// Global limits every request per client IP.
func Global(store Store, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	return Middleware(&Config{
		Store:  store,
		Rate:   cfg.GlobalRate,
		Period: cfg.GlobalPeriod,
		KeyGenerator: func(c echo.Context) string {
			return "global:" + DefaultKeyGenerator(c)
		},
	})
}
