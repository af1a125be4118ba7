// Package ratelimit throttles the login endpoints per client IP.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"society-shield/backend/internal/httpx"
	"society-shield/backend/internal/observability/logger"
)

// LimitedMessage is the body message of every throttled login.
const LimitedMessage = "Too many login attempts. Try again later."

const storePrefix = "shield:login"

// Config selects the rate and the counter store.
type Config struct {
	// Rate is a limiter formatted rate such as "10-M"; empty disables limiting.
	Rate string
	// Redis, when set, shares counters across instances.
	Redis *redis.Client
}

// NewLoginLimiter returns middleware limiting requests per client IP. It expects chi's
// RealIP middleware to have normalized RemoteAddr.
func NewLoginLimiter(cfg Config) (func(http.Handler) http.Handler, error) {
	if strings.TrimSpace(cfg.Rate) == "" {
		return noopMiddleware, nil
	}
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse rate %q: %w", cfg.Rate, err)
	}
	var store limiter.Store
	if cfg.Redis != nil {
		store, err = sredis.NewStoreWithOptions(cfg.Redis, limiter.StoreOptions{Prefix: storePrefix})
		if err != nil {
			return nil, fmt.Errorf("ratelimit: redis store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: storePrefix, CleanUpInterval: limiter.DefaultCleanUpInterval})
	}
	log := logger.Named("ratelimit")
	mw := stdlib.NewMiddleware(limiter.New(store, rate),
		stdlib.WithKeyGetter(clientKey),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			log.Info("login rate limit reached", logger.ClientIP(clientKey(r)), logger.Path(r.URL.Path))
			httpx.WriteError(w, http.StatusTooManyRequests, httpx.CodeTooManyRequests, LimitedMessage, nil)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn("rate limiter store failed", logger.Err(err))
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error", nil)
		}),
	)
	return mw.Handler, nil
}

// ParseRedisURL builds a client from a redis:// URL; an empty URL yields nil.
func ParseRedisURL(url string) (*redis.Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opt), nil
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func noopMiddleware(next http.Handler) http.Handler {
	return next
}
