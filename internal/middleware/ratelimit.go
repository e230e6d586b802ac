package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/comuna/facility-events/internal/config"
)

// RateLimit returns a fixed-window request limiter backed by Redis.
// Each client key (user ID when authenticated, client IP otherwise)
// gets cfg.Limit requests per cfg.Window; exceeding it yields 429
// with a Retry-After header.  With a nil Redis client or a Redis
// failure the limiter lets requests pass, so an unavailable Redis
// never takes the API down with it.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Enabled || rdb == nil {
				return next(c)
			}

			window := time.Now().Unix() / int64(cfg.Window/time.Second)
			key := fmt.Sprintf("%s:%s:%d", cfg.Prefix, clientKey(c), window)

			ctx := c.Request().Context()
			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				return next(c) // fail open
			}
			if n == 1 {
				rdb.Expire(ctx, key, cfg.Window)
			}
			if n > int64(cfg.Limit) {
				retry := cfg.Window - time.Duration(time.Now().Unix()%int64(cfg.Window/time.Second))*time.Second
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(retry/time.Second)+1))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}

// clientKey identifies the caller: the JWT subject when present,
// otherwise the remote IP.
func clientKey(c echo.Context) string {
	if uid := c.Get("user_id"); uid != nil {
		return fmt.Sprintf("u:%v", uid)
	}
	return "ip:" + c.RealIP()
}
