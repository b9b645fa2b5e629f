package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pmhub/project-manager/internal/api/metrics"
	"github.com/pmhub/project-manager/internal/infrastructure/db/redis"
)

// Limiter counts hits per key. The redis RateLimiter implements it.
type Limiter interface {
	Allow(ctx context.Context, key string) (redis.Result, error)
}

// RateLimit rejects clients that exceed the limiter's budget with 429. A
// limiter error lets the request through.
func RateLimit(l Limiter, scope string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res, err := l.Allow(c.Request().Context(), scope+":"+c.RealIP())
			if err != nil {
				log.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}
			if !res.Allowed {
				metrics.RateLimitedTotal.WithLabelValues(scope).Inc()
				secs := int(math.Ceil(res.RetryAfter.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later")
			}
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			return next(c)
		}
	}
}
