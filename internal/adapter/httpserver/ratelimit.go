package httpserver

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// Idle per-address buckets are dropped after this long.
const upgradeBucketExpiry = 5 * time.Minute

// newUpgradeLimiter throttles /ws handshakes per client address, so a
// dashboard stuck in a reconnect loop cannot starve the hub of upgrades.
// Refusals carry Retry-After with the time until the next token.
func newUpgradeLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: upgradeBucketExpiry,
	})
	retryAfter := strconv.Itoa(retryAfterSeconds(perSecond))

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, clientIP string, _ error) error {
			slog.WarnContext(c.Request().Context(), "Upgrade attempts throttled", "remote_ip", clientIP)
			c.Response().Header().Set("Retry-After", retryAfter)
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "too many connection attempts",
			})
		},
	})
}

func retryAfterSeconds(perSecond float64) int {
	if perSecond <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1/perSecond)))
}
