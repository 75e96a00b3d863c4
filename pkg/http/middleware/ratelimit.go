package middleware

import (
	"net/http"

	applogger "ProxyPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Allower decides whether a client key may proceed.
type Allower interface {
	Allow(key string) bool
}

// RateLimit rejects requests over the per-client budget with 429. The key
// is the client address as resolved by Echo.
func RateLimit(a Allower, l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if a.Allow(ip) {
				return next(c)
			}
			l.Debug("rate limited", applogger.String("remote", ip), applogger.String("route", routeLabel(c)))
			c.Response().Header().Set("Retry-After", "1")
			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
				"status":  http.StatusTooManyRequests,
				"message": http.StatusText(http.StatusTooManyRequests),
			})
		}
	}
}
