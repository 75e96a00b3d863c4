package middleware

import (
	"time"

	applogger "ProxyPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs one line per request. Server errors log at error
// level, requests slower than slow at warn, the rest at debug.
func RequestLogging(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("route", routeLabel(c)),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Duration("latency", time.Since(start)),
				applogger.Int64("bytes", res.Size),
			}
			switch {
			case res.Status >= 500:
				l.Error("http request failed", append(fields, applogger.Error(err))...)
			case slow > 0 && time.Since(start) >= slow:
				l.Warn("http request slow", fields...)
			default:
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}
