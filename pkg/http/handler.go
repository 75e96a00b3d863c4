package http

import "github.com/labstack/echo/v4"

// Handler is one route group of the proxy API (REST series endpoints, the
// series stream). NewServer calls RegisterRoutes once per handler after the
// middleware chain is installed.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
