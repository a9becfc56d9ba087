package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-central/internal/handler"
	"github.com/iliyamo/conference-central/internal/middleware"
)

// RegisterRoutes registers the routes that need no bearer token: health,
// metrics and the scheduler hook that refreshes the announcement. The hook
// exists only when cronSecret is set.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc, metrics http.Handler, a *handler.AnnouncementHandler, cronSecret string, limit echo.MiddlewareFunc) {
	e.GET("/healthz", health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
	if cronSecret != "" {
		e.POST("/internal/crons/announcement", a.Refresh, limit, middleware.CronSecret(cronSecret))
	}
}
