package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-central/internal/handler"
	"github.com/iliyamo/conference-central/internal/middleware"
)

// Handlers are the authenticated API handlers.
type Handlers struct {
	Profile      *handler.ProfileHandler
	Conference   *handler.ConferenceHandler
	Session      *handler.SessionHandler
	Announcement *handler.AnnouncementHandler
}

// RegisterAPI registers everything under /v1. All routes require a valid
// JWT; limit wraps the routes that write.
func RegisterAPI(e *echo.Echo, h Handlers, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.GET("/profile", h.Profile.Get)
	g.POST("/profile", h.Profile.Save, limit)

	// Static segments are registered before :key so they take precedence.
	g.POST("/conferences", h.Conference.Create, limit)
	g.POST("/conferences/query", h.Conference.Query)
	g.GET("/conferences/created", h.Conference.Created)
	g.GET("/conferences/attending", h.Conference.Attending)
	g.GET("/conferences/:key", h.Conference.Get)
	g.PUT("/conferences/:key", h.Conference.Update, limit)
	g.POST("/conferences/:key/registration", h.Conference.Register, limit)
	g.DELETE("/conferences/:key/registration", h.Conference.Unregister, limit)
	g.GET("/conferences/:key/featured-speaker", h.Conference.FeaturedSpeaker)

	g.POST("/conferences/:key/sessions", h.Session.Create, limit)
	g.GET("/conferences/:key/sessions", h.Session.ByConference)
	g.POST("/sessions/query", h.Session.Query)
	g.GET("/sessions/created", h.Session.Created)
	g.GET("/sessions/:key", h.Session.Get)
	g.PUT("/sessions/:key", h.Session.Update, limit)

	g.GET("/announcement", h.Announcement.Get)
}
