package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-central/internal/service"
)

// AnnouncementHandler exposes the nearly-sold-out banner.
type AnnouncementHandler struct {
	Announcements *service.Announcements
	Log           *slog.Logger
}

// NewAnnouncementHandler panics when a dependency is missing.
func NewAnnouncementHandler(a *service.Announcements, log *slog.Logger) *AnnouncementHandler {
	if a == nil || log == nil {
		panic("nil dependency passed to NewAnnouncementHandler")
	}
	return &AnnouncementHandler{Announcements: a, Log: log}
}

// Get handles GET /v1/announcement.
func (h *AnnouncementHandler) Get(c echo.Context) error {
	msg, err := h.Announcements.Get(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": msg})
}

// Refresh handles POST /internal/crons/announcement, the hook for an
// external scheduler. It answers 204.
func (h *AnnouncementHandler) Refresh(c echo.Context) error {
	if _, err := h.Announcements.Refresh(c.Request().Context()); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
