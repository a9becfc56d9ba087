package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-central/internal/middleware"
	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/service"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	Profiles *service.Profiles
	Log      *slog.Logger
}

// NewProfileHandler panics when a dependency is missing.
func NewProfileHandler(p *service.Profiles, log *slog.Logger) *ProfileHandler {
	if p == nil || log == nil {
		panic("nil dependency passed to NewProfileHandler")
	}
	return &ProfileHandler{Profiles: p, Log: log}
}

// Get handles GET /v1/profile. The profile is created on first access.
func (h *ProfileHandler) Get(c echo.Context) error {
	out, err := h.Profiles.Get(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Save handles POST /v1/profile with a ProfileMiniForm body.
func (h *ProfileHandler) Save(c echo.Context) error {
	var form model.ProfileMiniForm
	if ok, err := bindJSON(c, &form); !ok {
		return err
	}
	out, err := h.Profiles.Save(c.Request().Context(), middleware.IdentityFrom(c), form)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}
