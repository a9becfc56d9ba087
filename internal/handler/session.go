package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-central/internal/middleware"
	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/service"
)

// SessionHandler serves sessions, both nested under a conference and by
// their own key.
type SessionHandler struct {
	Lifecycle *service.Lifecycle
	Log       *slog.Logger
}

// NewSessionHandler panics when a dependency is missing.
func NewSessionHandler(l *service.Lifecycle, log *slog.Logger) *SessionHandler {
	if l == nil || log == nil {
		panic("nil dependency passed to NewSessionHandler")
	}
	return &SessionHandler{Lifecycle: l, Log: log}
}

// Create handles POST /v1/conferences/:key/sessions.
func (h *SessionHandler) Create(c echo.Context) error {
	var form model.SessionForm
	if ok, err := bindJSON(c, &form); !ok {
		return err
	}
	out, err := h.Lifecycle.CreateSession(c.Request().Context(), middleware.IdentityFrom(c), c.Param("key"), form)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// ByConference handles GET /v1/conferences/:key/sessions.
func (h *SessionHandler) ByConference(c echo.Context) error {
	out, err := h.Lifecycle.SessionsByConference(c.Request().Context(), c.Param("key"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, listing(out))
}

// Get handles GET /v1/sessions/:key.
func (h *SessionHandler) Get(c echo.Context) error {
	out, err := h.Lifecycle.GetSession(c.Request().Context(), c.Param("key"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles PUT /v1/sessions/:key.
func (h *SessionHandler) Update(c echo.Context) error {
	var form model.SessionForm
	if ok, err := bindJSON(c, &form); !ok {
		return err
	}
	out, err := h.Lifecycle.UpdateSession(c.Request().Context(), middleware.IdentityFrom(c), c.Param("key"), form)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Query handles POST /v1/sessions/query.
func (h *SessionHandler) Query(c echo.Context) error {
	var form model.QueryForm
	if ok, err := bindJSON(c, &form); !ok {
		return err
	}
	out, err := h.Lifecycle.QuerySessions(c.Request().Context(), form)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, listing(out))
}

// Created handles GET /v1/sessions/created.
func (h *SessionHandler) Created(c echo.Context) error {
	out, err := h.Lifecycle.SessionsByCreator(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, listing(out))
}
