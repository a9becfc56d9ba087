package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-central/internal/middleware"
	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/service"
)

// ConferenceHandler groups conference lifecycle, registration and the
// per-conference featured speaker. Every route sits behind JWTAuth; the
// service layer still rejects anonymous callers on its own.
type ConferenceHandler struct {
	Lifecycle *service.Lifecycle
	Ledger    *service.Ledger
	Featured  *service.FeaturedSpeakers
	Log       *slog.Logger
}

// NewConferenceHandler panics when a dependency is missing.
func NewConferenceHandler(svc *service.Services, log *slog.Logger) *ConferenceHandler {
	if svc == nil || svc.Lifecycle == nil || svc.Ledger == nil || svc.Featured == nil || log == nil {
		panic("nil dependency passed to NewConferenceHandler")
	}
	return &ConferenceHandler{Lifecycle: svc.Lifecycle, Ledger: svc.Ledger, Featured: svc.Featured, Log: log}
}

// listing wraps collections the way clients expect them.
func listing[T any](items []T) echo.Map {
	if items == nil {
		items = []T{}
	}
	return echo.Map{"items": items}
}

// Create handles POST /v1/conferences.
func (h *ConferenceHandler) Create(c echo.Context) error {
	var form model.ConferenceForm
	if ok, err := bindJSON(c, &form); !ok {
		return err
	}
	out, err := h.Lifecycle.CreateConference(c.Request().Context(), middleware.IdentityFrom(c), form)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// Get handles GET /v1/conferences/:key.
func (h *ConferenceHandler) Get(c echo.Context) error {
	out, err := h.Lifecycle.GetConference(c.Request().Context(), c.Param("key"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles PUT /v1/conferences/:key. Only fields present in the
// body are changed.
func (h *ConferenceHandler) Update(c echo.Context) error {
	var form model.ConferenceForm
	if ok, err := bindJSON(c, &form); !ok {
		return err
	}
	out, err := h.Lifecycle.UpdateConference(c.Request().Context(), middleware.IdentityFrom(c), c.Param("key"), form)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Query handles POST /v1/conferences/query with a QueryForm body.
func (h *ConferenceHandler) Query(c echo.Context) error {
	var form model.QueryForm
	if ok, err := bindJSON(c, &form); !ok {
		return err
	}
	out, err := h.Lifecycle.QueryConferences(c.Request().Context(), form)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, listing(out))
}

// Created handles GET /v1/conferences/created.
func (h *ConferenceHandler) Created(c echo.Context) error {
	out, err := h.Lifecycle.ConferencesByOrganizer(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, listing(out))
}

// Attending handles GET /v1/conferences/attending.
func (h *ConferenceHandler) Attending(c echo.Context) error {
	out, err := h.Ledger.ConferencesToAttend(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, listing(out))
}

// Register handles POST /v1/conferences/:key/registration.
func (h *ConferenceHandler) Register(c echo.Context) error {
	ok, err := h.Ledger.Register(c.Request().Context(), middleware.IdentityFrom(c), c.Param("key"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": ok})
}

// Unregister handles DELETE /v1/conferences/:key/registration. It answers
// {"data": false} when the caller was not registered.
func (h *ConferenceHandler) Unregister(c echo.Context) error {
	ok, err := h.Ledger.Unregister(c.Request().Context(), middleware.IdentityFrom(c), c.Param("key"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": ok})
}

// FeaturedSpeaker handles GET /v1/conferences/:key/featured-speaker.
func (h *ConferenceHandler) FeaturedSpeaker(c echo.Context) error {
	line, err := h.Featured.Get(c.Request().Context(), c.Param("key"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": line})
}
