package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-central/internal/service"
)

var kindStatus = map[service.Kind]int{
	service.KindUnauthenticated:          http.StatusUnauthorized,
	service.KindValidation:               http.StatusBadRequest,
	service.KindNotFound:                 http.StatusNotFound,
	service.KindAuthorization:            http.StatusForbidden,
	service.KindConflict:                 http.StatusConflict,
	service.KindInvalidFilter:            http.StatusBadRequest,
	service.KindMultipleInequalityFields: http.StatusBadRequest,
}

// StatusOf maps a service error to its HTTP status.
func StatusOf(err error) int {
	if s, ok := kindStatus[service.KindOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error": msg}. Internal errors are logged and
// never echoed to the client.
func writeError(c echo.Context, log *slog.Logger, err error) error {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		log.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "err", err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": errorMessage(err)})
}

func errorMessage(err error) string {
	var se *service.Error
	if errors.As(err, &se) && se.Msg != "" {
		return se.Msg
	}
	return err.Error()
}

// bindJSON decodes the request body into v, answering 400 on bad input.
func bindJSON(c echo.Context, v any) (bool, error) {
	if err := c.Bind(v); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	return true, nil
}
