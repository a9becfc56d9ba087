package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HeaderCronSecret carries the shared secret of the scheduler.
const HeaderCronSecret = "X-Cron-Secret"

// CronSecret admits only requests whose X-Cron-Secret header equals secret.
func CronSecret(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get(HeaderCronSecret)
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid cron secret"})
			}
			return next(c)
		}
	}
}
