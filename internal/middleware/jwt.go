package middleware // reusable HTTP middleware for the conference API

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-central/internal/utils"
)

// JWTAuth validates a Bearer access token and stores the caller's
// identity in the request context. Protected handlers read it back with
// IdentityFrom. The secret must match the one the identity provider signs
// with.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header is "Bearer <jwt>".
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authorization required"})
			}

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			SetIdentity(c, identityFromClaims(claims))
			return next(c)
		}
	}
}
