package middleware

// identity.go moves the authenticated caller between middleware and
// handlers. Handlers never look at raw claims.

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-central/internal/service"
	"github.com/iliyamo/conference-central/internal/utils"
)

const identityKey = "identity"

func identityFromClaims(cl *utils.Claims) service.Identity {
	nick := cl.Name
	if nick == "" {
		// fall back to the local part of the e-mail address
		nick, _, _ = strings.Cut(cl.Email, "@")
	}
	return service.Identity{UserID: cl.Subject, Email: cl.Email, Nickname: nick}
}

// SetIdentity stores id in the request context.
func SetIdentity(c echo.Context, id service.Identity) { c.Set(identityKey, id) }

// IdentityFrom returns the caller, or the zero Identity for anonymous
// requests.
func IdentityFrom(c echo.Context) service.Identity {
	id, _ := c.Get(identityKey).(service.Identity)
	return id
}

// userID is the rate limiting subject: the caller's id or "anon".
func userID(c echo.Context) string {
	if id := IdentityFrom(c); id.Authenticated() {
		return id.UserID
	}
	return "anon"
}
