package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/conference-central/internal/config"
	"github.com/iliyamo/conference-central/internal/service"
	"github.com/iliyamo/conference-central/internal/utils"
)

func serveAuth(t *testing.T, header string) (*httptest.ResponseRecorder, service.Identity) {
	t.Helper()
	var got service.Identity
	h := JWTAuth("secret")(func(c echo.Context) error {
		got = IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h(echo.New().NewContext(req, rec)))
	return rec, got
}

func TestJWTAuthSetsIdentity(t *testing.T) {
	tok, err := utils.NewAccessToken("secret", "u-1", "ada@example.com", "", time.Minute)
	require.NoError(t, err)

	rec, id := serveAuth(t, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.Identity{UserID: "u-1", Email: "ada@example.com", Nickname: "ada"}, id)
}

func TestJWTAuthRejects(t *testing.T) {
	other, err := utils.NewAccessToken("other", "u-1", "", "", time.Minute)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic dTpw",
		"empty bearer": "Bearer ",
		"wrong secret": "Bearer " + other.Token,
	} {
		t.Run(name, func(t *testing.T) {
			rec, id := serveAuth(t, header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, id.Authenticated())
		})
	}
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	called := false
	h := NewTokenBucket(config.RateLimitConfig{}, nil, nil)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	require.NoError(t, h(echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)))
	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}
