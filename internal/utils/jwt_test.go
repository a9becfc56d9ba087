package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", "alice-id", "alice@example.com", "Alice", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, time.Minute)

	claims, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice-id", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.Name)
}

func TestParseAccessTokenRejects(t *testing.T) {
	tok, err := NewAccessToken("s3cret", "alice-id", "", "", time.Hour)
	require.NoError(t, err)
	_, err = ParseAccessToken("other", tok.Token)
	assert.Error(t, err, "wrong secret")

	expired, err := NewAccessToken("s3cret", "alice-id", "", "", -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", expired.Token)
	assert.Error(t, err, "expired")

	_, err = ParseAccessToken("s3cret", "garbage")
	assert.Error(t, err)

	_, err = NewAccessToken("s3cret", "", "", "", time.Hour)
	assert.Error(t, err)
}
