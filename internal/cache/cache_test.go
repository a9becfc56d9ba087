package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exercise runs the behaviour every Cache implementation must share.
func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "RECENT_ANNOUNCEMENTS")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "RECENT_ANNOUNCEMENTS", "first"))
	require.NoError(t, c.Set(ctx, "RECENT_ANNOUNCEMENTS", "second"))
	v, ok, err := c.Get(ctx, "RECENT_ANNOUNCEMENTS")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", v)

	require.NoError(t, c.Delete(ctx, "RECENT_ANNOUNCEMENTS"))
	_, ok, err = c.Get(ctx, "RECENT_ANNOUNCEMENTS")
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting a missing key is not an error
	assert.NoError(t, c.Delete(ctx, "RECENT_ANNOUNCEMENTS"))
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}
