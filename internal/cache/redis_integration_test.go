//go:build integration

package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/conference-central/internal/testutil/containers"
)

func TestRedis(t *testing.T) {
	rdb := containers.NewRedis(t)
	exercise(t, NewRedis(rdb, "cc"))

	require.NoError(t, NewRedis(rdb, "cc").Set(context.Background(), "k", "v"))
	raw, err := rdb.Get(context.Background(), "cc:k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", raw)
}
