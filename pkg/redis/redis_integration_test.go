//go:build integration

package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scribeworks/ordergate/internal/testutil/containers"
	"github.com/scribeworks/ordergate/pkg/redis"
)

func TestConnectAndHealthcheck(t *testing.T) {
	client := containers.NewRedisClient(t)

	cfg := redis.Config{ConnectionURL: "redis://" + client.Options().Addr + "/0", RetryAttempts: 1}
	conn, err := redis.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, redis.Healthcheck(conn)(context.Background()))

	require.NoError(t, conn.Close())
	require.ErrorIs(t, redis.Healthcheck(conn)(context.Background()), redis.ErrHealthcheckFailed)
}
