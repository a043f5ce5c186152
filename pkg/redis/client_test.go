package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewFromOptions(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestClient_IncrWindow(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	for want := int64(1); want <= 3; want++ {
		n, ttl, err := c.IncrWindow(ctx, "rl:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
		assert.True(t, ttl > 0 && ttl <= time.Minute)
	}

	mr.FastForward(61 * time.Second)

	n, _, err := c.IncrWindow(ctx, "rl:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "counter resets after the window")
}

func TestClient_PingFailsWhenServerDown(t *testing.T) {
	c, mr := newTestClient(t)
	mr.Close()

	assert.Error(t, c.Ping(context.Background()))
	assert.Contains(t, c.PoolStats(), "total_conns")
}
