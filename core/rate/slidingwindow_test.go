package rate

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kitredis "github.com/kochabx/sessionkit/store/redis"
)

func TestSlidingWindow(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	ctx := context.Background()
	client, err := kitredis.New(ctx, kitredis.Single(addr))
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer client.Close()

	prefix := "ratelimit-test:" + time.Now().Format("150405.000000") + ":"
	w, err := NewSlidingWindow(client.UniversalClient(), prefix, Config{Limit: 2, Window: time.Minute})
	require.NoError(t, err)
	now := time.Now()
	w.now = func() time.Time { return now }

	for range 2 {
		ok, err := w.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := w.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// 窗口滑过后恢复
	now = now.Add(time.Minute + time.Millisecond)
	ok, err = w.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	client.UniversalClient().Del(ctx, prefix+"k")
}
