package mongo

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/kochabx/sessionkit/session"
	kitmongo "github.com/kochabx/sessionkit/store/mongo"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestBackend(t *testing.T, opts ...Option) *Backend {
	t.Helper()
	host := os.Getenv("MONGO_HOST")
	if host == "" {
		host = "localhost"
	}
	ctx := context.Background()
	c, err := kitmongo.New(ctx, &kitmongo.Config{Host: host, Database: "sessionkit_test", Timeout: time.Second})
	if err != nil {
		t.Skipf("Skipping test (mongo not available): %v", err)
	}
	t.Cleanup(func() { c.Close() })

	name := "sessions_" + time.Now().Format("150405.000000")
	b, err := New(ctx, c, append([]Option{WithCollection(name)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.coll.Drop(context.Background()) })
	return b
}

func TestNewWithoutClient(t *testing.T) {
	_, err := New(context.Background(), &kitmongo.Client{})
	assert.ErrorIs(t, err, kitmongo.ErrNotInitialized)
}

func TestBackend(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	_, err := b.Get(ctx, "session:a")
	assert.ErrorIs(t, err, session.ErrNotFound)

	ok, err := b.Replace(ctx, "session:a", []byte("x"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "replace must not create")
	ok, err = b.Expire(ctx, "session:a", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Set(ctx, "session:a", []byte(`{"userId":"u1"}`), time.Minute))
	ok, err = b.Replace(ctx, "session:a", []byte(`{"userId":"u2"}`), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Expire(ctx, "session:a", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	raw, err := b.Get(ctx, "session:a")
	require.NoError(t, err)
	assert.Equal(t, `{"userId":"u2"}`, string(raw), "expire keeps the value")

	require.NoError(t, b.Set(ctx, "session:b", []byte("{}"), time.Minute))
	require.NoError(t, b.Set(ctx, "session.c", []byte("{}"), time.Minute))
	keys, err := b.Keys(ctx, "session:")
	require.NoError(t, err)
	assert.Equal(t, []string{"session:a", "session:b"}, keys)

	ok, err = b.Del(ctx, "session:a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = b.Del(ctx, "session:a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadTimeExpiry(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Now().Truncate(time.Millisecond)}
	b := newTestBackend(t, WithClock(clk.Now))

	require.NoError(t, b.Set(ctx, "session:a", []byte("{}"), time.Second))
	require.NoError(t, b.Set(ctx, "session:b", []byte("{}"), time.Hour))
	clk.Advance(time.Second)

	_, err := b.Get(ctx, "session:a")
	assert.ErrorIs(t, err, session.ErrNotFound)
	ok, err := b.Replace(ctx, "session:a", []byte("{}"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	keys, err := b.Keys(ctx, "session:")
	require.NoError(t, err)
	assert.Equal(t, []string{"session:b"}, keys)

	ok, err = b.Del(ctx, "session:a")
	require.NoError(t, err)
	assert.False(t, ok, "expired key does not count as deleted")
	n, err := b.coll.CountDocuments(ctx, bson.M{"_id": "session:a"})
	require.NoError(t, err)
	assert.Zero(t, n)
}
