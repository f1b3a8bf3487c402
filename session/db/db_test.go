package db

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/sessionkit/session"
	kitdb "github.com/kochabx/sessionkit/store/db"
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
	ctx := context.Background()
	cfg := &kitdb.Config{Driver: kitdb.DriverSQLite, SQLite: kitdb.SQLiteConfig{FilePath: filepath.Join(t.TempDir(), "sessions.db")}}
	c, err := kitdb.New(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping test (sqlite not available): %v", err)
	}
	t.Cleanup(func() { c.Close() })

	b, err := New(ctx, c, opts...)
	require.NoError(t, err)
	return b
}

func TestNewWithoutClient(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.ErrorIs(t, err, kitdb.ErrNotInitialized)
	_, err = New(context.Background(), &kitdb.Client{})
	assert.ErrorIs(t, err, kitdb.ErrNotInitialized)
}

func TestLikePrefix(t *testing.T) {
	assert.Equal(t, "session:%", likePrefix("session:"))
	assert.Equal(t, "a!_b!%c!!%", likePrefix("a_b%c!"))
}

func TestBackend(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	b := newTestBackend(t, WithClock(clk.Now))

	_, err := b.Get(ctx, "session:a")
	assert.ErrorIs(t, err, session.ErrNotFound)

	ok, err := b.Replace(ctx, "session:a", []byte("x"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "replace must not create")
	ok, err = b.Expire(ctx, "session:a", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Set(ctx, "session:a", []byte(`{"userId":"u1"}`), time.Minute))
	require.NoError(t, b.Set(ctx, "session:a", []byte(`{"userId":"u1","v":1}`), time.Minute))
	raw, err := b.Get(ctx, "session:a")
	require.NoError(t, err)
	assert.Equal(t, `{"userId":"u1","v":1}`, string(raw), "set overwrites")

	ok, err = b.Replace(ctx, "session:a", []byte(`{"userId":"u2"}`), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	clk.Advance(50 * time.Second)
	ok, err = b.Expire(ctx, "session:a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	raw, err = b.Get(ctx, "session:a")
	require.NoError(t, err)
	assert.Equal(t, `{"userId":"u2"}`, string(raw), "expire keeps the value")

	// 续期后原来的过期时刻已过，仍可读取
	clk.Advance(30 * time.Second)
	_, err = b.Get(ctx, "session:a")
	require.NoError(t, err)

	require.NoError(t, b.Set(ctx, "session:b", []byte("{}"), time.Minute))
	require.NoError(t, b.Set(ctx, "session_x", []byte("{}"), time.Minute))
	require.NoError(t, b.Set(ctx, "other:c", []byte("{}"), time.Minute))
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
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	b := newTestBackend(t, WithClock(clk.Now), WithTable("sessions_expiry"))

	require.NoError(t, b.Set(ctx, "session:a", []byte("{}"), time.Second))
	require.NoError(t, b.Set(ctx, "session:b", []byte("{}"), time.Hour))
	clk.Advance(time.Second)

	_, err := b.Get(ctx, "session:a")
	assert.ErrorIs(t, err, session.ErrNotFound, "expired exactly at ttl")

	ok, err := b.Replace(ctx, "session:a", []byte("{}"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = b.Expire(ctx, "session:a", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = b.Del(ctx, "session:a")
	require.NoError(t, err)
	assert.False(t, ok, "expired key does not count as deleted")

	require.NoError(t, b.Set(ctx, "session:c", []byte("{}"), time.Second))
	clk.Advance(time.Second)
	keys, err := b.Keys(ctx, "session:")
	require.NoError(t, err)
	assert.Equal(t, []string{"session:b"}, keys)

	var n int64
	require.NoError(t, b.tx(ctx).Count(&n).Error)
	assert.EqualValues(t, 1, n, "keys purges expired rows")

	// 过期后可以重新 Set 同一个 key
	require.NoError(t, b.Set(ctx, "session:a", []byte(`{"v":2}`), time.Minute))
	raw, err := b.Get(ctx, "session:a")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(raw))

	clk.Advance(2 * time.Hour)
	purged, err := b.Purge(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, purged)
}

func TestStoreOverDB(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	b := newTestBackend(t, WithClock(clk.Now))

	store, err := session.New(b, session.WithClock(clk.Now), session.WithTTL(time.Hour))
	require.NoError(t, err)

	id, err := store.Create(ctx, "u1", "u1@example.com", "admin")
	require.NoError(t, err)
	_, err = store.Create(ctx, "u1", "", "")
	require.NoError(t, err)

	s, ok := store.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "admin", s.Role)
	assert.Len(t, store.UserSessions(ctx, "u1"), 2)

	clk.Advance(2 * time.Hour)
	_, ok = store.Get(ctx, id)
	assert.False(t, ok)
	assert.Empty(t, store.UserSessions(ctx, "u1"))
}
