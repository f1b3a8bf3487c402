package session_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kochabx/sessionkit/log"
	"github.com/kochabx/sessionkit/session"
	"github.com/kochabx/sessionkit/session/memory"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.UnixMilli(1_700_000_000_000)}
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

type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type recorded struct {
	op, outcome string
}

type recorder struct {
	mu   sync.Mutex
	seen []recorded
}

func (r *recorder) Observe(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	r.seen = append(r.seen, recorded{op, outcome})
	r.mu.Unlock()
}

func (r *recorder) has(op, outcome string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.seen {
		if s.op == op && s.outcome == outcome {
			return true
		}
	}
	return false
}

// faultBackend 在 memory 后端上注入错误
type faultBackend struct {
	*memory.Backend
	getErr     map[string]error
	setErr     error
	replaceErr error
	delErr     error
	expireErr  error
	keysErr    error
}

func (f *faultBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := f.getErr[key]; err != nil {
		return nil, err
	}
	return f.Backend.Get(ctx, key)
}

func (f *faultBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Backend.Set(ctx, key, value, ttl)
}

func (f *faultBackend) Replace(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if f.replaceErr != nil {
		return false, f.replaceErr
	}
	return f.Backend.Replace(ctx, key, value, ttl)
}

func (f *faultBackend) Del(ctx context.Context, key string) (bool, error) {
	if f.delErr != nil {
		return false, f.delErr
	}
	return f.Backend.Del(ctx, key)
}

func (f *faultBackend) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.expireErr != nil {
		return false, f.expireErr
	}
	return f.Backend.Expire(ctx, key, ttl)
}

func (f *faultBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	if f.keysErr != nil {
		return nil, f.keysErr
	}
	return f.Backend.Keys(ctx, prefix)
}

// stallBackend 所有调用阻塞到 ctx 结束
type stallBackend struct{}

func (stallBackend) Get(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stallBackend) Set(ctx context.Context, _ string, _ []byte, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stallBackend) Replace(ctx context.Context, _ string, _ []byte, _ time.Duration) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func (stallBackend) Del(ctx context.Context, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func (stallBackend) Expire(ctx context.Context, _ string, _ time.Duration) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func (stallBackend) Keys(ctx context.Context, _ string) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fixture struct {
	store    *session.Store
	backend  *memory.Backend
	clock    *clock
	logs     *logBuffer
	recorder *recorder
}

// newFixture 创建基于 memory 后端的 Store，wrap 非 nil 时用其包装后端
func newFixture(t *testing.T, wrap func(*memory.Backend) session.Backend, opts ...session.Option) *fixture {
	t.Helper()
	f := &fixture{clock: newClock(), logs: &logBuffer{}, recorder: &recorder{}}
	f.backend = memory.New(memory.WithClock(f.clock.Now))

	var backend session.Backend = f.backend
	if wrap != nil {
		backend = wrap(f.backend)
	}

	base := []session.Option{
		session.WithClock(f.clock.Now),
		session.WithLogger(log.NewWriter(f.logs)),
		session.WithRecorder(f.recorder),
	}
	store, err := session.New(backend, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	f.store = store
	return f
}

func (f *fixture) ttl(t *testing.T, id string) time.Duration {
	t.Helper()
	ttl, ok := f.backend.TTL(session.DefaultPrefix + id)
	require.True(t, ok, "session %s should exist", id)
	return ttl
}
