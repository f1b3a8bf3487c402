// Package memory 进程内会话后端，支持 TTL 与可替换时钟，用于测试和单机开发
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kochabx/sessionkit/session"
)

type entry struct {
	value    []byte
	expireAt time.Time
}

// Backend 内存后端，过期 key 在访问时惰性清除
type Backend struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

var _ session.Backend = (*Backend)(nil)

// Option 内存后端选项
type Option func(*Backend)

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// New 创建内存后端
func New(opts ...Option) *Backend {
	b := &Backend{data: make(map[string]entry), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// live 调用方需持有锁
func (b *Backend) live(key string) (entry, bool) {
	e, ok := b.data[key]
	if !ok {
		return entry{}, false
	}
	if !b.now().Before(e.expireAt) {
		return entry{}, false
	}
	return e, true
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.live(key)
	if !ok {
		return nil, session.ErrNotFound
	}
	return slices.Clone(e.value), nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = entry{value: slices.Clone(value), expireAt: b.now().Add(ttl)}
	return nil
}

func (b *Backend) Replace(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.live(key); !ok {
		delete(b.data, key)
		return false, nil
	}
	b.data[key] = entry{value: slices.Clone(value), expireAt: b.now().Add(ttl)}
	return true, nil
}

func (b *Backend) Del(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.live(key)
	delete(b.data, key)
	return ok, nil
}

func (b *Backend) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.live(key)
	if !ok {
		delete(b.data, key)
		return false, nil
	}
	e.expireAt = b.now().Add(ttl)
	b.data[key] = e
	return true, nil
}

// Keys 按字典序返回，同时清除已过期的 key
func (b *Backend) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.data))
	for key := range b.data {
		if _, ok := b.live(key); !ok {
			delete(b.data, key)
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// TTL 返回 key 的剩余有效期
func (b *Backend) TTL(key string) (time.Duration, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.live(key)
	if !ok {
		return 0, false
	}
	return e.expireAt.Sub(b.now()), true
}

// Len 返回未过期的 key 数量
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for key := range b.data {
		if _, ok := b.live(key); ok {
			n++
		}
	}
	return n
}
