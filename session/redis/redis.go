// Package redis 基于 store/redis 的会话后端。
//
// 值以 SET EX 写入，续期使用 SET XX 保证不会复活已删除的会话，
// 枚举使用 SCAN MATCH，集群模式下遍历所有主节点。
package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/sessionkit/session"
	kitredis "github.com/kochabx/sessionkit/store/redis"
)

// DefaultScanCount 每次 SCAN 的 COUNT 提示
const DefaultScanCount = 100

// Backend Redis 会话后端
type Backend struct {
	client    *kitredis.Client
	scanCount int64
}

var _ session.Backend = (*Backend)(nil)

// Option 后端选项
type Option func(*Backend)

// WithScanCount 设置 SCAN 的 COUNT 提示
func WithScanCount(n int64) Option {
	return func(b *Backend) {
		if n > 0 {
			b.scanCount = n
		}
	}
}

// New 创建后端，client 的生命周期由调用方管理
func New(client *kitredis.Client, opts ...Option) *Backend {
	b := &Backend{client: client, scanCount: DefaultScanCount}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) rdb() redis.UniversalClient {
	return b.client.UniversalClient()
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := b.rdb().Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	return raw, err
}

func (b *Backend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.rdb().Set(ctx, key, value, ttl).Err()
}

func (b *Backend) Replace(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	err := b.rdb().SetArgs(ctx, key, value, redis.SetArgs{Mode: "XX", TTL: ttl}).Err()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (b *Backend) Del(ctx context.Context, key string) (bool, error) {
	n, err := b.rdb().Del(ctx, key).Result()
	return n > 0, err
}

func (b *Backend) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return b.rdb().Expire(ctx, key, ttl).Result()
}

func (b *Backend) Keys(ctx context.Context, prefix string) ([]string, error) {
	seen := make(map[string]struct{})
	keys := make([]string, 0)
	err := b.client.Scan(ctx, escapeGlob(prefix)+"*", b.scanCount, func(key string) bool {
		// SCAN 可能重复返回同一个 key
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeGlob 转义 MATCH 模式中的特殊字符
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
