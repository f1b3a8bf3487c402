package rate

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// TokenBucket 进程内令牌桶，容量为 Limit，每个 Window 补满。
// 计数不跨实例共享，用于没有 Redis 的部署。
type TokenBucket struct {
	capacity float64
	perSec   float64
	now      func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

var _ Limiter = (*TokenBucket)(nil)

// NewTokenBucket 创建令牌桶限流器
func NewTokenBucket(cfg Config) (*TokenBucket, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &TokenBucket{
		capacity: float64(cfg.Limit),
		perSec:   float64(cfg.Limit) / cfg.Window.Seconds(),
		now:      time.Now,
		buckets:  make(map[string]*bucket),
	}, nil
}

// Allow 实现 Limiter，不会返回错误
func (tb *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	now := tb.now()

	tb.mu.Lock()
	defer tb.mu.Unlock()

	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.capacity, last: now}
		tb.buckets[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(tb.capacity, b.tokens+elapsed*tb.perSec)
		b.last = now
	}
	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	tb.sweep(now)
	return true, nil
}

// sweep 清理已补满的桶，避免 key 无限增长
func (tb *TokenBucket) sweep(now time.Time) {
	if len(tb.buckets) < 1024 {
		return
	}
	full := time.Duration(tb.capacity / tb.perSec * float64(time.Second))
	for k, b := range tb.buckets {
		if now.Sub(b.last) >= full {
			delete(tb.buckets, k)
		}
	}
}
