package rate

import (
	"context"
	_ "embed"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	//go:embed slidingwindow.lua
	slidingWindowLua       string
	slidingWindowLuaScript = redis.NewScript(slidingWindowLua)
)

// DefaultKeyPrefix 限流计数器的 key 前缀
const DefaultKeyPrefix = "ratelimit:"

// SlidingWindow 基于 Redis 有序集合的滑动窗口，多实例共享计数
type SlidingWindow struct {
	client redis.Scripter
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

var _ Limiter = (*SlidingWindow)(nil)

// NewSlidingWindow 创建滑动窗口限流器，prefix 为空时使用 DefaultKeyPrefix
func NewSlidingWindow(client redis.Scripter, prefix string, cfg Config) (*SlidingWindow, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SlidingWindow{
		client: client,
		prefix: prefix,
		limit:  cfg.Limit,
		window: cfg.Window,
		now:    time.Now,
	}, nil
}

// Allow 实现 Limiter
func (w *SlidingWindow) Allow(ctx context.Context, key string) (bool, error) {
	now := w.now().UnixMilli()
	n, err := slidingWindowLuaScript.Run(ctx, w.client,
		[]string{w.prefix + key},
		now, w.window.Milliseconds(), w.limit, uuid.NewString(),
	).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
