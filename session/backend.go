package session

import (
	"context"
	"time"
)

// Backend 会话依赖的 KV 存储能力，实现必须并发安全
type Backend interface {
	// Get 返回原始值，key 不存在时返回 ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 写入并把过期时间设为 ttl（SET key value EX ttl）
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Replace 仅当 key 存在时写入并重置过期时间（SET ... XX），返回是否写入
	Replace(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Del 删除 key，返回是否确有删除
	Del(ctx context.Context, key string) (bool, error)
	// Expire 重置已存在 key 的过期时间，不修改值
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Keys 返回所有以 prefix 开头的 key，可以是最终一致的
	Keys(ctx context.Context, prefix string) ([]string, error)
}
