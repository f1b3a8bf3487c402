// Package rate 按 key 限流，用于限制会话创建频率。
package rate

import (
	"context"
	"time"

	"github.com/kochabx/sessionkit/errors"
)

var ErrInvalidLimit = errors.BadRequest("rate: limit and window must be positive")

// Limiter 按 key 计数限流
type Limiter interface {
	// Allow 消耗 key 的一次配额，配额用尽时返回 false
	Allow(ctx context.Context, key string) (bool, error)
}

// Config 限流配置：每个 key 在 Window 内最多 Limit 次
type Config struct {
	Enabled bool          `json:"enabled" mapstructure:"enabled"`
	Limit   int           `json:"limit" mapstructure:"limit" default:"10"`
	Window  time.Duration `json:"window" mapstructure:"window" default:"1m"`
}

func (c Config) validate() error {
	if c.Limit <= 0 || c.Window <= 0 {
		return ErrInvalidLimit
	}
	return nil
}
