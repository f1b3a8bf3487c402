package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kochabx/sessionkit/core/rate"
	"github.com/kochabx/sessionkit/errors"
	"github.com/kochabx/sessionkit/log"
	transporthttp "github.com/kochabx/sessionkit/transport/http"
)

var ErrTooManyRequests = errors.TooManyRequests("too many requests")

// RateLimitConfig 限流中间件配置
type RateLimitConfig struct {
	Limiter   rate.Limiter              // 必需
	KeyFunc   func(*gin.Context) string // 限流 key，默认客户端 IP
	SkipPaths []string
	SkipFunc  func(*gin.Context) bool
	Logger    *log.Logger
}

// RateLimit 按 key 限流，超限返回 429。限流器出错时放行并记录日志。
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		panic("middleware: rate limiter is required")
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if cfg.Logger == nil {
		cfg.Logger = log.G
	}
	matcher := NewPathMatcher(cfg.SkipPaths)

	return func(c *gin.Context) {
		if shouldSkip(c, matcher, cfg.SkipFunc) {
			c.Next()
			return
		}

		key := cfg.KeyFunc(c)
		ok, err := cfg.Limiter.Allow(c.Request.Context(), key)
		if err != nil {
			cfg.Logger.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if !ok {
			cfg.Logger.Warn().
				Str("key", key).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Msg("rate limited")
			transporthttp.GinError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
