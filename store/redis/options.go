package redis

import (
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/kochabx/sessionkit/log"
)

// Option 客户端选项
type Option func(*clientOptions)

type clientOptions struct {
	hooks []redis.Hook

	enableMetrics bool
	enableTracing bool
	metricsOpts   []redisotel.MetricsOption
	tracingOpts   []redisotel.TracingOption

	enableDebug bool
	slowQuery   time.Duration

	logger *log.Logger
}

// WithHooks 添加自定义 Hook
func WithHooks(hooks ...redis.Hook) Option {
	return func(o *clientOptions) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithMetrics 启用 redisotel 指标
func WithMetrics(opts ...redisotel.MetricsOption) Option {
	return func(o *clientOptions) {
		o.enableMetrics = true
		o.metricsOpts = opts
	}
}

// WithTracing 启用 redisotel 链路追踪
func WithTracing(opts ...redisotel.TracingOption) Option {
	return func(o *clientOptions) {
		o.enableTracing = true
		o.tracingOpts = opts
	}
}

// WithDebug 记录每条命令，超过 slowQuery 的命令以 warn 级别输出，0 表示不检测
func WithDebug(slowQuery time.Duration) Option {
	return func(o *clientOptions) {
		o.enableDebug = true
		o.slowQuery = slowQuery
	}
}

// WithLogger 设置日志记录器，默认 log.G
func WithLogger(logger *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}
