package redis

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/sessionkit/log"
)

// DebugHook 命令日志与慢查询检测
//
// 只记录命令名，不记录参数：会话值中包含邮箱等用户信息。
type DebugHook struct {
	logger    *log.Logger
	slowQuery time.Duration
}

// NewDebugHook 创建调试 Hook，slowQuery 为 0 表示不检测慢查询
func NewDebugHook(logger *log.Logger, slowQuery time.Duration) *DebugHook {
	return &DebugHook{logger: logger, slowQuery: slowQuery}
}

func (h *DebugHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.logger.Error().Str("addr", addr).Dur("duration", time.Since(start)).Err(err).Msg("redis dial failed")
		}
		return conn, err
	}
}

func (h *DebugHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(cmd.FullName(), 1, time.Since(start), err)
		return err
	}
}

func (h *DebugHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.observe("pipeline", len(cmds), time.Since(start), err)
		return err
	}
}

func (h *DebugHook) observe(name string, n int, d time.Duration, err error) {
	switch {
	case err != nil && !errors.Is(err, redis.Nil):
		h.logger.Warn().Str("cmd", name).Int("count", n).Dur("duration", d).Err(err).Msg("redis command failed")
	case h.slowQuery > 0 && d > h.slowQuery:
		h.logger.Warn().Str("cmd", name).Int("count", n).Dur("duration", d).Dur("threshold", h.slowQuery).Msg("redis slow command")
	default:
		h.logger.Debug().Str("cmd", name).Int("count", n).Dur("duration", d).Msg("redis command")
	}
}
