package main

import (
	"context"
	"fmt"

	"github.com/kochabx/sessionkit/core/rate"
	"github.com/kochabx/sessionkit/log"
	"github.com/kochabx/sessionkit/session"
	sessiondb "github.com/kochabx/sessionkit/session/db"
	sessionetcd "github.com/kochabx/sessionkit/session/etcd"
	"github.com/kochabx/sessionkit/session/memory"
	sessionmongo "github.com/kochabx/sessionkit/session/mongo"
	sessionredis "github.com/kochabx/sessionkit/session/redis"
	kitdb "github.com/kochabx/sessionkit/store/db"
	kitetcd "github.com/kochabx/sessionkit/store/etcd"
	kitmongo "github.com/kochabx/sessionkit/store/mongo"
	kitredis "github.com/kochabx/sessionkit/store/redis"
	transporthttp "github.com/kochabx/sessionkit/transport/http"
)

// backend 已连接的存储后端，以及它的健康检查
type backend struct {
	session.Backend
	health transporthttp.HealthCheck
	redis  *kitredis.Client // 仅 redis 后端
}

// newBackend 按 kind 连接后端，连接的释放通过 onClose 登记
func newBackend(ctx context.Context, s *Settings, onClose func(name string, fn func(context.Context) error), logger *log.Logger) (*backend, error) {
	switch s.Backend.Kind {
	case BackendRedis:
		opts := []kitredis.Option{kitredis.WithLogger(logger), kitredis.WithMetrics(), kitredis.WithTracing()}
		if s.Backend.Debug {
			opts = append(opts, kitredis.WithDebug(s.Backend.SlowQuery))
		}
		client, err := kitredis.New(ctx, &s.Redis, opts...)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		onClose("redis", func(context.Context) error { return client.Close() })

		checker := kitredis.NewHealthChecker(client, s.Backend.HealthInterval)
		checker.Start()
		onClose("redis-health", func(context.Context) error {
			checker.Stop()
			return nil
		})

		logger.Info().Str("mode", s.Redis.Mode()).Strs("addrs", s.Redis.Addrs).Msg("redis backend ready")
		return &backend{Backend: sessionredis.New(client), health: checker.Check, redis: client}, nil

	case BackendEtcd:
		client, err := kitetcd.New(ctx, &s.Etcd, kitetcd.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("connect etcd: %w", err)
		}
		onClose("etcd", func(context.Context) error { return client.Close() })

		logger.Info().Strs("endpoints", s.Etcd.Endpoints).Msg("etcd backend ready")
		return &backend{Backend: sessionetcd.New(client), health: client.Ping}, nil

	case BackendDB:
		opts := []kitdb.Option{kitdb.WithLogger(logger)}
		if s.Backend.Debug {
			opts = append(opts, kitdb.WithSlowQuery(s.Backend.SlowQuery))
		}
		client, err := kitdb.New(ctx, &s.DB, opts...)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		onClose("db", func(context.Context) error { return client.Close() })

		b, err := sessiondb.New(ctx, client, sessiondb.WithTable(s.Backend.Table))
		if err != nil {
			return nil, fmt.Errorf("migrate session table: %w", err)
		}
		logger.Info().Str("driver", client.Driver().String()).Str("table", s.Backend.Table).Msg("db backend ready")
		return &backend{Backend: b, health: client.Ping}, nil

	case BackendMongo:
		client, err := kitmongo.New(ctx, &s.Mongo, kitmongo.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		onClose("mongo", func(context.Context) error { return client.Close() })

		b, err := sessionmongo.New(ctx, client, sessionmongo.WithCollection(s.Backend.Table))
		if err != nil {
			return nil, fmt.Errorf("create session index: %w", err)
		}
		logger.Info().Str("database", s.Mongo.Database).Str("collection", s.Backend.Table).Msg("mongo backend ready")
		return &backend{Backend: b, health: client.Ping}, nil

	case BackendMemory:
		logger.Warn().Msg("memory backend: sessions are lost on restart and not shared between instances")
		return &backend{Backend: memory.New(), health: func(context.Context) error { return nil }}, nil

	default:
		return nil, fmt.Errorf("unknown backend kind %q", s.Backend.Kind)
	}
}

// newLimiter redis 后端使用共享的滑动窗口，其余后端退化为进程内令牌桶。
// 计数 key 不能落在会话前缀下，否则会被会话扫描读到。
func newLimiter(s *Settings, b *backend) (rate.Limiter, error) {
	if b.redis != nil {
		return rate.NewSlidingWindow(b.redis.UniversalClient(), rate.DefaultKeyPrefix, s.RateLimit)
	}
	return rate.NewTokenBucket(s.RateLimit)
}
