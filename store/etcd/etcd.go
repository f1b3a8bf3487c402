package etcd

import (
	"context"
	"errors"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/kochabx/sessionkit/log"
)

var (
	ErrInvalidConfig  = errors.New("etcd: invalid config")
	ErrNotInitialized = errors.New("etcd: client not initialized")
)

// Etcd etcd 客户端
type Etcd struct {
	client *clientv3.Client
	config *Config
	logger *log.Logger
}

// Option Etcd 选项
type Option func(*Etcd)

// WithLogger 设置日志记录器，默认 log.G
func WithLogger(logger *log.Logger) Option {
	return func(e *Etcd) {
		e.logger = logger
	}
}

// New 创建客户端并检查第一个 endpoint 的状态
func New(ctx context.Context, cfg *Config, opts ...Option) (*Etcd, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}

	e := &Etcd{config: cfg, logger: log.G}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:            cfg.Endpoints,
		Username:             cfg.Username,
		Password:             cfg.Password,
		DialTimeout:          cfg.DialTimeout,
		DialKeepAliveTime:    cfg.KeepAliveTime,
		DialKeepAliveTimeout: cfg.KeepAliveTimeout,
		AutoSyncInterval:     cfg.AutoSyncInterval,
		MaxCallSendMsgSize:   cfg.MaxSendMsgSize,
		MaxCallRecvMsgSize:   cfg.MaxRecvMsgSize,
	})
	if err != nil {
		return nil, err
	}
	e.client = client

	if err := e.Ping(ctx); err != nil {
		_ = e.Close()
		return nil, err
	}
	e.logger.Debug().Strs("endpoints", cfg.Endpoints).Msg("etcd client created")
	return e, nil
}

// NewFromClient 包装已有客户端
func NewFromClient(client *clientv3.Client) *Etcd {
	return &Etcd{client: client, config: &Config{Endpoints: client.Endpoints()}, logger: log.G}
}

// Ping 查询第一个 endpoint 的状态
func (e *Etcd) Ping(ctx context.Context) error {
	if e.client == nil {
		return ErrNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := e.client.Status(ctx, e.config.Endpoints[0])
	return err
}

// Client 返回底层客户端
func (e *Etcd) Client() *clientv3.Client {
	return e.client
}

// Close 关闭连接，可重复调用
func (e *Etcd) Close() error {
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}
