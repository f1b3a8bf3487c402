// Package mongo MongoDB 客户端
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kochabx/sessionkit/log"
)

var (
	ErrInvalidConfig  = errors.New("mongo: invalid config")
	ErrNotInitialized = errors.New("mongo: client not initialized")
)

// Client MongoDB 客户端
type Client struct {
	client *mongo.Client
	config *Config
	logger *log.Logger
}

// Option 客户端选项
type Option func(*Client)

// WithLogger 设置日志记录器，默认 log.G
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New 建立连接并 Ping 主节点
func New(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}

	c := &Client{config: cfg, logger: log.G}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	co := options.Client().
		ApplyURI(cfg.URI()).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetMaxPoolSize(uint64(cfg.MaxPoolSize)).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, co)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	c.client = client

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.logger.Debug().Str("host", cfg.Host).Int("port", cfg.Port).Msg("mongo client created")
	return c, nil
}

// Ping 检查主节点
func (c *Client) Ping(ctx context.Context) error {
	if c.client == nil {
		return ErrNotInitialized
	}
	return c.client.Ping(ctx, readpref.Primary())
}

// Client 返回底层客户端
func (c *Client) Client() *mongo.Client {
	return c.client
}

// Database 返回配置中的数据库
func (c *Client) Database() *mongo.Database {
	if c.client == nil {
		return nil
	}
	return c.client.Database(c.config.Database)
}

// Close 断开连接，可重复调用
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(context.Background())
	c.client = nil
	return err
}
