// Package db 基于 gorm 的关系型数据库客户端，支持 MySQL、PostgreSQL 与 SQLite
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kochabx/sessionkit/log"
)

// Client 数据库客户端
type Client struct {
	driver  Driver
	db      *gorm.DB
	sqlDB   *sql.DB
	options *clientOptions
	logger  *log.Logger
}

// New 按 cfg.Driver 建立连接并 Ping
func New(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	dc, err := cfg.Selected()
	if err != nil {
		return nil, err
	}

	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	c := &Client{driver: dc.Driver(), options: options, logger: options.logger}
	if c.logger == nil {
		c.logger = log.G
	}

	if err := c.connect(dc); err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, options.connectTimeout)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.logger.Debug().Str("driver", dc.Driver().String()).Msg("database client created")
	return c, nil
}

func (c *Client) connect(dc DriverConfig) error {
	dialector, err := dialector(dc)
	if err != nil {
		return err
	}

	db, err := gorm.Open(dialector, c.gormConfig(dc))
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	pool := dc.Pool()
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	for _, plugin := range c.options.plugins {
		if err := db.Use(plugin); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("use plugin %s: %w", plugin.Name(), err)
		}
	}

	c.db = db
	c.sqlDB = sqlDB
	return nil
}

func dialector(dc DriverConfig) (gorm.Dialector, error) {
	switch dc.Driver() {
	case DriverMySQL:
		return mysql.Open(dc.DSN()), nil
	case DriverPostgres:
		return postgres.Open(dc.DSN()), nil
	case DriverSQLite:
		return sqlite.Open(dc.DSN()), nil
	default:
		return nil, ErrUnsupportedDriver
	}
}

// gormConfig gorm 日志转到 log.Logger
func (c *Client) gormConfig(dc DriverConfig) *gorm.Config {
	lc := logger.Config{
		LogLevel:                  logger.LogLevel(dc.LogLevel()),
		IgnoreRecordNotFoundError: true,
		SlowThreshold:             c.options.slowQueryThresh,
	}
	return &gorm.Config{Logger: logger.New(logWriter{c.logger}, lc)}
}

// Driver 返回当前驱动
func (c *Client) Driver() Driver {
	return c.driver
}

// DB 返回 gorm 实例
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Ping 检查连接
func (c *Client) Ping(ctx context.Context) error {
	if c.sqlDB == nil {
		return ErrNotInitialized
	}
	return c.sqlDB.PingContext(ctx)
}

// Stats 连接池统计
func (c *Client) Stats() sql.DBStats {
	if c.sqlDB == nil {
		return sql.DBStats{}
	}
	return c.sqlDB.Stats()
}

// IsHealthy 3 秒内 Ping 成功
func (c *Client) IsHealthy() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return c.Ping(ctx) == nil
}

// Close 关闭连接，可重复调用
func (c *Client) Close() error {
	if c.sqlDB == nil {
		return nil
	}
	err := c.sqlDB.Close()
	c.sqlDB = nil
	c.db = nil
	return err
}

type logWriter struct {
	logger *log.Logger
}

func (w logWriter) Printf(format string, args ...any) {
	w.logger.Info().Str("component", "gorm").Msgf(format, args...)
}
