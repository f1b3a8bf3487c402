package db

import (
	"strings"
	"time"

	"github.com/kochabx/sessionkit/core/tag"
)

// Driver 数据库驱动类型
type Driver string

const (
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string {
	return string(d)
}

// LogLevel 与 gorm logger.LogLevel 取值一致
type LogLevel int

const (
	LogLevelSilent LogLevel = iota + 1
	LogLevelError
	LogLevelWarn
	LogLevelInfo
)

// ParseLogLevel 未知取值按 silent 处理
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return LogLevelError
	case "warn":
		return LogLevelWarn
	case "info":
		return LogLevelInfo
	default:
		return LogLevelSilent
	}
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int           `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `json:"max_open_conns" mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime" default:"1h"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" mapstructure:"conn_max_idle_time" default:"10m"`
}

// DriverConfig 单个驱动的连接配置
type DriverConfig interface {
	Driver() Driver
	DSN() string
	Pool() PoolConfig
	LogLevel() LogLevel
}

// Config 按 Driver 选择其中一个驱动配置
type Config struct {
	Driver   Driver         `json:"driver" mapstructure:"driver" default:"sqlite" validate:"oneof=mysql postgres sqlite"`
	Level    string         `json:"level" mapstructure:"level" default:"silent"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
	MySQL    MySQLConfig    `json:"mysql" mapstructure:"mysql"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() error {
	return tag.ApplyDefaults(c)
}

// Selected 返回 Driver 对应的驱动配置
func (c *Config) Selected() (DriverConfig, error) {
	switch c.Driver {
	case DriverPostgres:
		c.Postgres.level = c.Level
		return &c.Postgres, nil
	case DriverMySQL:
		c.MySQL.level = c.Level
		return &c.MySQL, nil
	case DriverSQLite:
		c.SQLite.level = c.Level
		return &c.SQLite, nil
	default:
		return nil, ErrUnsupportedDriver
	}
}
