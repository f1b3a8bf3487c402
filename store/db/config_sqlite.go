package db

import (
	"strconv"
	"strings"
)

// SQLiteConfig SQLite 连接配置
type SQLiteConfig struct {
	FilePath    string     `json:"file_path" mapstructure:"file_path" default:"sessions.db"`
	JournalMode string     `json:"journal_mode" mapstructure:"journal_mode" default:"WAL"`
	BusyTimeout int        `json:"busy_timeout" mapstructure:"busy_timeout" default:"5000"`
	SyncMode    string     `json:"sync_mode" mapstructure:"sync_mode" default:"NORMAL"`
	Conns       PoolConfig `json:"pool" mapstructure:"pool"`

	level string
}

func (c *SQLiteConfig) Driver() Driver {
	return DriverSQLite
}

func (c *SQLiteConfig) DSN() string {
	var b strings.Builder
	b.Grow(128)

	b.WriteString("file:")
	b.WriteString(c.FilePath)
	b.WriteString("?_journal_mode=")
	b.WriteString(c.JournalMode)
	b.WriteString("&_busy_timeout=")
	b.WriteString(strconv.Itoa(c.BusyTimeout))
	b.WriteString("&_synchronous=")
	b.WriteString(c.SyncMode)
	return b.String()
}

// Pool 单文件数据库，默认只用一个连接
func (c *SQLiteConfig) Pool() PoolConfig {
	p := c.Conns
	if p.MaxIdleConns == 0 {
		p.MaxIdleConns = 1
	}
	if p.MaxOpenConns == 0 {
		p.MaxOpenConns = 1
	}
	return p
}

func (c *SQLiteConfig) LogLevel() LogLevel {
	return ParseLogLevel(c.level)
}
