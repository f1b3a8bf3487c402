package db

import (
	"strconv"
	"strings"
)

// PostgresConfig PostgreSQL 连接配置
type PostgresConfig struct {
	Host           string     `json:"host" mapstructure:"host" default:"localhost"`
	Port           int        `json:"port" mapstructure:"port" default:"5432"`
	User           string     `json:"user" mapstructure:"user" default:"postgres"`
	Password       string     `json:"password" mapstructure:"password"`
	Database       string     `json:"database" mapstructure:"database" default:"sessions"`
	SSLMode        string     `json:"sslmode" mapstructure:"sslmode" default:"disable"`
	TimeZone       string     `json:"timezone" mapstructure:"timezone" default:"UTC"`
	ConnectTimeout int        `json:"connect_timeout" mapstructure:"connect_timeout" default:"10"`
	Conns          PoolConfig `json:"pool" mapstructure:"pool"`

	level string
}

func (c *PostgresConfig) Driver() Driver {
	return DriverPostgres
}

func (c *PostgresConfig) DSN() string {
	var b strings.Builder
	b.Grow(128)

	b.WriteString("host=")
	b.WriteString(c.Host)
	b.WriteString(" port=")
	b.WriteString(strconv.Itoa(c.Port))
	b.WriteString(" user=")
	b.WriteString(c.User)
	b.WriteString(" password=")
	b.WriteString(c.Password)
	b.WriteString(" dbname=")
	b.WriteString(c.Database)
	b.WriteString(" sslmode=")
	b.WriteString(c.SSLMode)
	b.WriteString(" TimeZone=")
	b.WriteString(c.TimeZone)
	b.WriteString(" connect_timeout=")
	b.WriteString(strconv.Itoa(c.ConnectTimeout))
	return b.String()
}

func (c *PostgresConfig) Pool() PoolConfig {
	p := c.Conns
	if p.MaxIdleConns == 0 {
		p.MaxIdleConns = 10
	}
	if p.MaxOpenConns == 0 {
		p.MaxOpenConns = 100
	}
	return p
}

func (c *PostgresConfig) LogLevel() LogLevel {
	return ParseLogLevel(c.level)
}
