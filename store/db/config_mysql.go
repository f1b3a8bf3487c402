package db

import (
	"strconv"
	"strings"
	"time"
)

// MySQLConfig MySQL 连接配置
type MySQLConfig struct {
	Host      string        `json:"host" mapstructure:"host" default:"localhost"`
	Port      int           `json:"port" mapstructure:"port" default:"3306"`
	User      string        `json:"user" mapstructure:"user" default:"root"`
	Password  string        `json:"password" mapstructure:"password"`
	Database  string        `json:"database" mapstructure:"database" default:"sessions"`
	Charset   string        `json:"charset" mapstructure:"charset" default:"utf8mb4"`
	Collation string        `json:"collation" mapstructure:"collation" default:"utf8mb4_bin"`
	Loc       string        `json:"loc" mapstructure:"loc" default:"UTC"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout" default:"10s"`
	Conns     PoolConfig    `json:"pool" mapstructure:"pool"`

	level string
}

func (c *MySQLConfig) Driver() Driver {
	return DriverMySQL
}

// DSN user:password@tcp(host:port)/database?...
// clientFoundRows 使 UPDATE 返回匹配行数而不是变更行数，续期写入相同值时仍算命中
func (c *MySQLConfig) DSN() string {
	var b strings.Builder
	b.Grow(128)

	b.WriteString(c.User)
	b.WriteByte(':')
	b.WriteString(c.Password)
	b.WriteString("@tcp(")
	b.WriteString(c.Host)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(c.Port))
	b.WriteString(")/")
	b.WriteString(c.Database)

	b.WriteString("?charset=")
	b.WriteString(c.Charset)
	b.WriteString("&collation=")
	b.WriteString(c.Collation)
	b.WriteString("&parseTime=true&clientFoundRows=true&loc=")
	b.WriteString(c.Loc)
	b.WriteString("&timeout=")
	b.WriteString(c.Timeout.String())
	return b.String()
}

func (c *MySQLConfig) Pool() PoolConfig {
	p := c.Conns
	if p.MaxIdleConns == 0 {
		p.MaxIdleConns = 10
	}
	if p.MaxOpenConns == 0 {
		p.MaxOpenConns = 100
	}
	return p
}

func (c *MySQLConfig) LogLevel() LogLevel {
	return ParseLogLevel(c.level)
}
