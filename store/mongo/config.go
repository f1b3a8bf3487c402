package mongo

import (
	"strconv"
	"strings"
	"time"

	"github.com/kochabx/sessionkit/core/tag"
)

// Config MongoDB 配置
type Config struct {
	Host        string        `json:"host" mapstructure:"host" default:"localhost"`
	Port        int           `json:"port" mapstructure:"port" default:"27017"`
	User        string        `json:"user" mapstructure:"user"`
	Password    string        `json:"password" mapstructure:"password"`
	Database    string        `json:"database" mapstructure:"database" default:"sessionkit"`
	MaxPoolSize int           `json:"max_pool_size" mapstructure:"max_pool_size" default:"10"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout" default:"3s"`
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() error {
	return tag.ApplyDefaults(c)
}

// URI mongodb://[user:password@]host:port/?maxPoolSize=n
func (c *Config) URI() string {
	var b strings.Builder
	b.Grow(128)

	b.WriteString("mongodb://")
	if c.User != "" && c.Password != "" {
		b.WriteString(c.User)
		b.WriteByte(':')
		b.WriteString(c.Password)
		b.WriteByte('@')
	}
	b.WriteString(c.Host)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(c.Port))
	b.WriteString("/?maxPoolSize=")
	b.WriteString(strconv.Itoa(c.MaxPoolSize))
	return b.String()
}
