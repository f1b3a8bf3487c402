package etcd

import (
	"time"

	"github.com/kochabx/sessionkit/core/tag"
)

// Config etcd 配置
type Config struct {
	Endpoints        []string      `json:"endpoints" mapstructure:"endpoints" default:"localhost:2379"`
	Username         string        `json:"username" mapstructure:"username"`
	Password         string        `json:"password" mapstructure:"password"`
	DialTimeout      time.Duration `json:"dial_timeout" mapstructure:"dial_timeout" default:"5s"`
	KeepAliveTime    time.Duration `json:"keep_alive_time" mapstructure:"keep_alive_time" default:"30s"`
	KeepAliveTimeout time.Duration `json:"keep_alive_timeout" mapstructure:"keep_alive_timeout" default:"5s"`
	AutoSyncInterval time.Duration `json:"auto_sync_interval" mapstructure:"auto_sync_interval"`
	MaxSendMsgSize   int           `json:"max_send_msg_size" mapstructure:"max_send_msg_size" default:"2097152"`
	MaxRecvMsgSize   int           `json:"max_recv_msg_size" mapstructure:"max_recv_msg_size" default:"4194304"`
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() error {
	return tag.ApplyDefaults(c)
}
