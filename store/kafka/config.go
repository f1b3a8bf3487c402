package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kochabx/sessionkit/core/tag"
)

// Balancer 分区策略
type Balancer string

const (
	BalancerLeastBytes Balancer = "least_bytes"
	// BalancerHash 按消息 key 哈希，同一 key 落在同一分区
	BalancerHash Balancer = "hash"
)

// Config Kafka 客户端配置
type Config struct {
	Brokers []string `json:"brokers" mapstructure:"brokers" default:"localhost:9092"`

	// SASL/PLAIN，用户名密码均非空时启用
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`

	Balancer               Balancer `json:"balancer" mapstructure:"balancer" default:"hash"`
	AllowAutoTopicCreation bool     `json:"allow_auto_topic_creation" mapstructure:"allow_auto_topic_creation"`

	Timeout      time.Duration `json:"timeout" mapstructure:"timeout" default:"3s"`
	WriteTimeout time.Duration `json:"write_timeout" mapstructure:"write_timeout" default:"5s"`
	BatchTimeout time.Duration `json:"batch_timeout" mapstructure:"batch_timeout" default:"100ms"`
	CloseTimeout time.Duration `json:"close_timeout" mapstructure:"close_timeout" default:"5s"`

	MinBytes int `json:"min_bytes" mapstructure:"min_bytes" default:"1"`
	MaxBytes int `json:"max_bytes" mapstructure:"max_bytes" default:"1048576"`
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() error {
	return tag.ApplyDefaults(c)
}

func (c *Config) balancer() kafka.Balancer {
	if c.Balancer == BalancerLeastBytes {
		return &kafka.LeastBytes{}
	}
	return &kafka.Hash{}
}
