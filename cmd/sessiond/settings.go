package main

import (
	"time"

	"github.com/kochabx/sessionkit/api"
	"github.com/kochabx/sessionkit/core/auth/jwt"
	"github.com/kochabx/sessionkit/core/rate"
	"github.com/kochabx/sessionkit/log"
	middleware "github.com/kochabx/sessionkit/middleware/http"
	kitdb "github.com/kochabx/sessionkit/store/db"
	kitetcd "github.com/kochabx/sessionkit/store/etcd"
	kitkafka "github.com/kochabx/sessionkit/store/kafka"
	kitmongo "github.com/kochabx/sessionkit/store/mongo"
	kitredis "github.com/kochabx/sessionkit/store/redis"
	transporthttp "github.com/kochabx/sessionkit/transport/http"
)

// 后端类型
const (
	BackendRedis  = "redis"
	BackendEtcd   = "etcd"
	BackendMemory = "memory"
	BackendDB     = "db"
	BackendMongo  = "mongo"
)

// Settings sessiond 配置，环境变量前缀 SESSIOND_，如 SESSIOND_JWT_SECRET
type Settings struct {
	Server    transporthttp.Config  `json:"server" mapstructure:"server"`
	Log       log.Config            `json:"log" mapstructure:"log"`
	Session   SessionSettings       `json:"session" mapstructure:"session"`
	Backend   BackendSettings       `json:"backend" mapstructure:"backend"`
	Redis     kitredis.Config       `json:"redis" mapstructure:"redis"`
	Etcd      kitetcd.Config        `json:"etcd" mapstructure:"etcd"`
	DB        kitdb.Config          `json:"db" mapstructure:"db"`
	Mongo     kitmongo.Config       `json:"mongo" mapstructure:"mongo"`
	Kafka     KafkaSettings         `json:"kafka" mapstructure:"kafka"`
	JWT       jwt.Config            `json:"jwt" mapstructure:"jwt"`
	API       api.Config            `json:"api" mapstructure:"api"`
	RateLimit rate.Config           `json:"rate_limit" mapstructure:"rate_limit"`
	Cors      middleware.CorsConfig `json:"cors" mapstructure:"cors"`
	Metrics   MetricsSettings       `json:"metrics" mapstructure:"metrics"`
}

// SessionSettings 会话仓库配置
type SessionSettings struct {
	Prefix          string        `json:"prefix" mapstructure:"prefix" default:"session:"`
	TTL             time.Duration `json:"ttl" mapstructure:"ttl" default:"24h" validate:"gt=0"`
	Timeout         time.Duration `json:"timeout" mapstructure:"timeout" default:"3s" validate:"gt=0"`
	ScanConcurrency int           `json:"scan_concurrency" mapstructure:"scan_concurrency" default:"8" validate:"gt=0"`
}

// BackendSettings 存储后端选择
type BackendSettings struct {
	Kind string `json:"kind" mapstructure:"kind" default:"redis" validate:"oneof=redis etcd memory db mongo"`
	// Table db 后端的表名，mongo 后端的集合名
	Table string `json:"table" mapstructure:"table" default:"sessions"`
	// HealthInterval redis 后端健康检查间隔
	HealthInterval time.Duration `json:"health_interval" mapstructure:"health_interval" default:"10s"`
	// Debug 记录每条 redis 命令，超过 SlowQuery 的以 warn 输出；db 后端只记录慢查询
	Debug     bool          `json:"debug" mapstructure:"debug"`
	SlowQuery time.Duration `json:"slow_query" mapstructure:"slow_query" default:"100ms"`
}

// KafkaSettings 会话事件
type KafkaSettings struct {
	kitkafka.Config `mapstructure:",squash"`

	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Topic   string `json:"topic" mapstructure:"topic" default:"session-events"`
	// Group 非空时启动审计消费者，把事件写入日志
	Group string `json:"group" mapstructure:"group"`
}

// MetricsSettings 指标配置
type MetricsSettings struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled" default:"true"`
	Path       string `json:"path" mapstructure:"path" default:"/metrics"`
	ReportSpec string `json:"report_spec" mapstructure:"report_spec" default:"@every 1m"`
}
