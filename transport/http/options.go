package http

import (
	"context"
	"net/http"
	"time"

	"github.com/kochabx/sessionkit/core/tag"
	"github.com/kochabx/sessionkit/log"
)

// Config HTTP 服务配置
type Config struct {
	Addr              string        `json:"addr" mapstructure:"addr" default:":8080"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" mapstructure:"read_header_timeout" default:"5s"`
	ReadTimeout       time.Duration `json:"read_timeout" mapstructure:"read_timeout" default:"15s"`
	WriteTimeout      time.Duration `json:"write_timeout" mapstructure:"write_timeout" default:"15s"`
	IdleTimeout       time.Duration `json:"idle_timeout" mapstructure:"idle_timeout" default:"60s"`

	Health  EndpointConfig `json:"health" mapstructure:"health"`
	Swagger EndpointConfig `json:"swagger" mapstructure:"swagger"`
}

// EndpointConfig 附加端点开关，路径为空时使用默认值
type EndpointConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() error {
	return tag.ApplyDefaults(c)
}

// HealthCheck 健康检查，返回错误时 /health 响应 503
type HealthCheck func(ctx context.Context) error

// Option 服务选项
type Option func(*Server)

// WithName 日志中的服务名
func WithName(name string) Option {
	return func(s *Server) {
		s.name = name
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithConfig 应用超时与附加端点配置
func WithConfig(cfg Config) Option {
	return func(s *Server) {
		if cfg.ReadHeaderTimeout > 0 {
			s.server.ReadHeaderTimeout = cfg.ReadHeaderTimeout
		}
		s.server.ReadTimeout = cfg.ReadTimeout
		s.server.WriteTimeout = cfg.WriteTimeout
		s.server.IdleTimeout = cfg.IdleTimeout
		if cfg.Health.Enabled {
			s.healthPath = pathOr(cfg.Health.Path, defaultHealthPath)
		}
		if cfg.Swagger.Enabled {
			s.swaggerPath = pathOr(cfg.Swagger.Path, defaultSwaggerPath)
		}
	}
}

// WithMetrics 在 path 上挂载指标 handler
func WithMetrics(path string, handler http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = pathOr(path, defaultMetricsPath)
		s.metrics = handler
	}
}

// WithHealth 启用健康检查端点，可附带多个检查
func WithHealth(path string, checks ...HealthCheck) Option {
	return func(s *Server) {
		s.healthPath = pathOr(path, defaultHealthPath)
		s.checks = append(s.checks, checks...)
	}
}

// WithSwagger 启用 swagger UI，需要调用方导入生成的 docs 包
func WithSwagger(path string) Option {
	return func(s *Server) {
		s.swaggerPath = pathOr(path, defaultSwaggerPath)
	}
}

func pathOr(p, def string) string {
	if p == "" {
		return def
	}
	return p
}
