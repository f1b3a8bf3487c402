// Package metrics 会话服务的 Prometheus 指标。
package metrics

import (
	"net/http"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace 指标名前缀
const Namespace = "sessionkit"

// Registry 包装 prometheus.Registry
type Registry struct {
	registry *prometheus.Registry
}

// New 创建空注册表
func New() *Registry {
	return &Registry{registry: prometheus.NewRegistry()}
}

// WithGoCollector 注册 Go 运行时指标
func (r *Registry) WithGoCollector() *Registry {
	r.registry.MustRegister(collectors.NewGoCollector(
		collectors.WithGoCollectorRuntimeMetrics(collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/.*")}),
	))
	return r
}

// WithProcessCollector 注册进程指标
func (r *Registry) WithProcessCollector() *Registry {
	r.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return r
}

// WithBuildInfoCollector 注册构建信息
func (r *Registry) WithBuildInfoCollector() *Registry {
	r.registry.MustRegister(collectors.NewBuildInfoCollector())
	return r
}

// Registry 返回底层注册表
func (r *Registry) Registry() *prometheus.Registry {
	return r.registry
}

// Handler 导出指标的 HTTP handler
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry:          r.registry,
		EnableOpenMetrics: true,
	})
}
