// Package http 基于 gin 的 HTTP 服务，可附加 /metrics、/health 与 swagger 端点。
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kochabx/sessionkit/log"
	"github.com/kochabx/sessionkit/transport"
)

var _ transport.Server = (*Server)(nil)

const (
	defaultName        = "http"
	defaultAddr        = ":8080"
	defaultMetricsPath = "/metrics"
	defaultHealthPath  = "/health"
	defaultSwaggerPath = "/swagger/*any"
)

// Server HTTP 服务
type Server struct {
	name   string
	server *http.Server
	logger *log.Logger

	metricsPath string
	metrics     http.Handler
	healthPath  string
	checks      []HealthCheck
	swaggerPath string

	listener net.Listener
	ready    chan struct{}
}

// NewServer 创建服务，handler 为 *gin.Engine 时挂载附加端点
func NewServer(addr string, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		name: defaultName,
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log.G,
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if r, ok := handler.(*gin.Engine); ok {
		s.mount(r)
	}
	return s
}

func (s *Server) mount(r *gin.Engine) {
	if s.metrics != nil {
		r.GET(s.metricsPath, gin.WrapH(s.metrics))
	}
	if s.healthPath != "" {
		r.GET(s.healthPath, s.health)
	}
	if s.swaggerPath != "" {
		r.GET(s.swaggerPath, ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}

func (s *Server) health(c *gin.Context) {
	for _, check := range s.checks {
		if err := check(c.Request.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run 监听并阻塞，Shutdown 后返回 nil
func (s *Server) Run() error {
	if !transport.ValidateAddress(s.server.Addr) {
		s.logger.Warn().Str("addr", s.server.Addr).Msgf("invalid address, using %s", defaultAddr)
		s.server.Addr = defaultAddr
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	close(s.ready)
	s.logger.Info().Str("server", s.name).Str("addr", ln.Addr().String()).Msg("server listening")

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr 返回实际监听地址，Run 之前阻塞直到开始监听或 ctx 结束
func (s *Server) Addr(ctx context.Context) (string, error) {
	select {
	case <-s.ready:
		return s.listener.Addr().String(), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Str("server", s.name).Msg("server shutting down")
	return s.server.Shutdown(ctx)
}
