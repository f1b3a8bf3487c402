package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// HealthStatus 健康状态
type HealthStatus struct {
	Healthy   bool             `json:"healthy"`
	LastCheck time.Time        `json:"last_check"`
	Latency   time.Duration    `json:"latency"`
	PoolStats *redis.PoolStats `json:"pool_stats,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// HealthChecker 定期 PING 并缓存最近一次结果
type HealthChecker struct {
	client   *Client
	interval time.Duration

	mu     sync.RWMutex
	status HealthStatus

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(client *Client, interval time.Duration) *HealthChecker {
	return &HealthChecker{
		client:   client,
		interval: interval,
		status:   HealthStatus{Error: "not checked yet"},
	}
}

// Start 立即检查一次，之后按 interval 定期检查，直到 Stop
func (h *HealthChecker) Start() {
	h.mu.Lock()
	if h.cancel != nil {
		h.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	h.cancel, h.done = cancel, done
	h.mu.Unlock()

	h.refresh(ctx)
	go h.run(ctx, done)
}

// Stop 停止定期检查
func (h *HealthChecker) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel = nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (h *HealthChecker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.refresh(ctx)
		}
	}
}

func (h *HealthChecker) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := h.client.Ping(ctx)
	status := HealthStatus{LastCheck: start, Latency: time.Since(start), Healthy: err == nil}
	if err != nil {
		status.Error = err.Error()
		h.client.logger.Error().Dur("latency", status.Latency).Err(err).Msg("redis health check failed")
	} else {
		status.PoolStats = h.client.Stats()
	}

	h.mu.Lock()
	h.status = status
	h.mu.Unlock()
}

// Status 返回最近一次检查结果
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// Check 返回最近一次检查的错误，用于 /health
func (h *HealthChecker) Check(context.Context) error {
	if s := h.Status(); !s.Healthy {
		return fmt.Errorf("%w: %s", ErrUnhealthy, s.Error)
	}
	return nil
}
