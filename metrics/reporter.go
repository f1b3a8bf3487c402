package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/kochabx/sessionkit/log"
)

// DefaultReportSpec 默认每分钟统计一次
const DefaultReportSpec = "@every 1m"

// Counter *session.Store 满足该接口
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Reporter 定时统计存活会话数并写入 sessionkit_sessions_live
type Reporter struct {
	counter Counter
	gauge   prometheus.Gauge
	cron    *cron.Cron
	spec    string
	timeout time.Duration
	logger  *log.Logger

	mu      sync.Mutex
	running bool
	initial sync.WaitGroup // Start 触发的首次统计
}

// ReporterOption Reporter 选项
type ReporterOption func(*Reporter)

// WithSpec 设置 cron 表达式，支持 @every 语法
func WithSpec(spec string) ReporterOption {
	return func(r *Reporter) {
		if spec != "" {
			r.spec = spec
		}
	}
}

// WithReportTimeout 设置单次统计超时
func WithReportTimeout(d time.Duration) ReporterOption {
	return func(r *Reporter) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithReporterLogger 设置日志记录器
func WithReporterLogger(logger *log.Logger) ReporterOption {
	return func(r *Reporter) {
		r.logger = logger
	}
}

// NewReporter 创建 Reporter 并注册 gauge，spec 在此处校验
func NewReporter(counter Counter, reg prometheus.Registerer, opts ...ReporterOption) (*Reporter, error) {
	r := &Reporter{
		counter: counter,
		gauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "sessions_live",
			Help:      "Number of live sessions found by the last scan.",
		}),
		spec:    DefaultReportSpec,
		timeout: 30 * time.Second,
		logger:  log.G,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	r.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := r.cron.AddFunc(r.spec, r.Report); err != nil {
		return nil, err
	}
	if err := reg.Register(r.gauge); err != nil {
		return nil, err
	}
	return r, nil
}

// Report 立即统计一次，失败时保留上一次的值
func (r *Reporter) Report() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	n, err := r.counter.Count(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("session count failed")
		return
	}
	r.gauge.Set(float64(n))
}

// Start 先统计一次再按计划执行
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.initial.Go(r.Report)
	r.cron.Start()
	r.logger.Debug().Str("spec", r.spec).Msg("session reporter started")
}

// Stop 停止调度并等待正在执行的统计结束，包括首次统计
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	<-r.cron.Stop().Done()
	r.initial.Wait()
}
