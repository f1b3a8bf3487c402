package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kochabx/sessionkit/session"
)

// SessionCollector 记录会话操作次数与耗时，实现 session.Recorder
type SessionCollector struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ session.Recorder = (*SessionCollector)(nil)

// NewSessionCollector 创建并注册到 reg
func NewSessionCollector(reg prometheus.Registerer) (*SessionCollector, error) {
	c := &SessionCollector{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "ops_total",
			Help:      "Session store operations by outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "op_duration_seconds",
			Help:      "Session store operation latency.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 3},
		}, []string{"op"}),
	}
	for _, col := range []prometheus.Collector{c.ops, c.duration} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *SessionCollector) Observe(op, outcome string, d time.Duration) {
	c.ops.WithLabelValues(op, outcome).Inc()
	c.duration.WithLabelValues(op).Observe(d.Seconds())
}
