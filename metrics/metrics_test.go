package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/sessionkit/session"
	"github.com/kochabx/sessionkit/session/memory"
)

// value 从注册表中读取计数器、gauge 的值或直方图的样本数
func value(t *testing.T, g prometheus.Gatherer, name string, labels ...string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for i := 0; i+1 < len(labels); i += 2 {
				found := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == labels[i] && lp.GetValue() == labels[i+1] {
						found = true
					}
				}
				if !found {
					continue next
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func TestSessionCollector(t *testing.T) {
	reg := New()
	c, err := NewSessionCollector(reg.Registry())
	require.NoError(t, err)

	store, err := session.New(memory.New(), session.WithRecorder(c))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	id, err := store.Create(ctx, "u1", "", "")
	require.NoError(t, err)
	store.Get(ctx, id)
	store.Get(ctx, "missing")
	store.Get(ctx, "missing")

	ops := "sessionkit_session_ops_total"
	assert.Equal(t, 1.0, value(t, reg.Registry(), ops, "op", session.OpCreate, "outcome", session.OutcomeOK))
	assert.Equal(t, 1.0, value(t, reg.Registry(), ops, "op", session.OpGet, "outcome", session.OutcomeOK))
	assert.Equal(t, 2.0, value(t, reg.Registry(), ops, "op", session.OpGet, "outcome", session.OutcomeNotFound))
	assert.Equal(t, 3.0, value(t, reg.Registry(), "sessionkit_session_op_duration_seconds", "op", session.OpGet))

	_, err = NewSessionCollector(reg.Registry())
	assert.Error(t, err, "duplicate registration")
}

type fakeCounter struct {
	n     atomic.Int64
	err   error
	calls atomic.Int32
}

func (f *fakeCounter) Count(context.Context) (int, error) {
	f.calls.Add(1)
	return int(f.n.Load()), f.err
}

func TestReporter(t *testing.T) {
	reg := New()
	counter := &fakeCounter{}
	counter.n.Store(7)

	r, err := NewReporter(counter, reg.Registry(), WithSpec("@every 1h"))
	require.NoError(t, err)

	r.Report()
	assert.Equal(t, 7.0, value(t, reg.Registry(), "sessionkit_sessions_live"))

	counter.err = errors.New("scan failed")
	counter.n.Store(0)
	r.Report()
	assert.Equal(t, 7.0, value(t, reg.Registry(), "sessionkit_sessions_live"), "keeps the last good value")
}

func TestReporterSchedule(t *testing.T) {
	counter := &fakeCounter{}
	r, err := NewReporter(counter, New().Registry(), WithSpec("@every 1s"))
	require.NoError(t, err)

	r.Start()
	r.Start()
	require.Eventually(t, func() bool { return counter.calls.Load() >= 2 }, 3*time.Second, 50*time.Millisecond)
	r.Stop()
	r.Stop()
}

// blockingCounter 在 release 关闭前阻塞
type blockingCounter struct {
	started chan struct{}
	release chan struct{}
	done    atomic.Bool
}

func (b *blockingCounter) Count(context.Context) (int, error) {
	close(b.started)
	<-b.release
	b.done.Store(true)
	return 1, nil
}

func TestReporterStopWaitsForInitialReport(t *testing.T) {
	counter := &blockingCounter{started: make(chan struct{}), release: make(chan struct{})}
	r, err := NewReporter(counter, New().Registry(), WithSpec("@every 1h"))
	require.NoError(t, err)

	r.Start()
	<-counter.started

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the initial report was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(counter.release)
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.True(t, counter.done.Load())
}

func TestReporterInvalidSpec(t *testing.T) {
	_, err := NewReporter(&fakeCounter{}, New().Registry(), WithSpec("every minute"))
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	reg := New().WithGoCollector().WithBuildInfoCollector()
	c, err := NewSessionCollector(reg.Registry())
	require.NoError(t, err)
	c.Observe(session.OpDelete, session.OutcomeOK, time.Millisecond)

	w := httptest.NewRecorder()
	reg.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `sessionkit_session_ops_total{op="delete",outcome="ok"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
