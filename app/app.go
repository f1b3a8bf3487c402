// Package app 管理服务、后台任务与关闭函数的生命周期。
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kochabx/sessionkit/log"
	"github.com/kochabx/sessionkit/transport"
)

var (
	ErrAlreadyStarted = errors.New("app: already started")
	ErrClosePanic     = errors.New("app: close function panicked")
)

// CloseFunc 带超时的关闭函数
type CloseFunc struct {
	Name    string
	Fn      func(context.Context) error
	Timeout time.Duration
}

// Worker 与应用同生命周期的后台任务，ctx 结束时应返回
type Worker struct {
	Name string
	Fn   func(context.Context) error
}

// Application 应用
type Application struct {
	ctx             context.Context
	cancel          context.CancelFunc
	logger          *log.Logger
	signals         []os.Signal
	shutdownTimeout time.Duration
	closeTimeout    time.Duration

	mu         sync.Mutex
	started    bool
	servers    []transport.Server
	workers    []Worker
	closeFuncs []CloseFunc
}

// Option 应用选项
type Option func(*Application)

// WithContext 设置根 context
func WithContext(ctx context.Context) Option {
	return func(app *Application) {
		if ctx != nil {
			app.ctx, app.cancel = context.WithCancel(ctx)
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *log.Logger) Option {
	return func(app *Application) {
		app.logger = logger
	}
}

// WithSignals 设置触发关闭的信号
func WithSignals(signals ...os.Signal) Option {
	return func(app *Application) {
		app.signals = slices.Clone(signals)
	}
}

// WithShutdownTimeout 设置服务关闭超时
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(app *Application) {
		if timeout > 0 {
			app.shutdownTimeout = timeout
		}
	}
}

// WithCloseTimeout 设置关闭函数的默认超时
func WithCloseTimeout(timeout time.Duration) Option {
	return func(app *Application) {
		if timeout > 0 {
			app.closeTimeout = timeout
		}
	}
}

// WithServer 添加服务
func WithServer(servers ...transport.Server) Option {
	return func(app *Application) {
		for _, s := range servers {
			if s != nil {
				app.servers = append(app.servers, s)
			}
		}
	}
}

// WithWorker 添加后台任务，任务返回错误会触发整个应用关闭
func WithWorker(name string, fn func(context.Context) error) Option {
	return func(app *Application) {
		if fn != nil {
			app.workers = append(app.workers, Worker{Name: name, Fn: fn})
		}
	}
}

// WithClose 添加关闭函数，timeout 为 0 时使用默认超时
func WithClose(name string, fn func(context.Context) error, timeout time.Duration) Option {
	return func(app *Application) {
		if fn != nil {
			app.closeFuncs = append(app.closeFuncs, CloseFunc{Name: name, Fn: fn, Timeout: timeout})
		}
	}
}

// New 创建应用
func New(opts ...Option) *Application {
	app := &Application{
		logger:          log.G,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT},
		shutdownTimeout: 30 * time.Second,
		closeTimeout:    10 * time.Second,
	}
	app.ctx, app.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}

// RegisterClose 运行期添加关闭函数
func (app *Application) RegisterClose(name string, fn func(context.Context) error, timeout time.Duration) error {
	if fn == nil {
		return errors.New("app: close function cannot be nil")
	}
	app.mu.Lock()
	defer app.mu.Unlock()
	app.closeFuncs = append(app.closeFuncs, CloseFunc{Name: name, Fn: fn, Timeout: timeout})
	return nil
}

// Run 启动所有服务与后台任务并阻塞，直到收到信号、调用 Stop 或任一服务出错。
// 返回前按注册的逆序执行关闭函数。
func (app *Application) Run() error {
	app.mu.Lock()
	if app.started {
		app.mu.Unlock()
		return ErrAlreadyStarted
	}
	app.started = true
	servers := slices.Clone(app.servers)
	workers := slices.Clone(app.workers)
	app.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	if len(app.signals) > 0 {
		signal.Notify(sigCh, app.signals...)
		defer signal.Stop(sigCh)
	}

	eg, ctx := errgroup.WithContext(app.ctx)
	for _, s := range servers {
		eg.Go(func() error {
			if err := s.Run(); err != nil {
				return err
			}
			// 服务提前退出同样触发关闭
			app.cancel()
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
			defer cancel()
			return s.Shutdown(sctx)
		})
	}
	for _, w := range workers {
		eg.Go(func() error {
			if err := w.Fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("worker %s: %w", w.Name, err)
			}
			return nil
		})
	}
	eg.Go(func() error {
		select {
		case sig := <-sigCh:
			app.logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			app.cancel()
		case <-ctx.Done():
		}
		return nil
	})

	err := eg.Wait()
	app.runCloseFuncs()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Stop 触发关闭
func (app *Application) Stop() {
	app.cancel()
}

func (app *Application) runCloseFuncs() {
	app.mu.Lock()
	closeFuncs := slices.Clone(app.closeFuncs)
	app.mu.Unlock()

	// 后注册的先关闭，依赖方先于被依赖方释放
	for _, cf := range slices.Backward(closeFuncs) {
		if cf.Timeout <= 0 {
			cf.Timeout = app.closeTimeout
		}
		_ = app.runClose(cf)
	}
}

func (app *Application) runClose(cf CloseFunc) error {
	ctx, cancel := context.WithTimeout(context.Background(), cf.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				app.logger.Error().Interface("panic", r).Str("close", cf.Name).Msg("close function panicked")
				done <- ErrClosePanic
			}
		}()
		done <- cf.Fn(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			app.logger.Error().Err(err).Str("close", cf.Name).Msg("close function failed")
		} else {
			app.logger.Debug().Str("close", cf.Name).Msg("closed")
		}
		return err
	case <-ctx.Done():
		app.logger.Warn().Str("close", cf.Name).Msg("close function timed out")
		return ctx.Err()
	}
}
