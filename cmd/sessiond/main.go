// sessiond 会话服务
package main

import (
	"context"
	"os"
	"slices"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/kochabx/sessionkit/api"
	"github.com/kochabx/sessionkit/app"
	"github.com/kochabx/sessionkit/config"
	"github.com/kochabx/sessionkit/core/auth/jwt"
	"github.com/kochabx/sessionkit/core/util/network"
	"github.com/kochabx/sessionkit/log"
	"github.com/kochabx/sessionkit/log/desensitize"
	"github.com/kochabx/sessionkit/metrics"
	middleware "github.com/kochabx/sessionkit/middleware/http"
	"github.com/kochabx/sessionkit/session"
	sessionkafka "github.com/kochabx/sessionkit/session/kafka"
	kitkafka "github.com/kochabx/sessionkit/store/kafka"
	transporthttp "github.com/kochabx/sessionkit/transport/http"
)

const (
	serviceName  = "sessiond"
	envPrefix    = "SESSIOND"
	startTimeout = 30 * time.Second
)

func main() {
	var (
		dir  = pflag.StringP("config", "c", ".", "directory containing the config file")
		name = pflag.String("config-name", "config.yaml", "config file name")
	)
	pflag.Parse()

	settings := new(Settings)
	cfg := config.New(settings,
		config.WithFile(*name, *dir),
		config.WithEnvPrefix(envPrefix),
		config.WithOptional(),
	)
	if err := cfg.Load(); err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}

	logger, err := log.FromConfig(settings.Log, log.WithDesensitize(desensitize.NewHook(desensitize.BuiltinRules()...)))
	if err != nil {
		log.Fatal().Err(err).Msg("create logger failed")
	}
	logger.Logger = logger.With().Str("service", serviceName).Str("instance", network.Instance()).Logger()
	log.SetGlobalLogger(logger)

	if err := run(settings, logger); err != nil {
		logger.Error().Err(err).Msg("sessiond exited")
		_ = logger.Close()
		os.Exit(1)
	}
	_ = logger.Close()
}

func run(s *Settings, logger *log.Logger) error {
	opts := []app.Option{
		app.WithLogger(logger),
		app.WithSignals(syscall.SIGINT, syscall.SIGTERM),
	}
	var closers []app.CloseFunc
	onClose := func(name string, fn func(context.Context) error) {
		closers = append(closers, app.CloseFunc{Name: name, Fn: fn})
	}
	// 启动失败时释放已建立的连接
	started := false
	defer func() {
		if started {
			return
		}
		for _, c := range slices.Backward(closers) {
			if err := c.Fn(context.Background()); err != nil {
				logger.Warn().Err(err).Str("close", c.Name).Msg("close failed")
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	b, err := newBackend(ctx, s, onClose, logger)
	if err != nil {
		return err
	}

	registry := metrics.New().WithGoCollector().WithProcessCollector()
	collector, err := metrics.NewSessionCollector(registry.Registry())
	if err != nil {
		return err
	}

	storeOpts := []session.Option{
		session.WithPrefix(s.Session.Prefix),
		session.WithTTL(s.Session.TTL),
		session.WithTimeout(s.Session.Timeout),
		session.WithScanConcurrency(s.Session.ScanConcurrency),
		session.WithLogger(logger),
		session.WithRecorder(collector),
	}

	if s.Kafka.Enabled {
		client, err := kitkafka.New(&s.Kafka.Config, kitkafka.WithLogger(logger))
		if err != nil {
			return err
		}
		onClose("kafka", func(context.Context) error { return client.Close() })

		publisher, err := sessionkafka.NewPublisher(client, s.Kafka.Topic)
		if err != nil {
			return err
		}
		storeOpts = append(storeOpts, session.WithPublisher(publisher))

		if s.Kafka.Group != "" {
			reader, err := client.ConsumerGroup(s.Kafka.Topic, s.Kafka.Group)
			if err != nil {
				return err
			}
			opts = append(opts, app.WithWorker("session-audit", func(ctx context.Context) error {
				return sessionkafka.Subscribe(ctx, reader, audit(logger), logger)
			}))
		}
		logger.Info().Str("topic", s.Kafka.Topic).Str("group", s.Kafka.Group).Msg("session events enabled")
	}

	store, err := session.New(b, storeOpts...)
	if err != nil {
		return err
	}
	onClose("session-store", func(context.Context) error {
		store.Close()
		return nil
	})

	reporter, err := metrics.NewReporter(store, registry.Registry(),
		metrics.WithSpec(s.Metrics.ReportSpec),
		metrics.WithReporterLogger(logger),
	)
	if err != nil {
		return err
	}
	reporter.Start()
	onClose("metrics-reporter", func(context.Context) error {
		reporter.Stop()
		return nil
	})

	authenticator, err := jwt.New(&s.JWT)
	if err != nil {
		return err
	}

	if logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.Recovery(middleware.RecoveryConfig{Logger: logger}),
		middleware.Logger(middleware.LoggerConfig{
			Logger:    logger,
			SkipPaths: []string{s.Metrics.Path, s.Server.Health.Path},
		}),
		middleware.Cors(s.Cors),
	)
	sessionAuth := middleware.SessionAuth(middleware.SessionAuthConfig{
		Resolver: session.NewResolver(store, authenticator, logger),
	})
	var guards []gin.HandlerFunc
	if s.RateLimit.Enabled {
		limiter, err := newLimiter(s, b)
		if err != nil {
			return err
		}
		guards = append(guards, middleware.RateLimit(middleware.RateLimitConfig{Limiter: limiter, Logger: logger}))
	}
	api.New(store, authenticator, s.API, logger).Register(r, sessionAuth, guards...)

	serverOpts := []transporthttp.Option{
		transporthttp.WithName(serviceName),
		transporthttp.WithLogger(logger),
		transporthttp.WithConfig(s.Server),
		transporthttp.WithHealth(s.Server.Health.Path, b.health),
	}
	if s.Metrics.Enabled {
		serverOpts = append(serverOpts, transporthttp.WithMetrics(s.Metrics.Path, registry.Handler()))
	}
	opts = append(opts, app.WithServer(transporthttp.NewServer(s.Server.Addr, r, serverOpts...)))

	logger.Info().
		Str("addr", s.Server.Addr).
		Str("backend", s.Backend.Kind).
		Str("prefix", s.Session.Prefix).
		Dur("ttl", s.Session.TTL).
		Msg("sessiond starting")

	for _, c := range closers {
		opts = append(opts, app.WithClose(c.Name, c.Fn, c.Timeout))
	}
	started = true
	return app.New(opts...).Run()
}

// audit 把会话事件写入日志
func audit(logger *log.Logger) sessionkafka.Handler {
	return func(_ context.Context, ev session.Event) error {
		logger.Info().
			Str("event", string(ev.Type)).
			Str("user_id", ev.UserID).
			Str("session_id", ev.SessionID).
			Int("count", ev.Count).
			Msg("session event")
		return nil
	}
}
