package kafka

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"golang.org/x/sync/errgroup"

	"github.com/kochabx/sessionkit/log"
)

// Client 按 topic 缓存生产者、按 topic+group 缓存消费者
type Client struct {
	config    *Config
	dialer    *kafka.Dialer
	transport *kafka.Transport
	logger    *log.Logger

	mu        sync.Mutex
	closed    bool
	producers map[string]*kafka.Writer
	consumers map[string]*kafka.Reader
}

// New 创建客户端，不会立即建立连接
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	if len(cfg.Brokers) == 0 {
		return nil, ErrEmptyBrokers
	}

	o := &clientOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	c := &Client{
		config:    cfg,
		dialer:    o.dialer,
		transport: &kafka.Transport{DialTimeout: cfg.Timeout},
		logger:    o.logger,
		producers: make(map[string]*kafka.Writer),
		consumers: make(map[string]*kafka.Reader),
	}
	if c.logger == nil {
		c.logger = log.G
	}
	if c.dialer == nil {
		c.dialer = &kafka.Dialer{Timeout: cfg.Timeout, DualStack: true}
	}
	if cfg.Username != "" && cfg.Password != "" {
		mechanism := plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
		c.dialer.SASLMechanism = mechanism
		c.transport.SASL = mechanism
	}
	return c, nil
}

// Producer 返回 topic 的同步生产者
func (c *Client) Producer(topic string) (*kafka.Writer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClientClosed
	}
	if w, ok := c.producers[topic]; ok {
		return w, nil
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(c.config.Brokers...),
		Topic:                  topic,
		Balancer:               c.config.balancer(),
		Transport:              c.transport,
		AllowAutoTopicCreation: c.config.AllowAutoTopicCreation,
		WriteTimeout:           c.config.WriteTimeout,
		BatchTimeout:           c.config.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			c.logger.Warn().Str("topic", topic).Msgf(msg, args...)
		}),
	}
	c.producers[topic] = w
	return w, nil
}

// ConsumerGroup 返回 topic 在消费者组 group 下的消费者
func (c *Client) ConsumerGroup(topic, group string) (*kafka.Reader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClientClosed
	}
	key := topic + "/" + group
	if r, ok := c.consumers[key]; ok {
		return r, nil
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.config.Brokers,
		Topic:       topic,
		GroupID:     group,
		MinBytes:    c.config.MinBytes,
		MaxBytes:    c.config.MaxBytes,
		Dialer:      c.dialer,
		StartOffset: kafka.FirstOffset,
	})
	c.consumers[key] = r
	return r, nil
}

// Ping 尝试连接任一 broker
func (c *Client) Ping(ctx context.Context) error {
	var err error
	for _, broker := range c.config.Brokers {
		var conn *kafka.Conn
		if conn, err = c.dialer.DialContext(ctx, "tcp", broker); err == nil {
			return conn.Close()
		}
	}
	return err
}

// Close 关闭所有生产者和消费者
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), c.config.CloseTimeout)
	defer cancel()
	eg, _ := errgroup.WithContext(ctx)
	for _, w := range c.producers {
		eg.Go(w.Close)
	}
	for _, r := range c.consumers {
		eg.Go(r.Close)
	}

	done := make(chan error, 1)
	go func() { done <- eg.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
