package kafka

import (
	"github.com/segmentio/kafka-go"

	"github.com/kochabx/sessionkit/log"
)

// Option 客户端选项
type Option func(*clientOptions)

type clientOptions struct {
	logger *log.Logger
	dialer *kafka.Dialer
}

// WithLogger 设置日志记录器，默认 log.G
func WithLogger(logger *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithDialer 使用自定义 Dialer（消费者）
func WithDialer(dialer *kafka.Dialer) Option {
	return func(o *clientOptions) {
		o.dialer = dialer
	}
}
