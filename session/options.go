package session

import (
	"time"

	"github.com/kochabx/sessionkit/log"
)

const (
	DefaultPrefix          = "session:"
	DefaultTTL             = 24 * time.Hour
	DefaultTimeout         = 3 * time.Second
	DefaultScanConcurrency = 8
)

// Option Store 选项
type Option func(*Store)

// WithPrefix 设置 key 前缀，默认 "session:"
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL 设置会话有效期，默认 24h
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithTimeout 设置单次后端调用超时，默认 3s
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.timeout = timeout
	}
}

// WithClock 替换时钟，用于测试
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger 设置日志记录器，默认 log.G
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithRecorder 设置指标记录器
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		s.recorder = r
	}
}

// WithPublisher 设置生命周期事件发布者
func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

// WithScanConcurrency 设置按用户枚举时并发读取的协程数，默认 8
func WithScanConcurrency(n int) Option {
	return func(s *Store) {
		s.concurrency = n
	}
}

// WithIDGenerator 替换会话 ID 生成器
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *Store) {
		s.newID = fn
	}
}
