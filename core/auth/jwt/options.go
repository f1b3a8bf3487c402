package jwt

import "time"

// Option 配置选项
type Option func(*Authenticator)

// WithClock 替换签发与校验使用的时钟
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// WithIDGenerator 替换 jti 生成器，默认 uuid v4
func WithIDGenerator(fn func() string) Option {
	return func(a *Authenticator) {
		a.newID = fn
	}
}
