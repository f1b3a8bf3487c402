package log

import (
	"github.com/rs/zerolog"

	"github.com/kochabx/sessionkit/log/desensitize"
)

// Option Logger 选项
type Option func(*options)

type options struct {
	level  zerolog.Level
	caller bool
	hook   *desensitize.Hook
}

// WithLevel 设置日志级别
func WithLevel(level zerolog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithCaller 输出调用位置
func WithCaller() Option {
	return func(o *options) {
		o.caller = true
	}
}

// WithDesensitize 写入前按 hook 中的规则脱敏
func WithDesensitize(hook *desensitize.Hook) Option {
	return func(o *options) {
		o.hook = hook
	}
}
