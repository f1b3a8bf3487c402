package log

import (
	"github.com/rs/zerolog"
)

// G 全局日志实例
var G = New()

// SetGlobalLogger 替换全局日志实例
func SetGlobalLogger(l *Logger) {
	if l != nil {
		G = l
	}
}

// Debug 返回 debug 级别事件
func Debug() *zerolog.Event {
	return G.Debug()
}

// Info 返回 info 级别事件
func Info() *zerolog.Event {
	return G.Info()
}

// Warn 返回 warn 级别事件
func Warn() *zerolog.Event {
	return G.Warn()
}

// Error 返回 error 级别事件（带堆栈）
func Error() *zerolog.Event {
	return G.Error().Stack()
}

// Fatal 返回 fatal 级别事件
func Fatal() *zerolog.Event {
	return G.Fatal()
}
