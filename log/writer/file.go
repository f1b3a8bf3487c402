package writer

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateMode 日志轮转模式
type RotateMode string

const (
	// RotateByTime 按时间轮转 (file-rotatelogs)
	RotateByTime RotateMode = "time"
	// RotateBySize 按大小轮转 (lumberjack)
	RotateBySize RotateMode = "size"
)

// FileOptions 文件 writer 参数
type FileOptions struct {
	Dir  string
	Name string
	Ext  string
	Mode RotateMode

	// 按时间轮转
	MaxAge       time.Duration
	RotationTime time.Duration

	// 按大小轮转
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func (o FileOptions) path(pattern string) string {
	name := o.Name
	if pattern != "" {
		name += "." + pattern
	}
	return filepath.Join(o.Dir, name+"."+o.Ext)
}

// File 创建可轮转的文件 writer，返回值同时实现 io.Closer
func File(o FileOptions) (io.WriteCloser, error) {
	switch o.Mode {
	case RotateByTime:
		w, err := rotatelogs.New(
			o.path("%Y%m%d%H%M"),
			rotatelogs.WithLinkName(o.path("")),
			rotatelogs.WithMaxAge(o.MaxAge),
			rotatelogs.WithRotationTime(o.RotationTime),
		)
		if err != nil {
			return nil, fmt.Errorf("log: time rotate writer: %w", err)
		}
		return w, nil
	case RotateBySize:
		return &lumberjack.Logger{
			Filename:   o.path(""),
			MaxSize:    o.MaxSizeMB,
			MaxBackups: o.MaxBackups,
			MaxAge:     o.MaxAgeDays,
			Compress:   o.Compress,
		}, nil
	default:
		return nil, fmt.Errorf("log: unsupported rotate mode %q", o.Mode)
	}
}
