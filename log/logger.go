package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/kochabx/sessionkit/core/tag"
	"github.com/kochabx/sessionkit/log/desensitize"
	"github.com/kochabx/sessionkit/log/writer"
)

// Logger 日志记录器
type Logger struct {
	zerolog.Logger
	closer io.Closer
}

func init() {
	zerolog.TimeFieldFormat = time.DateTime
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

func newLogger(w io.Writer, opts ...Option) *Logger {
	o := options{level: zerolog.DebugLevel}
	for _, opt := range opts {
		opt(&o)
	}

	if o.hook != nil {
		w = desensitize.NewWriter(w, o.hook)
	}

	ctx := zerolog.New(w).Level(o.level).With().Timestamp()
	if o.caller {
		ctx = ctx.Caller()
	}
	return &Logger{Logger: ctx.Logger()}
}

// New 创建输出到控制台的 Logger
func New(opts ...Option) *Logger {
	return newLogger(writer.Console(os.Stdout), opts...)
}

// NewWriter 创建以 JSON 格式输出到 w 的 Logger
func NewWriter(w io.Writer, opts ...Option) *Logger {
	return newLogger(w, opts...)
}

// NewFile 创建同时输出到轮转文件和控制台的 Logger
func NewFile(c FileConfig, opts ...Option) (*Logger, error) {
	if err := tag.ApplyDefaults(&c); err != nil {
		return nil, fmt.Errorf("log: apply defaults: %w", err)
	}
	fw, err := writer.File(c.options())
	if err != nil {
		return nil, err
	}
	l := newLogger(zerolog.MultiLevelWriter(fw, writer.Console(os.Stdout)), opts...)
	l.closer = fw
	return l, nil
}

// FromConfig 按配置创建 Logger
func FromConfig(c Config, opts ...Option) (*Logger, error) {
	if err := tag.ApplyDefaults(&c); err != nil {
		return nil, fmt.Errorf("log: apply defaults: %w", err)
	}
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	opts = append([]Option{WithLevel(level)}, opts...)
	if c.Caller {
		opts = append(opts, WithCaller())
	}
	if c.File.Enabled {
		return NewFile(c.File, opts...)
	}
	return New(opts...), nil
}

// Close 关闭文件 writer
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
