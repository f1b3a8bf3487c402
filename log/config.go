package log

import (
	"time"

	"github.com/kochabx/sessionkit/log/writer"
)

// Config 日志配置
type Config struct {
	Level  string     `json:"level" mapstructure:"level" default:"info"`
	Caller bool       `json:"caller" mapstructure:"caller"`
	File   FileConfig `json:"file" mapstructure:"file"`
}

// FileConfig 日志文件配置，Enabled 为 false 时仅输出到控制台
type FileConfig struct {
	Enabled    bool              `json:"enabled" mapstructure:"enabled"`
	Dir        string            `json:"dir" mapstructure:"dir" default:"log"`
	Name       string            `json:"name" mapstructure:"name" default:"sessiond"`
	Ext        string            `json:"ext" mapstructure:"ext" default:"log"`
	RotateMode writer.RotateMode `json:"rotate_mode" mapstructure:"rotate_mode" default:"time"`

	MaxAge       time.Duration `json:"max_age" mapstructure:"max_age" default:"168h"`
	RotationTime time.Duration `json:"rotation_time" mapstructure:"rotation_time" default:"24h"`

	MaxSizeMB  int  `json:"max_size_mb" mapstructure:"max_size_mb" default:"100"`
	MaxBackups int  `json:"max_backups" mapstructure:"max_backups" default:"5"`
	MaxAgeDays int  `json:"max_age_days" mapstructure:"max_age_days" default:"30"`
	Compress   bool `json:"compress" mapstructure:"compress"`
}

func (c FileConfig) options() writer.FileOptions {
	return writer.FileOptions{
		Dir:          c.Dir,
		Name:         c.Name,
		Ext:          c.Ext,
		Mode:         c.RotateMode,
		MaxAge:       c.MaxAge,
		RotationTime: c.RotationTime,
		MaxSizeMB:    c.MaxSizeMB,
		MaxBackups:   c.MaxBackups,
		MaxAgeDays:   c.MaxAgeDays,
		Compress:     c.Compress,
	}
}
