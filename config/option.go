package config

import (
	"github.com/spf13/viper"

	"github.com/kochabx/sessionkit/core/validator"
)

// Option configures a Config.
type Option func(*Config)

// WithFile sets the config file name (extension selects the format) and the
// directories searched for it.
func WithFile(name string, paths ...string) Option {
	return func(c *Config) {
		c.name = name
		if len(paths) > 0 {
			c.paths = paths
		}
	}
}

// WithOptional lets Load succeed when no config file exists, leaving
// defaults and environment overrides in place.
func WithOptional() Option {
	return func(c *Config) {
		c.optional = true
	}
}

// WithEnvPrefix scopes environment overrides, e.g. prefix "SESSIOND" maps
// session.ttl to SESSIOND_SESSION_TTL.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithViper sets a custom viper instance.
func WithViper(v *viper.Viper) Option {
	return func(c *Config) {
		c.viper = v
	}
}

// WithValidator sets a custom validator. Nil disables validation.
func WithValidator(v validator.Validator) Option {
	return func(c *Config) {
		c.validate = v
	}
}

// WithLoader replaces the file loader entirely.
func WithLoader(loader Loader) Option {
	return func(c *Config) {
		c.loader = loader
	}
}

// WithOnChange registers fn to run after every successful reload.
func WithOnChange(fn func()) Option {
	return func(c *Config) {
		c.onChange = append(c.onChange, fn)
	}
}
