package config

import (
	"sync"

	"github.com/spf13/viper"

	"github.com/kochabx/sessionkit/core/validator"
	"github.com/kochabx/sessionkit/log"
)

// Config loads a struct from file and environment and keeps it current.
type Config struct {
	mu        sync.RWMutex
	viper     *viper.Viper
	validate  validator.Validator
	target    any
	loader    Loader
	name      string
	paths     []string
	envPrefix string
	optional  bool
	onChange  []func()
}

// New creates a Config for target. Without options it reads config.yaml from
// the working directory.
func New(target any, opts ...Option) *Config {
	c := &Config{
		viper:    viper.New(),
		validate: validator.Validate,
		target:   target,
		name:     "config.yaml",
		paths:    []string{"."},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.loader == nil {
		c.loader = &FileLoader{
			viper:     c.viper,
			validate:  c.validate,
			name:      c.name,
			paths:     c.paths,
			envPrefix: c.envPrefix,
			optional:  c.optional,
		}
	}
	return c
}

// Load reads the configuration into the target.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loader.Load(c.target)
}

// Read runs fn while holding the read lock, so fn sees a consistent target.
func (c *Config) Read(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// Watch reloads the target on every change of the source.
func (c *Config) Watch() error {
	return c.loader.Watch(func() {
		if err := c.Load(); err != nil {
			log.Error().Err(err).Msg("config reload failed")
			return
		}
		log.Info().Msg("config reloaded")
		for _, fn := range c.onChange {
			fn()
		}
	})
}

// Viper returns the underlying viper instance.
func (c *Config) Viper() *viper.Viper {
	return c.viper
}
