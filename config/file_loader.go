package config

import (
	"path"
	"reflect"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/kochabx/sessionkit/core/tag"
	"github.com/kochabx/sessionkit/core/validator"
	"github.com/kochabx/sessionkit/errors"
)

// FileLoader reads a yaml/json/toml file through viper, with environment
// variables overriding file values.
type FileLoader struct {
	viper     *viper.Viper
	validate  validator.Validator
	name      string
	paths     []string
	envPrefix string
	optional  bool

	once sync.Once
}

// NewFileLoader creates a loader for name searched in paths.
func NewFileLoader(name string, paths []string, v *viper.Viper, validate validator.Validator) *FileLoader {
	return &FileLoader{viper: v, validate: validate, name: name, paths: paths}
}

func (l *FileLoader) setup(target any) {
	ext := path.Ext(l.name)
	l.viper.SetConfigName(strings.TrimSuffix(l.name, ext))
	l.viper.SetConfigType(strings.TrimPrefix(ext, "."))
	for _, p := range l.paths {
		l.viper.AddConfigPath(p)
	}

	if l.envPrefix != "" {
		l.viper.SetEnvPrefix(l.envPrefix)
	}
	l.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.viper.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows about, so every
	// key of the target is bound explicitly.
	for _, key := range keys(reflect.TypeOf(target), "") {
		_ = l.viper.BindEnv(key)
	}
}

// Load implements Loader.
func (l *FileLoader) Load(target any) error {
	if err := tag.ApplyDefaults(target); err != nil {
		return errors.Internal("config: apply defaults: %v", err)
	}
	l.once.Do(func() { l.setup(target) })

	if err := l.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || !l.optional {
			return errors.NotFound("config: read %s: %v", l.name, err)
		}
	}

	if err := l.viper.Unmarshal(target); err != nil {
		return errors.Internal("config: decode: %v", err)
	}

	if l.validate != nil {
		if err := l.validate.Struct(target); err != nil {
			return errors.BadRequest("config: validation failed: %v", err)
		}
	}
	return nil
}

// Watch implements Loader.
func (l *FileLoader) Watch(callback func()) error {
	l.viper.OnConfigChange(func(fsnotify.Event) {
		if callback != nil {
			callback()
		}
	})
	l.viper.WatchConfig()
	return nil
}

// keys lists the dotted mapstructure keys of every leaf field of t.
func keys(t reflect.Type, prefix string) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, flags, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		if f.Anonymous && flags == "squash" {
			out = append(out, keys(f.Type, prefix)...)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft.PkgPath() != "time" {
			out = append(out, keys(ft, key)...)
			continue
		}
		out = append(out, key)
	}
	return out
}
