package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "SNAPKV_"

// Loader builds a configuration from defaults, a file and the environment.
type Loader struct {
	k        *koanf.Koanf
	prefix   string
	path     string
	defaults map[string]any
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix. An empty prefix
// disables the environment layer.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.prefix = prefix
	}
}

// WithConfigFile sets the YAML file. An empty path skips the file layer.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.path = path
	}
}

// WithDefaults sets default values keyed by dotted path.
func WithDefaults(defaults map[string]any) Option {
	return func(l *Loader) {
		l.defaults = defaults
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:      koanf.New("."),
		prefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load applies every layer and unmarshals the result into target using
// koanf struct tags.
func (l *Loader) Load(target any) error {
	layers := []struct {
		name string
		skip bool
		load func() error
	}{
		{"defaults", len(l.defaults) == 0, func() error { return l.k.Load(mapProvider(l.defaults), nil) }},
		{"file " + l.path, l.path == "", func() error { return l.k.Load(file.Provider(l.path), yaml.Parser()) }},
		{"environment", l.prefix == "", func() error { return l.k.Load(env.Provider(l.prefix, ".", l.envKey()), nil) }},
	}

	for _, layer := range layers {
		if layer.skip {
			continue
		}
		if err := layer.load(); err != nil {
			return fmt.Errorf("load %s: %w", layer.name, err)
		}
	}

	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

// envKey returns the transform from an environment name to a config key.
// Names not known from earlier layers turn every underscore into a dot.
func (l *Loader) envKey() func(string) string {
	known := make(map[string]string)
	for _, key := range l.k.Keys() {
		known[strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}

	return func(name string) string {
		name = strings.TrimPrefix(name, l.prefix)
		if key, ok := known[strings.ToUpper(name)]; ok {
			return key
		}
		return strings.ReplaceAll(strings.ToLower(name), "_", ".")
	}
}

// Keys returns every loaded key in dotted form.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}

// String returns the loaded value at key, or "" if unset.
func (l *Loader) String(key string) string {
	return l.k.String(key)
}
