// Package config fills `env`-tagged structs from the process environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
)

// Option adjusts where Load reads variables from.
type Option func(*loader)

type loader struct {
	source    map[string]string
	overrides map[string]string
}

// WithOverrides lets the given variables win over the environment. Empty
// values are skipped so unset command-line flags fall through.
func WithOverrides(overrides map[string]string) Option {
	return func(l *loader) { l.overrides = overrides }
}

// WithSource replaces the process environment as the base set of variables.
func WithSource(vars map[string]string) Option {
	return func(l *loader) { l.source = vars }
}

// Load parses variables into cfg, which must be a pointer to a struct using
// `env` and `envDefault` tags:
//
//	type Config struct {
//	    Port     int    `env:"BROWSE_HTTP_PORT" envDefault:"8012"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any, opts ...Option) error {
	l := loader{}
	for _, opt := range opts {
		opt(&l)
	}
	if l.source == nil {
		l.source = environ()
	}

	vars := make(map[string]string, len(l.source)+len(l.overrides))
	for k, v := range l.source {
		vars[k] = v
	}
	for k, v := range l.overrides {
		if v != "" {
			vars[k] = v
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}
