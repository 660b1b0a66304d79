package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Validator is implemented by config structs that check their own invariants
// after parsing.
type Validator interface {
	Validate() error
}

// Load parses environment variables into cfg using `env` struct tags, then
// runs cfg.Validate when cfg implements Validator.
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	return LoadWithOptions(cfg, env.Options{})
}

// LoadWithOptions is Load with explicit env parsing options, for example a
// Prefix shared by every variable or an Environment map in tests.
func LoadWithOptions(cfg any, opts env.Options) error {
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
	}
	return nil
}
