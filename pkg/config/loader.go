package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option customises a single Load call.
type Option func(*options)

type options struct {
	files       []string
	environment map[string]string
}

// WithEnvFiles loads the given .env files before parsing. Unlike the default
// .env lookup, a missing file is an error. Variables already present in the
// process environment win over file values.
func WithEnvFiles(files ...string) Option {
	return func(o *options) {
		o.files = append(o.files, files...)
	}
}

// WithEnvironment parses from env instead of the process environment and
// skips .env loading entirely.
func WithEnvironment(env map[string]string) Option {
	return func(o *options) {
		o.environment = env
	}
}

// Load parses the environment into a new value of T.
//
// Without options it first tries the .env file in the working directory,
// ignoring its absence.
//
// Example:
//
//	type VaultConfig struct {
//		SecretKey string `env:"ADMIN_SECRET_KEY"`
//		Issuer    string `env:"ADMIN_ISSUER" envDefault:"DocumentsDurand"`
//	}
//
//	cfg, err := config.Load[VaultConfig]()
func Load[T any](opts ...Option) (T, error) {
	var (
		o   options
		cfg T
	)
	for _, opt := range opts {
		opt(&o)
	}

	envOpts := env.Options{}
	switch {
	case o.environment != nil:
		envOpts.Environment = o.environment
	case len(o.files) > 0:
		if err := godotenv.Load(o.files...); err != nil {
			return cfg, errors.Join(ErrLoadingEnvFile, err)
		}
	default:
		// The default .env file is optional.
		_ = godotenv.Load()
	}

	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return cfg
}
