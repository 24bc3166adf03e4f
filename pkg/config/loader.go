package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var defaultEnvLoaded sync.Once

// Load parses environment variables into v based on its `env` struct tags.
// The default .env file, if present, is loaded once before the first parse;
// variables already set in the process environment take precedence.
//
//	type RedisConfig struct {
//		URL     string        `env:"REDIS_URL,required"`
//		Timeout time.Duration `env:"REDIS_TIMEOUT" envDefault:"250ms"`
//	}
//
//	var cfg RedisConfig
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Use it for configuration the
// process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// LoadEnvFile loads variables from the given files into the process
// environment without overriding variables that are already set.
func LoadEnvFile(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrEnvFile, err)
	}
	return nil
}

// LoadYAML decodes a YAML document into v. Unknown fields are rejected so that
// typos in policy files fail at startup instead of being silently ignored.
func LoadYAML[T any](data []byte, v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrParsingYAML, err)
	}
	return nil
}

// LoadYAMLFile reads path and decodes it with LoadYAML.
func LoadYAMLFile[T any](path string, v *T) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Join(ErrParsingYAML, err)
	}
	return LoadYAML(data, v)
}
