package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings describes how a host process or the CLI wires the SDK.
// Values come from the environment, an optional .env file and an optional YAML file.
type Settings struct {
	APIKey      string        `env:"LINKOWL_API_KEY" yaml:"api_key"`
	BaseURL     string        `env:"LINKOWL_BASE_URL" yaml:"base_url"`
	StorePath   string        `env:"LINKOWL_STORE_PATH" yaml:"store_path"`
	RedisURL    string        `env:"LINKOWL_REDIS_URL" yaml:"redis_url"`
	LogLevel    string        `env:"LINKOWL_LOG_LEVEL" envDefault:"info" yaml:"log_level"`
	LogFormat   string        `env:"LINKOWL_LOG_FORMAT" envDefault:"text" yaml:"log_format"`
	WaitTimeout time.Duration `env:"LINKOWL_WAIT_TIMEOUT" envDefault:"30s" yaml:"wait_timeout"`
}

var defaultEnvLoaded sync.Once

// Load parses environment variables into v based on its env tags.
// The default .env file in the working directory is read once per process;
// a missing file is not an error.
//
// Example:
//
//	var s config.Settings
//	if err := config.Load(&s); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
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

// LoadFile reads a YAML file into s and then applies the environment on top:
// a variable that is set always wins, and defaults only fill fields the file left empty.
func LoadFile(path string, s *Settings) error {
	if s == nil {
		return ErrNilPointer
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadingFile, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("%w: %w", ErrParsingFile, err)
	}

	var e Settings
	if err := Load(&e); err != nil {
		return err
	}

	override(&s.APIKey, e.APIKey, "LINKOWL_API_KEY")
	override(&s.BaseURL, e.BaseURL, "LINKOWL_BASE_URL")
	override(&s.StorePath, e.StorePath, "LINKOWL_STORE_PATH")
	override(&s.RedisURL, e.RedisURL, "LINKOWL_REDIS_URL")
	override(&s.LogLevel, e.LogLevel, "LINKOWL_LOG_LEVEL")
	override(&s.LogFormat, e.LogFormat, "LINKOWL_LOG_FORMAT")
	override(&s.WaitTimeout, e.WaitTimeout, "LINKOWL_WAIT_TIMEOUT")
	return nil
}

func override[V comparable](dst *V, value V, name string) {
	var zero V
	if _, set := os.LookupEnv(name); set || *dst == zero {
		*dst = value
	}
}
