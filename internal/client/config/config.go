// Package config loads runtime settings for the carelink client.
//
// Sources, in descending precedence: an explicit config file path, the
// CONFIG_PATH environment variable, then environment variables alone.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Backend     BackendConfig     `yaml:"backend"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Web         WebConfig         `yaml:"web"`
	LogLevel    string            `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

// BackendConfig points at the marketplace REST API.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url" env:"BACKEND_BASE_URL" env-default:"https://api.carelink.example"`
	Timeout time.Duration `yaml:"timeout" env:"BACKEND_TIMEOUT" env-default:"30s"`
}

// CredentialsConfig controls where the token pair and cached profile live.
type CredentialsConfig struct {
	// Path is the bbolt file holding credentials and the profile cache.
	Path string `yaml:"path" env:"CREDENTIALS_PATH" env-default:"carelink.db"`
	// SealSecretFile, when set, switches credential storage to an
	// encrypted file next to Path, sealed with this file's contents.
	SealSecretFile string `yaml:"seal_secret_file" env:"CREDENTIALS_SEAL_SECRET_FILE"`
}

// WebConfig is the local dashboard listener.
type WebConfig struct {
	Host string `yaml:"host" env:"WEB_HOST" env-default:"127.0.0.1"`
	Port string `yaml:"port" env:"WEB_PORT" env-default:"8750"`
}

func (w WebConfig) Addr() string { return net.JoinHostPort(w.Host, w.Port) }

// MustLoad panics on load failure.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration. An empty path falls back to CONFIG_PATH,
// then to environment variables only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("reading config %q: %w", path, err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading config from env: %w", err)
	}
	return &cfg, nil
}
