package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Backend   BackendConfig   `koanf:"backend"`
	Storage   StorageConfig   `koanf:"storage"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// ProgressInterval paces the cosmetic progress stream.
	ProgressInterval time.Duration `koanf:"progress_interval"`
}

type BackendConfig struct {
	Type         string  `koanf:"type"` // openai, demo
	APIKey       string  `koanf:"api_key"`
	BaseURL      string  `koanf:"base_url"`
	Model        string  `koanf:"model"`
	Temperature  float32 `koanf:"temperature"`
	DemoFallback bool    `koanf:"demo_fallback"` // serve the sample audit when a bill audit fails
}

type StorageConfig struct {
	Type          string        `koanf:"type"` // memory, postgres, sqlite
	DSN           string        `koanf:"dsn"`
	SessionTTL    time.Duration `koanf:"session_ttl"`
	NotifyChannel string        `koanf:"notify_channel"`
}

type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	ServiceName string  `koanf:"service_name"`
	Pretty      bool    `koanf:"pretty"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

var defaults = map[string]any{
	"server.port":              8080,
	"server.progress_interval": "700ms",
	"backend.type":             "openai",
	"backend.model":            "gpt-4o-mini",
	"backend.temperature":      0.2,
	"backend.demo_fallback":    true,
	"storage.type":             "memory",
	"storage.session_ttl":      "2h",
	"storage.notify_channel":   "consult_sessions",
	"telemetry.service_name":   "chronocheck",
	"telemetry.sample_ratio":   1.0,
	"log.level":                "info",
}

// Load reads config.yaml from the working directory.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile reads the given YAML file if it exists, then applies CHRONO_
// environment overrides (CHRONO_BACKEND__API_KEY sets backend.api_key) and
// the plain variables the service has always honoured.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("CHRONO_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "CHRONO_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	legacy := map[string]string{
		"OPENAI_API_KEY":    "backend.api_key",
		"OPENAI_MODEL_CHAT": "backend.model",
		"DATABASE_URL":      "storage.dsn",
		"PORT":              "server.port",
	}
	for envName, key := range legacy {
		if v := os.Getenv(envName); v != "" && !k.Exists(key) {
			k.Set(key, v)
		}
	}

	for key, v := range defaults {
		if !k.Exists(key) {
			k.Set(key, v)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
