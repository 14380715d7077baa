// Package config loads the gateway configuration from config.yaml and
// ANCE_-prefixed environment variables. The resulting Config is built once
// at startup and passed by reference; nothing reads ambient state later.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ance-ai/metered-gateway/internal/domain"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Auth    AuthConfig    `koanf:"auth"`
	Storage StorageConfig `koanf:"storage"`
	OpenAI  OpenAIConfig  `koanf:"openai"`
	Billing BillingConfig `koanf:"billing"`
	Admin   AdminConfig   `koanf:"admin"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// RequestTimeout bounds a whole request, upstream call included.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type AuthConfig struct {
	// Secret signs bearer tokens. Required.
	Secret string `koanf:"secret"`
	// TokenTTL adds an expiry claim when positive. Zero (the default)
	// issues non-expiring tokens, matching the behavior this gateway
	// replaces.
	TokenTTL time.Duration `koanf:"token_ttl"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type OpenAIConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

type BillingConfig struct {
	// QuotaCeiling is the budget of a freshly created billing cycle.
	QuotaCeiling float64 `koanf:"quota_ceiling"`
	// CycleLength is the window of a freshly created billing cycle.
	CycleLength time.Duration `koanf:"cycle_length"`
}

type AdminConfig struct {
	// KeyHash is the hex SHA-256 of the admin API key. Empty disables the
	// admin surface.
	KeyHash string `koanf:"key_hash"`
}

// Load reads config.yaml (if present) and then environment overrides, e.g.
// ANCE_SERVER__PORT or ANCE_OPENAI__API_KEY.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("ANCE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "ANCE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	setDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"server.port":            8080,
		"server.request_timeout": "150s",
		"storage.type":           "sqlite",
		"storage.sqlite.path":    "./data/gateway.db",
		"openai.model":           "gpt-4o-mini",
		"openai.timeout":         "120s",
		"billing.quota_ceiling":  domain.DefaultQuotaCeiling,
		"billing.cycle_length":   domain.DefaultCycleLength.String(),
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}
}

// Validate checks the settings main cannot run without.
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required (set ANCE_AUTH__SECRET or auth.secret in config.yaml)")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required (set ANCE_OPENAI__API_KEY or openai.api_key in config.yaml)")
	}
	switch c.Storage.Type {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage.type %q", c.Storage.Type)
	}
	return nil
}
