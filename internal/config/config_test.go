package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 150*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 150s", cfg.Server.RequestTimeout)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("Storage.Type = %q, want sqlite", cfg.Storage.Type)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("OpenAI.Model = %q, want gpt-4o-mini", cfg.OpenAI.Model)
	}
	if cfg.Billing.QuotaCeiling != 500 {
		t.Errorf("Billing.QuotaCeiling = %v, want 500", cfg.Billing.QuotaCeiling)
	}
	if cfg.Billing.CycleLength != 30*24*time.Hour {
		t.Errorf("Billing.CycleLength = %v, want 720h", cfg.Billing.CycleLength)
	}
	if cfg.Auth.TokenTTL != 0 {
		t.Errorf("Auth.TokenTTL = %v, want 0 (non-expiring tokens)", cfg.Auth.TokenTTL)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
auth:
  secret: file-secret
storage:
  type: memory
billing:
  quota_ceiling: 1000
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Auth.Secret != "file-secret" {
		t.Errorf("Auth.Secret = %q, want file-secret", cfg.Auth.Secret)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("Storage.Type = %q, want memory", cfg.Storage.Type)
	}
	if cfg.Billing.QuotaCeiling != 1000 {
		t.Errorf("Billing.QuotaCeiling = %v, want 1000", cfg.Billing.QuotaCeiling)
	}
	// Untouched keys keep their defaults.
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("OpenAI.Model = %q, want gpt-4o-mini", cfg.OpenAI.Model)
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("ANCE_SERVER__PORT", "3000")
	t.Setenv("ANCE_AUTH__SECRET", "env-secret")
	t.Setenv("ANCE_OPENAI__API_KEY", "sk-test")
	t.Setenv("ANCE_AUTH__TOKEN_TTL", "24h")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Auth.Secret != "env-secret" {
		t.Errorf("Auth.Secret = %q, want env-secret", cfg.Auth.Secret)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("OpenAI.APIKey = %q, want sk-test", cfg.OpenAI.APIKey)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want 24h", cfg.Auth.TokenTTL)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Auth:    AuthConfig{Secret: "s"},
		OpenAI:  OpenAIConfig{APIKey: "k"},
		Storage: StorageConfig{Type: "memory"},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing auth secret", func(c *Config) { c.Auth.Secret = "" }},
		{"missing api key", func(c *Config) { c.OpenAI.APIKey = "" }},
		{"unknown storage type", func(c *Config) { c.Storage.Type = "postgres" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
