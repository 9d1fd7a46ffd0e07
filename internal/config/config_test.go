package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DB_DSN", "TOKEN_DURATION", "RATE_LIMIT_RPS", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("Expected sqlite driver, got %q", cfg.DBDriver)
	}
	if cfg.TokenDuration != 24*time.Hour {
		t.Errorf("Expected 24h token duration, got %v", cfg.TokenDuration)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("Expected no redis, got %q", cfg.RedisAddr)
	}
}

func TestLoadDotEnv(t *testing.T) {
	// godotenv never overrides a variable that exists, even when empty.
	t.Setenv("PORT", "")
	t.Setenv("GATEWAY_TIMEOUT", "")
	os.Unsetenv("PORT")
	os.Unsetenv("GATEWAY_TIMEOUT")
	t.Setenv("DB_DRIVER", "postgres")

	path := filepath.Join(t.TempDir(), ".env")
	content := "PORT=9090\nGATEWAY_TIMEOUT=3s\nDB_DRIVER=sqlite\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Expected port from .env, got %d", cfg.Port)
	}
	if cfg.GatewayTimeout != 3*time.Second {
		t.Errorf("Expected 3s gateway timeout, got %v", cfg.GatewayTimeout)
	}
	if cfg.DBDriver != "postgres" {
		t.Errorf("Expected environment to win over .env, got %q", cfg.DBDriver)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PORT", "eighty"},
		{"PORT", "70000"},
		{"TOKEN_DURATION", "forever"},
		{"DB_DRIVER", "mysql"},
		{"RATE_LIMIT_RPS", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
