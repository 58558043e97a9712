package config

import (
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"PORT", "SHUTDOWN_TIMEOUT", "LOG_LEVEL",
	"STORAGE_BACKEND", "INVENTORY_FILE", "DATABASE_URL", "DB_URL",
	"JWT_SECRET", "TOKEN_TTL", "OPERATOR_EMAIL", "OPERATOR_PASSWORD", "LOGIN_LIMIT_PER_MIN",
	"METRICS_ENABLED", "METRICS_TOKEN",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %s, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Storage.Backend != BackendFile || cfg.Storage.File != "inventory.csv" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.AuthEnabled() {
		t.Error("auth should be off without JWT_SECRET")
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics should default to enabled")
	}
	if cfg.Auth.LoginLimitPerMin != 5 {
		t.Errorf("Auth.LoginLimitPerMin = %d, want 5", cfg.Auth.LoginLimitPerMin)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DB_URL", "postgres://localhost/inventory")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("OPERATOR_EMAIL", "ops@example.com")
	t.Setenv("OPERATOR_PASSWORD", "password123")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Storage.DatabaseURL != "postgres://localhost/inventory" {
		t.Errorf("DatabaseURL = %q, want value from DB_URL", cfg.Storage.DatabaseURL)
	}
	if !cfg.AuthEnabled() || cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
}

func TestLoad_BadValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "PORT") {
		t.Fatalf("Load() error = %v, want PORT parse error", err)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 0, ShutdownTimeout: time.Second},
		Storage: StorageConfig{Backend: BackendPostgres},
		Auth:    AuthConfig{JWTSecret: "short", TokenTTL: time.Minute, LoginLimitPerMin: 5},
		Log:     LogConfig{Level: "verbose"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil")
	}
	for _, want := range []string{"PORT", "DATABASE_URL", "JWT_SECRET", "OPERATOR_EMAIL", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error lacks %s:\n%v", want, err)
		}
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Storage: StorageConfig{Backend: "s3"},
		Auth:    AuthConfig{LoginLimitPerMin: 5},
		Log:     LogConfig{Level: "info"},
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "STORAGE_BACKEND") {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestString_MasksSecrets(t *testing.T) {
	cfg := &Config{
		Storage: StorageConfig{Backend: BackendPostgres, DatabaseURL: "postgres://user:hunter2@db/x"},
		Auth:    AuthConfig{JWTSecret: "topsecret", OperatorPassword: "hunter2"},
		Metrics: MetricsConfig{Token: "scrape-token"},
	}

	s := cfg.String()
	for _, secret := range []string{"hunter2", "topsecret", "scrape-token"} {
		if strings.Contains(s, secret) {
			t.Errorf("String() leaks %q: %s", secret, s)
		}
	}
	if !strings.Contains(s, "[MASKED]") {
		t.Errorf("String() = %s", s)
	}
}

func TestLoadConsole_IgnoresServiceSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("INVENTORY_FILE", "stock.csv")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConsole()
	if err != nil {
		t.Fatalf("LoadConsole() error = %v", err)
	}
	if cfg.Storage.File != "stock.csv" || cfg.Storage.Backend != BackendPostgres || cfg.Log.Level != "warn" {
		t.Fatalf("cfg = %+v", cfg)
	}

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject the same environment")
	}
}

func TestLoadConsole_BadLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "loud")

	if _, err := LoadConsole(); err == nil || !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Fatalf("LoadConsole() error = %v", err)
	}
}
