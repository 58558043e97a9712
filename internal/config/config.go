// Package config loads service settings from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Metrics  MetricsConfig
	Log      LogConfig
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" default:"info"`
}

type ServerConfig struct {
	Port            int           `env:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

type StorageConfig struct {
	// Backend is "file" or "postgres".
	Backend string `env:"STORAGE_BACKEND" default:"file"`
	File    string `env:"INVENTORY_FILE" default:"inventory.csv"`
	// DatabaseURL is required for the postgres backend.
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`
}

type AuthConfig struct {
	// An empty JWTSecret leaves the mutating routes open.
	JWTSecret        string        `env:"JWT_SECRET"`
	TokenTTL         time.Duration `env:"TOKEN_TTL" default:"15m"`
	OperatorEmail    string        `env:"OPERATOR_EMAIL"`
	OperatorPassword string        `env:"OPERATOR_PASSWORD"`
	LoginLimitPerMin int           `env:"LOGIN_LIMIT_PER_MIN" default:"5"`
}

type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" default:"true"`
	Token   string `env:"METRICS_TOKEN"`
}

func (c *Config) AuthEnabled() bool { return c.Auth.JWTSecret != "" }

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string
	errs = append(errs, c.Server.problems()...)
	errs = append(errs, c.Storage.problems()...)
	errs = append(errs, c.Auth.problems(c.AuthEnabled())...)
	errs = append(errs, c.Log.problems()...)
	return joinProblems(errs)
}

func (s ServerConfig) problems() []string {
	var errs []string
	if s.Port <= 0 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT (%d) must be 1-65535", s.Port))
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT must be positive")
	}
	return errs
}

func (s StorageConfig) problems() []string {
	switch s.Backend {
	case BackendFile:
		return s.fileProblems()
	case BackendPostgres:
		if s.DatabaseURL == "" {
			return []string{"DATABASE_URL is required for the postgres backend"}
		}
		return nil
	default:
		return []string{fmt.Sprintf("STORAGE_BACKEND (%q) must be one of: file, postgres", s.Backend)}
	}
}

func (s StorageConfig) fileProblems() []string {
	if s.File == "" {
		return []string{"INVENTORY_FILE is required for the file backend"}
	}
	return nil
}

func (a AuthConfig) problems(enabled bool) []string {
	var errs []string
	if enabled {
		if len(a.JWTSecret) < 32 {
			errs = append(errs, "JWT_SECRET must be at least 32 bytes")
		}
		if a.OperatorEmail == "" || a.OperatorPassword == "" {
			errs = append(errs, "OPERATOR_EMAIL and OPERATOR_PASSWORD are required when JWT_SECRET is set")
		}
		if a.TokenTTL <= 0 {
			errs = append(errs, "TOKEN_TTL must be positive")
		}
	}
	if a.LoginLimitPerMin <= 0 {
		errs = append(errs, "LOGIN_LIMIT_PER_MIN must be positive")
	}
	return errs
}

func (l LogConfig) problems() []string {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(l.Level)] {
		return []string{fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", l.Level)}
	}
	return nil
}

func joinProblems(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String is safe to log: secrets and the database URL are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Port: %d, ShutdownTimeout: %s}, ", c.Server.Port, c.Server.ShutdownTimeout)
	fmt.Fprintf(&b, "Storage: {Backend: %q, File: %q, DatabaseURL: %s}, ",
		c.Storage.Backend, c.Storage.File, mask(c.Storage.DatabaseURL))
	fmt.Fprintf(&b, "Auth: {JWTSecret: %s, OperatorEmail: %q, OperatorPassword: %s, LoginLimitPerMin: %d}, ",
		mask(c.Auth.JWTSecret), c.Auth.OperatorEmail, mask(c.Auth.OperatorPassword), c.Auth.LoginLimitPerMin)
	fmt.Fprintf(&b, "Metrics: {Enabled: %v, Token: %s}, ", c.Metrics.Enabled, mask(c.Metrics.Token))
	fmt.Fprintf(&b, "Log: {Level: %q}", c.Log.Level)
	b.WriteString("}")
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return "[UNSET]"
	}
	return "[MASKED]"
}
