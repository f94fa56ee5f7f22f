// Package config loads runtime settings from environment variables.
//
// Every setting has a default so `go run ./cmd/server` works with no
// environment at all. Invalid values (a non-numeric PORT, an unknown
// STORAGE_DRIVER) are returned as errors; main logs them and exits.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds every runtime setting for the server and the admin CLI.
type Config struct {
	Port      int
	LogLevel  slog.Level
	LogFormat string // "text" or "json"
	Storage   Storage
	CSRF      CSRF
	S3        S3
}

// Storage selects and parameterises the item store backend.
type Storage struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

// CSRF configures form-post protection. An empty Secret means a random key
// is generated at startup; tokens then stop validating after a restart.
type CSRF struct {
	Secret   string
	Disabled bool
}

// S3 holds connection settings for s3:// export destinations. Credentials
// come from the standard AWS chain (AWS_ACCESS_KEY_ID etc.).
type S3 struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// Load reads the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads settings through getenv, which lets tests supply a map
// instead of mutating the process environment.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:      8080,
		LogLevel:  slog.LevelInfo,
		LogFormat: "text",
		Storage: Storage{
			Driver:      DriverSQLite,
			SQLitePath:  "data/tasklist.db",
			PostgresDSN: "postgres://localhost/tasklist?sslmode=disable",
		},
		S3: S3{Region: "us-east-1"},
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v) // Atoi = ASCII to Integer
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("config: invalid LOG_LEVEL %q", v)
		}
	}

	if v := strings.ToLower(getenv("LOG_FORMAT")); v != "" {
		if v != "text" && v != "json" {
			return Config{}, fmt.Errorf("config: invalid LOG_FORMAT %q (want text or json)", v)
		}
		cfg.LogFormat = v
	}

	if v := strings.ToLower(getenv("STORAGE_DRIVER")); v != "" {
		switch v {
		case DriverSQLite, DriverPostgres, DriverMemory:
			cfg.Storage.Driver = v
		default:
			return Config{}, fmt.Errorf("config: unknown STORAGE_DRIVER %q", v)
		}
	}
	if v := getenv("DB_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}

	cfg.CSRF.Secret = getenv("CSRF_SECRET")
	if cfg.CSRF.Secret != "" && len(cfg.CSRF.Secret) < 16 {
		return Config{}, fmt.Errorf("config: CSRF_SECRET must be at least 16 characters")
	}
	disabled, err := parseBool(getenv, "CSRF_DISABLED")
	if err != nil {
		return Config{}, err
	}
	cfg.CSRF.Disabled = disabled

	if v := getenv("EXPORT_S3_REGION"); v != "" {
		cfg.S3.Region = v
	}
	cfg.S3.Endpoint = getenv("EXPORT_S3_ENDPOINT")
	pathStyle, err := parseBool(getenv, "EXPORT_S3_PATH_STYLE")
	if err != nil {
		return Config{}, err
	}
	cfg.S3.PathStyle = pathStyle

	return cfg, nil
}

func parseBool(getenv func(string) string, key string) (bool, error) {
	v := getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: invalid %s %q", key, v)
	}
	return b, nil
}

// NewLogger builds the process logger writing to w.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
