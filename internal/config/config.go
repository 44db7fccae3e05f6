/*
Package config loads the server configuration.

PURPOSE:
  Reads an optional .env file, then WORKCAL_* environment variables, falling
  back to defaults. Command-line flags in cmd/server override the result.

VARIABLES:
  WORKCAL_PORT          HTTP port (default 8080)
  WORKCAL_DB_PATH       SQLite database path (default ./workcal.db)
  WORKCAL_ENV           development | production (default development)
  WORKCAL_LOG_LEVEL     debug | info | warn | error (default info)
  WORKCAL_RATE_LIMIT    Requests per minute per IP, 0 disables (default 300)
  WORKCAL_CORS_ORIGINS  Comma-separated allowed origins (default *)
  WORKCAL_SEED_FILE     JSON/YAML calendar definitions loaded at startup
  WORKCAL_SCENARIO      Demo scenario loaded at startup

  Every invalid value is reported in one error.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the resolved server configuration.
type Config struct {
	Port        int
	DBPath      string
	Env         string
	LogLevel    string
	RateLimit   int
	CORSOrigins []string
	SeedFile    string
	Scenario    string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:        8080,
		DBPath:      "./workcal.db",
		Env:         EnvDevelopment,
		LogLevel:    "info",
		RateLimit:   300,
		CORSOrigins: []string{"*"},
	}
}

// Load reads .env files (missing files are ignored) and the environment.
// A malformed .env file is reported along with invalid values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	var errs []error
	for _, f := range envFiles {
		// godotenv never overrides variables already set in the environment.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
		}
	}
	cfg, err := FromEnv(os.LookupEnv)
	return cfg, errors.Join(append(errs, err)...)
}

// FromEnv builds a Config from a variable lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("WORKCAL_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("WORKCAL_PORT: %q is not a valid port", v))
		} else {
			cfg.Port = port
		}
	}
	if v, ok := get("WORKCAL_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := get("WORKCAL_ENV"); ok {
		switch v {
		case EnvDevelopment, EnvProduction:
			cfg.Env = v
		default:
			errs = append(errs, fmt.Errorf("WORKCAL_ENV: %q is not development or production", v))
		}
	}
	if v, ok := get("WORKCAL_LOG_LEVEL"); ok {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = strings.ToLower(v)
		default:
			errs = append(errs, fmt.Errorf("WORKCAL_LOG_LEVEL: %q is not debug, info, warn or error", v))
		}
	}
	if v, ok := get("WORKCAL_RATE_LIMIT"); ok {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			errs = append(errs, fmt.Errorf("WORKCAL_RATE_LIMIT: %q is not a non-negative integer", v))
		} else {
			cfg.RateLimit = limit
		}
	}
	if v, ok := get("WORKCAL_CORS_ORIGINS"); ok {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}
	if v, ok := get("WORKCAL_SEED_FILE"); ok {
		cfg.SeedFile = v
	}
	if v, ok := get("WORKCAL_SCENARIO"); ok {
		cfg.Scenario = v
	}

	return cfg, errors.Join(errs...)
}

// Addr is the listen address for the configured port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
