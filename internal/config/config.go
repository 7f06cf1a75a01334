// Package config loads the runtime settings shared by the whitelist binaries.
// Every setting has a default that reproduces the fixed behaviour; environment
// variables (optionally from a .env file) only override them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/Sternrassler/arweave-whitelist/pkg/graphql"
	"github.com/Sternrassler/arweave-whitelist/pkg/logging"
	"github.com/Sternrassler/arweave-whitelist/pkg/lookup"
	"github.com/joho/godotenv"
)

// Config holds the runtime settings.
type Config struct {
	LogLevel  logging.LogLevel
	LogPretty bool

	// GraphQL
	Endpoint  string
	UserAgent string

	// RedisURL enables the response cache when set (host:port)
	RedisURL string
	CacheTTL time.Duration

	// MetricsAddr serves /metrics when set (e.g. ":9090")
	MetricsAddr string

	// Pagination bounds (0 = unbounded)
	MaxPages int
	MaxItems int

	// Conversion paths
	InputFile  string
	OutputFile string
}

// Default returns the settings used when no overrides are present.
func Default() Config {
	gql := graphql.DefaultConfig()
	return Config{
		LogLevel:   logging.LevelInfo,
		Endpoint:   gql.Endpoint,
		UserAgent:  gql.UserAgent,
		CacheTTL:   gql.CacheTTL,
		InputFile:  lookup.DefaultInput,
		OutputFile: lookup.DefaultOutput,
	}
}

// Load reads the given .env files (missing files are skipped) and applies
// environment overrides on top of Default. Variables already present in the
// environment win over .env entries.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Default()
	cfg.LogLevel = logging.LogLevel(getEnv("LOG_LEVEL", string(cfg.LogLevel)))
	cfg.Endpoint = getEnv("GRAPHQL_ENDPOINT", cfg.Endpoint)
	cfg.UserAgent = getEnv("USER_AGENT", cfg.UserAgent)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.MetricsAddr = getEnv("METRICS_ADDR", cfg.MetricsAddr)
	cfg.InputFile = getEnv("INPUT_FILE", cfg.InputFile)
	cfg.OutputFile = getEnv("OUTPUT_FILE", cfg.OutputFile)

	var err error
	if cfg.LogPretty, err = getBool("LOG_PRETTY", cfg.LogPretty); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", cfg.CacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.MaxPages, err = getNonNegativeInt("MAX_PAGES", cfg.MaxPages); err != nil {
		return Config{}, err
	}
	if cfg.MaxItems, err = getNonNegativeInt("MAX_ITEMS", cfg.MaxItems); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean (got %q)", key, value)
	}
	return b, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration (got %q)", key, value)
	}
	return d, nil
}

func getNonNegativeInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer (got %q)", key, value)
	}
	return n, nil
}
