// Package config loads process-wide configuration from the
// environment, following pkg/database's LoadConfigFromEnv/
// getEnvOrDefault idiom and godotenv's .env-file convention.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/LastZactionHero/part-finder/pkg/database"
	"github.com/LastZactionHero/part-finder/pkg/llm"
)

// Config is the full set of settings cmd/partfinder wires into the
// service's components.
type Config struct {
	Database database.Config

	MouserAPIKey string

	LLMProvider llm.Provider
	LLMAPIKey   string
	LLMModel    string

	WorkerPoolWidth    int
	HTTPPort           int
	CacheMaxAgeSeconds int
	LogLevel           string
}

// Load reads a .env file if present (missing is not an error, a
// misformatted one is), then builds Config from the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	} else if err != nil {
		slog.Info("config: no .env file found, continuing with process environment")
	}

	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		return Config{}, fmt.Errorf("config: database: %w", err)
	}

	mouserKey := os.Getenv("MOUSER_API_KEY")
	if mouserKey == "" {
		return Config{}, fmt.Errorf("config: MOUSER_API_KEY is required")
	}

	provider, apiKey, err := loadLLMCredentials()
	if err != nil {
		return Config{}, err
	}

	poolWidth, err := atoiDefault("WORKER_POOL_WIDTH", 5)
	if err != nil {
		return Config{}, fmt.Errorf("config: WORKER_POOL_WIDTH: %w", err)
	}
	httpPort, err := atoiDefault("HTTP_PORT", 8080)
	if err != nil {
		return Config{}, fmt.Errorf("config: HTTP_PORT: %w", err)
	}
	cacheMaxAge, err := atoiDefault("CACHE_MAX_AGE_SECONDS", 86400)
	if err != nil {
		return Config{}, fmt.Errorf("config: CACHE_MAX_AGE_SECONDS: %w", err)
	}

	cfg := Config{
		Database:           dbCfg,
		MouserAPIKey:       mouserKey,
		LLMProvider:        provider,
		LLMAPIKey:          apiKey,
		LLMModel:           os.Getenv("LLM_MODEL"),
		WorkerPoolWidth:    poolWidth,
		HTTPPort:           httpPort,
		CacheMaxAgeSeconds: cacheMaxAge,
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants Load's field-by-field parsing cannot
// express on its own.
func (c Config) Validate() error {
	if c.WorkerPoolWidth < 1 {
		return fmt.Errorf("config: WORKER_POOL_WIDTH must be at least 1")
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("config: HTTP_PORT must be between 1 and 65535")
	}
	if c.CacheMaxAgeSeconds < 0 {
		return fmt.Errorf("config: CACHE_MAX_AGE_SECONDS cannot be negative")
	}
	switch c.LLMProvider {
	case llm.ProviderAnthropic, llm.ProviderGemini:
	default:
		return fmt.Errorf("config: unknown LLM provider %q", c.LLMProvider)
	}
	return nil
}

// loadLLMCredentials picks exactly one of the two supported providers
// based on which API key is set, preferring Anthropic when both are
// present.
func loadLLMCredentials() (llm.Provider, string, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return llm.ProviderAnthropic, key, nil
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return llm.ProviderGemini, key, nil
	}
	return "", "", fmt.Errorf("config: one of ANTHROPIC_API_KEY or GEMINI_API_KEY is required")
}

func atoiDefault(key string, def int) (int, error) {
	raw := getEnvOrDefault(key, strconv.Itoa(def))
	return strconv.Atoi(raw)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
