package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvPort         = "PARSONS_PORT"
	EnvStore        = "PARSONS_STORE"
	EnvDatabaseURL  = "PARSONS_DATABASE_URL"
	EnvRabbitMQURL  = "PARSONS_RABBITMQ_URL"
	EnvLogLevel     = "PARSONS_LOG_LEVEL"
	EnvEvents       = "PARSONS_EVENTS"
)

var providerKeyEnv = map[string]string{
	"claude": EnvAnthropicKey,
	"openai": EnvOpenAIKey,
	"gemini": EnvGeminiKey,
}

// LoadDotEnv loads variables from the given .env files without overriding
// ones already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with values from the environment
func ApplyEnv(cfg *LocalConfig) {
	for name, env := range providerKeyEnv {
		key := os.Getenv(env)
		if key == "" {
			continue
		}
		p, ok := cfg.LLM.Providers[name]
		if !ok {
			p = &ProviderConfig{Enabled: true}
			cfg.LLM.Providers[name] = p
		}
		p.APIKey = key
	}

	cfg.Daemon.Port = getEnvInt(EnvPort, cfg.Daemon.Port)
	cfg.Daemon.LogLevel = getEnv(EnvLogLevel, cfg.Daemon.LogLevel)
	cfg.Store.Backend = getEnv(EnvStore, cfg.Store.Backend)
	cfg.Store.DatabaseURL = getEnv(EnvDatabaseURL, cfg.Store.DatabaseURL)
	cfg.Events.RabbitMQURL = getEnv(EnvRabbitMQURL, cfg.Events.RabbitMQURL)
	cfg.Events.Enabled = getEnvBool(EnvEvents, cfg.Events.Enabled)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
