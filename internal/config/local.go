package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	StoreJSON     = "json"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// ProviderOrder is the registration order of LLM providers. With
// default_provider "auto" the first registered one is used.
var ProviderOrder = []string{"claude", "openai", "gemini", "ollama"}

// LocalConfig holds configuration for local daemon mode
type LocalConfig struct {
	Daemon    DaemonConfig    `yaml:"daemon"`
	LLM       LLMConfig       `yaml:"llm"`
	Store     StoreConfig     `yaml:"store"`
	Events    EventsConfig    `yaml:"events"`
	Generator GeneratorConfig `yaml:"generator"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port        int      `yaml:"port"`
	Bind        string   `yaml:"bind"`
	LogLevel    string   `yaml:"log_level"`
	CORSOrigins []string `yaml:"cors_origins"`

	// RateLimitPerMinute bounds feedback and chat requests per client; 0 disables
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

// LLMConfig holds LLM provider settings
type LLMConfig struct {
	DefaultProvider string                     `yaml:"default_provider"`
	TimeoutSeconds  int                        `yaml:"timeout_seconds"`
	Providers       map[string]*ProviderConfig `yaml:"providers"`
	Resilience      ResilienceConfig           `yaml:"resilience"`
}

// ProviderConfig holds settings for a single LLM provider
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	URL     string `yaml:"url,omitempty"`
	APIKey  string `yaml:"-"` // Loaded from secrets.yaml or the environment
}

// ResilienceConfig tunes the wrapper around each remote provider
type ResilienceConfig struct {
	Enabled          bool `yaml:"enabled"`
	MaxAttempts      int  `yaml:"max_attempts"`
	FailureThreshold int  `yaml:"failure_threshold"`
	MaxConcurrent    int  `yaml:"max_concurrent"`
	RatePerSecond    int  `yaml:"rate_per_second"`
}

// StoreConfig selects where problems live
type StoreConfig struct {
	Backend string `yaml:"backend"`

	// ProblemsPath is the JSON collection file (json backend)
	ProblemsPath string `yaml:"problems_path"`
	// SeedPath seeds an empty JSON collection; the bundled seed is used when empty
	SeedPath string `yaml:"seed_path"`
	// SQLitePath is the database file (sqlite backend and attempt statistics)
	SQLitePath string `yaml:"sqlite_path"`
	// DatabaseURL is the PostgreSQL DSN (postgres backend)
	DatabaseURL string `yaml:"database_url"`
}

// EventsConfig controls attempt recording
type EventsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	RabbitMQURL string `yaml:"rabbitmq_url"`
	Workers     int    `yaml:"workers"`
}

// GeneratorConfig holds problem generation settings
type GeneratorConfig struct {
	Distractors    bool    `yaml:"distractors"`
	MaxDistractors int     `yaml:"max_distractors"`
	Seed           *uint64 `yaml:"seed,omitempty"`
}

// SecretsConfig holds API keys loaded from secrets.yaml
type SecretsConfig struct {
	Providers map[string]struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"providers"`
}

// ParsonsDir returns the path to ~/.parsons
func ParsonsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".parsons"), nil
}

// EnsureParsonsDir creates ~/.parsons and subdirectories if they don't exist
func EnsureParsonsDir() (string, error) {
	dir, err := ParsonsDir()
	if err != nil {
		return "", err
	}

	for _, subdir := range []string{"", "logs", "data"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for local mode. Paths are
// relative to dir.
func DefaultLocalConfig(dir string) *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:               3001,
			Bind:               "127.0.0.1",
			LogLevel:           "info",
			CORSOrigins:        []string{"*"},
			RateLimitPerMinute: 60,
		},
		LLM: LLMConfig{
			DefaultProvider: "auto",
			TimeoutSeconds:  20,
			Providers: map[string]*ProviderConfig{
				"claude": {Enabled: true, Model: "claude-3-5-haiku-latest"},
				"openai": {Enabled: true, Model: "gpt-3.5-turbo"},
				"gemini": {Enabled: true, Model: "gemini-2.0-flash"},
				"ollama": {Enabled: false, URL: "http://localhost:11434", Model: "llama3"},
			},
			Resilience: ResilienceConfig{
				Enabled:          true,
				MaxAttempts:      2,
				FailureThreshold: 3,
				MaxConcurrent:    5,
				RatePerSecond:    2,
			},
		},
		Store: StoreConfig{
			Backend:      StoreJSON,
			ProblemsPath: filepath.Join(dir, "data", "problems.json"),
			SQLitePath:   filepath.Join(dir, "data", "parsons.db"),
		},
		Events: EventsConfig{
			Enabled: true,
			Workers: 2,
		},
		Generator: GeneratorConfig{
			Distractors:    true,
			MaxDistractors: 0,
		},
	}
}

// LoadLocalConfig loads configuration from ~/.parsons/config.yaml
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := ParsonsDir()
	if err != nil {
		return nil, err
	}
	return LoadLocalConfigFrom(dir)
}

// LoadLocalConfigFrom loads config.yaml and secrets.yaml from dir, then
// applies environment overrides. Missing files yield defaults.
func LoadLocalConfigFrom(dir string) (*LocalConfig, error) {
	cfg := DefaultLocalConfig(dir)

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := loadSecrets(dir, cfg); err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}

	ApplyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSecrets applies API keys from secrets.yaml to known providers
func loadSecrets(dir string, cfg *LocalConfig) error {
	secrets, err := ReadSecrets(dir)
	if err != nil {
		return err
	}
	for name, key := range secrets {
		if provider, ok := cfg.LLM.Providers[name]; ok {
			provider.APIKey = key
		}
	}
	return nil
}

// ReadSecrets returns the API keys stored in dir/secrets.yaml by provider
// name. A missing file yields an empty map.
func ReadSecrets(dir string) (map[string]string, error) {
	out := map[string]string{}
	data, err := os.ReadFile(filepath.Join(dir, "secrets.yaml"))
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read secrets: %w", err)
	}

	var secrets SecretsConfig
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parse secrets: %w", err)
	}
	for name, secret := range secrets.Providers {
		out[name] = secret.APIKey
	}
	return out, nil
}

// Validate reports configuration values the daemon cannot start with
func (c *LocalConfig) Validate() error {
	if c.Daemon.Port <= 0 || c.Daemon.Port > 65535 {
		return fmt.Errorf("invalid daemon port %d", c.Daemon.Port)
	}
	if !slices.Contains([]string{StoreJSON, StoreSQLite, StorePostgres}, c.Store.Backend) {
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == StorePostgres && c.Store.DatabaseURL == "" {
		return errors.New("store backend postgres requires database_url")
	}
	if p := c.LLM.DefaultProvider; p != "" && p != "auto" && !slices.Contains(ProviderOrder, p) {
		return fmt.Errorf("unknown default provider %q", p)
	}
	return nil
}

// SaveLocalConfig saves configuration to ~/.parsons/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureParsonsDir()
	if err != nil {
		return err
	}
	return SaveLocalConfigTo(dir, cfg)
}

// SaveLocalConfigTo writes cfg to dir/config.yaml
func SaveLocalConfigTo(dir string, cfg *LocalConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SaveSecrets writes API keys to dir/secrets.yaml
func SaveSecrets(dir string, secrets map[string]string) error {
	secretsCfg := SecretsConfig{
		Providers: make(map[string]struct {
			APIKey string `yaml:"api_key"`
		}),
	}
	for name, key := range secrets {
		secretsCfg.Providers[name] = struct {
			APIKey string `yaml:"api_key"`
		}{APIKey: key}
	}

	data, err := yaml.Marshal(secretsCfg)
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}

	// Owner read/write only
	if err := os.WriteFile(filepath.Join(dir, "secrets.yaml"), data, 0600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}
	return nil
}
