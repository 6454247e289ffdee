package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/felixgeelhaar/parsons/internal/app"
	"github.com/felixgeelhaar/parsons/internal/config"
)

// cmdInit creates ~/.parsons, a default config and optionally an API key
func cmdInit() error {
	fmt.Println("Parsons - First-Time Setup")
	fmt.Println("==========================")
	fmt.Println()

	fmt.Print("Creating ~/.parsons directory structure... ")
	dir, err := config.EnsureParsonsDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		fmt.Print("Creating default configuration... ")
		if err := config.SaveLocalConfigTo(dir, config.DefaultLocalConfig(dir)); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	fmt.Println()
	fmt.Println("LLM Provider Setup")
	fmt.Println("------------------")
	fmt.Println("Parsons supports: Claude (Anthropic), OpenAI, Gemini and Ollama (local).")
	fmt.Println("Without a provider the tutor answers with deterministic feedback.")
	fmt.Println()

	cfg, _ := config.LoadLocalConfig()
	if cfg != nil && cfg.LLM.Providers["claude"] != nil && cfg.LLM.Providers["claude"].APIKey != "" {
		fmt.Println("Claude API key: already configured ✓")
	} else {
		fmt.Print("Enter Claude API key (or press Enter to skip): ")
		key, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if key = strings.TrimSpace(key); key != "" {
			if err := saveKey(dir, "claude", key); err != nil {
				fmt.Printf("  ⚠ Failed to save: %v\n", err)
			} else {
				fmt.Println("  ✓ Saved")
			}
		}
	}

	fmt.Println()
	fmt.Println("Setup Complete!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. parsons start          # Start the daemon")
	fmt.Println("  2. parsons doctor         # Verify configuration")
	fmt.Println("  3. parsons problems list  # See available problems")
	return nil
}

type checkStatus int

const (
	checkOK checkStatus = iota
	checkWarn
	checkFail
	checkSkip
)

func (c checkStatus) mark() string {
	return [...]string{"✓", "⚠", "✗", "-"}[c]
}

// checkResult is one doctor line
type checkResult struct {
	label  string
	status checkStatus
	detail string
}

// report prints results and returns whether none failed
func report(w io.Writer, results []checkResult) bool {
	ok := true
	for _, r := range results {
		fmt.Fprintf(w, "%-10s %s %s\n", r.label+":", r.status.mark(), r.detail)
		ok = ok && r.status != checkFail
	}
	return ok
}

// cmdDoctor checks configuration, stores and providers
func cmdDoctor() error {
	fmt.Println("Checking configuration...")
	results := []checkResult{dirCheck()}

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		report(os.Stdout, append(results, checkResult{"Config", checkFail, err.Error()}))
		return nil
	}
	results = append(results, checkResult{"Config", checkOK, "loaded"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	results = append(results, storeChecks(ctx, cfg)...)
	for _, name := range config.ProviderOrder {
		if p := cfg.LLM.Providers[name]; p != nil && p.Enabled {
			results = append(results, providerCheck(name, p))
		}
	}
	if isRunning(baseURL(cfg)) {
		results = append(results, checkResult{"Daemon", checkOK, "running"})
	} else {
		results = append(results, checkResult{"Daemon", checkWarn, "not running (run 'parsons start')"})
	}

	fmt.Println()
	if report(os.Stdout, results) {
		fmt.Println("\nAll checks passed! ✓")
	} else {
		fmt.Println("\nSome checks failed. Please fix the issues above.")
	}
	return nil
}

func dirCheck() checkResult {
	dir, err := config.ParsonsDir()
	switch {
	case err != nil:
		return checkResult{"Directory", checkFail, err.Error()}
	case !exists(dir):
		return checkResult{"Directory", checkFail, "not created (run 'parsons init')"}
	}
	return checkResult{"Directory", checkOK, dir}
}

// storeChecks opens the configured stores the way the daemon does
func storeChecks(ctx context.Context, cfg *config.LocalConfig) []checkResult {
	a, err := app.New(ctx, cfg, app.Options{Logger: slog.New(slog.DiscardHandler)})
	if err != nil {
		return []checkResult{{"Store", checkFail, fmt.Sprintf("%s: %v", cfg.Store.Backend, err)}}
	}
	defer a.Close()

	store := checkResult{"Store", checkOK, cfg.Store.Backend}
	if problems, err := a.Problems.List(ctx); err != nil {
		store.status, store.detail = checkFail, fmt.Sprintf("%s: %v", cfg.Store.Backend, err)
	} else {
		store.detail = fmt.Sprintf("%s (%d problems)", cfg.Store.Backend, len(problems))
	}
	return []checkResult{store, attemptsCheck(a, cfg)}
}

func attemptsCheck(a *app.App, cfg *config.LocalConfig) checkResult {
	switch {
	case a.Attempts == nil:
		return checkResult{"Attempts", checkSkip, "disabled"}
	case a.Broker:
		return checkResult{"Attempts", checkOK, "via rabbitmq"}
	case cfg.Events.RabbitMQURL != "":
		return checkResult{"Attempts", checkWarn, "rabbitmq unreachable, writing directly"}
	}
	return checkResult{"Attempts", checkOK, "direct"}
}

func providerCheck(name string, p *config.ProviderConfig) checkResult {
	switch {
	case name == "ollama":
		if err := checkOllama(p.URL); err != nil {
			return checkResult{name, checkFail, err.Error()}
		}
		return checkResult{name, checkOK, "available (model: " + p.Model + ")"}
	case p.APIKey != "":
		return checkResult{name, checkOK, "configured (model: " + p.Model + ")"}
	}
	return checkResult{name, checkFail, "no API key (run 'parsons provider set-key " + name + "')"}
}

func checkOllama(url string) error {
	if url == "" {
		url = "http://localhost:11434"
	}
	resp, err := httpClient.Get(url + "/api/tags")
	if err != nil {
		return fmt.Errorf("not reachable at %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// cmdConfig shows current configuration
func cmdConfig() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Parsons Configuration")

	fmt.Println("\nDaemon:")
	fmt.Printf("  bind: %s:%d\n", cfg.Daemon.Bind, cfg.Daemon.Port)
	fmt.Printf("  log_level: %s\n", cfg.Daemon.LogLevel)
	fmt.Printf("  cors_origins: %s\n", strings.Join(cfg.Daemon.CORSOrigins, ", "))
	fmt.Printf("  rate_limit_per_minute: %d\n", cfg.Daemon.RateLimitPerMinute)

	fmt.Println("\nLLM:")
	fmt.Printf("  default_provider: %s\n", cfg.LLM.DefaultProvider)
	fmt.Printf("  timeout: %ds\n", cfg.LLM.TimeoutSeconds)
	for _, name := range config.ProviderOrder {
		provider := cfg.LLM.Providers[name]
		if provider == nil || !provider.Enabled {
			continue
		}
		keyStatus := "✗"
		if provider.APIKey != "" || name == "ollama" {
			keyStatus = "✓"
		}
		fmt.Printf("  %s: model=%s key=%s\n", name, provider.Model, keyStatus)
	}

	fmt.Println("\nStore:")
	fmt.Printf("  backend: %s\n", cfg.Store.Backend)
	switch cfg.Store.Backend {
	case config.StoreJSON:
		fmt.Printf("  problems_path: %s\n", cfg.Store.ProblemsPath)
	case config.StoreSQLite:
		fmt.Printf("  sqlite_path: %s\n", cfg.Store.SQLitePath)
	case config.StorePostgres:
		fmt.Println("  database_url: (set)")
	}

	fmt.Println("\nAttempts:")
	fmt.Printf("  enabled: %t\n", cfg.Events.Enabled)
	if cfg.Events.RabbitMQURL != "" {
		fmt.Printf("  broker: rabbitmq (%d workers)\n", cfg.Events.Workers)
	}

	dir, _ := config.ParsonsDir()
	fmt.Printf("\nConfig path: %s\n", filepath.Join(dir, "config.yaml"))
	return nil
}

// cmdProvider lists providers, stores API keys and picks the default
func cmdProvider(args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "list":
		return cmdProviderList()
	case "set-key", "default":
		if len(args) < 2 {
			return fmt.Errorf("usage: parsons provider %s <name>", sub)
		}
		if sub == "set-key" {
			return cmdProviderSetKey(args[1], os.Stdin)
		}
		dir, err := config.EnsureParsonsDir()
		if err != nil {
			return err
		}
		return setDefaultProvider(dir, args[1])
	default:
		return fmt.Errorf("unknown provider command: %s", sub)
	}
}

// setDefaultProvider records name ("auto" for first available) in
// dir/config.yaml
func setDefaultProvider(dir, name string) error {
	if name != "auto" && !slices.Contains(config.ProviderOrder, name) {
		return fmt.Errorf("unknown provider %q (choose auto or one of %s)", name, strings.Join(config.ProviderOrder, ", "))
	}
	cfg, err := config.LoadLocalConfigFrom(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.LLM.DefaultProvider = name
	if err := config.SaveLocalConfigTo(dir, cfg); err != nil {
		return err
	}
	fmt.Printf("Default provider set to %s\n", name)
	return nil
}

func cmdProviderList() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Configured LLM Providers:")
	for _, name := range config.ProviderOrder {
		provider := cfg.LLM.Providers[name]
		if provider == nil {
			continue
		}
		status := "disabled"
		if provider.Enabled {
			status = "needs API key"
			if provider.APIKey != "" || name == "ollama" {
				status = "ready"
			}
		}
		marker := ""
		if name == cfg.LLM.DefaultProvider {
			marker = " (default)"
		}

		fmt.Printf("  %s%s\n", name, marker)
		fmt.Printf("    status: %s\n", status)
		fmt.Printf("    model:  %s\n", provider.Model)
		if provider.URL != "" {
			fmt.Printf("    url:    %s\n", provider.URL)
		}
		fmt.Println()
	}
	return nil
}

func cmdProviderSetKey(provider string, in io.Reader) error {
	if !slices.Contains(config.ProviderOrder, provider) {
		return fmt.Errorf("unknown provider: %s (valid: %s)", provider, strings.Join(config.ProviderOrder, ", "))
	}
	if provider == "ollama" {
		fmt.Println("Ollama doesn't require an API key.")
		return nil
	}

	fmt.Printf("Enter %s API key: ", provider)
	key, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read input: %w", err)
	}
	if key = strings.TrimSpace(key); key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	dir, err := config.EnsureParsonsDir()
	if err != nil {
		return err
	}
	if err := saveKey(dir, provider, key); err != nil {
		return err
	}

	fmt.Printf("✓ API key saved for %s\n", provider)
	fmt.Println("Restart the daemon for changes to take effect.")
	return nil
}

// saveKey merges one key into dir/secrets.yaml
func saveKey(dir, provider, key string) error {
	secrets, err := config.ReadSecrets(dir)
	if err != nil {
		return fmt.Errorf("read secrets: %w", err)
	}
	secrets[provider] = key
	if err := config.SaveSecrets(dir, secrets); err != nil {
		return fmt.Errorf("save secrets: %w", err)
	}
	return nil
}
