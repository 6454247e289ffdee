package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/felixgeelhaar/parsons/internal/config"
)

var httpClient = &http.Client{Timeout: 5 * time.Second}

// daemonURL is the base URL of the configured daemon
func daemonURL() string {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return "http://127.0.0.1:3001"
	}
	return baseURL(cfg)
}

func baseURL(cfg *config.LocalConfig) string {
	host := cfg.Daemon.Bind
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.Daemon.Port)
}

// cmdStart starts the daemon in the background
func cmdStart() error {
	addr := daemonURL()
	if isRunning(addr) {
		fmt.Println("✓ Daemon is already running")
		return nil
	}

	dir, err := config.EnsureParsonsDir()
	if err != nil {
		return fmt.Errorf("setup parsons directory: %w", err)
	}

	bin, err := findDaemonBinary()
	if err != nil {
		return fmt.Errorf("find daemon binary: %w", err)
	}

	cmd := exec.Command(bin)
	cmd.Dir = dir
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	fmt.Print("Starting daemon...")
	for i := 0; i < 30; i++ {
		time.Sleep(100 * time.Millisecond)
		if isRunning(addr) {
			fmt.Println(" ✓")
			fmt.Printf("Daemon running at %s\n", addr)
			return nil
		}
		fmt.Print(".")
	}

	fmt.Println(" ✗")
	return fmt.Errorf("daemon failed to start (check logs with 'parsons logs')")
}

// cmdStop sends SIGTERM to the pid recorded by parsonsd
func cmdStop() error {
	addr := daemonURL()
	if !isRunning(addr) {
		fmt.Println("Daemon is not running")
		return nil
	}

	dir, err := config.ParsonsDir()
	if err != nil {
		return err
	}
	pid, err := readPID(filepath.Join(dir, pidFile))
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	fmt.Print("Stopping daemon...")
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send signal: %w", err)
	}
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !isRunning(addr) {
			fmt.Println(" ✓")
			return nil
		}
		fmt.Print(".")
	}

	fmt.Println(" ✗")
	return fmt.Errorf("daemon did not stop gracefully")
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse PID: %w", err)
	}
	return pid, nil
}

// daemonStatus is the /api/status payload
type daemonStatus struct {
	Status        string   `json:"status"`
	Version       string   `json:"version"`
	UptimeSeconds int      `json:"uptime_seconds"`
	LLMProviders  []string `json:"llm_providers"`
	LLMEnabled    bool     `json:"llm_enabled"`
	Store         string   `json:"store"`
	Events        struct {
		Enabled bool `json:"enabled"`
		Broker  bool `json:"broker"`
	} `json:"events"`
}

// cmdStatus shows daemon status
func cmdStatus() error {
	addr := daemonURL()
	if !isRunning(addr) {
		fmt.Println("Status: stopped")
		return nil
	}

	status, err := fetchStatus(addr)
	if err != nil {
		return err
	}

	providers := "none (deterministic fallback)"
	if len(status.LLMProviders) > 0 {
		providers = strings.Join(status.LLMProviders, ", ")
	}
	events := "disabled"
	if status.Events.Enabled {
		events = "direct"
		if status.Events.Broker {
			events = "rabbitmq"
		}
	}

	fmt.Printf("Status:    %s\n", status.Status)
	fmt.Printf("Version:   %s\n", status.Version)
	fmt.Printf("Uptime:    %s\n", time.Duration(status.UptimeSeconds)*time.Second)
	fmt.Printf("Store:     %s\n", status.Store)
	fmt.Printf("Attempts:  %s\n", events)
	fmt.Printf("Providers: %s\n", providers)
	fmt.Printf("Address:   %s\n", addr)
	return nil
}

func fetchStatus(addr string) (*daemonStatus, error) {
	resp, err := httpClient.Get(addr + "/api/status")
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get status: unexpected status %d", resp.StatusCode)
	}
	var status daemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("parse status: %w", err)
	}
	return &status, nil
}

// cmdLogs prints the tail of the daemon log
func cmdLogs() error {
	dir, err := config.ParsonsDir()
	if err != nil {
		return err
	}

	file, err := os.Open(filepath.Join(dir, "logs", "parsonsd.log"))
	if errors.Is(err, os.ErrNotExist) {
		fmt.Println("No log file found. Start the daemon first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	return tail(file, os.Stdout, 4096)
}

// tail copies roughly the last size bytes of f, starting at a line boundary
func tail(f *os.File, w io.Writer, size int64) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	offset := max(info.Size()-size, 0)
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(f)
	if offset > 0 {
		_, _ = reader.ReadString('\n')
	}
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fmt.Fprintln(w, scanner.Text())
	}
	return scanner.Err()
}

// isRunning checks the daemon health endpoint
func isRunning(addr string) bool {
	resp, err := httpClient.Get(addr + "/api/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// findDaemonBinary locates the parsonsd binary
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath("parsonsd"); err == nil {
		return path, nil
	}

	if self, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(self), "parsonsd")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	for _, path := range []string{"/usr/local/bin/parsonsd", "./parsonsd", "./cmd/parsonsd/parsonsd"} {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("parsonsd binary not found (build with 'go build ./cmd/parsonsd')")
}
