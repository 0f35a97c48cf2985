// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/blockrun-report/internal/services/presentation"
)

// Config holds the application configuration.
type Config struct {
	LogDir        string
	OutputPath    string
	DatabasePath  string
	Theme         presentation.Theme
	ThemeFile     string
	ListenAddr    string
	WatchDebounce time.Duration
	CacheTTL      time.Duration
	Notify        bool
	LogLevel      string
	LogFormat     string

	// Presentation is the built-in palette set with THEME_FILE applied.
	Presentation presentation.Config
}

// Default values
const (
	defaultListenAddr    = "127.0.0.1:8080"
	defaultWatchDebounce = 500 * time.Millisecond
	defaultCacheTTL      = 5 * time.Minute
	defaultReportName    = "report.html"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		LogDir:        getEnvString("BLOCKRUN_LOG_DIR", ""),
		OutputPath:    getEnvString("BLOCKRUN_OUTPUT", ""),
		DatabasePath:  getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		Theme:         presentation.ParseTheme(getEnvString("REPORT_THEME", string(presentation.ThemePastel))),
		ThemeFile:     getEnvString("THEME_FILE", ""),
		ListenAddr:    getEnvString("LISTEN_ADDR", defaultListenAddr),
		WatchDebounce: getEnvDuration("WATCH_DEBOUNCE", defaultWatchDebounce),
		CacheTTL:      getEnvDuration("REPORT_CACHE_TTL", defaultCacheTTL),
		Notify:        getEnvBool("NOTIFY", false),
		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
	}

	pres, err := LoadTheme(cfg.ThemeFile)
	if err != nil {
		return nil, err
	}
	cfg.Presentation = pres

	return cfg, nil
}

// ReportPath returns where the HTML report is written. Without an explicit
// output path the report lands next to the logs it was built from.
func (c *Config) ReportPath() string {
	if c.OutputPath != "" {
		return c.OutputPath
	}
	return filepath.Join(c.LogDir, defaultReportName)
}

// EnsureDatabaseDir creates the parent directory of the archive database.
func (c *Config) EnsureDatabaseDir() error {
	return ensureDir(filepath.Dir(c.DatabasePath))
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "blockrun", ".env"),
			filepath.Join(home, ".blockrun", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
	}

	return paths
}

// getDefaultDatabasePath returns the default path for the SQLite archive.
func getDefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "usage.db"
	}
	return filepath.Join(home, ".config", "blockrun", "usage.db")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Bare integers are milliseconds
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
// Accepts strconv.ParseBool forms plus "yes"/"no" and "on"/"off".
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultValue
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return nil
}
