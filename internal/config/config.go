package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"fintrack/internal/core"
	"fintrack/internal/validation"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
)

type Config struct {
	// Backend selection
	DataBackend string

	// Storage
	SQLiteDBPath  string
	BoltDBPath    string
	DataDirectory string

	// Settings used until the user saves their own
	SettingsDefaultsFile string

	// AMQP change events, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Query
	PatternCacheSize int

	LogLevel string
}

func Load() *Config {
	return &Config{
		DataBackend: getEnv("DATA_BACKEND", BackendSQLite),

		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),
		BoltDBPath:    getEnv("BOLT_DB_PATH", "./data/fintrack.bolt"),
		DataDirectory: getEnv("DATA_DIRECTORY", "data"),

		SettingsDefaultsFile: getEnv("SETTINGS_DEFAULTS_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "fintrack_changes"),

		PatternCacheSize: getEnvInt("PATTERN_CACHE_SIZE", 64),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Backends lists the valid DATA_BACKEND values.
func Backends() []string {
	return []string{BackendMemory, BackendBolt, BackendSQLite}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if !slices.Contains(Backends(), c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends()))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendBolt:
		if c.BoltDBPath == "" {
			errors = append(errors, "bolt database path cannot be empty when using bolt backend")
		}
	}

	if c.SettingsDefaultsFile != "" {
		if _, err := os.Stat(c.SettingsDefaultsFile); err != nil {
			errors = append(errors, fmt.Sprintf("settings defaults file '%s' is not readable: %v", c.SettingsDefaultsFile, err))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.PatternCacheSize < 1 || c.PatternCacheSize > 4096 {
		errors = append(errors, fmt.Sprintf("invalid pattern cache size %d: must be between 1 and 4096", c.PatternCacheSize))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// EnsureDataDirs creates the parent directory of the selected database file.
func (c *Config) EnsureDataDirs() error {
	var path string
	switch c.DataBackend {
	case BackendSQLite:
		path = c.SQLiteDBPath
	case BackendBolt:
		path = c.BoltDBPath
	default:
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory '%s': %w", dir, err)
	}
	return nil
}

// settingsFile is the YAML shape of SETTINGS_DEFAULTS_FILE:
//
//	budget_cap: "1500.00"
//	currencies:
//	  USD: 1
//	  EUR: 0.92
type settingsFile struct {
	BudgetCap  string             `yaml:"budget_cap"`
	Currencies map[string]float64 `yaml:"currencies"`
}

// DefaultSettings returns the settings a fresh store starts with. Without a
// defaults file these are core.DefaultSettings; a file may override the cap,
// the currency table or both, and is validated like user input.
func (c *Config) DefaultSettings() (core.Settings, error) {
	out := core.DefaultSettings()
	if c.SettingsDefaultsFile == "" {
		return out, nil
	}

	data, err := os.ReadFile(c.SettingsDefaultsFile)
	if err != nil {
		return core.Settings{}, fmt.Errorf("read settings defaults: %w", err)
	}
	var f settingsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return core.Settings{}, fmt.Errorf("parse settings defaults: %w", err)
	}

	if f.BudgetCap != "" {
		if err := validation.ValidateBudgetCap(f.BudgetCap); err != nil {
			return core.Settings{}, fmt.Errorf("settings defaults budget_cap: %w", err)
		}
		cents, err := core.ParseCents(f.BudgetCap)
		if err != nil {
			return core.Settings{}, fmt.Errorf("settings defaults budget_cap: %w", err)
		}
		out.BudgetCap = core.Money{Cents: cents}
	}
	if f.Currencies != nil {
		if err := validation.ValidateCurrencies(f.Currencies); err != nil {
			return core.Settings{}, fmt.Errorf("settings defaults currencies: %w", err)
		}
		out.Currencies = f.Currencies
	}
	return out, nil
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
