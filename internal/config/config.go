package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all nutriplan configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Recommendation model
	LLM LLMConfig `yaml:"llm"`

	// Key-value persistence
	Storage StorageConfig `yaml:"storage"`

	// Local HTTP API (nutri serve)
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig configures the key-value store.
type StorageConfig struct {
	Driver       string `yaml:"driver"` // sqlite (pure Go) or sqlite3 (cgo)
	DatabasePath string `yaml:"database_path"`
	BusyTimeout  string `yaml:"busy_timeout"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ReadTimeout     string   `yaml:"read_timeout"`
	WriteTimeout    string   `yaml:"write_timeout"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
}

// Supported storage drivers.
const (
	DriverSQLite  = "sqlite"
	DriverSQLite3 = "sqlite3"
)

// DefaultDir returns the per-user state directory (~/.nutriplan).
// Falls back to the working directory when no home is available.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".nutriplan"
	}
	return filepath.Join(home, ".nutriplan")
}

// DefaultConfigPath returns the config file location under DefaultDir.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "nutriplan",
		Version: "0.3.0",

		LLM: LLMConfig{
			Provider: "gemini",
			Model:    DefaultGeminiModel,
			Timeout:  "30s",
		},

		Storage: StorageConfig{
			Driver:       DriverSQLite,
			DatabasePath: filepath.Join(DefaultDir(), "nutriplan.db"),
			BusyTimeout:  "5s",
		},

		Server: ServerConfig{
			Addr:            "127.0.0.1:8787",
			AllowedOrigins:  []string{"http://localhost:*", "http://127.0.0.1:*"},
			ReadTimeout:     "10s",
			WriteTimeout:    "60s",
			ShutdownTimeout: "5s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may carry an API key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if model := os.Getenv("NUTRI_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if url := os.Getenv("NUTRI_GEMINI_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if path := os.Getenv("NUTRI_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
	if addr := os.Getenv("NUTRI_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("NUTRI_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// GetLLMTimeout returns the recommendation call timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 30*time.Second)
}

// GetBusyTimeout returns the SQLite busy timeout as a duration.
func (c *Config) GetBusyTimeout() time.Duration {
	return parseDuration(c.Storage.BusyTimeout, 5*time.Second)
}

// GetReadTimeout returns the HTTP read timeout.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 10*time.Second)
}

// GetWriteTimeout returns the HTTP write timeout. It must outlive the LLM
// timeout or recommendation responses get cut off.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 60*time.Second)
}

// GetShutdownTimeout returns the graceful shutdown budget.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 5*time.Second)
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"gemini"}

// ValidDrivers lists the supported storage drivers.
var ValidDrivers = []string{DriverSQLite, DriverSQLite3}

// Validate validates the configuration. A missing API key is not an error;
// recommendations fall back to the built-in list without one.
func (c *Config) Validate() error {
	if !contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if !contains(ValidDrivers, c.Storage.Driver) {
		return fmt.Errorf("invalid storage driver: %s (valid: %v)", c.Storage.Driver, ValidDrivers)
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path must not be empty")
	}
	for name, v := range map[string]string{
		"llm.timeout":             c.LLM.Timeout,
		"storage.busy_timeout":    c.Storage.BusyTimeout,
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
