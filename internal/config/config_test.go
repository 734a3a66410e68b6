package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, DefaultGeminiModel, cfg.LLM.Model)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.False(t, cfg.LLM.HasAPIKey())
	assert.NoError(t, cfg.Validate())
}

func TestLoadParsesYAML(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  model: gemini-2.0-flash
  timeout: 12s
storage:
  driver: sqlite3
  database_path: /tmp/x.db
server:
  addr: ":9999"
logging:
  level: debug
  categories:
    api: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, 12*time.Second, cfg.GetLLMTimeout())
	assert.Equal(t, DriverSQLite3, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.DatabasePath)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.False(t, cfg.Logging.IsCategoryEnabled("api"))
	assert.True(t, cfg.Logging.IsCategoryEnabled("store"))
	// Untouched sections keep their defaults.
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 5*time.Second, cfg.GetShutdownTimeout())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("GEMINI_API_KEY is trimmed and forces gemini", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "  abc123  ")
		cfg := &Config{LLM: LLMConfig{Provider: "other"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "abc123", cfg.LLM.APIKey)
		assert.Equal(t, "gemini", cfg.LLM.Provider)
	})

	t.Run("storage, server and logging", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("NUTRI_DB", "/data/n.db")
		t.Setenv("NUTRI_ADDR", ":1234")
		t.Setenv("NUTRI_LOG_LEVEL", "warn")
		t.Setenv("NUTRI_MODEL", "gemini-x")
		t.Setenv("NUTRI_GEMINI_BASE_URL", "http://localhost:1")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/data/n.db", cfg.Storage.DatabasePath)
		assert.Equal(t, ":1234", cfg.Server.Addr)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, "gemini-x", cfg.LLM.Model)
		assert.Equal(t, "http://localhost:1", cfg.LLM.BaseURL)
	})

	t.Run("empty key leaves file value", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		cfg := &Config{LLM: LLMConfig{APIKey: "from-file"}}
		cfg.applyEnvOverrides()
		assert.Equal(t, "from-file", cfg.LLM.APIKey)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.APIKey = "secret"
	cfg.Server.AllowedOrigins = []string{"http://example.test"}
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad provider", func(c *Config) { c.LLM.Provider = "openai" }, "invalid LLM provider"},
		{"empty model", func(c *Config) { c.LLM.Model = "" }, "llm.model"},
		{"bad driver", func(c *Config) { c.Storage.Driver = "postgres" }, "invalid storage driver"},
		{"empty db path", func(c *Config) { c.Storage.DatabasePath = "" }, "database_path"},
		{"bad duration", func(c *Config) { c.LLM.Timeout = "soon" }, "llm.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 30*time.Second, cfg.GetLLMTimeout())
	assert.Equal(t, 5*time.Second, cfg.GetBusyTimeout())
	assert.Equal(t, 10*time.Second, cfg.GetReadTimeout())
	assert.Equal(t, 60*time.Second, cfg.GetWriteTimeout())

	cfg.LLM.Timeout = "-3s"
	assert.Equal(t, 30*time.Second, cfg.GetLLMTimeout())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("NUTRI_TEST_DOTENV=from-file\n"), 0644))
	t.Setenv("NUTRI_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("NUTRI_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("NUTRI_TEST_DOTENV"))
}
