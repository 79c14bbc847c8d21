package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resumetailor.toml")
	require.NoError(t, InitConfig(path))

	t.Setenv("TAILOR_AI__API_KEY", "from-env")
	t.Setenv("TAILOR_SERVER__PORT", "9090")
	t.Setenv("TAILOR_AI__REQUESTS_PER_MINUTE", "3")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.AI.APIKey)
	assert.Equal(t, 3, cfg.AI.RequestsPerMinute)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, 2*time.Minute, cfg.AI.Timeout)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "./data/artifacts", cfg.Storage.ArtifactsDir)

	assert.NoError(t, Validate(cfg))
}

func TestInitConfig_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resumetailor.toml")
	require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0644))

	assert.Error(t, InitConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(data))
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8888},
			Storage: StorageConfig{DocumentsDir: "u", ArtifactsDir: "a"},
			AI:      AIConfig{Provider: "openai", Model: "gpt-4o-mini", APIKey: "k", Temperature: 0.2},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "port"},
		{name: "no documents dir", mutate: func(c *Config) { c.Storage.DocumentsDir = "" }, wantErr: "documents_dir"},
		{name: "unknown provider", mutate: func(c *Config) { c.AI.Provider = "eliza" }, wantErr: "unsupported"},
		{name: "missing key", mutate: func(c *Config) { c.AI.APIKey = "" }, wantErr: "api_key"},
		{
			name: "ollama needs base url not key",
			mutate: func(c *Config) {
				c.AI.Provider = "ollama"
				c.AI.APIKey = ""
				c.AI.BaseURL = "http://localhost:11434"
			},
		},
		{name: "hot temperature", mutate: func(c *Config) { c.AI.Temperature = 3 }, wantErr: "temperature"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "shouty" }, wantErr: "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
