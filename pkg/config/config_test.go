package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test-config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return configPath
}

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		configContent := `
server:
  listen: ":9090"
  timeout: 45s

client:
  api_url: http://api.example.com
  quiet_period: 1s
  min_display: 2s

import:
  max_workers: 3
  feeds:
    - url: https://example.com/tech.xml
      category: Technology
    - url: https://example.com/science.xml
      category: Science
`
		cfg, err := Load(writeConfig(t, configContent))
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, ":9090", cfg.Server.Listen)
		assert.Equal(t, 45*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "http://api.example.com", cfg.Client.APIURL)
		assert.Equal(t, time.Second, cfg.Client.QuietPeriod)
		assert.Equal(t, 2*time.Second, cfg.Client.MinDisplay)
		assert.Equal(t, 3, cfg.Import.MaxWorkers)
		require.Len(t, cfg.Import.Feeds, 2)
		assert.Equal(t, FeedConfig{URL: "https://example.com/tech.xml", Category: "Technology"}, cfg.Import.Feeds[0])
		assert.Equal(t, FeedConfig{URL: "https://example.com/science.xml", Category: "Science"}, cfg.Import.Feeds[1])
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "server:\n  listen: \":8081\"\n"))
		require.NoError(t, err)

		assert.Equal(t, ":8081", cfg.Server.Listen)
		assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "file:readrec.db?cache=shared&mode=rwc&_txlock=immediate", cfg.Database.DSN)
		assert.Equal(t, 10, cfg.Database.MaxOpenConns)
		assert.InDelta(t, 0.3, cfg.LLM.Temperature, 0.001)
		assert.Equal(t, 500, cfg.LLM.MaxTokens)
		assert.False(t, cfg.LLM.Enabled)
		assert.Equal(t, "http://localhost:8080", cfg.Client.APIURL)
		assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
		assert.Equal(t, 500*time.Millisecond, cfg.Client.QuietPeriod)
		assert.Equal(t, 5*time.Second, cfg.Client.MinDisplay)
		assert.Equal(t, uint32(5), cfg.Client.BreakerFailures)
		assert.Equal(t, 5, cfg.Import.MaxWorkers)
		assert.Equal(t, "Readrec/1.0", cfg.Import.UserAgent)
		assert.Zero(t, cfg.Import.Interval)
	})

	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("READREC_TEST_KEY", "secret-key")
		configContent := `
llm:
  enabled: true
  endpoint: https://api.openai.com/v1
  api_key: ${READREC_TEST_KEY}
  model: gpt-4o-mini
`
		cfg, err := Load(writeConfig(t, configContent))
		require.NoError(t, err)
		assert.Equal(t, "secret-key", cfg.LLM.APIKey)
		assert.True(t, cfg.LLM.Enabled)
	})

	t.Run("enabled llm without model", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "llm:\n  enabled: true\n  endpoint: http://localhost:1234\n"))
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "llm.model is required")
	})

	t.Run("feed without category", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "import:\n  feeds:\n    - url: https://example.com/feed.xml\n"))
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "import.feeds[0].category is required")
	})

	t.Run("file not found", func(t *testing.T) {
		cfg, err := Load("/non/existent/file.yml")
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configContent := `
invalid yaml content
  with bad indentation
    and no structure
`
		cfg, err := Load(writeConfig(t, configContent))
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "parse config")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", modify: func(*Config) {}},
		{name: "bad temperature", modify: func(c *Config) { c.LLM.Temperature = 3 }, wantErr: "llm.temperature"},
		{name: "bad api url", modify: func(c *Config) { c.Client.APIURL = "not a url" }, wantErr: "client.api_url"},
		{name: "negative quiet period", modify: func(c *Config) { c.Client.QuietPeriod = -time.Second }, wantErr: "non-negative"},
		{name: "no workers", modify: func(c *Config) { c.Import.MaxWorkers = 0 }, wantErr: "import.max_workers"},
		{name: "short server timeout", modify: func(c *Config) { c.Server.Timeout = time.Millisecond }, wantErr: "server timeout"},
		{name: "feed without url", modify: func(c *Config) {
			c.Import.Feeds = []FeedConfig{{Category: "science"}}
		}, wantErr: "import.feeds[0].url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
