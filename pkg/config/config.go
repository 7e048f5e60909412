package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:readrec.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	LLM LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for recommendation ranking"`

	Client ClientConfig `yaml:"client" json:"client" jsonschema:"description=Browse client configuration"`

	Import ImportConfig `yaml:"import" json:"import" jsonschema:"description=Article catalog import configuration"`
}

// LLMConfig holds LLM configuration for recommendation ranking
type LLMConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Rank recommendations with the LLM"`
	Endpoint     string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=OpenAI-compatible API endpoint"`
	APIKey       string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Model        string        `yaml:"model" json:"model" jsonschema:"description=Model name (e.g. gpt-4o-mini or llama3)"`
	Temperature  float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.3,description=Temperature for response generation"`
	MaxTokens    int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=500,description=Maximum tokens in response"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
	SystemPrompt string        `yaml:"system_prompt" json:"system_prompt" jsonschema:"description=System prompt for the LLM (optional)"`
	UseJSONMode  bool          `yaml:"use_json_mode" json:"use_json_mode" jsonschema:"default=false,description=Use JSON response format (not all models support this)"`
}

// ClientConfig holds settings of the browse client
type ClientConfig struct {
	APIURL          string        `yaml:"api_url" json:"api_url" jsonschema:"default=http://localhost:8080,description=Article service root URL"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Request timeout"`
	QuietPeriod     time.Duration `yaml:"quiet_period" json:"quiet_period" jsonschema:"default=500ms,description=Debounce of recommendation refresh"`
	MinDisplay      time.Duration `yaml:"min_display" json:"min_display" jsonschema:"default=5s,description=Minimal analyzing indicator time"`
	BreakerFailures uint32        `yaml:"breaker_failures" json:"breaker_failures" jsonschema:"default=5,description=Consecutive recommendation failures opening the circuit breaker"`
}

// FeedConfig is a single catalog source
type FeedConfig struct {
	URL      string `yaml:"url" json:"url" jsonschema:"required,description=Feed URL"`
	Category string `yaml:"category" json:"category" jsonschema:"required,description=Category assigned to feed articles"`
}

// ImportConfig holds catalog import settings
type ImportConfig struct {
	Feeds          []FeedConfig  `yaml:"feeds" json:"feeds" jsonschema:"description=Feeds to import"`
	Interval       time.Duration `yaml:"interval" json:"interval" jsonschema:"default=0s,description=Import interval in server mode, 0 disables periodic import"`
	MaxWorkers     int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=5,description=Maximum concurrent feed workers"`
	ExtractContent bool          `yaml:"extract_content" json:"extract_content" jsonschema:"default=false,description=Extract full article content"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Fetch timeout per feed or article"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Readrec/1.0,description=User agent for HTTP requests"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		return nil, fmt.Errorf("verify config: %w", err)
	}

	return &cfg, nil
}

// Default returns configuration with all defaults set, used when no config file is given
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	// set defaults for server
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}

	// set defaults for database
	if c.Database.DSN == "" {
		c.Database.DSN = "file:readrec.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 3600
	}

	// set defaults for LLM
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 500
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 30 * time.Second
	}

	// set defaults for client
	if c.Client.APIURL == "" {
		c.Client.APIURL = "http://localhost:8080"
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = 10 * time.Second
	}
	if c.Client.QuietPeriod == 0 {
		c.Client.QuietPeriod = 500 * time.Millisecond
	}
	if c.Client.MinDisplay == 0 {
		c.Client.MinDisplay = 5 * time.Second
	}
	if c.Client.BreakerFailures == 0 {
		c.Client.BreakerFailures = 5
	}

	// set defaults for import
	if c.Import.MaxWorkers == 0 {
		c.Import.MaxWorkers = 5
	}
	if c.Import.Timeout == 0 {
		c.Import.Timeout = 30 * time.Second
	}
	if c.Import.UserAgent == "" {
		c.Import.UserAgent = "Readrec/1.0"
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	// validate LLM config
	if cfg.LLM.Enabled {
		if cfg.LLM.Endpoint == "" {
			return fmt.Errorf("llm.endpoint is required")
		}
		if cfg.LLM.Model == "" {
			return fmt.Errorf("llm.model is required")
		}
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}

	// validate client config
	if _, err := url.ParseRequestURI(cfg.Client.APIURL); err != nil {
		return fmt.Errorf("client.api_url is invalid: %w", err)
	}
	if cfg.Client.QuietPeriod < 0 || cfg.Client.MinDisplay < 0 {
		return fmt.Errorf("client delays must be non-negative")
	}

	// validate import config
	for i, f := range cfg.Import.Feeds {
		if f.URL == "" {
			return fmt.Errorf("import.feeds[%d].url is required", i)
		}
		if f.Category == "" {
			return fmt.Errorf("import.feeds[%d].category is required", i)
		}
	}
	if cfg.Import.MaxWorkers < 1 {
		return fmt.Errorf("import.max_workers must be at least 1")
	}

	// validate server config
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}
