// Package config loads the career agent configuration from defaults, an
// optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonathan/career-assistant/internal/llm"
)

// EnvPrefix is prepended to every environment override, e.g.
// CAREER_SERVER_PORT for server.port.
const EnvPrefix = "CAREER"

// Session store backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Workflow item sources
const (
	ItemSourceDemo      = "demo"
	ItemSourceGenerated = "generated"
)

// Config is the complete agent configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Workflows WorkflowsConfig `mapstructure:"workflows"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port      int             `mapstructure:"port"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig bounds chat turns per user: Limit turns per Window, with
// up to Burst at once.
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
	Burst   int           `mapstructure:"burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// LLMConfig selects the completion provider. Empty model names keep the
// provider defaults.
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"`
	APIKey          string        `mapstructure:"api_key"`
	Models          ModelsConfig  `mapstructure:"models"`
	ClassifyTimeout time.Duration `mapstructure:"classify_timeout"`
	GenerateTimeout time.Duration `mapstructure:"generate_timeout"`
}

type ModelsConfig struct {
	Lite     string `mapstructure:"lite"`
	Standard string `mapstructure:"standard"`
	Advanced string `mapstructure:"advanced"`
}

type SessionsConfig struct {
	Backend        string        `mapstructure:"backend"`
	TTL            time.Duration `mapstructure:"ttl"`
	RedisURL       string        `mapstructure:"redis_url"`
	KeyPrefix      string        `mapstructure:"key_prefix"`
	SerializeTurns bool          `mapstructure:"serialize_turns"`
}

// DatabaseConfig points at the profile database. FetchTimeout bounds the
// per-turn user context lookup.
type DatabaseConfig struct {
	URL          string        `mapstructure:"url"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

type WorkflowsConfig struct {
	ItemSource string `mapstructure:"item_source"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.limit", 30)
	v.SetDefault("server.rate_limit.window", time.Minute)
	v.SetDefault("server.rate_limit.burst", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("llm.provider", string(llm.ProviderGemini))
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.models.lite", "")
	v.SetDefault("llm.models.standard", "")
	v.SetDefault("llm.models.advanced", "")
	v.SetDefault("llm.classify_timeout", llm.DefaultClassifyTimeout)
	v.SetDefault("llm.generate_timeout", llm.DefaultGenerateTimeout)
	v.SetDefault("sessions.backend", BackendMemory)
	v.SetDefault("sessions.ttl", 24*time.Hour)
	v.SetDefault("sessions.redis_url", "")
	v.SetDefault("sessions.key_prefix", "career:session:")
	v.SetDefault("sessions.serialize_turns", false)
	v.SetDefault("database.url", "")
	v.SetDefault("database.fetch_timeout", 2*time.Second)
	v.SetDefault("workflows.item_source", ItemSourceDemo)
	v.SetDefault("tracing.enabled", false)
}

// Load reads the configuration. When path is empty, career-agent.yaml in
// the working directory is used if present. Environment variables override
// file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names shared with the rest of the tooling
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("sessions.redis_url", EnvPrefix+"_SESSIONS_REDIS_URL", "REDIS_URL")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("career-agent")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that Load cannot type-check
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535")
	}
	if rl := c.Server.RateLimit; rl.Limit < 0 || rl.Burst < 0 || rl.Window < 0 {
		return fmt.Errorf("config error: 'server.rate_limit' values must be non-negative")
	}

	switch llm.Provider(c.LLM.Provider) {
	case llm.ProviderGemini, llm.ProviderAnthropic, llm.ProviderOpenAI:
	default:
		return fmt.Errorf("config error: unknown 'llm.provider' %q", c.LLM.Provider)
	}
	if c.LLM.ClassifyTimeout < 0 || c.LLM.GenerateTimeout < 0 {
		return fmt.Errorf("config error: llm timeouts must be non-negative")
	}
	if c.Database.FetchTimeout < 0 {
		return fmt.Errorf("config error: 'database.fetch_timeout' must be non-negative")
	}

	switch c.Sessions.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Sessions.RedisURL == "" {
			return fmt.Errorf("config error: 'sessions.redis_url' is required for the redis backend")
		}
	default:
		return fmt.Errorf("config error: unknown 'sessions.backend' %q", c.Sessions.Backend)
	}
	if c.Sessions.TTL < 0 {
		return fmt.Errorf("config error: 'sessions.ttl' must be non-negative")
	}

	switch c.Workflows.ItemSource {
	case ItemSourceDemo:
	case ItemSourceGenerated:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("config error: 'workflows.item_source' generated requires an API key")
		}
	default:
		return fmt.Errorf("config error: unknown 'workflows.item_source' %q", c.Workflows.ItemSource)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config error: unknown 'log.format' %q", c.Log.Format)
	}
	return nil
}

// ModelConfig returns the provider defaults with any configured model
// overrides applied
func (c LLMConfig) ModelConfig() *llm.Config {
	cfg := llm.ConfigFor(llm.Provider(c.Provider))
	overrides := map[llm.ModelTier]string{
		llm.TierLite:     c.Models.Lite,
		llm.TierStandard: c.Models.Standard,
		llm.TierAdvanced: c.Models.Advanced,
	}
	for tier, model := range overrides {
		if model != "" {
			cfg = cfg.WithModel(tier, model)
		}
	}
	return cfg
}
