// Package config holds the gateway's runtime settings. Configuration is
// environment-first: every field has a default, an optional YAML overlay
// can replace it, and a RAMPART_* environment variable wins over both.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// LLMProvider selects the primary generation backend.
type LLMProvider string

const (
	ProviderNone       LLMProvider = "none"       // no generation, canned replies only
	ProviderOllama     LLMProvider = "ollama"     // local Ollama daemon
	ProviderGroq       LLMProvider = "groq"       // Groq cloud (default when a key is present)
	ProviderOpenRouter LLMProvider = "openrouter" // OpenRouter
	ProviderOpenAI     LLMProvider = "openai"     // direct OpenAI API
	ProviderCustom     LLMProvider = "custom"     // any OpenAI-compatible endpoint
)

// Config holds all gateway settings.
type Config struct {
	// Core
	ListenAddr  string `yaml:"listen"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	// Primary generation
	Provider     LLMProvider `yaml:"provider"`
	APIKey       string      `yaml:"api_key"`
	Model        string      `yaml:"model"`
	BaseURL      string      `yaml:"base_url"`
	SystemPrompt string      `yaml:"system_prompt"`
	MaxTokens    int         `yaml:"max_tokens"`
	Temperature  float64     `yaml:"temperature"`

	// Decoy generation for honeypot sessions
	OllamaURL          string        `yaml:"ollama_url"`
	DecoyModel         string        `yaml:"decoy_model"`
	DecoyFallbackModel string        `yaml:"decoy_fallback_model"`
	DecoyTimeout       time.Duration `yaml:"decoy_timeout"`

	// State backends. Empty URLs select the in-process fallbacks.
	RedisURL    string        `yaml:"redis_url"`
	PostgresDSN string        `yaml:"postgres_dsn"`
	SessionTTL  time.Duration `yaml:"session_ttl"`

	// Detection
	SeedFile       string `yaml:"seed_file"`
	WatchSeeds     bool   `yaml:"watch_seeds"`
	AdaptiveStore  string `yaml:"adaptive_store"`
	SweepSchedule  string `yaml:"sweep_schedule"`
	EnableHoneypot bool   `yaml:"enable_honeypot"`
	EnableAdaptive bool   `yaml:"enable_adaptive"`

	// Events
	EventBuffer int `yaml:"event_buffer"`
}

func baseDefaults() *Config {
	return &Config{
		ListenAddr:  ":8000",
		Environment: "development",
		LogLevel:    "info",

		Provider:     "", // resolved by applyEnv
		Model:        "llama-3.3-70b-versatile",
		SystemPrompt: "You are a helpful assistant.",
		MaxTokens:    1024,
		Temperature:  0.7,

		OllamaURL:          "http://localhost:11434",
		DecoyModel:         "phi3:mini",
		DecoyFallbackModel: "llama-3.1-8b-instant",
		DecoyTimeout:       10 * time.Second,

		SessionTTL: time.Hour,

		WatchSeeds:     true,
		AdaptiveStore:  "adaptive_patterns.json",
		SweepSchedule:  "@every 1h",
		EnableHoneypot: true,
		EnableAdaptive: true,

		EventBuffer: 64,
	}
}

// NewDefaultConfig builds a config from defaults and environment variables.
func NewDefaultConfig() *Config {
	cfg := baseDefaults()
	cfg.applyEnv()
	return cfg
}

// LoadFile layers a YAML file over the defaults, then applies environment
// overrides on top, so the precedence is env > file > defaults.
func LoadFile(path string) (*Config, error) {
	cfg := baseDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides each field from its environment variable, using the
// current value as the fallback so file-provided settings survive.
func (c *Config) applyEnv() {
	c.ListenAddr = GetEnv("RAMPART_LISTEN", c.ListenAddr)
	c.Environment = GetEnv("RAMPART_ENV", c.Environment)
	c.LogLevel = GetEnv("RAMPART_LOG_LEVEL", c.LogLevel)

	c.Provider = LLMProvider(GetEnv("RAMPART_LLM_PROVIDER", string(c.Provider)))
	if c.Provider == "" {
		c.Provider = detectProvider()
	}
	c.APIKey = GetEnv("RAMPART_LLM_API_KEY",
		GetEnv("GROQ_API_KEY",
			GetEnv("OPENROUTER_API_KEY", GetEnv("OPENAI_API_KEY", c.APIKey))))
	c.Model = GetEnv("RAMPART_LLM_MODEL", c.Model)
	c.BaseURL = GetEnv("RAMPART_LLM_BASE_URL", c.BaseURL)
	c.SystemPrompt = GetEnv("RAMPART_SYSTEM_PROMPT", c.SystemPrompt)
	c.MaxTokens = GetEnvInt("RAMPART_MAX_TOKENS", c.MaxTokens)
	c.Temperature = GetEnvFloat("RAMPART_TEMPERATURE", c.Temperature)

	c.OllamaURL = GetEnv("RAMPART_OLLAMA_URL", c.OllamaURL)
	c.DecoyModel = GetEnv("RAMPART_DECOY_MODEL", c.DecoyModel)
	c.DecoyFallbackModel = GetEnv("RAMPART_DECOY_FALLBACK_MODEL", c.DecoyFallbackModel)
	c.DecoyTimeout = GetEnvDuration("RAMPART_DECOY_TIMEOUT", c.DecoyTimeout)

	c.RedisURL = GetEnv("RAMPART_REDIS_URL", c.RedisURL)
	c.PostgresDSN = GetEnv("RAMPART_POSTGRES_DSN", c.PostgresDSN)
	c.SessionTTL = GetEnvDuration("RAMPART_SESSION_TTL", c.SessionTTL)

	c.SeedFile = GetEnv("RAMPART_SEED_FILE", c.SeedFile)
	c.WatchSeeds = GetEnvBool("RAMPART_WATCH_SEEDS", c.WatchSeeds)
	c.AdaptiveStore = GetEnv("RAMPART_ADAPTIVE_STORE", c.AdaptiveStore)
	c.SweepSchedule = GetEnv("RAMPART_SWEEP_SCHEDULE", c.SweepSchedule)
	c.EnableHoneypot = GetEnvBool("RAMPART_ENABLE_HONEYPOT", c.EnableHoneypot)
	c.EnableAdaptive = GetEnvBool("RAMPART_ENABLE_ADAPTIVE", c.EnableAdaptive)

	c.EventBuffer = GetEnvInt("RAMPART_EVENT_BUFFER", c.EventBuffer)
}

// detectProvider picks a backend from whichever API key is present,
// preferring cloud keys and falling back to a local Ollama.
func detectProvider() LLMProvider {
	if os.Getenv("GROQ_API_KEY") != "" || os.Getenv("RAMPART_LLM_API_KEY") != "" {
		return ProviderGroq
	}
	if os.Getenv("OPENROUTER_API_KEY") != "" {
		return ProviderOpenRouter
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return ProviderOpenAI
	}
	return ProviderOllama
}

// NewLocalConfig is the air-gapped preset: local Ollama for generation,
// in-memory sessions, no external sinks.
func NewLocalConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Provider = ProviderOllama
	cfg.Model = "qwen2.5:7b"
	cfg.APIKey = ""
	cfg.BaseURL = ""
	cfg.RedisURL = ""
	cfg.PostgresDSN = ""
	return cfg
}

// NewHighSecurityConfig tightens the gateway for hostile environments:
// long risk memory, frequent promotion sweeps, short low-temperature
// completions.
func NewHighSecurityConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.SessionTTL = 24 * time.Hour
	cfg.SweepSchedule = "@every 15m"
	cfg.MaxTokens = 512
	cfg.Temperature = 0.2
	cfg.WatchSeeds = true
	return cfg
}

// IsProduction reports whether the environment is a production one.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}

// ChatBaseURL resolves the chat-completions endpoint for cloud providers.
// An explicit BaseURL always wins; an empty return selects the client's
// built-in Groq default.
func (c *Config) ChatBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	switch c.Provider {
	case ProviderOpenRouter:
		return "https://openrouter.ai/api/v1"
	case ProviderOpenAI:
		return "https://api.openai.com/v1"
	default:
		return ""
	}
}

// ValidationError describes a single rejected configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

var validProviders = map[LLMProvider]bool{
	ProviderNone: true, ProviderOllama: true, ProviderGroq: true,
	ProviderOpenRouter: true, ProviderOpenAI: true, ProviderCustom: true,
}

// Validate checks every field and returns all failures joined, each as a
// *ValidationError reachable through errors.As.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, message string) {
		errs = append(errs, &ValidationError{Field: field, Message: message})
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		add("log_level", fmt.Sprintf("unknown level %q", c.LogLevel))
	}
	if !validProviders[c.Provider] {
		add("provider", fmt.Sprintf("unknown provider %q", c.Provider))
	}
	if c.Provider == ProviderCustom && c.BaseURL == "" {
		add("base_url", `required for provider "custom"`)
	}
	if c.MaxTokens < 1 {
		add("max_tokens", "must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		add("temperature", "must be between 0 and 2")
	}
	if c.DecoyTimeout < 0 {
		add("decoy_timeout", "must not be negative")
	}
	if c.SessionTTL <= 0 {
		add("session_ttl", "must be positive")
	}
	if c.EventBuffer < 1 {
		add("event_buffer", "must be positive")
	}
	if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
		add("sweep_schedule", fmt.Sprintf("invalid cron spec %q: %v", c.SweepSchedule, err))
	}

	if c.IsProduction() && c.APIKey == "" {
		switch c.Provider {
		case ProviderGroq, ProviderOpenRouter, ProviderOpenAI, ProviderCustom:
			add("api_key", fmt.Sprintf("required in production for provider %q", c.Provider))
		}
	}

	return errors.Join(errs...)
}

// MustValidate exits the process on invalid configuration. Call before
// the logger exists, which is why it uses the stdlib log.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("configuration validation failed: %v", err)
	}
}

// Environment variable helpers, exported for use by other packages.

// GetEnv returns the value of an environment variable or a default.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool parses a boolean environment variable or returns the default.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat parses a float environment variable or returns the default.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt parses an integer environment variable or returns the default.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvDuration parses a duration environment variable ("45s", "1h") or
// returns the default.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetEnvSlice parses a comma-separated environment variable or returns
// the default. Empty entries are dropped.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
