package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv pins every variable the package reads to empty so host
// machines with real keys do not leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RAMPART_LISTEN", "RAMPART_ENV", "RAMPART_LOG_LEVEL",
		"RAMPART_LLM_PROVIDER", "RAMPART_LLM_API_KEY", "GROQ_API_KEY",
		"OPENROUTER_API_KEY", "OPENAI_API_KEY", "RAMPART_LLM_MODEL",
		"RAMPART_LLM_BASE_URL", "RAMPART_SYSTEM_PROMPT", "RAMPART_MAX_TOKENS",
		"RAMPART_TEMPERATURE", "RAMPART_OLLAMA_URL", "RAMPART_DECOY_MODEL",
		"RAMPART_DECOY_FALLBACK_MODEL", "RAMPART_DECOY_TIMEOUT",
		"RAMPART_REDIS_URL", "RAMPART_POSTGRES_DSN", "RAMPART_SESSION_TTL",
		"RAMPART_SEED_FILE", "RAMPART_WATCH_SEEDS", "RAMPART_ADAPTIVE_STORE",
		"RAMPART_SWEEP_SCHEDULE", "RAMPART_ENABLE_HONEYPOT",
		"RAMPART_ENABLE_ADAPTIVE", "RAMPART_EVENT_BUFFER",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultsWithoutEnvironment(t *testing.T) {
	clearEnv(t)
	cfg := NewDefaultConfig()

	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("Provider = %q, want ollama when no keys are present", cfg.Provider)
	}
	if cfg.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.MaxTokens != 1024 || cfg.Temperature != 0.7 {
		t.Errorf("generation limits = %d/%f", cfg.MaxTokens, cfg.Temperature)
	}
	if cfg.OllamaURL != "http://localhost:11434" || cfg.DecoyModel != "phi3:mini" {
		t.Errorf("decoy settings = %q/%q", cfg.OllamaURL, cfg.DecoyModel)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.SweepSchedule != "@every 1h" {
		t.Errorf("SweepSchedule = %q", cfg.SweepSchedule)
	}
	if !cfg.EnableHoneypot || !cfg.EnableAdaptive || !cfg.WatchSeeds {
		t.Error("feature flags must default on")
	}
	if cfg.EventBuffer != 64 {
		t.Errorf("EventBuffer = %d", cfg.EventBuffer)
	}
	if cfg.RedisURL != "" || cfg.PostgresDSN != "" {
		t.Error("external backends must default off")
	}
	if cfg.IsProduction() {
		t.Error("development must not report production")
	}
}

func TestDetectProviderFromKeys(t *testing.T) {
	tests := []struct {
		name     string
		envKey   string
		want     LLMProvider
		wantAPIK string
	}{
		{"groq key", "GROQ_API_KEY", ProviderGroq, "sk-test"},
		{"openrouter key", "OPENROUTER_API_KEY", ProviderOpenRouter, "sk-test"},
		{"openai key", "OPENAI_API_KEY", ProviderOpenAI, "sk-test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.envKey, "sk-test")

			cfg := NewDefaultConfig()
			if cfg.Provider != tt.want {
				t.Errorf("Provider = %q, want %q", cfg.Provider, tt.want)
			}
			if cfg.APIKey != tt.wantAPIK {
				t.Errorf("APIKey = %q, want %q", cfg.APIKey, tt.wantAPIK)
			}
		})
	}

	t.Run("explicit provider wins over keys", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GROQ_API_KEY", "sk-test")
		t.Setenv("RAMPART_LLM_PROVIDER", "none")

		if cfg := NewDefaultConfig(); cfg.Provider != ProviderNone {
			t.Errorf("Provider = %q, want explicit none", cfg.Provider)
		}
	})
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RAMPART_LISTEN", ":9999")
	t.Setenv("RAMPART_MAX_TOKENS", "256")
	t.Setenv("RAMPART_TEMPERATURE", "0.1")
	t.Setenv("RAMPART_SESSION_TTL", "30m")
	t.Setenv("RAMPART_WATCH_SEEDS", "false")
	t.Setenv("RAMPART_ENV", "production")

	cfg := NewDefaultConfig()
	if cfg.ListenAddr != ":9999" || cfg.MaxTokens != 256 || cfg.Temperature != 0.1 {
		t.Errorf("overrides not applied: %q/%d/%f", cfg.ListenAddr, cfg.MaxTokens, cfg.Temperature)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.WatchSeeds {
		t.Error("WatchSeeds override to false not applied")
	}
	if !cfg.IsProduction() {
		t.Error("production environment not detected")
	}
}

func TestLoadFileOverlayPrecedence(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "rampart.yaml")
	content := `
listen: ":7070"
model: "mixtral-8x7b-32768"
session_ttl: "45m"
watch_seeds: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RAMPART_LISTEN", ":6060")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.ListenAddr != ":6060" {
		t.Errorf("ListenAddr = %q, env must beat the file", cfg.ListenAddr)
	}
	if cfg.Model != "mixtral-8x7b-32768" {
		t.Errorf("Model = %q, file must beat the default", cfg.Model)
	}
	if cfg.SessionTTL != 45*time.Minute {
		t.Errorf("SessionTTL = %v, yaml duration not parsed", cfg.SessionTTL)
	}
	if cfg.WatchSeeds {
		t.Error("file watch_seeds: false not applied")
	}
	if cfg.MaxTokens != 1024 {
		t.Errorf("MaxTokens = %d, untouched fields must keep defaults", cfg.MaxTokens)
	}
}

func TestLoadFileErrors(t *testing.T) {
	clearEnv(t)

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	os.WriteFile(path, []byte("listen: [unclosed"), 0o644)
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestLocalPreset(t *testing.T) {
	clearEnv(t)
	cfg := NewLocalConfig()

	if cfg.Provider != ProviderOllama {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.Model != "qwen2.5:7b" || cfg.APIKey != "" {
		t.Errorf("local generation = %q/%q", cfg.Model, cfg.APIKey)
	}
	if cfg.RedisURL != "" || cfg.PostgresDSN != "" {
		t.Error("local preset must not reach external backends")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("local preset invalid: %v", err)
	}
}

func TestHighSecurityPreset(t *testing.T) {
	clearEnv(t)
	cfg := NewHighSecurityConfig()

	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.SweepSchedule != "@every 15m" {
		t.Errorf("SweepSchedule = %q", cfg.SweepSchedule)
	}
	if cfg.MaxTokens != 512 || cfg.Temperature != 0.2 {
		t.Errorf("generation limits = %d/%f", cfg.MaxTokens, cfg.Temperature)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("high-security preset invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
		{"unknown provider", func(c *Config) { c.Provider = "bedrock" }, "provider"},
		{"custom without base url", func(c *Config) { c.Provider = ProviderCustom; c.BaseURL = "" }, "base_url"},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, "max_tokens"},
		{"temperature out of range", func(c *Config) { c.Temperature = 2.5 }, "temperature"},
		{"negative decoy timeout", func(c *Config) { c.DecoyTimeout = -time.Second }, "decoy_timeout"},
		{"zero session ttl", func(c *Config) { c.SessionTTL = 0 }, "session_ttl"},
		{"zero event buffer", func(c *Config) { c.EventBuffer = 0 }, "event_buffer"},
		{"bad sweep spec", func(c *Config) { c.SweepSchedule = "every hour or so" }, "sweep_schedule"},
		{"production cloud without key", func(c *Config) {
			c.Environment = "production"
			c.Provider = ProviderGroq
			c.APIKey = ""
		}, "api_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation failure")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %v is not a ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}

	t.Run("production ollama needs no key", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Environment = "production"
		cfg.Provider = ProviderOllama
		cfg.APIKey = ""
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})
}

func TestChatBaseURL(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		provider LLMProvider
		baseURL  string
		want     string
	}{
		{ProviderGroq, "", ""},
		{ProviderOpenRouter, "", "https://openrouter.ai/api/v1"},
		{ProviderOpenAI, "", "https://api.openai.com/v1"},
		{ProviderOpenAI, "http://proxy:9000/v1", "http://proxy:9000/v1"},
	}

	for _, tt := range tests {
		cfg := NewDefaultConfig()
		cfg.Provider = tt.provider
		cfg.BaseURL = tt.baseURL
		if got := cfg.ChatBaseURL(); got != tt.want {
			t.Errorf("ChatBaseURL(%s, %q) = %q, want %q", tt.provider, tt.baseURL, got, tt.want)
		}
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BOOL_BAD", "yep")
	t.Setenv("TEST_FLOAT", "0.42")
	t.Setenv("TEST_INT", "17")
	t.Setenv("TEST_INT_BAD", "seventeen")
	t.Setenv("TEST_DUR", "90s")
	t.Setenv("TEST_SLICE", "a, b ,,c")

	if got := GetEnv("TEST_STR", "d"); got != "value" {
		t.Errorf("GetEnv = %q", got)
	}
	if got := GetEnv("TEST_ABSENT", "d"); got != "d" {
		t.Errorf("GetEnv absent = %q", got)
	}
	if !GetEnvBool("TEST_BOOL", false) {
		t.Error("GetEnvBool true not parsed")
	}
	if GetEnvBool("TEST_BOOL_BAD", false) {
		t.Error("GetEnvBool must ignore unparseable values")
	}
	if got := GetEnvFloat("TEST_FLOAT", 0); got != 0.42 {
		t.Errorf("GetEnvFloat = %f", got)
	}
	if got := GetEnvInt("TEST_INT", 0); got != 17 {
		t.Errorf("GetEnvInt = %d", got)
	}
	if got := GetEnvInt("TEST_INT_BAD", 3); got != 3 {
		t.Errorf("GetEnvInt bad = %d, want default", got)
	}
	if got := GetEnvDuration("TEST_DUR", 0); got != 90*time.Second {
		t.Errorf("GetEnvDuration = %v", got)
	}
	got := GetEnvSlice("TEST_SLICE", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("GetEnvSlice = %v", got)
	}
	if got := GetEnvSlice("TEST_ABSENT", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Errorf("GetEnvSlice absent = %v", got)
	}
}
