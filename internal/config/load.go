package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/websy-backend/internal/platform/envutil"
)

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	s := strings.TrimSpace(value.Value)
	if s == "" || s == "null" || s == "~" {
		d.Duration = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		d.Duration = time.Duration(n)
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration must be a string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = dd
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
			MaxRequestBytes:   10 << 20,
			AllowOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
		},
		Completion: CompletionConfig{
			Engine:              "mock",
			Model:               "gpt-4o-mini",
			ChatCompletionsPath: "/v1/chat/completions",
			Timeout:             Duration{Duration: 30 * time.Second},
			MaxTokens:           500,
			Temperature:         0.7,
		},
		Session: SessionConfig{
			ContextWindow: 10,
			IdleTTL:       Duration{Duration: 30 * time.Minute},
			ReapInterval:  Duration{Duration: time.Minute},
			TokenTTL:      Duration{Duration: 12 * time.Hour},
		},
		Realtime: RealtimeConfig{RedisChannel: "websy-events"},
		Voice:    VoiceConfig{Provider: "none", LanguageCode: "es-ES"},
		Pricing:  PricingConfig{UrgentSurcharge: 1.3, Currency: "€"},
		Assistant: AssistantConfig{
			Name: "Websy",
		},
	}
}

// Load reads defaults, then the YAML file, then environment overrides.
func Load() (*Config, error) {
	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(os.Getenv("WEBSY_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "websy.yaml")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}
	if cfgPath != "" {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfgPath, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)
	cfg.HTTP.Addr = envutil.String("WEBSY_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.AllowOrigins = envutil.List("WEBSY_ALLOW_ORIGINS", cfg.HTTP.AllowOrigins)

	cfg.Completion.Engine = envutil.String("WEBSY_COMPLETION_ENGINE", cfg.Completion.Engine)
	cfg.Completion.BaseURL = envutil.String("OPENAI_BASE_URL", cfg.Completion.BaseURL)
	cfg.Completion.APIKey = envutil.String("OPENAI_API_KEY", cfg.Completion.APIKey)
	cfg.Completion.Model = envutil.String("OPENAI_MODEL", cfg.Completion.Model)
	cfg.Completion.MaxTokens = envutil.Int("WEBSY_MAX_TOKENS", cfg.Completion.MaxTokens)

	cfg.Session.ContextWindow = envutil.Int("WEBSY_CONTEXT_WINDOW", cfg.Session.ContextWindow)
	cfg.Session.Secret = envutil.String("WEBSY_SESSION_SECRET", cfg.Session.Secret)
	cfg.Session.IdleTTL.Duration = envutil.Duration("WEBSY_SESSION_IDLE_TTL", cfg.Session.IdleTTL.Duration)

	cfg.Realtime.RedisAddr = envutil.String("REDIS_ADDR", cfg.Realtime.RedisAddr)
	cfg.Realtime.RedisChannel = envutil.String("REDIS_CHANNEL", cfg.Realtime.RedisChannel)

	cfg.Voice.Provider = envutil.String("WEBSY_VOICE_PROVIDER", cfg.Voice.Provider)
}

func (cfg *Config) normalize() error {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 10 << 20
	}
	if cfg.HTTP.ShutdownTimeout.Duration <= 0 {
		cfg.HTTP.ShutdownTimeout = Duration{Duration: 15 * time.Second}
	}

	c := &cfg.Completion
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	switch c.Engine {
	case "", "mock":
		c.Engine = "mock"
	case "openai_http", "oai_http":
		c.Engine = "oai_http"
		if c.BaseURL == "" {
			c.BaseURL = "https://api.openai.com"
		}
		if strings.TrimSpace(c.ChatCompletionsPath) == "" {
			c.ChatCompletionsPath = "/v1/chat/completions"
		}
		if strings.TrimSpace(c.Model) == "" {
			return errors.New("completion.model is required for oai_http")
		}
		if c.Timeout.Duration <= 0 {
			c.Timeout = Duration{Duration: 30 * time.Second}
		}
	default:
		return fmt.Errorf("invalid completion.engine=%q", c.Engine)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("completion.max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("completion.temperature out of range: %v", c.Temperature)
	}

	if cfg.Session.ContextWindow <= 0 {
		return fmt.Errorf("session.context_window must be positive, got %d", cfg.Session.ContextWindow)
	}
	if cfg.Session.IdleTTL.Duration <= 0 {
		cfg.Session.IdleTTL = Duration{Duration: 30 * time.Minute}
	}
	if cfg.Session.ReapInterval.Duration <= 0 {
		cfg.Session.ReapInterval = Duration{Duration: time.Minute}
	}
	if cfg.Session.TokenTTL.Duration <= 0 {
		cfg.Session.TokenTTL = Duration{Duration: 12 * time.Hour}
	}

	if strings.TrimSpace(cfg.Realtime.RedisChannel) == "" {
		cfg.Realtime.RedisChannel = "websy-events"
	}

	cfg.Voice.Provider = strings.ToLower(strings.TrimSpace(cfg.Voice.Provider))
	switch cfg.Voice.Provider {
	case "", "none":
		cfg.Voice.Provider = "none"
	case "gcp":
	default:
		return fmt.Errorf("invalid voice.provider=%q", cfg.Voice.Provider)
	}
	if strings.TrimSpace(cfg.Voice.LanguageCode) == "" {
		cfg.Voice.LanguageCode = "es-ES"
	}

	if cfg.Pricing.UrgentSurcharge < 1 {
		return fmt.Errorf("pricing.urgent_surcharge must be >= 1, got %v", cfg.Pricing.UrgentSurcharge)
	}
	for svc, tiers := range cfg.Pricing.Rates {
		for tier, price := range tiers {
			if price < 0 {
				return fmt.Errorf("pricing.rates.%s.%s is negative", svc, tier)
			}
		}
	}

	if strings.TrimSpace(cfg.Assistant.Name) == "" {
		cfg.Assistant.Name = "Websy"
	}
	return nil
}

