package config

import "time"

// Duration accepts "5s"-style strings or integer nanoseconds in YAML.
type Duration struct {
	Duration time.Duration
}

type HTTPConfig struct {
	Addr              string   `yaml:"addr"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	IdleTimeout       Duration `yaml:"idle_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `yaml:"max_request_bytes"`
	AllowOrigins      []string `yaml:"allow_origins"`
}

type CompletionConfig struct {
	// Engine is "mock" or "oai_http".
	Engine string `yaml:"engine"`

	// BaseURL and APIKey address an OpenAI-compatible chat completions server.
	BaseURL             string `yaml:"base_url,omitempty"`
	APIKey              string `yaml:"api_key,omitempty"`
	Model               string `yaml:"model,omitempty"`
	ChatCompletionsPath string `yaml:"chat_completions_path,omitempty"`

	Timeout     Duration `yaml:"timeout,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty"`
	Temperature float64  `yaml:"temperature,omitempty"`
}

type SessionConfig struct {
	// ContextWindow is how many prior transcript messages go into a prompt.
	ContextWindow int      `yaml:"context_window"`
	IdleTTL       Duration `yaml:"idle_ttl"`
	ReapInterval  Duration `yaml:"reap_interval"`

	// Secret signs session tokens. Empty means a random per-process secret.
	Secret   string   `yaml:"secret,omitempty"`
	TokenTTL Duration `yaml:"token_ttl"`
}

type RealtimeConfig struct {
	// RedisAddr enables cross-instance fan-out of session events.
	RedisAddr    string `yaml:"redis_addr,omitempty"`
	RedisChannel string `yaml:"redis_channel,omitempty"`
}

type VoiceConfig struct {
	// Provider is "none" or "gcp".
	Provider     string `yaml:"provider"`
	LanguageCode string `yaml:"language_code"`
}

type PricingConfig struct {
	UrgentSurcharge float64                   `yaml:"urgent_surcharge"`
	Currency        string                    `yaml:"currency"`
	Rates           map[string]map[string]int `yaml:"rates,omitempty"`
}

type AssistantConfig struct {
	Name            string `yaml:"name"`
	Persona         string `yaml:"persona,omitempty"`
	FallbackMessage string `yaml:"fallback_message,omitempty"`
}

type Config struct {
	Env        string           `yaml:"env"`
	HTTP       HTTPConfig       `yaml:"http"`
	Completion CompletionConfig `yaml:"completion"`
	Session    SessionConfig    `yaml:"session"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	Voice      VoiceConfig      `yaml:"voice"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Assistant  AssistantConfig  `yaml:"assistant"`
}
