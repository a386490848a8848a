package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// ErrMissingCredential is returned when the selected provider has no API key.
var ErrMissingCredential = errors.New("missing llm api key")

type Config struct {
	Server     ServerConfig
	LLM        LLMConfigs
	RateLimit  RateLimitConfig
	Cors       CorsConfig
	Monitoring MonitoringConfig
}

type ServerConfig struct {
	Port int
	Mode string
	// TrustedProxies are the peers allowed to set X-Forwarded-For. Empty trusts none.
	TrustedProxies []string
}

type LLMConfigs struct {
	Provider    string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	OpenAI      OpenAIConfig
	Claude      ClaudeConfig
	Gemini      GeminiConfig
}

type OpenAIConfig struct {
	Key     string
	BaseUrl string
}

type ClaudeConfig struct {
	Key string
}

type GeminiConfig struct {
	Key string
}

type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

type CorsConfig struct {
	AllowOrigins []string
}

type MonitoringConfig struct {
	ProjectId    string
	JsonKey      string
	PushInterval time.Duration
}

var envBindings = map[string]string{
	"server.port":             "PORT",
	"server.mode":             "GIN_MODE",
	"server.trustedProxies":   "TRUSTED_PROXIES",
	"llm.provider":            "LLM_PROVIDER",
	"llm.model":               "LLM_MODEL",
	"llm.temperature":         "LLM_TEMPERATURE",
	"llm.maxTokens":           "LLM_MAX_TOKENS",
	"llm.timeout":             "LLM_TIMEOUT",
	"llm.openai.key":          "OPENAI_API_KEY",
	"llm.openai.baseUrl":      "OPENAI_BASE_URL",
	"llm.claude.key":          "ANTHROPIC_API_KEY",
	"llm.gemini.key":          "GEMINI_API_KEY",
	"rateLimit.perSecond":     "RATE_LIMIT_PER_SECOND",
	"rateLimit.burst":         "RATE_LIMIT_BURST",
	"cors.allowOrigins":       "CORS_ALLOW_ORIGINS",
	"monitoring.projectId":    "GCP_PROJECT_ID",
	"monitoring.jsonKey":      "GCP_JSON_KEY",
	"monitoring.pushInterval": "METRICS_PUSH_INTERVAL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.trustedProxies", []string{})
	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", 0.8)
	v.SetDefault("llm.maxTokens", 2048)
	v.SetDefault("llm.timeout", 0)
	v.SetDefault("rateLimit.perSecond", 0)
	v.SetDefault("rateLimit.burst", 0)
	v.SetDefault("cors.allowOrigins", []string{})
	v.SetDefault("monitoring.pushInterval", 60*time.Second)
}

// LoadConfig loads .env (if any), then an optional config file named configName
// from the working directory, then the environment. The result is validated.
func LoadConfig(configName string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding env %s: %w", env, err)
		}
	}

	v.SetConfigName(configName)
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for _, key := range durationKeys {
		secondsToDuration(v, key)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	config.Cors.AllowOrigins = splitList(config.Cors.AllowOrigins)
	config.Server.TrustedProxies = splitList(config.Server.TrustedProxies)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

var durationKeys = []string{"llm.timeout", "monitoring.pushInterval"}

// secondsToDuration lets a duration key be given as a bare number of seconds.
func secondsToDuration(v *viper.Viper, key string) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
	if err != nil {
		return
	}
	v.Set(key, time.Duration(seconds*float64(time.Second)))
}

// Validate checks that the selected provider is known and has a credential.
func (c *Config) Validate() error {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))

	var key, env string
	switch c.LLM.Provider {
	case ProviderOpenAI:
		key, env = c.LLM.OpenAI.Key, "OPENAI_API_KEY"
	case ProviderClaude:
		key, env = c.LLM.Claude.Key, "ANTHROPIC_API_KEY"
	case ProviderGemini:
		key, env = c.LLM.Gemini.Key, "GEMINI_API_KEY"
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}

	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: %s not set", ErrMissingCredential, env)
	}
	return nil
}

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4.1-mini",
	ProviderClaude: "claude-3-haiku-20240307",
	ProviderGemini: "gemini-1.5-flash",
	ProviderMock:   "mock-model",
}

// ModelName is the configured model, or the provider's default when unset.
func (c LLMConfigs) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	return defaultModels[c.Provider]
}

// RateLimitBurst defaults the bucket size to twice the refill rate.
func (c RateLimitConfig) RateLimitBurst() int {
	if c.Burst > 0 {
		return c.Burst
	}
	burst := int(c.PerSecond * 2)
	if burst < 1 {
		burst = 1
	}
	return burst
}

// env values arrive as a single comma separated string
func splitList(values []string) []string {
	var out []string
	for _, o := range values {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
