package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env            string
	ServiceName    string
	ServiceVersion string

	DatabaseURL string
	AutoMigrate bool

	SupabaseURL       string
	SupabaseJWTSecret string

	OpenAIKey string

	OtelExporterOTLPEndpoint string
	OtelExporterOTLPHeaders  string
	SentryDSN                string

	Port string

	Generation GenerationConfig
}

// GenerationConfig tunes the inference call made for every recipe generation.
type GenerationConfig struct {
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// Timeout returns the per-call deadline for the inference provider.
func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

const (
	DefaultGenerationModel   = "gpt-4o-mini"
	DefaultGenerationBaseURL = "https://api.openai.com/v1"
	DefaultTemperature       = 0.3
	DefaultMaxTokens         = 4096
	DefaultTimeoutSeconds    = 30
)

func Load() (*Config, error) {
	cfg := &Config{
		Env:                      os.Getenv("ENV"),
		ServiceName:              os.Getenv("SERVICE_NAME"),
		ServiceVersion:           os.Getenv("SERVICE_VERSION"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		AutoMigrate:              parseBool(os.Getenv("AUTO_MIGRATE")),
		SupabaseURL:              os.Getenv("SUPABASE_URL"),
		SupabaseJWTSecret:        os.Getenv("SUPABASE_JWT_SECRET"),
		OpenAIKey:                os.Getenv("OPENAI_API_KEY"),
		OtelExporterOTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelExporterOTLPHeaders:  os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"),
		SentryDSN:                os.Getenv("SENTRY_DSN"),
		Port:                     os.Getenv("PORT"),
		Generation: GenerationConfig{
			Model:   os.Getenv("GENERATION_MODEL"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
	}

	// Load from YAML file if available
	if err := cfg.LoadFromYAML("config.yaml"); err != nil {
		return nil, fmt.Errorf("failed to load YAML config: %w", err)
	}

	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "socialchef-sous"
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = "1.0.0"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.SetGenerationDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromYAML overlays the generation block of a YAML file on top of the
// environment. Values already set from the environment win.
func (c *Config) LoadFromYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File not found is not an error
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlConfig struct {
		Generation GenerationConfig `yaml:"generation"`
	}

	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	g := yamlConfig.Generation
	if c.Generation.Model == "" && g.Model != "" {
		c.Generation.Model = g.Model
	}
	if c.Generation.BaseURL == "" && g.BaseURL != "" {
		c.Generation.BaseURL = g.BaseURL
	}
	if g.Temperature > 0 {
		c.Generation.Temperature = g.Temperature
	}
	if g.MaxTokens > 0 {
		c.Generation.MaxTokens = g.MaxTokens
	}
	if g.TimeoutSeconds > 0 {
		c.Generation.TimeoutSeconds = g.TimeoutSeconds
	}

	return nil
}

func (c *Config) SetGenerationDefaults() {
	if c.Generation.Model == "" {
		c.Generation.Model = DefaultGenerationModel
	}
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = DefaultGenerationBaseURL
	}
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = DefaultTemperature
	}
	if c.Generation.MaxTokens == 0 {
		c.Generation.MaxTokens = DefaultMaxTokens
	}
	if c.Generation.TimeoutSeconds == 0 {
		c.Generation.TimeoutSeconds = DefaultTimeoutSeconds
	}
}

// OTLPHeaders parses OTEL_EXPORTER_OTLP_HEADERS ("k1=v1,k2=v2").
func (c *Config) OTLPHeaders() map[string]string {
	if c.OtelExporterOTLPHeaders == "" {
		return nil
	}
	headers := make(map[string]string)
	for _, pair := range strings.Split(c.OtelExporterOTLPHeaders, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
