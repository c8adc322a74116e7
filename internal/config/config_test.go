package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return path
}

func TestLoadGenerationConfig(t *testing.T) {
	path := writeConfig(t, `generation:
  model: gpt-4.1-mini
  base_url: https://llm.internal/v1
  temperature: 0.5
  max_tokens: 2048
  timeout_seconds: 10`)

	cfg := &Config{}
	if err := cfg.LoadFromYAML(path); err != nil {
		t.Fatalf("Failed to load YAML config: %v", err)
	}

	if cfg.Generation.Model != "gpt-4.1-mini" {
		t.Errorf("Expected model 'gpt-4.1-mini', got '%s'", cfg.Generation.Model)
	}
	if cfg.Generation.BaseURL != "https://llm.internal/v1" {
		t.Errorf("Expected base_url 'https://llm.internal/v1', got '%s'", cfg.Generation.BaseURL)
	}
	if cfg.Generation.Temperature != 0.5 {
		t.Errorf("Expected temperature 0.5, got %v", cfg.Generation.Temperature)
	}
	if cfg.Generation.MaxTokens != 2048 {
		t.Errorf("Expected max_tokens 2048, got %d", cfg.Generation.MaxTokens)
	}
	if cfg.Generation.Timeout() != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %v", cfg.Generation.Timeout())
	}
}

func TestLoadGenerationConfigEnvWins(t *testing.T) {
	path := writeConfig(t, `generation:
  model: from-yaml`)

	cfg := &Config{Generation: GenerationConfig{Model: "from-env"}}
	if err := cfg.LoadFromYAML(path); err != nil {
		t.Fatalf("Failed to load YAML config: %v", err)
	}

	if cfg.Generation.Model != "from-env" {
		t.Errorf("Expected env model to win, got '%s'", cfg.Generation.Model)
	}
}

func TestGenerationDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetGenerationDefaults()

	if cfg.Generation.Model != DefaultGenerationModel {
		t.Errorf("Expected default model, got '%s'", cfg.Generation.Model)
	}
	if cfg.Generation.BaseURL != DefaultGenerationBaseURL {
		t.Errorf("Expected default base url, got '%s'", cfg.Generation.BaseURL)
	}
	if cfg.Generation.Temperature != 0.3 {
		t.Errorf("Expected temperature 0.3, got %v", cfg.Generation.Temperature)
	}
	if cfg.Generation.MaxTokens != DefaultMaxTokens {
		t.Errorf("Expected max tokens %d, got %d", DefaultMaxTokens, cfg.Generation.MaxTokens)
	}
	if cfg.Generation.Timeout() != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.Generation.Timeout())
	}
}

func TestLoadFromYAMLFileNotFound(t *testing.T) {
	cfg := &Config{}
	if err := cfg.LoadFromYAML("non_existent_file.yaml"); err != nil {
		t.Errorf("Expected no error for non-existent file, got: %v", err)
	}
}

func TestLoadFromYAMLInvalid(t *testing.T) {
	path := writeConfig(t, `generation:
  model: gpt
  invalid_yaml: [unclosed`)

	cfg := &Config{}
	if err := cfg.LoadFromYAML(path); err == nil {
		t.Error("Expected error for invalid YAML, got nil")
	}
}

func TestLoadRequiresOpenAIKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sous")
	t.Setenv("SUPABASE_URL", "https://test.supabase.co")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error when OPENAI_API_KEY is missing")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AUTO_MIGRATE", "true")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.AutoMigrate {
		t.Error("Expected AUTO_MIGRATE=true to enable auto migration")
	}
	if cfg.Env != "development" {
		t.Errorf("Expected default env 'development', got '%s'", cfg.Env)
	}
}

func TestOTLPHeaders(t *testing.T) {
	cfg := &Config{OtelExporterOTLPHeaders: "Authorization=Bearer abc, x-team = kitchen,broken"}
	headers := cfg.OTLPHeaders()

	if headers["Authorization"] != "Bearer abc" {
		t.Errorf("unexpected Authorization header: %q", headers["Authorization"])
	}
	if headers["x-team"] != "kitchen" {
		t.Errorf("unexpected x-team header: %q", headers["x-team"])
	}
	if len(headers) != 2 {
		t.Errorf("expected 2 headers, got %d", len(headers))
	}
}
