package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Fetch.Timeout != 10*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 10s", cfg.Fetch.Timeout)
	}
	if cfg.Search.MaxSources != 3 {
		t.Errorf("Search.MaxSources = %d, want 3", cfg.Search.MaxSources)
	}
	if cfg.Search.FallbackSearchURL != DefaultFallbackSearchURL {
		t.Errorf("Search.FallbackSearchURL = %q", cfg.Search.FallbackSearchURL)
	}
	if !cfg.Fetch.TLSFingerprint {
		t.Error("Fetch.TLSFingerprint should default to true")
	}
	if len(cfg.CORS.AllowOrigins) != 1 || cfg.CORS.AllowOrigins[0] != "*" {
		t.Errorf("CORS.AllowOrigins = %v, want [*]", cfg.CORS.AllowOrigins)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCOUT_FETCH_TIMEOUT", "3s")
	t.Setenv("SCOUT_MAX_SOURCES", "5")
	t.Setenv("SCOUT_API_KEYS", "a, b,,c")
	t.Setenv("SCOUT_AUTH_ENABLED", "false")
	t.Setenv("SCOUT_MAX_CONTENT_TOKENS", "not-a-number")
	t.Setenv("SCOUT_CORS_ORIGINS", "https://ui.example.com")

	cfg := Load()

	if cfg.Fetch.Timeout != 3*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 3s", cfg.Fetch.Timeout)
	}
	if cfg.Search.MaxSources != 5 {
		t.Errorf("Search.MaxSources = %d, want 5", cfg.Search.MaxSources)
	}
	if len(cfg.Auth.APIKeys) != 3 || cfg.Auth.APIKeys[1] != "b" {
		t.Errorf("Auth.APIKeys = %v, want [a b c]", cfg.Auth.APIKeys)
	}
	if cfg.Auth.Enabled {
		t.Error("Auth.Enabled should be false")
	}
	if cfg.Search.MaxContentTokens != 6000 {
		t.Errorf("invalid int should keep default, got %d", cfg.Search.MaxContentTokens)
	}
	if len(cfg.CORS.AllowOrigins) != 1 || cfg.CORS.AllowOrigins[0] != "https://ui.example.com" {
		t.Errorf("CORS.AllowOrigins = %v", cfg.CORS.AllowOrigins)
	}
}

func TestLoadFile_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scout.yaml")
	content := `
server:
  port: 9090
llm:
  model: gemini-1.5-flash
  base_url: https://generativelanguage.googleapis.com/v1beta/openai
search:
  max_sources: 2
  timeout: 45s
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCOUT_LLM_MODEL", "gpt-4o")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Search.MaxSources != 2 {
		t.Errorf("Search.MaxSources = %d, want 2", cfg.Search.MaxSources)
	}
	if cfg.Search.Timeout != 45*time.Second {
		t.Errorf("Search.Timeout = %v, want 45s", cfg.Search.Timeout)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("env should override file, got model %q", cfg.LLM.Model)
	}
	if cfg.Fetch.Timeout != 10*time.Second {
		t.Errorf("unset fields keep defaults, got %v", cfg.Fetch.Timeout)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
