package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		Solr: SolrConfig{
			BaseURL:    "http://localhost:8983/solr",
			Collection: "docs",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_MissingCollection(t *testing.T) {
	cfg := validConfig()
	cfg.Solr.Collection = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing collection")
	}
}

func TestValidate_BadBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Solr.BaseURL = "localhost:8983"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for base URL without scheme")
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestValidate_OllamaBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Ollama = &OllamaConfig{BaseURL: "localhost:11434"}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for ollama base URL without scheme")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{
		Solr:   SolrConfig{Collection: "docs"},
		Ollama: &OllamaConfig{},
	}
	cfg.ApplyDefaults()

	if cfg.Solr.BaseURL != "http://localhost:8983/solr" {
		t.Errorf("base_url = %q", cfg.Solr.BaseURL)
	}
	if cfg.HTTP.Port != 8085 {
		t.Errorf("port = %d, want 8085", cfg.HTTP.Port)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" || cfg.Ollama.Model != "llama2" {
		t.Errorf("ollama defaults = %+v", cfg.Ollama)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	content := `
solr:
  base_url: ${TEST_SOLR_URL:-http://localhost:8983/solr}
  collection: ${TEST_SOLR_COLLECTION}
  username: ${TEST_SOLR_USER:-}
`
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config", "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TEST_SOLR_COLLECTION", "articles")
	t.Chdir(dir)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Solr.Collection != "articles" {
		t.Errorf("collection = %q, want expanded env value", cfg.Solr.Collection)
	}
	if cfg.Solr.BaseURL != "http://localhost:8983/solr" {
		t.Errorf("base_url = %q, want the ${VAR:-default} fallback", cfg.Solr.BaseURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := Load("nope"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
