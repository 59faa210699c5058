package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the solrbridge configuration.
type Config struct {
	Solr    SolrConfig    `yaml:"solr"`
	HTTP    HTTPConfig    `yaml:"http"`
	Ollama  *OllamaConfig `yaml:"ollama"`
	Logging LoggingConfig `yaml:"logging"`
}

// SolrConfig holds engine connection settings and query defaults.
type SolrConfig struct {
	BaseURL            string `yaml:"base_url"`
	Collection         string `yaml:"collection"`
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	TimeoutSec         int    `yaml:"timeout_sec"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	MaxRows            int    `yaml:"max_rows"`
	DefaultSearchField string `yaml:"default_search_field"`
	FacetLimit         int    `yaml:"facet_limit"`
	DisableHighlight   bool   `yaml:"disable_highlighting"`
}

// HTTPConfig holds the diagnostic HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// OllamaConfig holds the optional LLM integration settings. A nil section
// disables the integration entirely.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev,
// prod). A .env file in the working directory is loaded first so that ${VAR}
// references in the YAML can resolve against it.
func Load(env string) (Config, error) {
	// Missing .env is fine; explicit settings belong in the YAML.
	_ = godotenv.Load()

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values. Engine query defaults
// (timeout, max rows, facet limit) stay zero here; the solr package applies
// its own, so the client behaves the same when constructed directly.
func (c *Config) ApplyDefaults() {
	if c.Solr.BaseURL == "" {
		c.Solr.BaseURL = "http://localhost:8983/solr"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8085
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Ollama != nil {
		if c.Ollama.BaseURL == "" {
			c.Ollama.BaseURL = "http://localhost:11434"
		}
		if c.Ollama.Model == "" {
			c.Ollama.Model = "llama2"
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Solr.BaseURL, "http://") && !strings.HasPrefix(c.Solr.BaseURL, "https://") {
		return fmt.Errorf("solr.base_url must start with http:// or https://, got %q", c.Solr.BaseURL)
	}
	if c.Solr.Collection == "" {
		return fmt.Errorf("solr.collection is required")
	}
	if c.Solr.TimeoutSec < 0 {
		return fmt.Errorf("solr.timeout_sec must not be negative, got %d", c.Solr.TimeoutSec)
	}
	if c.Solr.MaxRows < 0 {
		return fmt.Errorf("solr.max_rows must not be negative, got %d", c.Solr.MaxRows)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Ollama != nil &&
		!strings.HasPrefix(c.Ollama.BaseURL, "http://") && !strings.HasPrefix(c.Ollama.BaseURL, "https://") {
		return fmt.Errorf("ollama.base_url must start with http:// or https://, got %q", c.Ollama.BaseURL)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
