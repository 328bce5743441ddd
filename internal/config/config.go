// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (SATURDAY_* runtime overrides)
//  2. Config file (~/.saturday/config.yaml, or ./config.yaml)
//  3. Default values (sensible defaults for a fully local setup)
//
// Main configuration categories:
//   - AI: provider, model, embedder, temperature, max tokens
//   - Paths: document folder and persistent vector index directory
//   - Ingest: chunk size and overlap
//   - Retrieval: top-K and relevance distance thresholds
//   - Web: search result count, page fetch timeout, page truncation
//   - Server: HTTP listen address
//
// Validation is fail-fast: Load returns an error built from the sentinel
// errors below so callers can branch with errors.Is.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidOllamaHost indicates the Ollama host is not a URL.
	ErrInvalidOllamaHost = errors.New("invalid ollama host")

	// ErrInvalidChunking indicates chunk size/overlap are out of range.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrInvalidRetrieval indicates top-K or distance thresholds are out of range.
	ErrInvalidRetrieval = errors.New("invalid retrieval parameters")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider      string  `mapstructure:"provider"`       // "ollama" (default) or "openai"
	ModelName     string  `mapstructure:"model_name"`     // model identifier (e.g. "qwen2.5:3b")
	Temperature   float64 `mapstructure:"temperature"`    // sampling temperature
	MaxTokens     int     `mapstructure:"max_tokens"`     // completion token budget
	OllamaHost    string  `mapstructure:"ollama_host"`    // only used when provider is "ollama"
	EmbedderModel string  `mapstructure:"embedder_model"` // embedding model for the vector index

	// Paths
	DataDir  string `mapstructure:"data_dir"`  // folder scanned by ingestion
	IndexDir string `mapstructure:"index_dir"` // persistent vector index location

	// Ingest
	ChunkSize    int `mapstructure:"chunk_size"`    // characters per chunk
	ChunkOverlap int `mapstructure:"chunk_overlap"` // characters shared between adjacent chunks

	// Retrieval. The distance thresholds are calibrated for cosine
	// distance in [0, 2]; they are configuration, not invariants, so a
	// different embedding model can be accommodated without code changes.
	TopK               int     `mapstructure:"top_k"`
	HighDistanceMax    float64 `mapstructure:"high_distance_max"`   // below this: HIGH
	MediumDistanceMax  float64 `mapstructure:"medium_distance_max"` // below this: MEDIUM
	MaxHistoryMessages int     `mapstructure:"max_history_messages"`

	// Web search
	WebMaxResults   int           `mapstructure:"web_max_results"`
	WebFetchTimeout time.Duration `mapstructure:"web_fetch_timeout"`
	WebPageMaxChars int           `mapstructure:"web_page_max_chars"`

	// Server
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".saturday")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v, configDir)

	v.SetEnvPrefix("SATURDAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper, configDir string) {
	// AI defaults: local-first via Ollama.
	v.SetDefault("provider", ProviderOllama)
	v.SetDefault("model_name", "qwen2.5:3b")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("embedder_model", "nomic-embed-text")

	// Paths
	v.SetDefault("data_dir", "data")
	v.SetDefault("index_dir", filepath.Join(configDir, "index"))

	// Ingest
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 200)

	// Retrieval
	v.SetDefault("top_k", 5)
	v.SetDefault("high_distance_max", 1.0)
	v.SetDefault("medium_distance_max", 1.3)
	v.SetDefault("max_history_messages", 10)

	// Web search
	v.SetDefault("web_max_results", 3)
	v.SetDefault("web_fetch_timeout", 5*time.Second)
	v.SetDefault("web_page_max_chars", 1500)

	// Server
	v.SetDefault("listen_addr", "127.0.0.1:8081")
}

// Validate checks the configuration for consistency. It reports the first
// violation wrapped in the matching sentinel error.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: %q (must be one of: ollama, openai)", ErrInvalidProvider, c.Provider)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidEmbedderModel)
	}

	if c.Provider == ProviderOllama && !strings.HasPrefix(c.OllamaHost, "http") {
		return fmt.Errorf("%w: %q must start with http:// or https://", ErrInvalidOllamaHost, c.OllamaHost)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d must be in [0, chunk_size)", ErrInvalidChunking, c.ChunkOverlap)
	}

	if c.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidRetrieval, c.TopK)
	}
	if c.HighDistanceMax <= 0 || c.MediumDistanceMax < c.HighDistanceMax {
		return fmt.Errorf("%w: need 0 < high_distance_max <= medium_distance_max", ErrInvalidRetrieval)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v not in [0, 2]", ErrInvalidTemperature, c.Temperature)
	}

	return nil
}

// QualifiedModelName returns the provider-qualified model reference used
// by Genkit lookups (e.g. "ollama/qwen2.5:3b").
func (c *Config) QualifiedModelName() string {
	return c.Provider + "/" + c.ModelName
}
