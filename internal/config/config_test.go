package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a configuration that passes Validate, mirroring the
// documented defaults.
func validConfig() *Config {
	return &Config{
		Provider:           ProviderOllama,
		ModelName:          "qwen2.5:3b",
		Temperature:        0.7,
		MaxTokens:          1024,
		OllamaHost:         "http://localhost:11434",
		EmbedderModel:      "nomic-embed-text",
		DataDir:            "data",
		IndexDir:           "index",
		ChunkSize:          1000,
		ChunkOverlap:       200,
		TopK:               5,
		HighDistanceMax:    1.0,
		MediumDistanceMax:  1.3,
		MaxHistoryMessages: 10,
		WebMaxResults:      3,
		WebFetchTimeout:    5 * time.Second,
		WebPageMaxChars:    1500,
		ListenAddr:         "127.0.0.1:8081",
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"unknown provider", func(c *Config) { c.Provider = "gemini" }, ErrInvalidProvider},
		{"empty model", func(c *Config) { c.ModelName = "  " }, ErrInvalidModelName},
		{"empty embedder", func(c *Config) { c.EmbedderModel = "" }, ErrInvalidEmbedderModel},
		{"bad ollama host", func(c *Config) { c.OllamaHost = "localhost:11434" }, ErrInvalidOllamaHost},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, ErrInvalidChunking},
		{"overlap >= size", func(c *Config) { c.ChunkOverlap = 1000 }, ErrInvalidChunking},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, ErrInvalidChunking},
		{"zero top-k", func(c *Config) { c.TopK = 0 }, ErrInvalidRetrieval},
		{"inverted thresholds", func(c *Config) { c.MediumDistanceMax = 0.5 }, ErrInvalidRetrieval},
		{"temperature out of range", func(c *Config) { c.Temperature = 3 }, ErrInvalidTemperature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_OpenAIProviderSkipsOllamaHost(t *testing.T) {
	cfg := validConfig()
	cfg.Provider = ProviderOpenAI
	cfg.OllamaHost = ""
	assert.NoError(t, cfg.Validate())
}

func TestQualifiedModelName(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "ollama/qwen2.5:3b", cfg.QualifiedModelName())

	cfg.Provider = ProviderOpenAI
	cfg.ModelName = "gpt-4o-mini"
	assert.Equal(t, "openai/gpt-4o-mini", cfg.QualifiedModelName())
}
