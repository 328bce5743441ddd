// Package app wires the application together: model runtime, embedder,
// vector index, ingestion pipeline, web search, and the per-session
// agent factory.
package app

import (
	"context"
	"path/filepath"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"saturday/internal/agent"
	"saturday/internal/config"
	"saturday/internal/ingest"
	"saturday/internal/knowledge"
	"saturday/internal/llm"
	"saturday/internal/log"
	"saturday/internal/websearch"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	Knowledge *knowledge.Store
	Pipeline  *ingest.Pipeline
	Web       *websearch.Client
	LLM       *llm.Client
}

// NewAgent creates a fresh routing agent. Each conversation (console
// session, browser session) gets its own so history and permission
// state never leak between users.
func (a *App) NewAgent() *agent.Agent {
	return agent.New(a.Knowledge, a.Web, a.LLM, agent.Config{
		TopK:              a.Config.TopK,
		HighDistanceMax:   a.Config.HighDistanceMax,
		MediumDistanceMax: a.Config.MediumDistanceMax,
		MaxHistory:        a.Config.MaxHistoryMessages,
		Temperature:       a.Config.Temperature,
		MaxTokens:         a.Config.MaxTokens,
	}, a.Logger)
}

// Ingest runs one ingestion pass over the configured data directory.
func (a *App) Ingest(ctx context.Context) (string, error) {
	return a.Pipeline.Run(ctx, a.Config.DataDir)
}

// Close releases application resources.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")
	return nil
}

// lockPath returns the ingest lock location, beside the index so it
// covers exactly the state it guards.
func lockPath(cfg *config.Config) string {
	return filepath.Join(filepath.Dir(cfg.IndexDir), "ingest.lock")
}
