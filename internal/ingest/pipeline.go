// Package ingest reads supported documents from a local folder, extracts
// plain text per format, splits it into overlapping chunks, and upserts
// the chunks into the vector index in a single batch.
//
// Chunk IDs are "<filename>_<chunkIndex>", so re-running ingestion over
// an unchanged file set rewrites the same IDs and leaves the index
// unchanged (idempotent by construction).
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"saturday/internal/knowledge"
	"saturday/internal/log"
)

// Upserter is the slice of the document store the pipeline needs.
type Upserter interface {
	Upsert(ctx context.Context, docs []knowledge.Document) error
}

// Config carries the chunking parameters and the optional lock file
// guarding the persistent index against concurrent ingestion runs.
type Config struct {
	ChunkSize    int    // characters per chunk (default 1000)
	ChunkOverlap int    // characters shared between adjacent chunks (default 200)
	LockPath     string // file lock path; empty disables locking
}

// Pipeline ingests local documents into the vector index.
type Pipeline struct {
	store  Upserter
	cfg    Config
	logger log.Logger
}

// New creates an ingestion pipeline. Zero chunking values fall back to
// the documented defaults.
func New(store Upserter, cfg Config, logger log.Logger) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 200
	}
	if logger == nil {
		logger = log.NewNop()
	}

	return &Pipeline{store: store, cfg: cfg, logger: logger}
}

// Run ingests every supported file in folder and returns a human-readable
// summary. A missing folder is created and reported, not treated as an
// error. Individual file failures are logged and skipped; the batch
// continues.
func (p *Pipeline) Run(ctx context.Context, folder string) (string, error) {
	if _, err := os.Stat(folder); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(folder, 0o750); mkErr != nil {
			return "", fmt.Errorf("creating data directory: %w", mkErr)
		}
		return "Data directory created. Please add files.", nil
	}

	if p.cfg.LockPath != "" {
		lock := flock.New(p.cfg.LockPath)
		if err := lock.Lock(); err != nil {
			return "", fmt.Errorf("acquiring ingest lock: %w", err)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				p.logger.Warn("releasing ingest lock", "error", err)
			}
		}()
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return "", fmt.Errorf("reading data directory: %w", err)
	}

	var docs []knowledge.Document
	fileCount := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !supportedExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		fileCount++

		text, err := extractText(filepath.Join(folder, name))
		if err != nil {
			p.logger.Warn("failed to process file, skipping", "file", name, "error", err)
			continue
		}

		chunks := SplitText(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
		for i, chunk := range chunks {
			docs = append(docs, knowledge.Document{
				ID:      fmt.Sprintf("%s_%d", name, i),
				Content: chunk,
				Metadata: map[string]string{
					"source":   name,
					"chunk_id": strconv.Itoa(i),
				},
			})
		}
		p.logger.Debug("chunked file", "file", name, "chunks", len(chunks))
	}

	if fileCount == 0 {
		return "No documents found to ingest.", nil
	}
	if len(docs) == 0 {
		return "No valid content found.", nil
	}

	if err := p.store.Upsert(ctx, docs); err != nil {
		return "", fmt.Errorf("upserting chunks: %w", err)
	}

	p.logger.Info("ingestion complete", "files", fileCount, "chunks", len(docs))
	return fmt.Sprintf("Successfully ingested %d chunks from %d files.", len(docs), fileCount), nil
}

// ListSupported returns the names of recognized files currently present
// in folder. Used by the status endpoint; a missing folder yields an
// empty list.
func ListSupported(folder string) []string {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, entry.Name())
		}
	}
	return files
}
