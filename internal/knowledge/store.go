// Package knowledge wraps an embedded vector database behind the small
// surface the rest of saturday needs: batch upsert of text chunks and
// nearest-neighbor queries returning cosine distances.
//
// The index is a chromem-go persistent collection, so the only durable
// state of the application lives in a directory of plain files and
// survives process restarts without an external database server.
package knowledge

import (
	"context"
	"fmt"
	"runtime"

	chromem "github.com/philippgille/chromem-go"

	"saturday/internal/log"
)

// collectionName is the single collection holding all ingested chunks.
const collectionName = "saturday"

// Store manages documents in the vector index.
//
// Upsert and Query may be called concurrently; chromem-go synchronizes
// collection access internally.
type Store struct {
	collection *chromem.Collection
	logger     log.Logger
}

// NewPersistent opens (or creates) the index at path. The embedding
// function is required both for writes and for re-opening an existing
// index, since persisted collections re-bind their embedder on load.
func NewPersistent(path string, embed chromem.EmbeddingFunc, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening vector index at %q: %w", path, err)
	}

	return newStore(db, embed, logger)
}

// NewInMemory creates a non-persistent store. Intended for tests and
// throwaway sessions.
func NewInMemory(embed chromem.EmbeddingFunc, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	return newStore(chromem.NewDB(), embed, logger)
}

func newStore(db *chromem.DB, embed chromem.EmbeddingFunc, logger log.Logger) (*Store, error) {
	collection, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("opening collection %q: %w", collectionName, err)
	}

	return &Store{collection: collection, logger: logger}, nil
}

// Upsert adds documents to the index in one batch. A document whose ID is
// already present is overwritten, so re-ingesting an unchanged file set is
// idempotent.
func (s *Store) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	batch := make([]chromem.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document with empty ID (content length %d)", len(doc.Content))
		}
		batch = append(batch, chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata,
		})
	}

	if err := s.collection.AddDocuments(ctx, batch, runtime.NumCPU()); err != nil {
		return fmt.Errorf("upserting %d documents: %w", len(batch), err)
	}

	s.logger.Debug("upserted documents", "count", len(batch))
	return nil
}

// Query returns the topK nearest documents to the query text, ordered by
// increasing cosine distance. Requesting more results than the collection
// holds is not an error; the result set is simply smaller. An empty
// collection yields no results.
func (s *Store) Query(ctx context.Context, query string, topK int) ([]Result, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	// chromem rejects nResults larger than the collection size.
	if count := s.collection.Count(); count < topK {
		if count == 0 {
			return nil, nil
		}
		topK = count
	}

	matches, err := s.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Document: Document{
				ID:       m.ID,
				Content:  m.Content,
				Metadata: m.Metadata,
			},
			// chromem reports cosine similarity in [-1, 1]; convert to the
			// 0..2 cosine-distance scale the relevance thresholds use.
			Distance: 1 - float64(m.Similarity),
		})
	}

	return results, nil
}

// Count returns the number of documents in the index.
func (s *Store) Count() int {
	return s.collection.Count()
}
