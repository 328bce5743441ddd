package knowledge

import (
	"context"
	"strings"
	"testing"

	chromem "github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saturday/internal/log"
)

// fakeEmbedding maps known words onto fixed unit vectors so similarity
// ordering in tests is deterministic without a real embedding model.
func fakeEmbedding() chromem.EmbeddingFunc {
	vectors := map[string][]float32{
		"ransomware": {1, 0, 0},
		"phishing":   {0, 1, 0},
		"botnet":     {0, 0, 1},
	}
	return func(_ context.Context, text string) ([]float32, error) {
		for word, vec := range vectors {
			if strings.Contains(text, word) {
				return vec, nil
			}
		}
		// Equidistant from everything.
		return []float32{0.577, 0.577, 0.577}, nil
	}
}

func testDocs() []Document {
	return []Document{
		{ID: "intel.txt_0", Content: "ransomware campaign notes", Metadata: map[string]string{"source": "intel.txt"}},
		{ID: "intel.txt_1", Content: "phishing infrastructure", Metadata: map[string]string{"source": "intel.txt"}},
	}
}

func TestStore_UpsertAndQuery(t *testing.T) {
	store, err := NewInMemory(fakeEmbedding(), log.NewNop())
	require.NoError(t, err)

	require.NoError(t, store.Upsert(context.Background(), testDocs()))
	assert.Equal(t, 2, store.Count())

	results, err := store.Query(context.Background(), "ransomware outbreak", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Nearest first, with cosine distance 0 for the exact-direction match.
	assert.Equal(t, "intel.txt_0", results[0].Document.ID)
	assert.InDelta(t, 0.0, results[0].Distance, 1e-5)
	assert.Greater(t, results[1].Distance, results[0].Distance)
	assert.Equal(t, "intel.txt", results[0].Document.Metadata["source"])
}

func TestStore_UpsertSameIDOverwrites(t *testing.T) {
	store, err := NewInMemory(fakeEmbedding(), log.NewNop())
	require.NoError(t, err)

	docs := testDocs()
	require.NoError(t, store.Upsert(context.Background(), docs))
	require.NoError(t, store.Upsert(context.Background(), docs))

	assert.Equal(t, 2, store.Count(), "re-ingesting the same IDs must not grow the index")
}

func TestStore_QueryClampsTopK(t *testing.T) {
	store, err := NewInMemory(fakeEmbedding(), log.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), testDocs()))

	results, err := store.Query(context.Background(), "phishing", 50)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestStore_QueryEmptyIndex(t *testing.T) {
	store, err := NewInMemory(fakeEmbedding(), log.NewNop())
	require.NoError(t, err)

	results, err := store.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_RejectsEmptyID(t *testing.T) {
	store, err := NewInMemory(fakeEmbedding(), log.NewNop())
	require.NoError(t, err)

	err = store.Upsert(context.Background(), []Document{{ID: "", Content: "x"}})
	assert.Error(t, err)
}

func TestNewPersistent_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPersistent(dir, fakeEmbedding(), log.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), testDocs()))

	reopened, err := NewPersistent(dir, fakeEmbedding(), log.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Count())

	results, err := reopened.Query(context.Background(), "phishing", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "intel.txt_1", results[0].Document.ID)
}
