package retrieval

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/codeready-toolchain/alimtalk/pkg/models"
)

// Embedder is the external embedding model collaborator: text-in,
// vector-out. The pipeline never constructs vectors itself.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorMatch is one hit returned by the vector index adapter's Search.
type VectorMatch struct {
	DocID      string
	DocType    models.DocType
	Metadata   map[string]string
	Content    string
	Similarity float64
}

// vectorRecord is what the adapter keeps per upserted document.
type vectorRecord struct {
	docType  models.DocType
	content  string
	metadata map[string]string
	vector   []float32
}

// VectorIndex is a facade over an external ANN store, upserting through
// an Embedder and serving cosine top-k search. The in-process map stands
// in for the real external store; production deployments point Embedder
// and the backing store at the real service.
type VectorIndex struct {
	embedder Embedder

	mu      sync.RWMutex
	records map[string]*vectorRecord
}

// NewVectorIndex wires a VectorIndex to the given Embedder. embedder must
// not be nil.
func NewVectorIndex(embedder Embedder) *VectorIndex {
	if embedder == nil {
		panic("NewVectorIndex: embedder must not be nil")
	}
	return &VectorIndex{embedder: embedder, records: make(map[string]*vectorRecord)}
}

// Upsert embeds text and stores the resulting vector under docID.
func (v *VectorIndex) Upsert(ctx context.Context, docID string, docType models.DocType, text string, metadata map[string]string) error {
	vec, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.records[docID] = &vectorRecord{docType: docType, content: text, metadata: metadata, vector: vec}
	return nil
}

// Search embeds queryText and returns the top-k matches by cosine
// similarity. If the embedding call fails the method returns an empty
// result and logs a warning rather than propagating the error, so
// retrieval degrades to BM25-only.
func (v *VectorIndex) Search(ctx context.Context, queryText string, k int) []VectorMatch {
	queryVec, err := v.embedder.Embed(ctx, queryText)
	if err != nil {
		slog.Warn("vector search degraded: embedding unavailable", "err", err)
		return nil
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	matches := make([]VectorMatch, 0, len(v.records))
	for docID, rec := range v.records {
		sim := cosineSimilarity(queryVec, rec.vector)
		matches = append(matches, VectorMatch{
			DocID:      docID,
			DocType:    rec.docType,
			Metadata:   rec.metadata,
			Content:    rec.content,
			Similarity: sim,
		})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Similarity > matches[b].Similarity
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
