package retrieval

import (
	"context"
	"math"
	"sort"

	"github.com/codeready-toolchain/alimtalk/pkg/korean"
	"github.com/codeready-toolchain/alimtalk/pkg/models"
)

// DefaultVectorWeight and DefaultSparseWeight are the default fusion weights.
const (
	DefaultVectorWeight = 0.7
	DefaultSparseWeight = 0.3
)

// HybridRetriever fuses dense and sparse candidates into a single ranked
// list.
type HybridRetriever struct {
	vector    *VectorIndex
	sparse    *BM25Index
	tokenizer *korean.Tokenizer

	// corpus resolves a doc_id back to its PolicyChunk/ApprovedTemplate so
	// RetrievalResult can carry the full record, not just the id.
	corpus CorpusLookup

	vectorWeight float64
	sparseWeight float64
	normalize    bool
}

// CorpusLookup resolves a doc_id to its underlying chunk or template.
type CorpusLookup interface {
	Chunk(docID string) (*models.PolicyChunk, bool)
	Template(docID string) (*models.ApprovedTemplate, bool)
}

// NewHybridRetriever wires the fusion layer. Weights are renormalized if
// they don't sum to 1.0.
func NewHybridRetriever(vector *VectorIndex, sparse *BM25Index, tokenizer *korean.Tokenizer, corpus CorpusLookup, vectorWeight, sparseWeight float64, normalize bool) *HybridRetriever {
	if vector == nil || sparse == nil || tokenizer == nil || corpus == nil {
		panic("NewHybridRetriever: vector, sparse, tokenizer and corpus must not be nil")
	}

	sum := vectorWeight + sparseWeight
	if sum <= 0 {
		vectorWeight, sparseWeight = DefaultVectorWeight, DefaultSparseWeight
	} else if math.Abs(sum-1.0) > 1e-9 {
		vectorWeight /= sum
		sparseWeight /= sum
	}

	return &HybridRetriever{
		vector:       vector,
		sparse:       sparse,
		tokenizer:    tokenizer,
		corpus:       corpus,
		vectorWeight: vectorWeight,
		sparseWeight: sparseWeight,
		normalize:    normalize,
	}
}

type fusionCandidate struct {
	docID       string
	docType     models.DocType
	denseScore  float64
	sparseScore float64
}

// Search runs the weighted fusion over both sides, dispatching to
// dense-only or sparse-only for the other two modes.
func (h *HybridRetriever) Search(ctx context.Context, query string, k int, docType models.DocType, mode models.RetrievalMode) []models.RetrievalResult {
	if mode == "" {
		mode = models.ModeHybrid
	}

	switch mode {
	case models.ModeDense:
		return h.denseOnly(ctx, query, k, docType)
	case models.ModeSparse:
		return h.sparseOnly(query, k, docType)
	default:
		return h.hybrid(ctx, query, k, docType)
	}
}

func (h *HybridRetriever) hybrid(ctx context.Context, query string, k int, docType models.DocType) []models.RetrievalResult {
	kPrime := 2 * k
	if kPrime <= 0 {
		kPrime = 2
	}

	denseMatches := h.vector.Search(ctx, query, kPrime)
	queryTokens := h.tokenizer.Tokenize(query)
	sparseMatches := h.sparse.Search(queryTokens, kPrime, docType)

	byID := make(map[string]*fusionCandidate)
	order := make([]string, 0, len(denseMatches)+len(sparseMatches))

	for _, m := range denseMatches {
		if docType != "" && m.DocType != docType {
			continue
		}
		c, ok := byID[m.DocID]
		if !ok {
			c = &fusionCandidate{docID: m.DocID, docType: m.DocType}
			byID[m.DocID] = c
			order = append(order, m.DocID)
		}
		c.denseScore = m.Similarity
	}
	for _, m := range sparseMatches {
		dt, chunkType := h.resolveDocType(m.DocID)
		if docType != "" && dt != docType {
			continue
		}
		c, ok := byID[m.DocID]
		if !ok {
			c = &fusionCandidate{docID: m.DocID, docType: chunkType}
			byID[m.DocID] = c
			order = append(order, m.DocID)
		}
		c.sparseScore = m.Score
	}

	candidates := make([]*fusionCandidate, 0, len(order))
	for _, id := range order {
		candidates = append(candidates, byID[id])
	}

	if h.normalize {
		normalizeScores(candidates)
	}

	results := make([]models.RetrievalResult, 0, len(candidates))
	for _, c := range candidates {
		fused := h.vectorWeight*c.denseScore + h.sparseWeight*c.sparseScore
		rr := h.buildResult(c.docID, c.docType, c.denseScore, c.sparseScore, fused)
		if rr == nil {
			continue
		}
		results = append(results, *rr)
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].FusedScore > results[b].FusedScore
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// normalizeScores applies min-max normalization per side across the
// union, clamping NaN (constant-valued side, all zero) to 0.
func normalizeScores(candidates []*fusionCandidate) {
	if len(candidates) == 0 {
		return
	}
	minMax := func(get func(*fusionCandidate) float64, set func(*fusionCandidate, float64)) {
		min, max := math.Inf(1), math.Inf(-1)
		for _, c := range candidates {
			v := get(c)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		spread := max - min
		for _, c := range candidates {
			if spread == 0 {
				set(c, 0)
				continue
			}
			norm := (get(c) - min) / spread
			if math.IsNaN(norm) {
				norm = 0
			}
			set(c, norm)
		}
	}
	minMax(func(c *fusionCandidate) float64 { return c.denseScore }, func(c *fusionCandidate, v float64) { c.denseScore = v })
	minMax(func(c *fusionCandidate) float64 { return c.sparseScore }, func(c *fusionCandidate, v float64) { c.sparseScore = v })
}

func (h *HybridRetriever) denseOnly(ctx context.Context, query string, k int, docType models.DocType) []models.RetrievalResult {
	matches := h.vector.Search(ctx, query, k)
	results := make([]models.RetrievalResult, 0, len(matches))
	for _, m := range matches {
		if docType != "" && m.DocType != docType {
			continue
		}
		rr := h.buildResult(m.DocID, m.DocType, m.Similarity, 0, m.Similarity)
		if rr == nil {
			continue
		}
		results = append(results, *rr)
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func (h *HybridRetriever) sparseOnly(query string, k int, docType models.DocType) []models.RetrievalResult {
	queryTokens := h.tokenizer.Tokenize(query)
	scored := h.sparse.Search(queryTokens, k, docType)
	results := make([]models.RetrievalResult, 0, len(scored))
	for _, s := range scored {
		dt, _ := h.resolveDocType(s.DocID)
		rr := h.buildResult(s.DocID, dt, 0, s.Score, s.Score)
		if rr == nil {
			continue
		}
		results = append(results, *rr)
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func (h *HybridRetriever) resolveDocType(docID string) (models.DocType, models.DocType) {
	if _, ok := h.corpus.Chunk(docID); ok {
		return models.DocTypePolicy, models.DocTypePolicy
	}
	if _, ok := h.corpus.Template(docID); ok {
		return models.DocTypeTemplate, models.DocTypeTemplate
	}
	return "", ""
}

func (h *HybridRetriever) buildResult(docID string, docType models.DocType, dense, sparse, fused float64) *models.RetrievalResult {
	if chunk, ok := h.corpus.Chunk(docID); ok {
		return &models.RetrievalResult{DocID: docID, DocType: models.DocTypePolicy, Chunk: chunk, DenseScore: dense, SparseScore: sparse, FusedScore: fused}
	}
	if tmpl, ok := h.corpus.Template(docID); ok {
		return &models.RetrievalResult{DocID: docID, DocType: models.DocTypeTemplate, Template: tmpl, DenseScore: dense, SparseScore: sparse, FusedScore: fused}
	}
	_ = docType
	return nil
}
