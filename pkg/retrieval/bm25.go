// Package retrieval implements the sparse, dense and fused retrieval
// layers over the policy/template corpus.
package retrieval

import (
	"math"
	"sort"

	"github.com/codeready-toolchain/alimtalk/pkg/models"
	"github.com/codeready-toolchain/alimtalk/pkg/pipelineerrors"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// Document is one corpus entry handed to BM25Index.Build: a stable id, its
// tokenized content, and the doc type used for filtered search.
type Document struct {
	ID      string
	Tokens  []string
	DocType models.DocType
}

// BM25Index is an Okapi BM25 sparse index over tokenized documents.
type BM25Index struct {
	built      bool
	docIDs     []string
	docTypes   []models.DocType
	docFreq    map[string]int // token -> number of docs containing it
	termFreqs  []map[string]int
	docLengths []int
	avgDocLen  float64
	numDocs    int
}

// NewBM25Index returns an empty, unbuilt index.
func NewBM25Index() *BM25Index {
	return &BM25Index{docFreq: make(map[string]int)}
}

// Build indexes the given documents. An empty corpus fails with
// ErrIndexBuild.
func (idx *BM25Index) Build(documents []Document) error {
	if len(documents) == 0 {
		return pipelineerrors.ErrIndexBuild
	}

	idx.docIDs = make([]string, len(documents))
	idx.docTypes = make([]models.DocType, len(documents))
	idx.termFreqs = make([]map[string]int, len(documents))
	idx.docLengths = make([]int, len(documents))
	idx.docFreq = make(map[string]int)

	totalLen := 0
	for i, doc := range documents {
		idx.docIDs[i] = doc.ID
		idx.docTypes[i] = doc.DocType
		idx.docLengths[i] = len(doc.Tokens)
		totalLen += len(doc.Tokens)

		tf := make(map[string]int, len(doc.Tokens))
		for _, tok := range doc.Tokens {
			tf[tok]++
		}
		idx.termFreqs[i] = tf

		for tok := range tf {
			idx.docFreq[tok]++
		}
	}

	idx.numDocs = len(documents)
	idx.avgDocLen = float64(totalLen) / float64(idx.numDocs)
	idx.built = true
	return nil
}

// Score returns BM25 scores aligned with document insertion order.
// Calling Score before Build returns an empty slice.
func (idx *BM25Index) Score(queryTokens []string) []float64 {
	if !idx.built {
		return nil
	}

	scores := make([]float64, idx.numDocs)
	for _, term := range queryTokens {
		df, ok := idx.docFreq[term]
		if !ok || df == 0 {
			continue
		}
		idf := math.Log(1 + (float64(idx.numDocs)-float64(df)+0.5)/(float64(df)+0.5))

		for i := 0; i < idx.numDocs; i++ {
			tf := float64(idx.termFreqs[i][term])
			if tf == 0 {
				continue
			}
			denom := tf + bm25K1*(1-bm25B+bm25B*float64(idx.docLengths[i])/idx.avgDocLen)
			scores[i] += idf * (tf * (bm25K1 + 1) / denom)
		}
	}
	return scores
}

// ScoredDoc is a (doc_id, score) pair returned by Search.
type ScoredDoc struct {
	DocID string
	Score float64
}

// Search returns the top-k documents with score > 0, filtered by docType if
// non-empty, sorted by score descending with ties broken by insertion order.
func (idx *BM25Index) Search(queryTokens []string, k int, docType models.DocType) []ScoredDoc {
	scores := idx.Score(queryTokens)
	if scores == nil {
		return nil
	}

	type candidate struct {
		idx   int
		score float64
	}
	candidates := make([]candidate, 0, idx.numDocs)
	for i, score := range scores {
		if score <= 0 {
			continue
		}
		if docType != "" && idx.docTypes[i] != docType {
			continue
		}
		candidates = append(candidates, candidate{idx: i, score: score})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]ScoredDoc, len(candidates))
	for i, c := range candidates {
		out[i] = ScoredDoc{DocID: idx.docIDs[c.idx], Score: c.score}
	}
	return out
}

// Built reports whether Build has succeeded.
func (idx *BM25Index) Built() bool { return idx.built }
