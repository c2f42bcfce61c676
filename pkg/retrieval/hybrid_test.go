package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/alimtalk/pkg/corpus"
	"github.com/codeready-toolchain/alimtalk/pkg/korean"
	"github.com/codeready-toolchain/alimtalk/pkg/models"
	"github.com/codeready-toolchain/alimtalk/pkg/pipelineerrors"
)

// stubEmbedder serves fixed vectors per text so dense ranking is scripted.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0}, nil
}

const (
	docHospital  = "병원 진료 예약 안내 예약 문서"
	docLecture   = "강의 수강 신청 안내 문서"
	docDelivery  = "배송 조회 방법 안내 문서"
	queryMixed   = "수강 예약"
	queryNothing = "존재하지않는검색어"
)

// buildHybrid indexes three policy chunks whose dense and sparse rankings
// deliberately disagree: the query's vector is closest to the lecture doc,
// while BM25 gives the hospital doc a hit too.
func buildHybrid(t *testing.T, embedder *stubEmbedder, wDense, wSparse float64, normalize bool) (*HybridRetriever, *corpus.Store) {
	t.Helper()

	store := corpus.NewStore()
	store.AddChunk("hospital", &models.PolicyChunk{Content: docHospital, Source: "hospital.md", PolicyType: models.PolicyGeneral})
	store.AddChunk("lecture", &models.PolicyChunk{Content: docLecture, Source: "lecture.md", PolicyType: models.PolicyGeneral})
	store.AddChunk("delivery", &models.PolicyChunk{Content: docDelivery, Source: "delivery.md", PolicyType: models.PolicyGeneral})

	tokenizer := korean.New()
	vectorIndex := NewVectorIndex(embedder)
	for _, id := range []string{"hospital", "lecture", "delivery"} {
		chunk, _ := store.Chunk(id)
		require.NoError(t, vectorIndex.Upsert(context.Background(), id, models.DocTypePolicy, chunk.Content, nil))
	}

	bm25 := NewBM25Index()
	require.NoError(t, bm25.Build([]Document{
		{ID: "hospital", Tokens: tokenizer.Tokenize(docHospital), DocType: models.DocTypePolicy},
		{ID: "lecture", Tokens: tokenizer.Tokenize(docLecture), DocType: models.DocTypePolicy},
		{ID: "delivery", Tokens: tokenizer.Tokenize(docDelivery), DocType: models.DocTypePolicy},
	}))

	return NewHybridRetriever(vectorIndex, bm25, tokenizer, store, wDense, wSparse, normalize), store
}

func scriptedEmbedder() *stubEmbedder {
	return &stubEmbedder{vectors: map[string][]float32{
		docHospital: {1, 0, 0},
		docLecture:  {0, 1, 0},
		docDelivery: {0, 0, 1},
		queryMixed:  {0.1, 0.9, 0},
	}}
}

func TestHybridSearchFusesBothSides(t *testing.T) {
	h, _ := buildHybrid(t, scriptedEmbedder(), 0.7, 0.3, false)

	results := h.Search(context.Background(), queryMixed, 3, "", models.ModeHybrid)
	require.NotEmpty(t, results)

	// Dense strongly favors the lecture doc; sparse hits both lecture (수강)
	// and hospital (예약). With w_dense 0.7 the lecture doc must lead.
	assert.Equal(t, "lecture", results[0].DocID)
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
		require.NotNil(t, r.Chunk)
	}
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].FusedScore, results[i].FusedScore)
	}
}

func TestHybridWeightsConvergeToSparseRanking(t *testing.T) {
	h, _ := buildHybrid(t, scriptedEmbedder(), 0, 1, false)

	hybrid := h.Search(context.Background(), queryMixed, 3, "", models.ModeHybrid)
	sparse := h.Search(context.Background(), queryMixed, 3, "", models.ModeSparse)
	require.NotEmpty(t, sparse)

	// With w_dense = 0 the fused ranking of sparse-scored docs must match
	// the BM25 ranking.
	for i := range sparse {
		assert.Equal(t, sparse[i].DocID, hybrid[i].DocID)
	}
}

func TestHybridWeightsConvergeToDenseRanking(t *testing.T) {
	h, _ := buildHybrid(t, scriptedEmbedder(), 1, 0, false)

	hybrid := h.Search(context.Background(), queryMixed, 3, "", models.ModeHybrid)
	dense := h.Search(context.Background(), queryMixed, 3, "", models.ModeDense)
	require.NotEmpty(t, dense)

	assert.Equal(t, dense[0].DocID, hybrid[0].DocID)
}

func TestHybridRenormalizesWeights(t *testing.T) {
	// 1.4 / 0.6 must behave as 0.7 / 0.3.
	scaled, _ := buildHybrid(t, scriptedEmbedder(), 1.4, 0.6, false)
	reference, _ := buildHybrid(t, scriptedEmbedder(), 0.7, 0.3, false)

	got := scaled.Search(context.Background(), queryMixed, 3, "", models.ModeHybrid)
	want := reference.Search(context.Background(), queryMixed, 3, "", models.ModeHybrid)
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].DocID, got[i].DocID)
		assert.InDelta(t, want[i].FusedScore, got[i].FusedScore, 1e-9)
	}
}

func TestHybridDegradesToSparseWhenEmbeddingFails(t *testing.T) {
	embedder := &stubEmbedder{err: pipelineerrors.ErrUpstreamUnavailable}
	store := corpus.NewStore()
	store.AddChunk("hospital", &models.PolicyChunk{Content: docHospital, Source: "hospital.md", PolicyType: models.PolicyGeneral})

	tokenizer := korean.New()
	vectorIndex := NewVectorIndex(embedder)
	bm25 := NewBM25Index()
	require.NoError(t, bm25.Build([]Document{
		{ID: "hospital", Tokens: tokenizer.Tokenize(docHospital), DocType: models.DocTypePolicy},
	}))
	h := NewHybridRetriever(vectorIndex, bm25, tokenizer, store, 0.7, 0.3, false)

	results := h.Search(context.Background(), "예약 안내", 3, "", models.ModeHybrid)
	require.Len(t, results, 1)
	assert.Equal(t, "hospital", results[0].DocID)
	assert.Zero(t, results[0].DenseScore)
	assert.Greater(t, results[0].SparseScore, 0.0)
}

func TestHybridNormalizationBoundsScores(t *testing.T) {
	h, _ := buildHybrid(t, scriptedEmbedder(), 0.7, 0.3, true)

	results := h.Search(context.Background(), queryMixed, 3, "", models.ModeHybrid)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.DenseScore, 0.0)
		assert.LessOrEqual(t, r.DenseScore, 1.0)
		assert.GreaterOrEqual(t, r.SparseScore, 0.0)
		assert.LessOrEqual(t, r.SparseScore, 1.0)
	}
}

func TestHybridNoMatchesReturnsEmpty(t *testing.T) {
	h, _ := buildHybrid(t, scriptedEmbedder(), 0.7, 0.3, false)
	results := h.Search(context.Background(), queryNothing, 3, "", models.ModeSparse)
	assert.Empty(t, results)
}
