package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/alimtalk/pkg/models"
	"github.com/codeready-toolchain/alimtalk/pkg/pipelineerrors"
)

func buildTestIndex(t *testing.T) *BM25Index {
	t.Helper()
	idx := NewBM25Index()
	err := idx.Build([]Document{
		{ID: "d1", Tokens: []string{"예약", "안내", "병원", "예약"}, DocType: models.DocTypePolicy},
		{ID: "d2", Tokens: []string{"예약", "확인"}, DocType: models.DocTypePolicy},
		{ID: "d3", Tokens: []string{"배송", "조회"}, DocType: models.DocTypeTemplate},
	})
	require.NoError(t, err)
	return idx
}

func TestBM25BuildEmptyCorpus(t *testing.T) {
	idx := NewBM25Index()
	err := idx.Build(nil)
	require.ErrorIs(t, err, pipelineerrors.ErrIndexBuild)
	assert.False(t, idx.Built())
}

func TestBM25ScoreBeforeBuild(t *testing.T) {
	idx := NewBM25Index()
	assert.Nil(t, idx.Score([]string{"예약"}))
}

func TestBM25SearchRanksByScore(t *testing.T) {
	idx := buildTestIndex(t)

	results := idx.Search([]string{"예약"}, 10, "")
	require.Len(t, results, 2)
	// d1 carries the query term twice, d2 once; d3 never and must be absent.
	assert.Equal(t, "d1", results[0].DocID)
	assert.Equal(t, "d2", results[1].DocID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestBM25SearchTiesBreakByInsertionOrder(t *testing.T) {
	idx := NewBM25Index()
	require.NoError(t, idx.Build([]Document{
		{ID: "first", Tokens: []string{"안내", "공지"}, DocType: models.DocTypePolicy},
		{ID: "second", Tokens: []string{"안내", "공지"}, DocType: models.DocTypePolicy},
	}))

	results := idx.Search([]string{"안내"}, 10, "")
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].DocID)
	assert.Equal(t, "second", results[1].DocID)
}

func TestBM25SearchFiltersByDocType(t *testing.T) {
	idx := buildTestIndex(t)

	results := idx.Search([]string{"배송"}, 10, models.DocTypeTemplate)
	require.Len(t, results, 1)
	assert.Equal(t, "d3", results[0].DocID)

	assert.Empty(t, idx.Search([]string{"배송"}, 10, models.DocType("unknown")))
}

func TestBM25SearchCapsAtK(t *testing.T) {
	idx := buildTestIndex(t)
	results := idx.Search([]string{"예약"}, 1, "")
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].DocID)
}

func TestBM25ScoreAlignedWithDocumentOrder(t *testing.T) {
	idx := buildTestIndex(t)
	scores := idx.Score([]string{"배송"})
	require.Len(t, scores, 3)
	assert.Zero(t, scores[0])
	assert.Zero(t, scores[1])
	assert.Greater(t, scores[2], 0.0)
}
