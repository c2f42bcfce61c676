package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/alimtalk/pkg/cache"
	"github.com/codeready-toolchain/alimtalk/pkg/llmclient"
	"github.com/codeready-toolchain/alimtalk/pkg/models"
)

// stubClient implements llmclient.Client for tests.
type stubClient struct {
	analysis models.Analysis
	err      error
	calls    int
}

func (s *stubClient) Analyze(ctx context.Context, request string) (models.Analysis, error) {
	s.calls++
	return s.analysis, s.err
}

func (s *stubClient) Generate(ctx context.Context, analysis models.Analysis, policyContextText string) (llmclient.GenerationResult, error) {
	return llmclient.GenerationResult{}, nil
}

func (s *stubClient) Review(ctx context.Context, templateText, policySummary string) (llmclient.ReviewResult, error) {
	return llmclient.ReviewResult{}, nil
}

func TestAnalyze_EnhancesWithKeywordRules(t *testing.T) {
	llm := &stubClient{analysis: models.Analysis{Tone: models.ToneFormal}}
	c := cache.New(0, 0)
	a := New(llm, c)

	analysis, err := a.Analyze(context.Background(), "강의 신청 완료 안내 문자입니다")
	assert.NoError(t, err)
	assert.Equal(t, models.BusinessEducation, analysis.BusinessType)
	assert.Equal(t, models.ServiceApplication, analysis.ServiceType)
	assert.Contains(t, analysis.RequiredVariables, "수신자명")
	assert.Equal(t, models.Category{Category1: "서비스이용", Category2: "이용안내/공지"}, analysis.EstimatedCategory)
}

func TestAnalyze_CachesResult(t *testing.T) {
	llm := &stubClient{analysis: models.Analysis{}}
	c := cache.New(0, 0)
	a := New(llm, c)

	_, _ = a.Analyze(context.Background(), "예약 확인 안내")
	_, _ = a.Analyze(context.Background(), "예약 확인 안내")
	assert.Equal(t, 1, llm.calls)
}

func TestAnalyze_DetectsUrgency(t *testing.T) {
	llm := &stubClient{}
	c := cache.New(0, 0)
	a := New(llm, c)

	analysis, _ := a.Analyze(context.Background(), "긴급 공지사항입니다")
	assert.Equal(t, models.UrgencyHigh, analysis.Urgency)
}
