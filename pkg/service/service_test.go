package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/alimtalk/pkg/analyzer"
	"github.com/codeready-toolchain/alimtalk/pkg/cache"
	"github.com/codeready-toolchain/alimtalk/pkg/compliance"
	"github.com/codeready-toolchain/alimtalk/pkg/corpus"
	"github.com/codeready-toolchain/alimtalk/pkg/generator"
	"github.com/codeready-toolchain/alimtalk/pkg/llmclient"
	"github.com/codeready-toolchain/alimtalk/pkg/models"
	"github.com/codeready-toolchain/alimtalk/pkg/policy"
	"github.com/codeready-toolchain/alimtalk/pkg/workflow"
)

type stubLLM struct{}

func (stubLLM) Analyze(ctx context.Context, request string) (models.Analysis, error) {
	return models.Analysis{
		OriginalRequest: request,
		BusinessType:    models.BusinessEducation,
		ServiceType:     models.ServiceApplication,
		Tone:            models.ToneFormal,
	}, nil
}

func (stubLLM) Generate(ctx context.Context, analysis models.Analysis, policyContextText string) (llmclient.GenerationResult, error) {
	return llmclient.GenerationResult{
		TemplateText:     "안녕하세요. #{수신자명}님, 신청이 완료되었습니다. 본 메시지는 정보성 메시지입니다.",
		Variables:        []string{"수신자명"},
		ButtonSuggestion: "신청내역 확인",
	}, nil
}

func (stubLLM) Review(ctx context.Context, templateText, policySummary string) (llmclient.ReviewResult, error) {
	return llmclient.ReviewResult{ComplianceScore: 95, IsCompliant: true}, nil
}

type stubRetriever struct{}

func (stubRetriever) Search(ctx context.Context, query string, k int, docType models.DocType, mode models.RetrievalMode) []models.RetrievalResult {
	return nil
}

func buildTestService(t *testing.T) *Service {
	t.Helper()
	c := cache.New(time.Minute, 100)
	store := corpus.NewStore()
	store.AddTemplate("t1", &models.ApprovedTemplate{
		ID:   "t1",
		Text: "안녕하세요. #{수신자명}님, 신청이 완료되었습니다.",
		Metadata: models.TemplateMetadata{
			BusinessType: models.BusinessEducation,
			ServiceType:  models.ServiceApplication,
		},
	})

	a := analyzer.New(stubLLM{}, c)
	b := policy.NewBuilder(stubRetriever{})
	g := generator.New(stubLLM{}, c, store)
	reviewer := compliance.NewReviewer(stubLLM{})
	checker := compliance.NewChecker(reviewer)
	engine := workflow.New(a, b, g, checker, workflow.DefaultOptions())

	return New(engine, checker, store, c)
}

func TestGenerateTemplate(t *testing.T) {
	svc := buildTestService(t)
	result := svc.GenerateTemplate(context.Background(), models.Request{Text: "온라인 파이썬 강의 수강 신청 완료 안내"})

	require.True(t, result.Success)
	assert.Equal(t, models.BusinessEducation, result.Analysis.BusinessType)
}

func TestValidateTemplate(t *testing.T) {
	svc := buildTestService(t)
	result := svc.ValidateTemplate(context.Background(), ValidateInput{
		TemplateText: "할인 이벤트 무료 쿠폰 지급!!!",
	})

	assert.False(t, result.Verdict.IsCompliant)
	assert.Contains(t, result.Report, "❌ 위반")
}

func TestValidateTemplateRejectsExcessiveVariables(t *testing.T) {
	svc := buildTestService(t)

	var b strings.Builder
	b.WriteString("안녕하세요 고객님, 신청 내역을 안내드립니다. 본 안내는 정보성 메시지입니다. ")
	for i := 1; i <= 41; i++ {
		fmt.Fprintf(&b, "#{변수%d} ", i)
	}

	result := svc.ValidateTemplate(context.Background(), ValidateInput{TemplateText: b.String()})

	assert.False(t, result.Verdict.IsCompliant)
	require.NotEmpty(t, result.Verdict.RequiredChanges)
	assert.Contains(t, result.Verdict.RequiredChanges[0], "too many variables")
	assert.Equal(t, models.ApprovalLow, result.Verdict.ApprovalProbability)
}

func TestValidateTemplateExtractsVariablesFromText(t *testing.T) {
	svc := buildTestService(t)
	result := svc.ValidateTemplate(context.Background(), ValidateInput{
		TemplateText: "안녕하세요 #{수신자명}님, 강의 신청이 완료되었습니다. 일정: #{일정}",
	})

	// The missing information-notice marker is flagged but is not critical,
	// so the verdict stays compliant-with-violation.
	assert.True(t, result.Verdict.IsCompliant)
	assert.Contains(t, result.Verdict.Violations, "missing information-notice marker")
	assert.Empty(t, result.Verdict.RequiredChanges)
}

func TestGenerateTemplateServedFromCacheOnRepeat(t *testing.T) {
	svc := buildTestService(t)
	req := models.Request{Text: "온라인 파이썬 강의 수강 신청 완료 안내"}

	first := svc.GenerateTemplate(context.Background(), req)
	statsBefore := svc.Stats().CacheStats
	second := svc.GenerateTemplate(context.Background(), req)
	statsAfter := svc.Stats().CacheStats

	assert.Equal(t, first.Template, second.Template)
	assert.Equal(t, first.Analysis, second.Analysis)
	// Second run hits both the analysis and the generation entries.
	assert.Equal(t, statsBefore.Hits+2, statsAfter.Hits)
}

func TestSearchExamples(t *testing.T) {
	svc := buildTestService(t)
	examples := svc.SearchExamples(models.BusinessEducation, 5)

	require.Len(t, examples, 1)
	assert.Equal(t, "t1", examples[0].ID)
}

func TestListCategories(t *testing.T) {
	svc := buildTestService(t)
	categories := svc.ListCategories()

	assert.Contains(t, categories.BusinessTypes, "education")
	assert.Contains(t, categories.ServiceTypes, "application")
	assert.NotEmpty(t, categories.Category1Options)
}

func TestHealthCheck(t *testing.T) {
	svc := buildTestService(t)
	health := svc.HealthCheck()
	assert.Equal(t, "ok", health.Status)
}

func TestStats(t *testing.T) {
	svc := buildTestService(t)
	svc.GenerateTemplate(context.Background(), models.Request{Text: "주문 안내"})

	stats := svc.Stats()
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, 1, stats.TotalTemplates)
}
