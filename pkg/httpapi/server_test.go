package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
	"github.com/codeready-toolchain/alimtalk/pkg/service"
	"github.com/codeready-toolchain/alimtalk/pkg/workflow"
)

type stubLLM struct{}

func (stubLLM) Analyze(ctx context.Context, request string) (models.Analysis, error) {
	return models.Analysis{OriginalRequest: request, BusinessType: models.BusinessEducation, ServiceType: models.ServiceApplication, Tone: models.ToneFormal}, nil
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

func buildTestServer(t *testing.T) *Server {
	t.Helper()
	c := cache.New(time.Minute, 100)
	store := corpus.NewStore()

	a := analyzer.New(stubLLM{}, c)
	b := policy.NewBuilder(stubRetriever{})
	g := generator.New(stubLLM{}, c, store)
	reviewer := compliance.NewReviewer(stubLLM{})
	checker := compliance.NewChecker(reviewer)
	engine := workflow.New(a, b, g, checker, workflow.DefaultOptions())
	svc := service.New(engine, checker, store, c)

	return NewServer(svc)
}

func TestGenerateHandler(t *testing.T) {
	s := buildTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/templates/generate", strings.NewReader(`{"text":"온라인 파이썬 강의 수강 신청 완료 안내"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.GenerateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
}

func TestGenerateHandlerRejectsEmptyText(t *testing.T) {
	s := buildTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/templates/generate", strings.NewReader(`{"text":""}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	s := buildTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "\"status\":\"ok\"")
}

func TestListCategoriesHandler(t *testing.T) {
	s := buildTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	rec := httptest.NewRecorder()

	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "business_types")
}

func TestSearchExamplesHandlerRejectsInvalidBusinessType(t *testing.T) {
	s := buildTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates/examples?business_type=bogus", nil)
	rec := httptest.NewRecorder()

	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
