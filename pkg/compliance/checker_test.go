package compliance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/alimtalk/pkg/llmclient"
	"github.com/codeready-toolchain/alimtalk/pkg/models"
)

type stubClient struct {
	review llmclient.ReviewResult
	err    error
}

func (s *stubClient) Analyze(ctx context.Context, request string) (models.Analysis, error) {
	return models.Analysis{}, nil
}

func (s *stubClient) Generate(ctx context.Context, analysis models.Analysis, policyContextText string) (llmclient.GenerationResult, error) {
	return llmclient.GenerationResult{}, nil
}

func (s *stubClient) Review(ctx context.Context, templateText, policySummary string) (llmclient.ReviewResult, error) {
	return s.review, s.err
}

func TestBasicRules_FlagsPromotionalKeywords(t *testing.T) {
	result := BasicRules("안녕하세요 #{수신자명}님, 지금 할인 이벤트 특가! 정보성 메시지입니다.")
	assert.Less(t, result.Score, 100.0)
	assert.Contains(t, result.Violations[0], "promotional")
}

func TestBlacklist_DetectsFreeServicePattern(t *testing.T) {
	result := Blacklist("이번 주 무료 체험 서비스를 제공합니다.")
	assert.Equal(t, 70.0, result.Score)
	assert.Contains(t, result.Violations, "blacklist violation: free_service")
}

func TestVariableUsage_FlagsVariableOnlyText(t *testing.T) {
	result := VariableUsage([]string{"수신자명"}, "", "#{수신자명}")
	assert.Contains(t, result.Violations, "template consists only of variables")
}

func TestAggregate_CombinesWeightedScores(t *testing.T) {
	basic := RuleResult{Score: 100}
	blacklist := RuleResult{Score: 100}
	variables := RuleResult{Score: 100}
	llm := RuleResult{Score: 80}

	verdict := Aggregate(basic, blacklist, variables, llm)
	assert.InDelta(t, 98.0, verdict.ComplianceScore, 0.001)
	assert.True(t, verdict.IsCompliant)
	assert.Equal(t, models.ApprovalHigh, verdict.ApprovalProbability)
}

func TestAggregate_BlacklistViolationBlocksApproval(t *testing.T) {
	basic := RuleResult{Score: 100}
	blacklist := RuleResult{Score: 70, Violations: []string{"blacklist violation: free_service"}}
	variables := RuleResult{Score: 100}
	llm := RuleResult{Score: 80}

	verdict := Aggregate(basic, blacklist, variables, llm)
	assert.False(t, verdict.IsCompliant)
	assert.NotEmpty(t, verdict.RequiredChanges)
	assert.Equal(t, models.ApprovalLow, verdict.ApprovalProbability)
}

func TestReviewer_FallsBackToNeutralOnError(t *testing.T) {
	client := &stubClient{err: assertError{}}
	reviewer := NewReviewer(client)

	result, err := reviewer.Review(context.Background(), "text", "summary")
	assert.Error(t, err)
	assert.Equal(t, neutralLLMScore, result.Score)
}

type assertError struct{}

func (assertError) Error() string { return "llm unavailable" }
