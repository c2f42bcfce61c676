package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/alimtalk/pkg/models"
)

func TestRenderReportCompliant(t *testing.T) {
	v := models.ComplianceVerdict{
		IsCompliant:         true,
		ComplianceScore:     95,
		ApprovalProbability: models.ApprovalHigh,
		DetailedScores: models.DetailedScores{
			BasicRules: 100, BlacklistCheck: 100, VariableUsage: 90, LLMAnalysis: 90,
		},
	}
	report := RenderReport(v)

	assert.Contains(t, report, "✅ 준수")
	assert.Contains(t, report, "95/100점")
	assert.Contains(t, report, "위반사항 (0건)")
	assert.NotContains(t, report, "필수 수정사항")
}

func TestRenderReportNonCompliant(t *testing.T) {
	v := models.ComplianceVerdict{
		IsCompliant:     false,
		ComplianceScore: 40,
		Violations:      []string{"blacklist violation: free_service"},
		RequiredChanges: []string{"blacklist violation: free_service"},
		Recommendations: []string{"금지된 표현을 제거하세요"},
	}
	report := RenderReport(v)

	assert.Contains(t, report, "❌ 위반")
	assert.Contains(t, report, "위반사항 (1건)")
	assert.Contains(t, report, "필수 수정사항")
	assert.Contains(t, report, "금지된 표현을 제거하세요")
}
