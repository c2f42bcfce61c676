package compliance

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/alimtalk/pkg/models"
)

// RenderReport formats a ComplianceVerdict as a human-readable Markdown
// report for the validation endpoint.
func RenderReport(v models.ComplianceVerdict) string {
	var b strings.Builder

	status := "❌ 위반"
	if v.IsCompliant {
		status = "✅ 준수"
	}

	fmt.Fprintf(&b, "## 카카오 알림톡 정책 준수 검증 결과\n\n")
	fmt.Fprintf(&b, "### 종합 평가\n")
	fmt.Fprintf(&b, "- **준수 여부**: %s\n", status)
	fmt.Fprintf(&b, "- **준수 점수**: %.0f/100점\n", v.ComplianceScore)
	fmt.Fprintf(&b, "- **승인 가능성**: %s\n\n", v.ApprovalProbability)

	fmt.Fprintf(&b, "### 세부 점수\n")
	fmt.Fprintf(&b, "- 기본 규칙: %.0f/100점\n", v.DetailedScores.BasicRules)
	fmt.Fprintf(&b, "- 블랙리스트 검증: %.0f/100점\n", v.DetailedScores.BlacklistCheck)
	fmt.Fprintf(&b, "- 변수 사용: %.0f/100점\n", v.DetailedScores.VariableUsage)
	fmt.Fprintf(&b, "- AI 분석: %.0f/100점\n\n", v.DetailedScores.LLMAnalysis)

	fmt.Fprintf(&b, "### 위반사항 (%d건)\n", len(v.Violations))
	for i, violation := range v.Violations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, violation)
	}

	if len(v.Warnings) > 0 {
		fmt.Fprintf(&b, "\n### 경고사항 (%d건)\n", len(v.Warnings))
		for i, warning := range v.Warnings {
			fmt.Fprintf(&b, "%d. %s\n", i+1, warning)
		}
	}

	if len(v.Recommendations) > 0 {
		b.WriteString("\n### 개선 권장사항\n")
		for i, rec := range v.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
	}

	if len(v.RequiredChanges) > 0 {
		b.WriteString("\n### 필수 수정사항\n")
		for i, change := range v.RequiredChanges {
			fmt.Fprintf(&b, "%d. %s\n", i+1, change)
		}
	}

	return b.String()
}
