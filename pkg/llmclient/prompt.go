package llmclient

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/alimtalk/pkg/models"
)

const policyCoreReminder = "core: 1000 chars, #{var} format, information-only, no ads"

// AnalysisPrompt builds the analysis-stage prompt: a short system
// instruction plus the raw request as the user message.
func AnalysisPrompt(request string) (system, user string) {
	system = `당신은 카카오 알림톡 요청 분석기입니다. 다음 JSON 객체만 응답하세요:
{"business_type": "education|medical|restaurant|ecommerce|service|finance|other",
 "service_type": "application|reservation|order|delivery|notification|confirmation|feedback",
 "message_purpose": "...", "target_audience": "...", "tone": "formal|friendly|official",
 "urgency": "high|medium|low", "required_variables": ["..."],
 "estimated_category": {"category_1": "...", "category_2": "..."},
 "compliance_concerns": ["..."]}
다른 설명 없이 JSON만 반환하세요.`
	user = request
	return system, user
}

// GenerationPrompt builds the generation-stage prompt: business and
// service type, the original request, and a truncated policy summary.
func GenerationPrompt(analysis models.Analysis, policyContextText string) (system, user string) {
	summary := policyContextText
	if r := []rune(summary); len(r) > 150 {
		summary = string(r[:150])
	}
	summary = summary + " " + policyCoreReminder

	system = fmt.Sprintf(`당신은 카카오 알림톡 템플릿 생성기입니다. 업종: %s, 유형: %s.
정책 요약: %s
다음 JSON 객체만 응답하세요: {"template_text": "...", "variables": ["..."], "button_suggestion": "..."}`,
		analysis.BusinessType, analysis.ServiceType, summary)

	var feedback string
	if analysis.ComplianceFeedback != nil {
		feedback = fmt.Sprintf("\n이전 위반사항: %s\n개선사항: %s",
			strings.Join(analysis.ComplianceFeedback.Violations, ", "),
			strings.Join(analysis.ComplianceFeedback.Recommendations, ", "))
	}
	user = fmt.Sprintf("요청: %s\n대상: %s\n톤: %s%s",
		analysis.OriginalRequest, analysis.TargetAudience, analysis.Tone, feedback)
	return system, user
}

// ReviewPrompt builds the review-stage prompt.
func ReviewPrompt(templateText string) (system, user string) {
	system = `당신은 카카오 알림톡 컴플라이언스 검토자입니다. 다음 JSON 객체만 응답하세요:
{"is_compliant": true|false, "compliance_score": 0-100, "violations": ["..."], "recommendations": ["..."]}`
	user = templateText
	return system, user
}
