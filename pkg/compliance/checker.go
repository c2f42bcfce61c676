package compliance

import (
	"context"
	"math"
	"strings"

	"github.com/codeready-toolchain/alimtalk/pkg/models"
)

// Checker runs the deterministic sub-checks plus the advisory reviewer
// and combines them into a single ComplianceVerdict.
type Checker struct {
	reviewer *Reviewer
}

// NewChecker wires a Checker. reviewer must not be nil.
func NewChecker(reviewer *Reviewer) *Checker {
	if reviewer == nil {
		panic("compliance.NewChecker: reviewer must not be nil")
	}
	return &Checker{reviewer: reviewer}
}

// Check runs every sub-check and aggregates the results. A non-nil error
// means the advisory LLM review was unavailable and its neutral default
// was aggregated instead; the verdict is always usable.
func (c *Checker) Check(ctx context.Context, template models.Template, policyContextSummary string) (models.ComplianceVerdict, error) {
	basic := BasicRules(template.Text)
	blacklist := Blacklist(template.Text)
	variables := VariableUsage(template.Variables, template.ButtonSuggestion, template.Text)
	llm, err := c.reviewer.Review(ctx, template.Text, policyContextSummary)

	return Aggregate(basic, blacklist, variables, llm), err
}

// violationPhrases maps a violation substring to a human
// recommendation.
var violationPhrases = []struct {
	match      string
	suggestion string
}{
	{"length exceeded", "메시지 길이를 1000자 이내로 줄이세요"},
	{"blacklist", "금지된 표현을 제거하세요"},
	{"promotional", "광고성 표현을 제거하세요"},
	{"only of variables", "변수 외에 실제 안내 문구를 추가하세요"},
	{"invalid variable names", "변수명 형식을 한글/영문/숫자/밑줄로 제한하세요"},
	{"contact info", "연락처 정보 노출을 줄이세요"},
	{"missing information-notice", "정보성 메시지임을 알리는 문구를 추가하세요"},
	{"button suggestion", "버튼 제안에서 변수 플레이스홀더를 제거하세요"},
}

// criticalMarkers identifies violations that must block approval.
var criticalMarkers = []string{"blacklist", "promotional", "variables only", "length exceeded"}

// Aggregate is the stateless combination of the rule and reviewer
// outputs into a ComplianceVerdict.
func Aggregate(basic, blacklist, variables, llm RuleResult) models.ComplianceVerdict {
	combined := 0.30*basic.Score + 0.40*blacklist.Score + 0.20*variables.Score + 0.10*llm.Score
	combined = math.Round(combined*10) / 10

	violations := dedupeAppend(basic.Violations, blacklist.Violations, variables.Violations, llm.Violations)
	warnings := dedupeAppend(basic.Warnings, blacklist.Warnings, variables.Warnings, llm.Warnings)

	var requiredChanges []string
	for _, v := range violations {
		for _, marker := range criticalMarkers {
			if strings.Contains(v, marker) {
				requiredChanges = append(requiredChanges, v)
				break
			}
		}
	}

	isCompliant := len(requiredChanges) == 0 && combined >= 80

	var approval models.ApprovalProbability
	switch {
	case len(requiredChanges) > 0:
		approval = models.ApprovalLow
	case combined >= 90:
		approval = models.ApprovalHigh
	case combined >= 75:
		approval = models.ApprovalMedium
	default:
		approval = models.ApprovalLow
	}

	recommendations := buildRecommendations(violations, llm.Recommendations)

	return models.ComplianceVerdict{
		IsCompliant:         isCompliant,
		ComplianceScore:     combined,
		Violations:          violations,
		Warnings:            warnings,
		Recommendations:     recommendations,
		ApprovalProbability: approval,
		RequiredChanges:     requiredChanges,
		DetailedScores: models.DetailedScores{
			BasicRules:     basic.Score,
			BlacklistCheck: blacklist.Score,
			VariableUsage:  variables.Score,
			LLMAnalysis:    llm.Score,
		},
	}
}

func buildRecommendations(violations, llmRecommendations []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, v := range violations {
		for _, phrase := range violationPhrases {
			if strings.Contains(v, phrase.match) {
				add(phrase.suggestion)
			}
		}
	}
	for _, r := range llmRecommendations {
		add(r)
	}
	return out
}

func dedupeAppend(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, item := range list {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
