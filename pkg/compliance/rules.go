// Package compliance implements the deterministic rule checks, the
// advisory LLM-backed reviewer, and the aggregation that combines both
// into a single verdict.
package compliance

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	phoneNumberPattern = regexp.MustCompile(`0\d{1,2}[-.\s]?\d{3,4}[-.\s]?\d{4}`)
	variableNamePattern = regexp.MustCompile(`^[가-힣a-zA-Z0-9_ ]{1,20}$`)
	buttonHashBrace     = regexp.MustCompile(`#\{`)
)

var advertisingKeywords = []string{"할인", "특가", "이벤트", "프로모션", "혜택", "무료", "선착순", "한정", "특별", "기회", "놓치지"}

var greetingTokens = []string{"안녕하세요", "안녕하십니까", "반갑습니다"}
var noticeTokens = []string{"정보성 메시지", "안내 메시지", "발송되는 메시지"}

// blacklistPatterns maps each prohibited category to the regexes that
// detect it. The patterns live in this table so they can be tuned without
// touching the scoring code.
var blacklistPatterns = map[string][]*regexp.Regexp{
	"free_service": {
		regexp.MustCompile(`무료\s*(체험|제공|이용|증정)`),
		regexp.MustCompile(`공짜`),
	},
	"point_accumulation": {
		regexp.MustCompile(`포인트\s*(적립|지급|증정)`),
		regexp.MustCompile(`적립금`),
	},
	"coupon_issuance": {
		regexp.MustCompile(`쿠폰\s*(발급|지급|증정|다운로드)`),
	},
	"promotional_content": {
		regexp.MustCompile(`(할인|특가)\s*(이벤트|쿠폰|혜택)`),
		regexp.MustCompile(`최대\s*\d+\s*%\s*할인`),
	},
	"spam_pattern": {
		regexp.MustCompile(`(지금\s*바로|서두르세요|마감임박)`),
		regexp.MustCompile(`!{3,}`),
	},
}

// blacklistCategoryOrder fixes iteration order for deterministic output.
var blacklistCategoryOrder = []string{"free_service", "point_accumulation", "coupon_issuance", "promotional_content", "spam_pattern"}

// RuleResult is a single sub-check's outcome.
type RuleResult struct {
	Score           float64
	Violations      []string
	Warnings        []string
	Recommendations []string
}

// BasicRules implements the "basic rules" sub-check.
func BasicRules(text string) RuleResult {
	score := 100.0
	var violations, warnings []string

	if len([]rune(text)) > 1000 {
		score -= 20
		violations = append(violations, "message length exceeded")
	}

	hasGreeting := false
	for _, g := range greetingTokens {
		if strings.Contains(text, g) {
			hasGreeting = true
			break
		}
	}
	if !hasGreeting {
		score -= 5
		warnings = append(warnings, "missing greeting")
	}

	hasNotice := false
	for _, n := range noticeTokens {
		if strings.Contains(text, n) {
			hasNotice = true
			break
		}
	}
	if !hasNotice {
		score -= 15
		violations = append(violations, "missing information-notice marker")
	}

	var foundAds []string
	for _, kw := range advertisingKeywords {
		if strings.Contains(text, kw) {
			foundAds = append(foundAds, kw)
		}
	}
	if len(foundAds) > 0 {
		sort.SliceStable(foundAds, func(i, j int) bool {
			return strings.Index(text, foundAds[i]) < strings.Index(text, foundAds[j])
		})
		score -= 25
		violations = append(violations, "promotional keywords present: "+strings.Join(foundAds, ", "))
	}

	if len(phoneNumberPattern.FindAllString(text, -1)) > 2 {
		score -= 10
		violations = append(violations, "excessive contact info")
	}

	return RuleResult{Score: clampScore(score), Violations: violations, Warnings: warnings}
}

// Blacklist implements the "blacklist" sub-check.
func Blacklist(text string) RuleResult {
	score := 100.0
	var violations []string

	for _, category := range blacklistCategoryOrder {
		for _, pattern := range blacklistPatterns[category] {
			if pattern.MatchString(text) {
				score -= 30
				violations = append(violations, "blacklist violation: "+category)
				break
			}
		}
	}

	return RuleResult{Score: clampScore(score), Violations: violations}
}

// VariableUsage implements the "variable usage" sub-check.
func VariableUsage(variables []string, buttonSuggestion, text string) RuleResult {
	score := 100.0
	var violations []string

	if len(variables) > 40 {
		score -= 25
		violations = append(violations, "too many variables: variables only allows up to 40")
	}

	stripped := variablePattern.ReplaceAllString(text, "")
	nonSpace := 0
	for _, r := range stripped {
		if !unicode.IsSpace(r) {
			nonSpace++
		}
	}
	if nonSpace < 10 {
		score -= 30
		violations = append(violations, "template consists only of variables")
	}

	var offending []string
	for _, v := range variables {
		if !variableNamePattern.MatchString(v) {
			offending = append(offending, v)
		}
	}
	if len(offending) > 0 {
		score -= 10
		violations = append(violations, "invalid variable names: "+strings.Join(offending, ", "))
	}

	if buttonHashBrace.MatchString(buttonSuggestion) {
		score -= 15
		violations = append(violations, "button suggestion contains a variable placeholder")
	}

	return RuleResult{Score: clampScore(score), Violations: violations}
}

var variablePattern = regexp.MustCompile(`#\{[^}]+\}`)

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
