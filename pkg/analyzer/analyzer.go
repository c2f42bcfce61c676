// Package analyzer implements the LLM-backed request classification
// step, enhanced with deterministic Korean keyword rules that re-anchor
// the closed enums when the model drifts.
package analyzer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/codeready-toolchain/alimtalk/pkg/cache"
	"github.com/codeready-toolchain/alimtalk/pkg/korean"
	"github.com/codeready-toolchain/alimtalk/pkg/llmclient"
	"github.com/codeready-toolchain/alimtalk/pkg/models"
)

// businessKeywords maps business types to the Korean keywords that
// strongly imply them.
var businessKeywords = map[models.BusinessType][]string{
	models.BusinessEducation:  {"강의", "수강", "교육", "학습", "코스", "강좌", "교실", "학원"},
	models.BusinessMedical:    {"병원", "진료", "예약", "치료", "의료", "건강", "상담"},
	models.BusinessRestaurant: {"주문", "배달", "음식", "식당", "메뉴", "예약"},
	models.BusinessEcommerce:  {"구매", "주문", "배송", "상품", "결제", "쇼핑"},
	models.BusinessService:    {"예약", "상담", "서비스", "이용", "문의"},
	models.BusinessFinance:    {"결제", "송금", "계좌", "카드", "대출", "보험"},
}

// businessOrder fixes the iteration order of businessKeywords so the
// first strong match wins deterministically.
var businessOrder = []models.BusinessType{
	models.BusinessEducation, models.BusinessMedical, models.BusinessRestaurant,
	models.BusinessEcommerce, models.BusinessService, models.BusinessFinance,
}

var serviceKeywords = map[models.ServiceType][]string{
	models.ServiceApplication:  {"신청", "등록", "가입", "접수"},
	models.ServiceReservation:  {"예약", "예정", "일정"},
	models.ServiceOrder:        {"주문", "구매", "결제"},
	models.ServiceDelivery:     {"배송", "발송", "택배", "출고"},
	models.ServiceNotification: {"안내", "공지", "알림", "정보"},
	models.ServiceConfirmation: {"확인", "승인", "완료"},
	models.ServiceFeedback:     {"후기", "평가", "리뷰", "만족도"},
}

var serviceOrder = []models.ServiceType{
	models.ServiceApplication, models.ServiceReservation, models.ServiceOrder,
	models.ServiceDelivery, models.ServiceNotification, models.ServiceConfirmation,
	models.ServiceFeedback,
}

// variablePatterns maps variable display names to the request keywords
// that imply them.
var variablePatterns = []struct {
	name     string
	keywords []string
}{
	{"날짜", []string{"일정", "날짜", "시간", "예약"}},
	{"금액", []string{"금액", "가격", "비용", "요금"}},
	{"상품명", []string{"상품", "제품", "서비스명"}},
	{"주소", []string{"주소", "위치", "장소"}},
	{"연락처", []string{"전화", "연락처", "번호"}},
	{"코드", []string{"코드", "번호", "인증"}},
}

var urgencyKeywords = []struct {
	urgency  models.Urgency
	keywords []string
}{
	{models.UrgencyHigh, []string{"긴급", "즉시", "빠른", "urgent"}},
	{models.UrgencyLow, []string{"일반", "정기", "안내"}},
}

type categoryKey struct {
	business models.BusinessType
	service  models.ServiceType
}

// categoryMapping is the fixed (business_type, service_type) to category
// lookup table.
var categoryMapping = map[categoryKey]models.Category{
	{models.BusinessEducation, models.ServiceApplication}:  {Category1: "서비스이용", Category2: "이용안내/공지"},
	{models.BusinessEducation, models.ServiceNotification}: {Category1: "서비스이용", Category2: "이용안내/공지"},
	{models.BusinessEcommerce, models.ServiceOrder}:        {Category1: "거래", Category2: "주문/결제"},
	{models.BusinessEcommerce, models.ServiceDelivery}:     {Category1: "거래", Category2: "배송"},
	{models.BusinessMedical, models.ServiceReservation}:    {Category1: "서비스이용", Category2: "예약/신청"},
	{models.BusinessService, models.ServiceReservation}:    {Category1: "서비스이용", Category2: "예약/신청"},
}

var defaultCategory = models.Category{Category1: "서비스이용", Category2: "이용안내/공지"}

var (
	promotionalKeywords = []string{"할인", "이벤트", "프로모션", "혜택", "특가"}
	prohibitedKeywords  = []string{"무료", "쿠폰", "포인트", "적립"}
)

// Analyzer classifies raw requests into the business/service taxonomy.
type Analyzer struct {
	llm   llmclient.Client
	cache *cache.Cache
}

// New wires an Analyzer. llm and cache must not be nil.
func New(llm llmclient.Client, c *cache.Cache) *Analyzer {
	if llm == nil || c == nil {
		panic("analyzer.New: llm and cache must not be nil")
	}
	return &Analyzer{llm: llm, cache: c}
}

// Analyze classifies request. A non-nil error means the LLM call failed
// and the returned Analysis is the deterministic default enhanced by the
// keyword rules; the analysis is always usable, the error is for the
// caller's workflow_info.errors record.
func (a *Analyzer) Analyze(ctx context.Context, request string) (models.Analysis, error) {
	key := cache.Fingerprint(cache.NamespaceRequestAnalysis, request)
	if cached, ok := a.cache.Get(key); ok {
		if analysis, ok := cached.(models.Analysis); ok {
			return analysis, nil
		}
	}

	analysis, err := a.llm.Analyze(ctx, request)
	if err != nil {
		slog.Warn("request analysis fell back to deterministic default", "err", err)
	}
	analysis.OriginalRequest = request

	analysis = classifyByKeywords(analysis, request)
	analysis = extractVariables(analysis, request)
	analysis = setUrgency(analysis, request)
	analysis = applyBusinessRules(analysis, request)

	a.cache.Set(key, analysis)
	return analysis, err
}

// ApproximateCategory derives a cheap business_type/service_type guess
// straight from the keyword rules, without an LLM round trip. It backs
// the optional parallel analyze+retrieve path: retrieval can start from
// this approximation while the full Analyze call is still in flight.
func ApproximateCategory(request string) models.Analysis {
	return classifyByKeywords(models.Analysis{}, request)
}

func classifyByKeywords(analysis models.Analysis, request string) models.Analysis {
	for _, bt := range businessOrder {
		if containsAny(request, businessKeywords[bt]) {
			analysis.BusinessType = bt
			break
		}
	}
	for _, st := range serviceOrder {
		if containsAny(request, serviceKeywords[st]) {
			analysis.ServiceType = st
			break
		}
	}
	if !analysis.BusinessType.Valid() {
		analysis.BusinessType = models.BusinessOther
	}
	if !analysis.ServiceType.Valid() {
		analysis.ServiceType = models.ServiceNotification
	}
	return analysis
}

func extractVariables(analysis models.Analysis, request string) models.Analysis {
	variables := []string{"수신자명"}
	for _, vp := range variablePatterns {
		if containsAny(request, vp.keywords) {
			variables = append(variables, vp.name)
		}
	}
	analysis.RequiredVariables = korean.DedupOrdered(variables)
	return analysis
}

func setUrgency(analysis models.Analysis, request string) models.Analysis {
	urgency := models.UrgencyMedium
	for _, uk := range urgencyKeywords {
		if containsAny(request, uk.keywords) {
			urgency = uk.urgency
			break
		}
	}
	analysis.Urgency = urgency
	return analysis
}

func applyBusinessRules(analysis models.Analysis, request string) models.Analysis {
	key := categoryKey{business: analysis.BusinessType, service: analysis.ServiceType}
	if cat, ok := categoryMapping[key]; ok {
		analysis.EstimatedCategory = cat
	} else {
		analysis.EstimatedCategory = defaultCategory
	}

	var concerns []string
	if containsAny(request, promotionalKeywords) {
		concerns = append(concerns, "possible promotional content")
	}
	if containsAny(request, prohibitedKeywords) {
		concerns = append(concerns, "possibly prohibited keywords")
	}
	analysis.ComplianceConcerns = append(analysis.ComplianceConcerns, concerns...)
	return analysis
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
