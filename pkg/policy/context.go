// Package policy groups, deduplicates and formats hybrid retrieval
// results into the prompt context consumed by the template generator and
// the LLM compliance reviewer.
package policy

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/codeready-toolchain/alimtalk/pkg/models"
)

// Retriever is the subset of HybridRetriever's surface this package depends
// on, kept as an interface so callers can substitute a fake in tests.
type Retriever interface {
	Search(ctx context.Context, query string, k int, docType models.DocType, mode models.RetrievalMode) []models.RetrievalResult
}

const maxContextChars = 6000

// subQueries is the fixed per-context-type list used for secondary
// retrieval.
var subQueries = map[models.ContextType][]string{
	models.ContextTemplateGeneration: {"template writing guide", "message type guide", "variable usage rules"},
	models.ContextComplianceCheck:    {"compliance review guide", "blacklist patterns", "advertising keyword rules"},
	models.ContextGeneral:            {"alimtalk policy overview"},
}

// titles is the fixed title table used when grouping by policy type.
var titles = map[models.PolicyType]string{
	models.PolicyReviewGuidelines:         "심사 가이드라인",
	models.PolicyContentGuidelines:        "콘텐츠 가이드라인",
	models.PolicyAllowedTemplates:         "허용 템플릿 예시",
	models.PolicyProhibitedTemplates:      "금지 템플릿 예시",
	models.PolicyOperationalProcedures:    "운영 절차",
	models.PolicyImageGuidelines:          "이미지 가이드라인",
	models.PolicyInfotalkGuidelines:       "정보성 메시지 가이드라인",
	models.PolicyPublicTemplateGuidelines: "공용 템플릿 가이드라인",
	models.PolicyGeneral:                  "일반 정책",
}

const fallbackContext = "알림톡은 정보성 메시지여야 하며, 1000자 이내, #{변수명} 형식의 변수를 40개까지 사용할 수 있고, 광고성 내용을 포함할 수 없습니다."

// Builder assembles PolicyContextData for a query.
type Builder struct {
	retriever Retriever
}

// NewBuilder wires a Builder. retriever must not be nil.
func NewBuilder(retriever Retriever) *Builder {
	if retriever == nil {
		panic("policy.NewBuilder: retriever must not be nil")
	}
	return &Builder{retriever: retriever}
}

// Build runs primary plus per-context-type secondary retrieval, dedupes
// and caps the results, and formats them into prose grouped by policy
// type.
func (b *Builder) Build(ctx context.Context, query string, contextType models.ContextType) models.PolicyContextData {
	if contextType == "" {
		contextType = models.ContextGeneral
	}

	results := b.retriever.Search(ctx, query, 8, "", models.ModeHybrid)
	for _, sub := range subQueries[contextType] {
		results = append(results, b.retriever.Search(ctx, sub, 3, "", models.ModeHybrid)...)
	}

	deduped := dedupeByContentHash(results)

	// Relevance within a result set is the fused score; a chunk's stored
	// RelevanceScore is only meaningful at ingestion time.
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].FusedScore > deduped[j].FusedScore
	})
	if len(deduped) > 10 {
		deduped = deduped[:10]
	}

	if len(deduped) == 0 {
		return models.PolicyContextData{ContextText: fallbackContext, TotalChunks: 0}
	}

	return assembleContext(deduped)
}

func dedupeByContentHash(results []models.RetrievalResult) []models.RetrievalResult {
	seen := make(map[string]struct{}, len(results))
	out := make([]models.RetrievalResult, 0, len(results))
	for _, r := range results {
		content := r.Content()
		if strings.TrimSpace(content) == "" {
			continue
		}
		prefix := content
		if r := []rune(prefix); len(r) > 100 {
			prefix = string(r[:100])
		}
		sum := md5.Sum([]byte(prefix))
		key := hex.EncodeToString(sum[:])
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func assembleContext(results []models.RetrievalResult) models.PolicyContextData {
	groups := make(map[models.PolicyType][]models.RetrievalResult)
	var groupOrder []models.PolicyType
	sourceSet := make(map[string]struct{})
	typeSet := make(map[models.PolicyType]struct{})

	for _, r := range results {
		sourceSet[r.DocID] = struct{}{}

		pt := models.PolicyGeneral
		if r.Chunk != nil {
			pt = r.Chunk.PolicyType
		}
		typeSet[pt] = struct{}{}

		if _, ok := groups[pt]; !ok {
			groupOrder = append(groupOrder, pt)
		}
		groups[pt] = append(groups[pt], r)
	}

	var b strings.Builder
	for _, pt := range groupOrder {
		title := titles[pt]
		if title == "" {
			title = string(pt)
		}
		b.WriteString(fmt.Sprintf("## %s\n\n", title))

		chunks := groups[pt]
		if len(chunks) > 3 {
			chunks = chunks[:3]
		}
		for i, r := range chunks {
			if i > 0 {
				b.WriteString("\n---\n")
			}
			b.WriteString(r.Content())
		}
		b.WriteString("\n\n")
	}

	contextText := b.String()
	if len(contextText) > maxContextChars {
		cut := maxContextChars
		for cut > 0 && !utf8.RuneStart(contextText[cut]) {
			cut--
		}
		contextText = contextText[:cut]
	}

	sources := make([]string, 0, len(sourceSet))
	for s := range sourceSet {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	policyTypes := make([]models.PolicyType, 0, len(typeSet))
	for t := range typeSet {
		policyTypes = append(policyTypes, t)
	}
	sort.Slice(policyTypes, func(i, j int) bool { return policyTypes[i] < policyTypes[j] })

	return models.PolicyContextData{
		ContextText: strings.TrimSpace(contextText),
		Sources:     sources,
		PolicyTypes: policyTypes,
		TotalChunks: len(results),
	}
}
