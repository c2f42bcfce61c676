// Package generator builds the generation prompt with few-shot examples
// pulled from the approved-template corpus, calls the LLM client, and runs
// a deterministic post-processing pipeline over the result.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/codeready-toolchain/alimtalk/pkg/cache"
	"github.com/codeready-toolchain/alimtalk/pkg/corpus"
	"github.com/codeready-toolchain/alimtalk/pkg/korean"
	"github.com/codeready-toolchain/alimtalk/pkg/llmclient"
	"github.com/codeready-toolchain/alimtalk/pkg/models"
)

const fallbackTemplateText = "안녕하세요 #{수신자명}님,\n\n요청하신 %s 관련 안내드립니다.\n\n자세한 내용은 아래 버튼을 통해 확인하실 수 있습니다.\n\n※ 이 메시지는 서비스 이용 관련 정보성 안내입니다."

var (
	variableDollarBrace = regexp.MustCompile(`\$\{([^}]+)\}`)
	variableBareBrace   = regexp.MustCompile(`\{([^}]+)\}`)
	variablePattern     = regexp.MustCompile(`#\{([^}]+)\}`)
	greetingTokens      = []string{"안녕하세요", "안녕하십니까", "반갑습니다"}
	noticeTokens        = []string{"정보성 메시지", "안내 메시지", "발송되는 메시지"}
)

// Generator produces draft templates from an analysis and policy context.
type Generator struct {
	llm   llmclient.Client
	cache *cache.Cache
	store *corpus.Store
}

// New wires a Generator. All arguments must be non-nil.
func New(llm llmclient.Client, c *cache.Cache, store *corpus.Store) *Generator {
	if llm == nil || c == nil || store == nil {
		panic("generator.New: llm, cache and store must not be nil")
	}
	return &Generator{llm: llm, cache: c, store: store}
}

// Generate produces a post-processed Template. A non-nil error means the
// LLM call failed and the returned Template is the static fallback; the
// template is always usable, the error is for the caller's
// workflow_info.errors record.
func (g *Generator) Generate(ctx context.Context, analysis models.Analysis, policyContext models.PolicyContextData) (models.Template, error) {
	contextPrefix := policyContext.ContextText
	if r := []rune(contextPrefix); len(r) > 500 {
		contextPrefix = string(r[:500])
	}
	key := cache.Fingerprint(cache.NamespaceTemplateGeneration, analysis, contextPrefix)
	if cached, ok := g.cache.Get(key); ok {
		if tmpl, ok := cached.(models.Template); ok {
			return tmpl, nil
		}
	}

	examples := findSimilarTemplates(g.store, analysis.BusinessType, analysis.ServiceType, analysis.EstimatedCategory)
	enrichedContext := appendExamples(policyContext.ContextText, examples)

	raw, err := g.llm.Generate(ctx, analysis, enrichedContext)
	if err != nil {
		slog.Warn("template generation fell back to static default", "err", err)
		tmpl := fallbackTemplate(analysis)
		g.cache.Set(key, tmpl)
		return tmpl, err
	}

	template := postProcess(raw, analysis)
	g.cache.Set(key, template)
	return template, nil
}

// findSimilarTemplates chases few-shot examples through four tiers: exact
// business+service match, business-only, category, then any approved
// template.
func findSimilarTemplates(store *corpus.Store, bt models.BusinessType, st models.ServiceType, cat models.Category) []*models.ApprovedTemplate {
	if exact := store.ByBusinessAndServiceType(bt, st); len(exact) >= 2 {
		return capExamples(exact)
	}
	if byBusiness := store.ByBusinessType(bt); len(byBusiness) >= 2 {
		return capExamples(byBusiness)
	}
	if byCategory := store.ByCategory(cat.Category1, cat.Category2); len(byCategory) > 0 {
		return capExamples(byCategory)
	}
	return capExamples(store.ApprovedTemplates())
}

func capExamples(templates []*models.ApprovedTemplate) []*models.ApprovedTemplate {
	if len(templates) > 3 {
		return templates[:3]
	}
	return templates
}

func appendExamples(contextText string, examples []*models.ApprovedTemplate) string {
	if len(examples) == 0 {
		return contextText
	}
	var b strings.Builder
	b.WriteString(contextText)
	b.WriteString("\n\n예시:\n")
	for _, ex := range examples {
		b.WriteString("- ")
		b.WriteString(ex.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// postProcess deterministically normalizes the raw LLM output into a
// final Template.
func postProcess(raw llmclient.GenerationResult, analysis models.Analysis) models.Template {
	text := finishText(normalizeVariableSyntax(raw.TemplateText), analysis)

	variables := korean.DedupOrdered(extractVariablesInOrder(text))

	return models.Template{
		Text:             text,
		Variables:        variables,
		ButtonSuggestion: raw.ButtonSuggestion,
		Metadata: models.TemplateMetadata{
			Category1:        analysis.EstimatedCategory.Category1,
			Category2:        analysis.EstimatedCategory.Category2,
			BusinessType:     analysis.BusinessType,
			ServiceType:      analysis.ServiceType,
			EstimatedLength:  len([]rune(text)),
			VariableCount:    len(variables),
			TargetAudience:   analysis.TargetAudience,
			Tone:             analysis.Tone,
			GenerationMethod: models.GenerationAI,
		},
	}
}

// normalizeVariableSyntax rewrites ${name} and bare {name} to #{name},
// leaving already-correct #{name} occurrences untouched.
func normalizeVariableSyntax(text string) string {
	text = variableDollarBrace.ReplaceAllString(text, "#{$1}")

	var b strings.Builder
	last := 0
	for _, loc := range variableBareBrace.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && text[start-1] == '#' {
			continue
		}
		name := text[loc[2]:loc[3]]
		b.WriteString(text[last:start])
		b.WriteString("#{")
		b.WriteString(name)
		b.WriteString("}")
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

func enforceLengthLimit(text string) string {
	runes := []rune(text)
	if len(runes) <= 1000 {
		return text
	}
	limit := 950
	truncated := string(runes[:limit])
	if idx := strings.LastIndexAny(truncated, ".!?\n"); idx > 0 {
		truncated = truncated[:idx+1]
	} else {
		truncated = truncated + "."
	}
	return truncated
}

// finishText applies the length limit, then the greeting and the
// information notice. If the injected greeting or notice push the text
// past 1000 characters, the end of the body is trimmed until they fit.
func finishText(body string, analysis models.Analysis) string {
	body = enforceLengthLimit(body)
	text := ensureInformationNotice(ensureGreeting(body, analysis.Tone), analysis.ServiceType)
	for over := len([]rune(text)) - 1000; over > 0 && body != ""; over = len([]rune(text)) - 1000 {
		b := []rune(body)
		body = string(b[:max(len(b)-over, 0)])
		text = ensureInformationNotice(ensureGreeting(body, analysis.Tone), analysis.ServiceType)
	}
	return text
}

func ensureGreeting(text string, tone models.Tone) string {
	for _, g := range greetingTokens {
		if strings.Contains(text, g) {
			return text
		}
	}
	greeting := "안녕하세요 #{수신자명}님,\n\n"
	if tone == models.ToneFriendly {
		greeting = "안녕하세요 #{수신자명}님! \n\n"
	}
	return greeting + text
}

func ensureInformationNotice(text string, serviceType models.ServiceType) string {
	for _, n := range noticeTokens {
		if strings.Contains(text, n) {
			return text
		}
	}
	notice := fmt.Sprintf("\n\n※ 이 메시지는 %s 관련 정보성 메시지입니다.", serviceType)
	return text + notice
}

func extractVariablesInOrder(text string) []string {
	matches := variablePattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func fallbackTemplate(analysis models.Analysis) models.Template {
	text := fmt.Sprintf(fallbackTemplateText, analysis.ServiceType)
	return models.Template{
		Text:      text,
		Variables: []string{"수신자명"},
		Metadata: models.TemplateMetadata{
			Category1:        analysis.EstimatedCategory.Category1,
			Category2:        analysis.EstimatedCategory.Category2,
			BusinessType:     analysis.BusinessType,
			ServiceType:      analysis.ServiceType,
			EstimatedLength:  len([]rune(text)),
			VariableCount:    1,
			TargetAudience:   analysis.TargetAudience,
			Tone:             analysis.Tone,
			GenerationMethod: models.GenerationFallback,
		},
	}
}

// Optimize runs a cheap deterministic pass (length, greeting, notice)
// over an existing template without another LLM round trip.
func Optimize(template models.Template, analysis models.Analysis) models.Template {
	text := finishText(template.Text, analysis)
	template.Text = text
	template.Variables = korean.DedupOrdered(extractVariablesInOrder(text))
	template.Metadata.EstimatedLength = len([]rune(text))
	template.Metadata.VariableCount = len(template.Variables)
	return template
}
