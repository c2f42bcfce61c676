package compliance

import (
	"context"
	"log/slog"

	"github.com/codeready-toolchain/alimtalk/pkg/llmclient"
)

// neutralLLMScore is returned when the reviewer cannot reach the LLM: the
// rule checker is the authoritative signal, and a transport failure must
// not drag the combined score down.
const neutralLLMScore = 80.0

// Reviewer is a narrow LLM-backed second opinion on policy compliance.
type Reviewer struct {
	llm llmclient.Client
}

// NewReviewer wires a Reviewer. llm must not be nil.
func NewReviewer(llm llmclient.Client) *Reviewer {
	if llm == nil {
		panic("compliance.NewReviewer: llm must not be nil")
	}
	return &Reviewer{llm: llm}
}

// Review scores templateText against policy. On failure the neutral
// default is returned alongside the error annotation; the result is
// always usable.
func (r *Reviewer) Review(ctx context.Context, templateText, policySummary string) (RuleResult, error) {
	result, err := r.llm.Review(ctx, templateText, policySummary)
	if err != nil {
		slog.Warn("llm compliance review unavailable, using neutral default", "err", err)
		return RuleResult{Score: neutralLLMScore}, err
	}
	return RuleResult{
		Score:           result.ComplianceScore,
		Violations:      result.Violations,
		Recommendations: result.Recommendations,
	}, nil
}
