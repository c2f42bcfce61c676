// Package workflow implements the stateful, bounded-refinement
// controller that drives a single request through analyze, retrieve,
// generate and check, looping back to generate when the compliance
// verdict demands it.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/alimtalk/pkg/analyzer"
	"github.com/codeready-toolchain/alimtalk/pkg/compliance"
	"github.com/codeready-toolchain/alimtalk/pkg/generator"
	"github.com/codeready-toolchain/alimtalk/pkg/models"
	"github.com/codeready-toolchain/alimtalk/pkg/pipelineerrors"
	"github.com/codeready-toolchain/alimtalk/pkg/policy"
)

// Options bounds and tunes a single run of the engine.
type Options struct {
	MaxIterations      int
	MinComplianceScore float64
	StrictCompliance   bool
	AutoRefinement     bool

	// ParallelAnalyzeRetrieve runs the analyze and policy-retrieval stages
	// as goroutines, with retrieval gated on a keyword approximation of
	// business/service type instead of the analyzer's refined
	// classification. Serial execution is the default contract.
	ParallelAnalyzeRetrieve bool
}

// DefaultOptions mirrors the built-in config defaults.
func DefaultOptions() Options {
	return Options{
		MaxIterations:      3,
		MinComplianceScore: 80.0,
		StrictCompliance:   true,
		AutoRefinement:     true,
	}
}

// Engine wires the per-stage collaborators into the control loop.
type Engine struct {
	analyzer  *analyzer.Analyzer
	retriever *policy.Builder
	generator *generator.Generator
	checker   *compliance.Checker
	opts      Options
}

// New constructs an Engine. No argument may be nil.
func New(a *analyzer.Analyzer, r *policy.Builder, g *generator.Generator, c *compliance.Checker, opts Options) *Engine {
	if a == nil || r == nil || g == nil || c == nil {
		panic("workflow.New: analyzer, retriever, generator, and checker must all be non-nil")
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 3
	}
	return &Engine{analyzer: a, retriever: r, generator: g, checker: c, opts: opts}
}

// Run executes the bounded analyze/retrieve/generate/check loop for one
// request and packages a well-formed GenerateResult.
func (e *Engine) Run(ctx context.Context, req models.Request) models.GenerateResult {
	start := time.Now()
	requestID := uuid.New().String()
	state := models.WorkflowState{Request: req}
	step := 0
	nextStep := func(name string) int {
		step++
		slog.Info("workflow step", "request_id", requestID, "step", step, "stage", name)
		return step
	}
	recordError := func(stage string, err error) {
		if err == nil {
			return
		}
		state.Errors = append(state.Errors, fmt.Sprintf("%s: %s: %s", stage, pipelineerrors.Code(err), err.Error()))
	}

	if e.opts.ParallelAnalyzeRetrieve {
		e.analyzeAndRetrieveParallel(ctx, &state, nextStep, recordError)
	} else {
		nextStep("analyzing")
		analysis, err := e.analyzer.Analyze(ctx, req.Text)
		recordError("analyzing", err)
		state.Analysis = analysis
		e.applyRequestHints(&state.Analysis, req)

		nextStep("retrieving")
		state.PolicyContext = e.retriever.Build(ctx, retrievalQuery(state.Analysis), models.ContextTemplateGeneration)
	}

	// Sibling examples retrieval; never fails, the builder degrades to its
	// fixed fallback context on empty results.
	state.ExamplesContext = e.retriever.Build(ctx, examplesQuery(state.Analysis), models.ContextGeneral)

	for {
		nextStep("generating")
		draft, err := e.generator.Generate(ctx, state.Analysis, state.PolicyContext)
		recordError("generating", err)
		state.DraftTemplate = draft

		nextStep("checking")
		verdict, err := e.checker.Check(ctx, state.DraftTemplate, state.PolicyContext.ContextText)
		recordError("checking", err)
		state.Verdict = verdict

		if !e.needsRefinement(state) {
			break
		}

		nextStep("refining")

		// Deterministic optimization pass before another LLM round trip:
		// re-scored with the rule checks only, keeping the prior advisory
		// LLM score. Adopted only when it strictly improves the verdict.
		if optimized := generator.Optimize(state.DraftTemplate, state.Analysis); optimized.Text != state.DraftTemplate.Text {
			verdict := compliance.Aggregate(
				compliance.BasicRules(optimized.Text),
				compliance.Blacklist(optimized.Text),
				compliance.VariableUsage(optimized.Variables, optimized.ButtonSuggestion, optimized.Text),
				compliance.RuleResult{Score: state.Verdict.DetailedScores.LLMAnalysis},
			)
			if verdict.ComplianceScore > state.Verdict.ComplianceScore {
				state.DraftTemplate = optimized
				state.Verdict = verdict
				if !e.needsRefinement(state) {
					break
				}
			}
		}

		state.Analysis = state.Analysis.Clone()
		state.Analysis.ComplianceFeedback = &models.ComplianceFeedback{
			Violations:      state.Verdict.Violations,
			Recommendations: state.Verdict.Recommendations,
			RequiredChanges: state.Verdict.RequiredChanges,
		}
		state.IterationCount++
	}

	return models.GenerateResult{
		Success:    len(state.Errors) == 0,
		Template:   state.DraftTemplate,
		Compliance: state.Verdict,
		Analysis:   state.Analysis,
		WorkflowInfo: models.WorkflowInfo{
			RequestID:     requestID,
			Iterations:    state.IterationCount + 1,
			Errors:        state.Errors,
			PolicySources: mergeSources(state.PolicyContext.Sources, state.ExamplesContext.Sources),
			DurationMs:    time.Since(start).Milliseconds(),
		},
	}
}

func mergeSources(primary, secondary []string) []string {
	seen := make(map[string]struct{}, len(primary)+len(secondary))
	out := make([]string, 0, len(primary)+len(secondary))
	for _, s := range append(append([]string(nil), primary...), secondary...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// needsRefinement gates the loop on (iteration_count+1) < max_iterations
// rather than the looser iteration_count < max_iterations: the latter
// lets the worst case run one generate/check cycle beyond max_iterations,
// so the reported iteration count could exceed the configured bound.
func (e *Engine) needsRefinement(state models.WorkflowState) bool {
	if !e.opts.AutoRefinement {
		return false
	}
	if state.IterationCount+1 >= e.opts.MaxIterations {
		return false
	}
	scoreLow := state.Verdict.ComplianceScore < e.opts.MinComplianceScore
	blockedByStrict := e.opts.StrictCompliance && len(state.Verdict.RequiredChanges) > 0
	return scoreLow || blockedByStrict
}

// analyzeAndRetrieveParallel runs analysis and retrieval concurrently:
// retrieval starts from a keyword approximation of business/service type
// derived straight from the raw request text, then the analyzer's refined
// classification is merged in once both finish.
func (e *Engine) analyzeAndRetrieveParallel(ctx context.Context, state *models.WorkflowState, nextStep func(string) int, recordError func(string, error)) {
	nextStep("analyzing+retrieving")

	approx := analyzer.ApproximateCategory(state.Request.Text)
	query := retrievalQuery(models.Analysis{BusinessType: approx.BusinessType, ServiceType: approx.ServiceType})

	type analyzed struct {
		analysis models.Analysis
		err      error
	}
	analysisCh := make(chan analyzed, 1)
	retrievalCh := make(chan models.PolicyContextData, 1)

	go func() {
		analysis, err := e.analyzer.Analyze(ctx, state.Request.Text)
		analysisCh <- analyzed{analysis: analysis, err: err}
	}()
	go func() {
		retrievalCh <- e.retriever.Build(ctx, query, models.ContextTemplateGeneration)
	}()

	result := <-analysisCh
	recordError("analyzing", result.err)
	state.Analysis = result.analysis
	e.applyRequestHints(&state.Analysis, state.Request)
	state.PolicyContext = <-retrievalCh
}

func (e *Engine) applyRequestHints(analysis *models.Analysis, req models.Request) {
	if req.BusinessTypeHint.Valid() {
		analysis.BusinessType = req.BusinessTypeHint
	}
	if req.ServiceTypeHint.Valid() {
		analysis.ServiceType = req.ServiceTypeHint
	}
	if req.ToneHint.Valid() {
		analysis.Tone = req.ToneHint
	}
	if len(req.RequiredVariablesHint) > 0 {
		analysis.RequiredVariables = append(append([]string(nil), analysis.RequiredVariables...), req.RequiredVariablesHint...)
	}
}

func retrievalQuery(a models.Analysis) string {
	return fmt.Sprintf("%s %s alimtalk template policy", a.BusinessType, a.ServiceType)
}

func examplesQuery(a models.Analysis) string {
	return fmt.Sprintf("%s %s approved template examples", a.BusinessType, a.ServiceType)
}
