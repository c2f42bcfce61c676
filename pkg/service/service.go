// Package service exposes the pipeline's primary and secondary
// operations as a small, transport-agnostic facade.
package service

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/codeready-toolchain/alimtalk/pkg/cache"
	"github.com/codeready-toolchain/alimtalk/pkg/compliance"
	"github.com/codeready-toolchain/alimtalk/pkg/corpus"
	"github.com/codeready-toolchain/alimtalk/pkg/korean"
	"github.com/codeready-toolchain/alimtalk/pkg/models"
	"github.com/codeready-toolchain/alimtalk/pkg/workflow"
)

// ValidateInput is the ValidateTemplate operation's request shape.
type ValidateInput struct {
	TemplateText string
	Variables    []string
	ButtonText   string
}

// ValidateResult pairs the verdict with its rendered report.
type ValidateResult struct {
	Verdict models.ComplianceVerdict `json:"verdict"`
	Report  string                   `json:"report"`
}

// CategoryOptions is the ListCategories response shape.
type CategoryOptions struct {
	Category1Options []string `json:"category_1_options"`
	Category2Options []string `json:"category_2_options"`
	BusinessTypes    []string `json:"business_types"`
	ServiceTypes     []string `json:"service_types"`
}

// HealthStatus is the HealthCheck response shape.
type HealthStatus struct {
	Status          string            `json:"status"`
	ComponentStates map[string]string `json:"component_states"`
}

// StatsResult is the Stats response shape.
type StatsResult struct {
	CacheStats     cache.Stats `json:"cache_stats"`
	TotalRequests  int64       `json:"total_requests"`
	TotalTemplates int         `json:"total_templates"`
}

// businessTypeOrder and category pairs fix deterministic output order for
// ListCategories; category pairs mirror analyzer.categoryMapping's values.
var businessTypeOrder = []models.BusinessType{
	models.BusinessEducation, models.BusinessMedical, models.BusinessRestaurant,
	models.BusinessEcommerce, models.BusinessService, models.BusinessFinance, models.BusinessOther,
}

var serviceTypeOrder = []models.ServiceType{
	models.ServiceApplication, models.ServiceReservation, models.ServiceOrder,
	models.ServiceDelivery, models.ServiceNotification, models.ServiceConfirmation, models.ServiceFeedback,
}

var category1Options = []string{"서비스이용", "거래"}
var category2Options = []string{"이용안내/공지", "예약/신청", "주문/결제", "배송"}

// Service wires the workflow engine and its collaborators into the
// transport-agnostic operation set.
type Service struct {
	engine  *workflow.Engine
	checker *compliance.Checker
	store   *corpus.Store
	cache   *cache.Cache

	totalRequests atomic.Int64
}

// New wires a Service. engine, checker, store, and c must all be non-nil.
func New(engine *workflow.Engine, checker *compliance.Checker, store *corpus.Store, c *cache.Cache) *Service {
	if engine == nil || checker == nil || store == nil || c == nil {
		panic("service.New: engine, checker, store, and cache must all be non-nil")
	}
	return &Service{engine: engine, checker: checker, store: store, cache: c}
}

// GenerateTemplate is the primary operation: one full pipeline run.
func (s *Service) GenerateTemplate(ctx context.Context, req models.Request) models.GenerateResult {
	s.totalRequests.Add(1)
	return s.engine.Run(ctx, req)
}

// ValidateTemplate checks an already-authored template against the same
// rules the generation pipeline enforces, without invoking generation
// itself. Variables are extracted from the text when not supplied.
func (s *Service) ValidateTemplate(ctx context.Context, in ValidateInput) ValidateResult {
	variables := in.Variables
	if len(variables) == 0 {
		variables = korean.ExtractVariables(in.TemplateText)
	}

	template := models.Template{
		Text:             in.TemplateText,
		Variables:        variables,
		ButtonSuggestion: in.ButtonText,
	}

	verdict, err := s.checker.Check(ctx, template, "")
	if err != nil {
		slog.Warn("validate ran without the advisory llm review", "err", err)
	}
	return ValidateResult{Verdict: verdict, Report: compliance.RenderReport(verdict)}
}

// SearchExamples returns previously approved templates for a business
// type, capped at limit.
func (s *Service) SearchExamples(businessType models.BusinessType, limit int) []*models.ApprovedTemplate {
	matches := s.store.ByBusinessType(businessType)
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// ListCategories reports the closed enums and category taxonomy the
// classifier and generator draw from.
func (s *Service) ListCategories() CategoryOptions {
	return CategoryOptions{
		Category1Options: category1Options,
		Category2Options: category2Options,
		BusinessTypes:    stringsOf(businessTypeOrder),
		ServiceTypes:     stringsOfService(serviceTypeOrder),
	}
}

// HealthCheck reports liveness of the process-local components; there are
// no external network dependencies to probe at this layer beyond the LLM
// and embedding collaborators, which are exercised lazily per-request.
func (s *Service) HealthCheck() HealthStatus {
	return HealthStatus{
		Status: "ok",
		ComponentStates: map[string]string{
			"cache":    "ok",
			"corpus":   "ok",
			"workflow": "ok",
		},
	}
}

// Stats reports cache and corpus counters for operational visibility.
func (s *Service) Stats() StatsResult {
	return StatsResult{
		CacheStats:     s.cache.Stats(),
		TotalRequests:  s.totalRequests.Load(),
		TotalTemplates: len(s.store.ApprovedTemplates()),
	}
}

func stringsOf(bts []models.BusinessType) []string {
	out := make([]string, len(bts))
	for i, bt := range bts {
		out[i] = string(bt)
	}
	return out
}

func stringsOfService(sts []models.ServiceType) []string {
	out := make([]string, len(sts))
	for i, st := range sts {
		out[i] = string(st)
	}
	return out
}
