// Package llmclient implements the typed LLM client and prompt builder:
// a thin JSON-in/JSON-out wrapper around an external chat model reached
// over HTTP.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeready-toolchain/alimtalk/pkg/models"
	"github.com/codeready-toolchain/alimtalk/pkg/pipelineerrors"
)

// ReviewResult is the shape returned by Client.Review.
type ReviewResult struct {
	IsCompliant     bool     `json:"is_compliant"`
	ComplianceScore float64  `json:"compliance_score"`
	Violations      []string `json:"violations"`
	Recommendations []string `json:"recommendations"`
}

// GenerationResult is the raw JSON shape the model emits for a generation
// call, before the generator's deterministic post-processing.
type GenerationResult struct {
	TemplateText     string   `json:"template_text"`
	Variables        []string `json:"variables"`
	ButtonSuggestion string   `json:"button_suggestion"`
}

// Client is the typed model contract: three synchronous (possibly
// suspending) calls with documented fallbacks on failure.
type Client interface {
	Analyze(ctx context.Context, request string) (models.Analysis, error)
	Generate(ctx context.Context, analysis models.Analysis, policyContextText string) (GenerationResult, error)
	Review(ctx context.Context, templateText, policySummary string) (ReviewResult, error)
}

// ChatBackend is the minimal transport contract: send a system+user message
// pair, get back raw text. Implementations own model selection,
// auth, and the network call itself.
type ChatBackend interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Params are the fixed model call parameters, configurable with safe
// defaults 0.3 / 2000.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// DefaultParams returns the safe defaults.
func DefaultParams() Params {
	return Params{Model: "claude-3-5-haiku-latest", Temperature: 0.3, MaxTokens: 2000}
}

// HTTPChatBackend posts {system, user, model, temperature, max_tokens}
// as JSON to a configured chat-completion endpoint and reads back
// {"content": "..."}. A production deployment points Endpoint at the
// actual provider's HTTP API.
type HTTPChatBackend struct {
	Endpoint string
	APIKey   string
	Params   Params
	HTTP     *http.Client
}

// NewHTTPChatBackend constructs a backend with a default HTTP client that
// sets no timeout of its own; each call is bounded by the deadline of the
// context it is given.
func NewHTTPChatBackend(endpoint, apiKey string, params Params) *HTTPChatBackend {
	return &HTTPChatBackend{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Params:   params,
		HTTP:     &http.Client{},
	}
}

type chatRequest struct {
	System      string  `json:"system"`
	User        string  `json:"user"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type chatResponse struct {
	Content string `json:"content"`
}

// Complete implements ChatBackend over HTTP.
func (b *HTTPChatBackend) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{System: system, User: user, Model: b.Params.Model, Temperature: b.Params.Temperature, MaxTokens: b.Params.MaxTokens})
	if err != nil {
		return "", fmt.Errorf("%w: encode chat request: %v", pipelineerrors.ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build chat request: %v", pipelineerrors.ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.APIKey)
	}

	resp, err := b.HTTP.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", pipelineerrors.ErrUpstreamTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", pipelineerrors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", pipelineerrors.ErrUpstreamUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read chat response: %v", pipelineerrors.ErrUpstreamUnavailable, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", pipelineerrors.ErrParse, err)
	}
	return parsed.Content, nil
}

// client wraps a ChatBackend with the three typed call shapes and
// duration logging.
type client struct {
	backend ChatBackend
	timeout time.Duration
}

// New wires a Client around a ChatBackend. backend must not be nil.
func New(backend ChatBackend, callTimeout time.Duration) Client {
	if backend == nil {
		panic("llmclient.New: backend must not be nil")
	}
	if callTimeout <= 0 {
		callTimeout = 60 * time.Second
	}
	return &client{backend: backend, timeout: callTimeout}
}

func (c *client) call(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	content, err := c.backend.Complete(ctx, system, user)
	elapsed := time.Since(start)

	slog.Info("llm call completed", "duration_ms", elapsed.Milliseconds(), "ok", err == nil)
	return content, err
}

// Analyze classifies a raw request. On any failure it returns the
// default Analysis and a non-nil error so the caller can record it.
func (c *client) Analyze(ctx context.Context, request string) (models.Analysis, error) {
	system, user := AnalysisPrompt(request)
	content, err := c.call(ctx, system, user)
	if err != nil {
		return defaultAnalysis(request), err
	}

	var raw struct {
		BusinessType       string          `json:"business_type"`
		ServiceType        string          `json:"service_type"`
		MessagePurpose     string          `json:"message_purpose"`
		TargetAudience     string          `json:"target_audience"`
		Tone               string          `json:"tone"`
		Urgency            string          `json:"urgency"`
		RequiredVariables  []string        `json:"required_variables"`
		EstimatedCategory  models.Category `json:"estimated_category"`
		ComplianceConcerns []string        `json:"compliance_concerns"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return defaultAnalysis(request), fmt.Errorf("%w: %v", pipelineerrors.ErrParse, err)
	}

	analysis := models.Analysis{
		OriginalRequest:    request,
		BusinessType:       models.BusinessType(raw.BusinessType),
		ServiceType:        models.ServiceType(raw.ServiceType),
		MessagePurpose:     raw.MessagePurpose,
		TargetAudience:     raw.TargetAudience,
		Tone:               models.Tone(raw.Tone),
		Urgency:            models.Urgency(raw.Urgency),
		RequiredVariables:  raw.RequiredVariables,
		EstimatedCategory:  raw.EstimatedCategory,
		ComplianceConcerns: raw.ComplianceConcerns,
	}
	if !analysis.BusinessType.Valid() {
		analysis.BusinessType = models.BusinessOther
	}
	if !analysis.ServiceType.Valid() {
		analysis.ServiceType = models.ServiceNotification
	}
	return analysis, nil
}

func defaultAnalysis(request string) models.Analysis {
	return models.Analysis{
		OriginalRequest:    request,
		BusinessType:       models.BusinessOther,
		ServiceType:        models.ServiceNotification,
		MessagePurpose:     "일반 안내",
		TargetAudience:     "고객",
		Tone:               models.ToneFormal,
		Urgency:            models.UrgencyMedium,
		RequiredVariables:  []string{"수신자명"},
		EstimatedCategory:  models.Category{Category1: "서비스이용", Category2: "이용안내/공지"},
		ComplianceConcerns: []string{"analysis failed; manual review advised"},
	}
}

// Generate produces the raw template JSON for an analysis.
func (c *client) Generate(ctx context.Context, analysis models.Analysis, policyContextText string) (GenerationResult, error) {
	system, user := GenerationPrompt(analysis, policyContextText)
	content, err := c.call(ctx, system, user)
	if err != nil {
		return GenerationResult{}, err
	}

	var result GenerationResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return GenerationResult{}, fmt.Errorf("%w: %v", pipelineerrors.ErrParse, err)
	}
	return result, nil
}

// Review scores a template's policy compliance.
func (c *client) Review(ctx context.Context, templateText, policySummary string) (ReviewResult, error) {
	system, user := ReviewPrompt(templateText)
	_ = policySummary
	content, err := c.call(ctx, system, user)
	if err != nil {
		return ReviewResult{}, err
	}

	var result ReviewResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return ReviewResult{}, fmt.Errorf("%w: %v", pipelineerrors.ErrParse, err)
	}
	return result, nil
}
