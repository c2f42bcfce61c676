// Package models defines the data shapes shared across the template
// generation pipeline: requests, analyses, retrieval results, templates,
// compliance verdicts and the workflow state that threads them together.
package models

import "time"

// BusinessType is the closed enum of industries a request can be classified into.
type BusinessType string

const (
	BusinessEducation  BusinessType = "education"
	BusinessMedical    BusinessType = "medical"
	BusinessRestaurant BusinessType = "restaurant"
	BusinessEcommerce  BusinessType = "ecommerce"
	BusinessService    BusinessType = "service"
	BusinessFinance    BusinessType = "finance"
	BusinessOther      BusinessType = "other"
)

// Valid reports whether b is a member of the closed BusinessType enum.
func (b BusinessType) Valid() bool {
	switch b {
	case BusinessEducation, BusinessMedical, BusinessRestaurant, BusinessEcommerce,
		BusinessService, BusinessFinance, BusinessOther:
		return true
	}
	return false
}

// ServiceType is the closed enum of message intents.
type ServiceType string

const (
	ServiceApplication  ServiceType = "application"
	ServiceReservation  ServiceType = "reservation"
	ServiceOrder        ServiceType = "order"
	ServiceDelivery     ServiceType = "delivery"
	ServiceNotification ServiceType = "notification"
	ServiceConfirmation ServiceType = "confirmation"
	ServiceFeedback     ServiceType = "feedback"
)

func (s ServiceType) Valid() bool {
	switch s {
	case ServiceApplication, ServiceReservation, ServiceOrder, ServiceDelivery,
		ServiceNotification, ServiceConfirmation, ServiceFeedback:
		return true
	}
	return false
}

// Tone is the closed enum of message register.
type Tone string

const (
	ToneFormal   Tone = "formal"
	ToneFriendly Tone = "friendly"
	ToneOfficial Tone = "official"
)

// Valid reports whether t is a member of the closed Tone enum.
func (t Tone) Valid() bool {
	switch t {
	case ToneFormal, ToneFriendly, ToneOfficial:
		return true
	}
	return false
}

// Urgency is the closed enum of message priority.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// ApprovalProbability is the closed enum emitted by the compliance aggregator.
type ApprovalProbability string

const (
	ApprovalHigh   ApprovalProbability = "high"
	ApprovalMedium ApprovalProbability = "medium"
	ApprovalLow    ApprovalProbability = "low"
)

// GenerationMethod records how a Template came to be.
type GenerationMethod string

const (
	GenerationAI       GenerationMethod = "ai_generated"
	GenerationFallback GenerationMethod = "fallback"
)

// PolicyType is the closed enum of policy-document categories.
type PolicyType string

const (
	PolicyReviewGuidelines         PolicyType = "review_guidelines"
	PolicyContentGuidelines        PolicyType = "content_guidelines"
	PolicyAllowedTemplates         PolicyType = "allowed_templates"
	PolicyProhibitedTemplates      PolicyType = "prohibited_templates"
	PolicyOperationalProcedures    PolicyType = "operational_procedures"
	PolicyImageGuidelines          PolicyType = "image_guidelines"
	PolicyInfotalkGuidelines       PolicyType = "infotalk_guidelines"
	PolicyPublicTemplateGuidelines PolicyType = "public_template_guidelines"
	PolicyGeneral                  PolicyType = "general"
)

// DocType distinguishes the two corpora searched by retrieval: policy prose
// and previously approved templates.
type DocType string

const (
	DocTypePolicy   DocType = "policy"
	DocTypeTemplate DocType = "template"
)

// ContextType selects which sub-query list the Policy Context Builder uses.
type ContextType string

const (
	ContextTemplateGeneration ContextType = "template_generation"
	ContextComplianceCheck    ContextType = "compliance_check"
	ContextGeneral            ContextType = "general"
)

// RetrievalMode selects which side(s) of the hybrid retriever run.
type RetrievalMode string

const (
	ModeHybrid RetrievalMode = "hybrid"
	ModeDense  RetrievalMode = "dense"
	ModeSparse RetrievalMode = "sparse"
)

// Category is the (category_1, category_2) pair used for both classification
// and reporting.
type Category struct {
	Category1 string `json:"category_1"`
	Category2 string `json:"category_2"`
}

// Request is the immutable input to the pipeline.
type Request struct {
	Text                   string       `json:"text"`
	BusinessTypeHint       BusinessType `json:"business_type,omitempty"`
	ServiceTypeHint        ServiceType  `json:"service_type,omitempty"`
	ToneHint               Tone         `json:"tone,omitempty"`
	RequiredVariablesHint  []string     `json:"required_variables,omitempty"`
	AdditionalRequirements string       `json:"additional_requirements,omitempty"`
}

// ComplianceFeedback is attached to an Analysis between refinement
// iterations; it carries the prior verdict's violations and
// recommendations forward by value, never by reference.
type ComplianceFeedback struct {
	Violations      []string `json:"violations"`
	Recommendations []string `json:"recommendations"`
	RequiredChanges []string `json:"required_changes"`
}

// Analysis is the output of the request analyzer.
type Analysis struct {
	OriginalRequest    string              `json:"original_request"`
	BusinessType       BusinessType        `json:"business_type"`
	ServiceType        ServiceType         `json:"service_type"`
	MessagePurpose     string              `json:"message_purpose"`
	TargetAudience     string              `json:"target_audience"`
	Tone               Tone                `json:"tone"`
	Urgency            Urgency             `json:"urgency"`
	RequiredVariables  []string            `json:"required_variables"`
	EstimatedCategory  Category            `json:"estimated_category"`
	ComplianceConcerns []string            `json:"compliance_concerns"`
	ComplianceFeedback *ComplianceFeedback `json:"compliance_feedback,omitempty"`
}

// Clone returns a deep-enough copy so that per-iteration mutation (attaching
// ComplianceFeedback) never aliases a cached Analysis.
func (a Analysis) Clone() Analysis {
	clone := a
	clone.RequiredVariables = append([]string(nil), a.RequiredVariables...)
	clone.ComplianceConcerns = append([]string(nil), a.ComplianceConcerns...)
	if a.ComplianceFeedback != nil {
		fb := *a.ComplianceFeedback
		fb.Violations = append([]string(nil), a.ComplianceFeedback.Violations...)
		fb.Recommendations = append([]string(nil), a.ComplianceFeedback.Recommendations...)
		fb.RequiredChanges = append([]string(nil), a.ComplianceFeedback.RequiredChanges...)
		clone.ComplianceFeedback = &fb
	}
	return clone
}

// PolicyChunk is an immutable unit of ingested policy text.
type PolicyChunk struct {
	Content        string     `json:"content"`
	Source         string     `json:"source"`
	PolicyType     PolicyType `json:"policy_type"`
	ChunkIndex     int        `json:"chunk_index"`
	RelevanceScore float64    `json:"relevance_score"`
}

// TemplateMetadata describes a Template's classification and generation provenance.
type TemplateMetadata struct {
	Category1        string           `json:"category_1"`
	Category2        string           `json:"category_2"`
	BusinessType     BusinessType     `json:"business_type"`
	ServiceType      ServiceType      `json:"service_type"`
	EstimatedLength  int              `json:"estimated_length"`
	VariableCount    int              `json:"variable_count"`
	TargetAudience   string           `json:"target_audience"`
	Tone             Tone             `json:"tone"`
	GenerationMethod GenerationMethod `json:"generation_method"`
}

// ApprovedTemplate is a previously platform-approved template, used as a
// few-shot example by the Template Generator.
type ApprovedTemplate struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Variables []string         `json:"variables"`
	Metadata  TemplateMetadata `json:"metadata"`
}

// RetrievalResult adorns a PolicyChunk or ApprovedTemplate with fusion
// scoring. DocID identifies the underlying document; Chunk/Template is set
// depending on DocType.
type RetrievalResult struct {
	DocID       string
	DocType     DocType
	Chunk       *PolicyChunk
	Template    *ApprovedTemplate
	DenseScore  float64
	SparseScore float64
	FusedScore  float64
	Rank        int
}

// Content returns the underlying text regardless of which corpus the result
// came from.
func (r RetrievalResult) Content() string {
	if r.Chunk != nil {
		return r.Chunk.Content
	}
	if r.Template != nil {
		return r.Template.Text
	}
	return ""
}

// PolicyContextData is the structured bundle returned by the policy
// context builder.
type PolicyContextData struct {
	ContextText string
	Sources     []string
	PolicyTypes []PolicyType
	TotalChunks int
}

// Template is the output of the template generator.
type Template struct {
	Text             string           `json:"template_text"`
	Variables        []string         `json:"variables"`
	ButtonSuggestion string           `json:"button_suggestion"`
	Metadata         TemplateMetadata `json:"metadata"`
}

// ComplianceVerdict is the output of the compliance aggregator.
type ComplianceVerdict struct {
	IsCompliant         bool                `json:"is_compliant"`
	ComplianceScore     float64             `json:"compliance_score"`
	Violations          []string            `json:"violations"`
	Warnings            []string            `json:"warnings"`
	Recommendations     []string            `json:"recommendations"`
	ApprovalProbability ApprovalProbability `json:"approval_probability"`
	RequiredChanges     []string            `json:"required_changes"`
	DetailedScores      DetailedScores      `json:"detailed_scores"`
}

// DetailedScores breaks the combined compliance score into its four
// contributing sub-checks.
type DetailedScores struct {
	BasicRules     float64 `json:"basic_rules"`
	BlacklistCheck float64 `json:"blacklist_check"`
	VariableUsage  float64 `json:"variable_usage"`
	LLMAnalysis    float64 `json:"llm_analysis"`
}

// WorkflowState threads a single request through the workflow state machine.
type WorkflowState struct {
	Request         Request
	Analysis        Analysis
	PolicyContext   PolicyContextData
	ExamplesContext PolicyContextData
	DraftTemplate   Template
	Verdict         ComplianceVerdict
	IterationCount  int
	Errors          []string
}

// CacheEntry is a single slot in the result cache.
type CacheEntry struct {
	Key          string
	Value        any
	CreatedAt    time.Time
	LastAccessed time.Time
}

// WorkflowInfo is the diagnostics block returned alongside every result.
type WorkflowInfo struct {
	RequestID     string   `json:"request_id"`
	Iterations    int      `json:"iterations"`
	Errors        []string `json:"errors"`
	PolicySources []string `json:"policy_sources"`
	DurationMs    int64    `json:"duration_ms"`
}

// GenerateResult is the primary API response.
type GenerateResult struct {
	Success      bool              `json:"success"`
	Template     Template          `json:"template"`
	Compliance   ComplianceVerdict `json:"compliance"`
	Analysis     Analysis          `json:"analysis"`
	WorkflowInfo WorkflowInfo      `json:"workflow_info"`
}
