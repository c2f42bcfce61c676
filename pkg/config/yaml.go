package config

import "dario.cat/mergo"

// YAMLConfig mirrors the subset of Config an operator may want to override
// via a local file: every field except the two string fields LogLevel and
// HTTPPort is a pointer so an absent key in the YAML document leaves the
// built-in default untouched after the mergo merge; for those two, an
// absent key decodes to "" and mergo leaves the default in place.
type YAMLConfig struct {
	LLMModel       *string  `yaml:"llm_model"`
	LLMTemperature *float64 `yaml:"llm_temperature"`
	LLMMaxTokens   *int     `yaml:"llm_max_tokens"`
	LLMEndpoint    *string  `yaml:"llm_endpoint"`

	EmbeddingModel    *string `yaml:"embedding_model"`
	EmbeddingProvider *string `yaml:"embedding_provider"`
	EmbeddingEndpoint *string `yaml:"embedding_endpoint"`

	VectorDBPath     *string `yaml:"vector_db_path"`
	PolicyDataPath   *string `yaml:"policy_data_path"`
	TemplateDataPath *string `yaml:"template_data_path"`

	HybridVectorWeight *float64 `yaml:"hybrid_vector_weight"`
	HybridBM25Weight   *float64 `yaml:"hybrid_bm25_weight"`

	MaxIterations      *int     `yaml:"max_iterations"`
	MinComplianceScore *float64 `yaml:"min_compliance_score"`
	StrictCompliance    *bool   `yaml:"strict_compliance"`
	AutoRefinement      *bool   `yaml:"auto_refinement"`

	CacheMaxItems   *int `yaml:"cache_max_items"`
	CacheTTLSeconds *int `yaml:"cache_ttl_seconds"`

	LogLevel string `yaml:"log_level"`
	HTTPPort string `yaml:"http_port"`
}

// applyYAML folds non-nil YAMLConfig overrides into cfg in place. Scalar
// fields are merged with mergo onto the built-in defaults; the two bool
// fields are resolved by hand first since mergo (without
// WithOverwriteWithEmptyValue) cannot tell an explicit "false" override
// from an absent one.
func applyYAML(cfg *Config, y YAMLConfig) {
	if y.StrictCompliance != nil {
		cfg.StrictCompliance = *y.StrictCompliance
	}
	if y.AutoRefinement != nil {
		cfg.AutoRefinement = *y.AutoRefinement
	}

	overrides := Config{
		StrictCompliance: cfg.StrictCompliance,
		AutoRefinement:   cfg.AutoRefinement,
	}
	if y.LLMModel != nil {
		overrides.LLMModel = *y.LLMModel
	}
	if y.LLMTemperature != nil {
		overrides.LLMTemperature = *y.LLMTemperature
	}
	if y.LLMMaxTokens != nil {
		overrides.LLMMaxTokens = *y.LLMMaxTokens
	}
	if y.LLMEndpoint != nil {
		overrides.LLMEndpoint = *y.LLMEndpoint
	}
	if y.EmbeddingModel != nil {
		overrides.EmbeddingModel = *y.EmbeddingModel
	}
	if y.EmbeddingProvider != nil {
		overrides.EmbeddingProvider = *y.EmbeddingProvider
	}
	if y.EmbeddingEndpoint != nil {
		overrides.EmbeddingEndpoint = *y.EmbeddingEndpoint
	}
	if y.VectorDBPath != nil {
		overrides.VectorDBPath = *y.VectorDBPath
	}
	if y.PolicyDataPath != nil {
		overrides.PolicyDataPath = *y.PolicyDataPath
	}
	if y.TemplateDataPath != nil {
		overrides.TemplateDataPath = *y.TemplateDataPath
	}
	if y.HybridVectorWeight != nil {
		overrides.HybridVectorWeight = *y.HybridVectorWeight
	}
	if y.HybridBM25Weight != nil {
		overrides.HybridBM25Weight = *y.HybridBM25Weight
	}
	if y.MaxIterations != nil {
		overrides.MaxIterations = *y.MaxIterations
	}
	if y.MinComplianceScore != nil {
		overrides.MinComplianceScore = *y.MinComplianceScore
	}
	if y.CacheMaxItems != nil {
		overrides.CacheMaxItems = *y.CacheMaxItems
	}
	if y.CacheTTLSeconds != nil {
		overrides.CacheTTLSeconds = *y.CacheTTLSeconds
	}
	overrides.LogLevel = y.LogLevel
	overrides.HTTPPort = y.HTTPPort

	if err := mergo.Merge(cfg, overrides, mergo.WithOverride); err != nil {
		// Only fails on incompatible types, which is a programmer error here.
		panic("config: yaml merge: " + err.Error())
	}
}
