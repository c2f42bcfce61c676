// Package config loads the pipeline's environment-sourced configuration:
// built-in Go defaults, optionally overridden by a local YAML file
// (github.com/joho/godotenv loads a .env into the process environment
// first, gopkg.in/yaml.v3 decodes the override file, dario.cat/mergo
// resolves the merge), with environment variables taking final
// precedence.
package config

import "time"

// Config is the resolved, immutable configuration for one process.
type Config struct {
	// LLM client parameters.
	LLMModel       string
	LLMTemperature float64
	LLMMaxTokens   int
	LLMEndpoint    string
	LLMAPIKey      string
	LLMTimeout     time.Duration

	// Embedding / vector store.
	EmbeddingModel    string
	EmbeddingProvider string
	EmbeddingEndpoint string
	EmbeddingAPIKey   string
	EmbeddingTimeout  time.Duration

	// Corpus ingestion paths.
	VectorDBPath     string
	PolicyDataPath   string
	TemplateDataPath string

	// Hybrid retriever fusion weights.
	HybridVectorWeight float64
	HybridBM25Weight   float64

	// Workflow engine bounds.
	MaxIterations      int
	MinComplianceScore float64
	StrictCompliance   bool
	AutoRefinement     bool

	// Result cache.
	CacheMaxItems   int
	CacheTTLSeconds int

	// Ambient.
	LogLevel string
	HTTPPort string
}

// Defaults returns the built-in defaults, the base layer every loader
// call starts from.
func Defaults() Config {
	return Config{
		LLMModel:       "claude-3-5-haiku-latest",
		LLMTemperature: 0.3,
		LLMMaxTokens:   2000,
		LLMEndpoint:    "http://localhost:8090/v1/chat",
		LLMTimeout:     60 * time.Second,

		EmbeddingModel:    "text-embedding-3-small",
		EmbeddingProvider: "openai",
		EmbeddingEndpoint: "http://localhost:8091/v1/embeddings",
		EmbeddingTimeout:  10 * time.Second,

		VectorDBPath:     "./data/vector",
		PolicyDataPath:   "./data/policy",
		TemplateDataPath: "./data/templates.json",

		HybridVectorWeight: 0.7,
		HybridBM25Weight:   0.3,

		MaxIterations:      3,
		MinComplianceScore: 80.0,
		StrictCompliance:   true,
		AutoRefinement:     true,

		CacheMaxItems:   1000,
		CacheTTLSeconds: 3600,

		LogLevel: "info",
		HTTPPort: "8080",
	}
}
