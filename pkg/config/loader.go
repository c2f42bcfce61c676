package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load resolves the process configuration: built-in defaults, optionally
// overridden by the YAML file at yamlPath (ignored if empty or missing),
// then overridden again by environment variables. A local .env file, if
// present, is loaded into the process environment first so the env layer
// can pick it up.
func Load(yamlPath string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := Defaults()

	if yamlPath != "" {
		raw, err := os.ReadFile(yamlPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config file %s: %w", yamlPath, err)
			}
		} else {
			var y YAMLConfig
			if err := yaml.Unmarshal(raw, &y); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", yamlPath, err)
			}
			applyYAML(&cfg, y)
		}
	}

	applyEnv(&cfg)

	return cfg, nil
}

// applyEnv folds environment-variable overrides into cfg in place,
// warning and leaving the prior value in place on any malformed value
// rather than failing the whole process.
func applyEnv(cfg *Config) {
	cfg.LLMModel = stringEnv("LLM_MODEL", cfg.LLMModel)
	cfg.LLMTemperature = floatEnv("LLM_TEMPERATURE", cfg.LLMTemperature)
	cfg.LLMMaxTokens = intEnv("LLM_MAX_TOKENS", cfg.LLMMaxTokens)
	cfg.LLMEndpoint = stringEnv("LLM_ENDPOINT", cfg.LLMEndpoint)
	cfg.LLMAPIKey = stringEnv("LLM_API_KEY", cfg.LLMAPIKey)
	cfg.LLMTimeout = durationEnv("LLM_TIMEOUT", cfg.LLMTimeout)

	cfg.EmbeddingModel = stringEnv("EMBEDDING_MODEL", cfg.EmbeddingModel)
	cfg.EmbeddingProvider = stringEnv("EMBEDDING_PROVIDER", cfg.EmbeddingProvider)
	cfg.EmbeddingEndpoint = stringEnv("EMBEDDING_ENDPOINT", cfg.EmbeddingEndpoint)
	cfg.EmbeddingAPIKey = stringEnv("EMBEDDING_API_KEY", cfg.EmbeddingAPIKey)
	cfg.EmbeddingTimeout = durationEnv("EMBEDDING_TIMEOUT", cfg.EmbeddingTimeout)

	cfg.VectorDBPath = stringEnv("VECTOR_DB_PATH", cfg.VectorDBPath)
	cfg.PolicyDataPath = stringEnv("POLICY_DATA_PATH", cfg.PolicyDataPath)
	cfg.TemplateDataPath = stringEnv("TEMPLATE_DATA_PATH", cfg.TemplateDataPath)

	cfg.HybridVectorWeight = floatEnv("HYBRID_VECTOR_WEIGHT", cfg.HybridVectorWeight)
	cfg.HybridBM25Weight = floatEnv("HYBRID_BM25_WEIGHT", cfg.HybridBM25Weight)

	cfg.MaxIterations = intEnv("MAX_ITERATIONS", cfg.MaxIterations)
	cfg.MinComplianceScore = floatEnv("MIN_COMPLIANCE_SCORE", cfg.MinComplianceScore)
	cfg.StrictCompliance = boolEnv("STRICT_COMPLIANCE", cfg.StrictCompliance)
	cfg.AutoRefinement = boolEnv("AUTO_REFINEMENT", cfg.AutoRefinement)

	cfg.CacheMaxItems = intEnv("CACHE_MAX_ITEMS", cfg.CacheMaxItems)
	cfg.CacheTTLSeconds = intEnv("CACHE_TTL_SECONDS", cfg.CacheTTLSeconds)

	cfg.LogLevel = stringEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.HTTPPort = stringEnv("HTTP_PORT", cfg.HTTPPort)
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring malformed env var", "key", key, "value", v, "error", err)
		return fallback
	}
	return n
}

func floatEnv(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("ignoring malformed env var", "key", key, "value", v, "error", err)
		return fallback
	}
	return f
}

func boolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("ignoring malformed env var", "key", key, "value", v, "error", err)
		return fallback
	}
	return b
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("ignoring malformed env var", "key", key, "value", v, "error", err)
		return fallback
	}
	return d
}
