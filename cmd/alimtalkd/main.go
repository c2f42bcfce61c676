// alimtalkd is the HTTP server that wires every pipeline component
// together and serves the Service operations.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/codeready-toolchain/alimtalk/pkg/analyzer"
	"github.com/codeready-toolchain/alimtalk/pkg/cache"
	"github.com/codeready-toolchain/alimtalk/pkg/compliance"
	"github.com/codeready-toolchain/alimtalk/pkg/config"
	"github.com/codeready-toolchain/alimtalk/pkg/corpus"
	"github.com/codeready-toolchain/alimtalk/pkg/embedding"
	"github.com/codeready-toolchain/alimtalk/pkg/generator"
	"github.com/codeready-toolchain/alimtalk/pkg/httpapi"
	"github.com/codeready-toolchain/alimtalk/pkg/korean"
	"github.com/codeready-toolchain/alimtalk/pkg/llmclient"
	"github.com/codeready-toolchain/alimtalk/pkg/models"
	"github.com/codeready-toolchain/alimtalk/pkg/policy"
	"github.com/codeready-toolchain/alimtalk/pkg/retrieval"
	"github.com/codeready-toolchain/alimtalk/pkg/service"
	"github.com/codeready-toolchain/alimtalk/pkg/version"
	"github.com/codeready-toolchain/alimtalk/pkg/workflow"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	yamlPath := flag.String("config", getEnv("CONFIG_FILE", "./config.yaml"),
		"Path to an optional YAML config override file")
	flag.Parse()

	cfg, err := config.Load(*yamlPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)
	slog.Info("starting alimtalkd", "version", version.Full(), "http_port", cfg.HTTPPort)

	ctx := context.Background()

	store := corpus.NewStore()
	if err := corpus.LoadPolicyDirectory(store, cfg.PolicyDataPath); err != nil {
		slog.Warn("no policy corpus loaded", "path", cfg.PolicyDataPath, "error", err)
	}
	if err := corpus.LoadTemplateData(store, cfg.TemplateDataPath); err != nil {
		slog.Warn("no approved-template corpus loaded", "path", cfg.TemplateDataPath, "error", err)
	}

	resultCache := cache.New(time.Duration(cfg.CacheTTLSeconds)*time.Second, cfg.CacheMaxItems)

	chatBackend := llmclient.NewHTTPChatBackend(cfg.LLMEndpoint, cfg.LLMAPIKey, llmclient.Params{
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	})
	llm := llmclient.New(chatBackend, cfg.LLMTimeout)

	embedder := embedding.New(cfg.EmbeddingEndpoint, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
	embedder.Timeout = cfg.EmbeddingTimeout
	slog.Info("embedding backend configured", "provider", cfg.EmbeddingProvider, "model", cfg.EmbeddingModel)

	tokenizer := korean.New()
	hybrid := buildHybridRetriever(ctx, store, embedder, tokenizer, cfg)
	policyBuilder := policy.NewBuilder(hybrid)

	an := analyzer.New(llm, resultCache)
	gen := generator.New(llm, resultCache, store)
	reviewer := compliance.NewReviewer(llm)
	checker := compliance.NewChecker(reviewer)

	engine := workflow.New(an, policyBuilder, gen, checker, workflow.Options{
		MaxIterations:           cfg.MaxIterations,
		MinComplianceScore:      cfg.MinComplianceScore,
		StrictCompliance:        cfg.StrictCompliance,
		AutoRefinement:          cfg.AutoRefinement,
		ParallelAnalyzeRetrieve: false,
	})

	svc := service.New(engine, checker, store, resultCache)
	server := httpapi.NewServer(svc)

	addr := ":" + cfg.HTTPPort
	slog.Info("listening", "addr", addr)
	if err := server.Start(addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// buildHybridRetriever indexes every chunk and approved template
// currently in store into both the dense and sparse sides of the hybrid
// retriever. A production deployment would persist these indexes instead
// of rebuilding them from the corpus on every start.
func buildHybridRetriever(ctx context.Context, store *corpus.Store, embedder retrieval.Embedder, tokenizer *korean.Tokenizer, cfg config.Config) *retrieval.HybridRetriever {
	vectorIndex := retrieval.NewVectorIndex(embedder)
	bm25Index := retrieval.NewBM25Index()

	var documents []retrieval.Document
	for docID, chunk := range store.Chunks() {
		if err := vectorIndex.Upsert(ctx, docID, models.DocTypePolicy, chunk.Content, map[string]string{"source": chunk.Source}); err != nil {
			slog.Warn("failed to embed policy chunk", "doc_id", docID, "error", err)
		}
		documents = append(documents, retrieval.Document{
			ID:      docID,
			Tokens:  tokenizer.Tokenize(chunk.Content),
			DocType: models.DocTypePolicy,
		})
	}
	for _, tmpl := range store.ApprovedTemplates() {
		if err := vectorIndex.Upsert(ctx, tmpl.ID, models.DocTypeTemplate, tmpl.Text, map[string]string{"business_type": string(tmpl.Metadata.BusinessType)}); err != nil {
			slog.Warn("failed to embed approved template", "doc_id", tmpl.ID, "error", err)
		}
		documents = append(documents, retrieval.Document{
			ID:      tmpl.ID,
			Tokens:  tokenizer.Tokenize(tmpl.Text),
			DocType: models.DocTypeTemplate,
		})
	}

	if err := bm25Index.Build(documents); err != nil {
		slog.Error("bm25 index build failed, refusing to start", "error", err)
		os.Exit(1)
	}

	return retrieval.NewHybridRetriever(vectorIndex, bm25Index, tokenizer, store, cfg.HybridVectorWeight, cfg.HybridBM25Weight, true)
}

func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l})))
}
