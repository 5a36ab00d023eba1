// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"docchat-service/internal/config"
	"docchat-service/internal/domain/ports/adapter"
	aiAdapters "docchat-service/internal/infra/adapters/ai"
	"docchat-service/internal/infra/adapters/embed"
	"docchat-service/internal/infra/extract"
	"docchat-service/internal/infra/logging"
	"docchat-service/internal/infra/metrics"
	"docchat-service/internal/infra/rag"
	"docchat-service/internal/infra/sched"
	"docchat-service/internal/infra/storage/memory"
	"docchat-service/internal/infra/web"
	"docchat-service/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, full ids)")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Embedding backend (shared by every session's index) ----
	embedder, err := buildEmbedder(ctx, cfg, logger)
	if err != nil {
		// The engine is useless without a working embedding backend;
		// refuse to start rather than serve broken ingestion.
		logger.Fatal().Err(err).Msg("embedding backend unavailable")
	}
	embedder = embed.NewCachedEmbedder(embedder, cfg.AI.EmbedCacheTTL())

	// ---- Session engine ----
	table := memory.NewTable(cfg.Session, logger)
	reaper := sched.NewReaper(cfg.Session, table, logger)

	// ---- Document pipeline ----
	extractor := extract.NewExtractor(logger)
	splitter := rag.NewSplitter(cfg.RAG)
	builder := rag.NewBuilder(embedder, logger)

	// ---- Chat providers ----
	llm, err := buildLLM(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("chat provider setup failed")
	}
	llm = aiAdapters.NewLimitedLLM(llm, cfg.AI.ConcurrentLimit)
	answerer := rag.NewAnswerer(llm, "", cfg.RAG.TopK, logger)

	// ---- Use cases ----
	sessionUC := usecase.NewSessionUseCase(table, cfg.Session, logger)
	ingestUC := usecase.NewIngestUseCase(table, extractor, splitter, builder, cfg.Upload, logger)
	queryUC := usecase.NewQueryUseCase(table, answerer, cfg.Session, logger)

	// ---- Background reaper ----
	go func() {
		if err := reaper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("reaper stopped")
		}
	}()

	// ---- HTTP server ----
	srv := web.NewServer(sessionUC, ingestUC, queryUC, reaper, cfg.Upload, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown incomplete")
	}
	if n, err := sessionUC.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("session table drain failed")
	} else {
		logger.Info().Int("sessions", n).Msg("session table drained")
	}
}

// buildEmbedder picks the first configured embedding provider: OpenAI, then
// Gemini, then the deterministic local fallback so the service always starts.
func buildEmbedder(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (adapter.EmbeddingProvider, error) {
	if cfg.AI.OpenAIKey != "" {
		e, err := embed.NewOpenAIEmbedder(cfg.AI.OpenAIKey, cfg.AI.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("openai embedder: %w", err)
		}
		logger.Info().Str("provider", "openai").Str("model", cfg.AI.EmbeddingModel).Msg("embedding backend")
		return e, nil
	}
	if cfg.AI.GeminiKey != "" {
		e, err := embed.NewGeminiEmbedder(ctx, cfg.AI.GeminiKey, "")
		if err != nil {
			return nil, fmt.Errorf("gemini embedder: %w", err)
		}
		logger.Info().Str("provider", "gemini").Msg("embedding backend")
		return e, nil
	}
	logger.Warn().Msg("no embedding provider configured, using local hash embedder")
	return embed.NewLocalEmbedder(0), nil
}

// buildLLM assembles the provider failover chain from whatever keys are
// configured: Groq, then OpenAI, then Gemini, with the noop provider as the
// terminal fallback.
func buildLLM(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (adapter.LLMAdapter, error) {
	var chain []adapter.LLMAdapter
	if cfg.AI.GroqKey != "" {
		a, err := aiAdapters.NewGroqAdapter(cfg.AI.GroqKey, cfg.AI.GroqModel, cfg.AI.GroqBaseURL, cfg.AI.MaxTokens, cfg.AI.Temperature)
		if err != nil {
			return nil, fmt.Errorf("groq adapter: %w", err)
		}
		chain = append(chain, a)
	}
	if cfg.AI.OpenAIKey != "" {
		a, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.OpenAIModel, cfg.AI.MaxTokens, cfg.AI.Temperature)
		if err != nil {
			return nil, fmt.Errorf("openai adapter: %w", err)
		}
		chain = append(chain, a)
	}
	if cfg.AI.GeminiKey != "" {
		a, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.GeminiModel, cfg.AI.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("gemini adapter: %w", err)
		}
		chain = append(chain, a)
	}
	if len(chain) == 0 {
		logger.Warn().Msg("no chat provider configured, answers will be placeholders")
		chain = append(chain, aiAdapters.NewNoopAdapter())
	}
	if len(chain) == 1 {
		return chain[0], nil
	}
	return aiAdapters.NewFailoverLLM(logger, chain...)
}
