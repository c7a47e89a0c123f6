package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go/v3"

	"agentic-rag/internal/backend"
	"agentic-rag/internal/config"
	"agentic-rag/internal/llm"
	"agentic-rag/internal/logger"
	"agentic-rag/internal/pipeline"
)

// Deps bundles runtime dependencies for the prediction server.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Pipeline *pipeline.Pipeline
}

// Build loads env, config, and the answer pipeline.
func Build() (Deps, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	pipe, err := pipeline.New(llmClient, pipeline.QAStages(),
		pipeline.WithLogger(log),
		pipeline.WithMaxConcurrent(cfg.MaxConcurrentRuns),
	)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return Deps{
		Config:   cfg,
		Log:      log,
		Pipeline: pipe,
	}, nil
}

// WebDeps bundles runtime dependencies for the web front end.
type WebDeps struct {
	Config   config.Config
	Log      *slog.Logger
	Backends *backend.Registry
}

// BuildWeb loads env, config, and the prediction-server client registry.
func BuildWeb() (WebDeps, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return WebDeps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	registry := backend.NewRegistry(
		backend.WithPredictTimeout(cfg.PredictTimeout),
		backend.WithProbeTimeout(cfg.HealthProbeTimeout),
		backend.WithHealthTTL(cfg.HealthCacheTTL),
	)
	return WebDeps{
		Config:   cfg,
		Log:      log,
		Backends: registry,
	}, nil
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "ollama":
		// Ollama serves the OpenAI wire format under /v1 and ignores the key.
		client, err := llm.NewOpenAIClient("ollama", openai.ChatModel(cfg.LLMModel),
			llm.WithBaseURL(strings.TrimRight(cfg.OllamaHost, "/")+"/v1"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Ollama client: %w", err)
		}
		log.Info("using local Ollama model", "host", cfg.OllamaHost, "model", cfg.LLMModel, "private", true)
		return client, nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(cfg.LLMModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "model", cfg.LLMModel)
		return client, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: ollama, openai)", cfg.LLMProvider)
	}
}
