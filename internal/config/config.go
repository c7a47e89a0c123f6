package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds minimal runtime configuration. Extend as needed.
type Config struct {
	// API server
	Port              int    `env:"PORT" envDefault:"8000"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	MaxConcurrentRuns int64  `env:"MAX_CONCURRENT_RUNS" envDefault:"1"`
	TracingEnabled    bool   `env:"TRACING_ENABLED" envDefault:"false"`

	// LLM
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"ollama"` // "ollama" (local, default) or "openai" (hosted API)
	OllamaHost  string `env:"OLLAMA_HOST" envDefault:"http://localhost:11434"`
	OpenAIKey   string `env:"OPENAI_API_KEY"`
	LLMModel    string `env:"LLM_MODEL" envDefault:"llama3"`

	// Web front end
	WebPort            int           `env:"WEB_PORT" envDefault:"8501"`
	ServerURL          string        `env:"SERVER_URL" envDefault:"http://localhost:8000"`
	PredictTimeout     time.Duration `env:"PREDICT_TIMEOUT" envDefault:"300s"`
	HealthProbeTimeout time.Duration `env:"HEALTH_PROBE_TIMEOUT" envDefault:"2s"`
	HealthCacheTTL     time.Duration `env:"HEALTH_CACHE_TTL" envDefault:"10s"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
