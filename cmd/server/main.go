package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agentic-rag/internal/app"
	"agentic-rag/internal/httputil"
	"agentic-rag/internal/pipeline"
	"agentic-rag/internal/telemetry"
)

type predictRequest struct {
	Query string `json:"query" validate:"required,notblank"`
}

type predictOutput struct {
	Raw string `json:"raw"`
}

type predictResponse struct {
	Output predictOutput `json:"output"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	if deps.Config.TracingEnabled {
		shutdown, err := telemetry.Init("agentic-rag-server", deps.Log)
		if err != nil {
			deps.Log.Error("failed to initialize tracing", "err", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				deps.Log.Error("tracing shutdown failed", "err", err)
			}
		}()
	}

	r := httputil.NewRouter(deps.Log, "agentic-rag-server")
	r.Get("/health", httputil.HealthHandler())
	r.Post("/predict", predictHandler(deps))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		deps.Log.Info("agentic RAG server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			deps.Log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	deps.Log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		deps.Log.Error("shutdown failed", "err", err)
	}
}

func predictHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid request body", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		res, err := deps.Pipeline.Kickoff(r.Context(), pipeline.Inputs{"query": req.Query})
		w.Header().Set("X-Run-ID", res.RunID.String())
		if err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusInternalServerError)
			return
		}

		deps.Log.Info("prediction served",
			"run_id", res.RunID,
			"query_chars", len(req.Query),
			"answer_chars", len(res.Raw),
		)
		httputil.WriteJSON(w, http.StatusOK, predictResponse{Output: predictOutput{Raw: res.Raw}})
	}
}
