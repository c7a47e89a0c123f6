package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"agentic-rag/internal/app"
	"agentic-rag/internal/backend"
	"agentic-rag/internal/httputil"
	"agentic-rag/internal/telemetry"
	"agentic-rag/internal/ui"
)

func main() {
	deps, err := app.BuildWeb()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	if deps.Config.TracingEnabled {
		shutdown, err := telemetry.Init("agentic-rag-web", deps.Log)
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

	r := httputil.NewRouter(deps.Log, "agentic-rag-web")
	r.Get("/", indexHandler(deps))
	r.Post("/ask", askHandler(deps))
	r.Handle("/static/*", ui.StaticHandler())

	addr := fmt.Sprintf(":%d", deps.Config.WebPort)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		deps.Log.Info("web UI listening", "addr", addr, "server_url", deps.Config.ServerURL)
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

// serverURLFrom prefers the user-entered server URL over the configured one.
func serverURLFrom(r *http.Request, deps app.WebDeps) string {
	if v := strings.TrimSpace(r.FormValue("server_url")); v != "" {
		return v
	}
	return deps.Config.ServerURL
}

func indexHandler(deps app.WebDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serverURL := serverURLFrom(r, deps)
		client := deps.Backends.For(serverURL)

		renderPage(deps.Log, w, ui.Page{
			ServerURL: serverURL,
			Online:    client.Healthy(),
			Query:     r.FormValue("query"),
			Examples:  ui.ExampleQueries,
		})
	}
}

func askHandler(deps app.WebDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serverURL := serverURLFrom(r, deps)
		query := r.FormValue("query")

		page := ui.Page{
			ServerURL: serverURL,
			Query:     query,
			Examples:  ui.ExampleQueries,
		}

		// Blank input short-circuits before anything goes on the wire. The
		// form was usable when this arrived, so keep it usable.
		if strings.TrimSpace(query) == "" {
			page.Online = true
			page.Warning = "Please enter a question!"
			renderPage(deps.Log, w, page)
			return
		}

		client := deps.Backends.For(serverURL)
		if !client.Healthy() {
			renderPage(deps.Log, w, page)
			return
		}
		page.Online = true

		pred, err := client.Predict(r.Context(), query)
		if err != nil {
			page.Error, page.ErrorKind = describeError(err)
			deps.Log.Warn("prediction failed", "kind", page.ErrorKind, "err", err)
			renderPage(deps.Log, w, page)
			return
		}

		page.Answer = pred.Answer
		if page.Answer == "" {
			page.Answer = "No response received"
		}
		page.RawJSON = prettyJSON(pred.Raw)
		renderPage(deps.Log, w, page)
	}
}

// describeError phrases a classified client failure for the page.
func describeError(err error) (message, kind string) {
	k := backend.KindOf(err)
	switch k {
	case backend.KindTimeout:
		return "Request timed out. The server might be processing a complex query. Please try again.", string(k)
	case backend.KindConnection:
		return "Could not connect to the server. Make sure the server is running.", string(k)
	case backend.KindRequest:
		return fmt.Sprintf("Error: %v", err), string(k)
	default:
		return fmt.Sprintf("Unexpected error: %v", err), string(k)
	}
}

func prettyJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func renderPage(log *slog.Logger, w http.ResponseWriter, page ui.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ui.Render(w, page); err != nil {
		log.Error("render failed", "err", err)
	}
}
