package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"golang.org/x/sync/errgroup"

	"agentic-rag/internal/app"
	"agentic-rag/internal/config"
	"agentic-rag/internal/httputil"
	"agentic-rag/internal/llm"
	"agentic-rag/internal/pipeline"
)

func newTestDeps(t *testing.T, m *llm.MockClient) app.Deps {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipe, err := pipeline.New(m, pipeline.QAStages(),
		pipeline.WithLogger(log),
		pipeline.WithMaxConcurrent(2),
	)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return app.Deps{
		Config:   config.Config{},
		Log:      log,
		Pipeline: pipe,
	}
}

func TestHealthEndpoint(t *testing.T) {
	r := httputil.NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), "test")
	r.Get("/health", httputil.HealthHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf(`expected {"status":"healthy"}, got %v`, body)
	}
}

func TestPredictHandler(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		setup          func(*llm.MockClient)
		wantStatusCode int
		checkResponse  func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "successful prediction",
			requestBody: `{"query": "What is artificial intelligence?"}`,
			setup: func(m *llm.MockClient) {
				m.On("Complete", mock.Anything,
					mock.MatchedBy(func(sys string) bool { return strings.Contains(sys, "Research Specialist") }),
					mock.Anything,
				).Return("AI research notes", nil).Once()
				m.On("Complete", mock.Anything,
					mock.MatchedBy(func(sys string) bool { return strings.Contains(sys, "Technical Writer") }),
					mock.MatchedBy(func(user string) bool { return strings.Contains(user, "AI research notes") }),
				).Return("AI is the simulation of human intelligence.", nil).Once()
			},
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var result struct {
					Output struct {
						Raw string `json:"raw"`
					} `json:"output"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if result.Output.Raw != "AI is the simulation of human intelligence." {
					t.Errorf("unexpected answer %q", result.Output.Raw)
				}
				if _, err := uuid.Parse(w.Header().Get("X-Run-ID")); err != nil {
					t.Errorf("expected run ID header, got %q", w.Header().Get("X-Run-ID"))
				}
			},
		},
		{
			name:           "invalid JSON payload returns 400",
			requestBody:    `{invalid json}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing query returns 400",
			requestBody:    `{}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "blank query returns 400",
			requestBody:    `{"query": "   "}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:        "pipeline failure returns 500 with error text",
			requestBody: `{"query": "What is AI?"}`,
			setup: func(m *llm.MockClient) {
				m.On("Complete", mock.Anything, mock.Anything, mock.Anything).
					Return("", errors.New("connection to model refused")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var body map[string]string
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if !strings.Contains(body["error"], "connection to model refused") {
					t.Errorf("expected error text in envelope, got %q", body["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLLM := new(llm.MockClient)
			if tt.setup != nil {
				tt.setup(mockLLM)
			}
			deps := newTestDeps(t, mockLLM)
			handler := predictHandler(deps)

			req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString(tt.requestBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tt.wantStatusCode {
				t.Errorf("expected status %d, got %d. Body: %s", tt.wantStatusCode, w.Code, w.Body.String())
			}

			// Every failure answers with the error envelope.
			if tt.wantStatusCode != http.StatusOK {
				var body map[string]string
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("failed to decode error envelope: %v", err)
				}
				if body["error"] == "" {
					t.Error("expected non-empty error message")
				}
			}

			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}

			mockLLM.AssertExpectations(t)
		})
	}
}

func TestPredictConcurrentRequestsAreIndependent(t *testing.T) {
	mockLLM := new(llm.MockClient)
	for _, q := range []string{"alpha", "beta"} {
		mockLLM.On("Complete", mock.Anything,
			mock.MatchedBy(func(sys string) bool { return strings.Contains(sys, "Research Specialist") }),
			mock.MatchedBy(func(user string) bool { return strings.Contains(user, q) }),
		).Return("notes for "+q, nil).Once()
		mockLLM.On("Complete", mock.Anything,
			mock.MatchedBy(func(sys string) bool { return strings.Contains(sys, "Technical Writer") }),
			mock.MatchedBy(func(user string) bool { return strings.Contains(user, "notes for "+q) }),
		).Return("answer for "+q, nil).Once()
	}

	deps := newTestDeps(t, mockLLM)
	handler := predictHandler(deps)

	var g errgroup.Group
	for _, q := range []string{"alpha", "beta"} {
		g.Go(func() error {
			body := `{"query": "tell me about ` + q + `"}`
			req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != http.StatusOK {
				return errors.New("unexpected status for " + q + ": " + w.Body.String())
			}
			var result struct {
				Output struct {
					Raw string `json:"raw"`
				} `json:"output"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
				return err
			}
			if result.Output.Raw != "answer for "+q {
				return errors.New("crossed answers: got " + result.Output.Raw + " for " + q)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Error(err)
	}
	mockLLM.AssertExpectations(t)
}
