// Package backend is the web front end's client for the prediction server.
// It classifies failures into the buckets the UI phrases for the user and
// memoizes health probes briefly between page renders.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"agentic-rag/internal/cache"
)

// ErrorKind buckets a failed prediction call.
type ErrorKind string

const (
	KindTimeout    ErrorKind = "timeout"
	KindConnection ErrorKind = "connection"
	KindRequest    ErrorKind = "request"
	KindUnexpected ErrorKind = "unexpected"
)

// Error is a classified client failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from an error chain.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnexpected
}

const (
	defaultPredictTimeout = 300 * time.Second
	defaultProbeTimeout   = 2 * time.Second
	defaultHealthTTL      = 10 * time.Second
)

// Client talks to one prediction server.
type Client struct {
	baseURL   string
	predictor *http.Client
	prober    *http.Client
	probe     *cache.Probe
}

// Option adjusts client construction.
type Option func(*options)

type options struct {
	predictTimeout time.Duration
	probeTimeout   time.Duration
	healthTTL      time.Duration
}

// WithPredictTimeout bounds how long a prediction call may take before the
// client gives up. This is the only timeout in the request path.
func WithPredictTimeout(d time.Duration) Option {
	return func(o *options) { o.predictTimeout = d }
}

// WithProbeTimeout bounds health probes.
func WithProbeTimeout(d time.Duration) Option {
	return func(o *options) { o.probeTimeout = d }
}

// WithHealthTTL sets how long a probe result is memoized.
func WithHealthTTL(d time.Duration) Option {
	return func(o *options) { o.healthTTL = d }
}

// New builds a client for the prediction server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	o := options{
		predictTimeout: defaultPredictTimeout,
		probeTimeout:   defaultProbeTimeout,
		healthTTL:      defaultHealthTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		predictor: &http.Client{Timeout: o.predictTimeout},
		prober:    &http.Client{Timeout: o.probeTimeout},
		probe:     cache.NewProbe(o.healthTTL),
	}
}

// BaseURL reports the server this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Healthy reports whether the server answers its health check. Results are
// memoized briefly so repeated page renders don't hammer the server.
func (c *Client) Healthy() bool {
	return c.probe.Check(c.checkHealth)
}

func (c *Client) checkHealth() bool {
	resp, err := c.prober.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

type predictRequest struct {
	Query string `json:"query"`
}

type predictResponse struct {
	Output struct {
		Raw string `json:"raw"`
	} `json:"output"`
}

// Prediction is a successful answer plus the body as the server sent it,
// kept for the raw-response inspection view.
type Prediction struct {
	Answer string
	Raw    []byte
}

// Predict submits the query and waits for the answer. Failures come back as
// *Error with a Kind the UI can phrase. Nothing is retried.
func (c *Client) Predict(ctx context.Context, query string) (Prediction, error) {
	body, err := json.Marshal(predictRequest{Query: query})
	if err != nil {
		return Prediction{}, &Error{Kind: KindUnexpected, Message: "encode request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return Prediction{}, &Error{Kind: KindUnexpected, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.predictor.Do(req)
	if err != nil {
		return Prediction{}, classifyTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Prediction{}, &Error{Kind: KindConnection, Message: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("server returned status %d", resp.StatusCode)
		var fail struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &fail) == nil && fail.Error != "" {
			msg = fail.Error
		}
		return Prediction{}, &Error{Kind: KindRequest, Message: msg}
	}

	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Prediction{}, &Error{Kind: KindUnexpected, Message: "malformed response", Err: err}
	}
	return Prediction{Answer: out.Output.Raw, Raw: raw}, nil
}

func classifyTransport(err error) *Error {
	var ne net.Error
	timedOut := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &ne) && ne.Timeout())
	if timedOut {
		return &Error{Kind: KindTimeout, Message: "request timed out", Err: err}
	}
	return &Error{Kind: KindConnection, Message: "cannot reach server", Err: err}
}
