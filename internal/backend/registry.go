package backend

import (
	"strings"
	"sync"
)

// Registry hands out one Client per base URL so health memoization survives
// across page renders when the user points the UI at a different server.
type Registry struct {
	opts []Option

	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry builds a registry; opts apply to every client it creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		opts:    opts,
		clients: make(map[string]*Client),
	}
}

// For returns the client for baseURL, creating it on first use.
func (r *Registry) For(baseURL string) *Client {
	key := strings.TrimRight(strings.TrimSpace(baseURL), "/")

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[key]
	if !ok {
		c = New(key, r.opts...)
		r.clients[key] = c
	}
	return c
}
