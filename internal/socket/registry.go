package socket

import (
	"sync"

	"github.com/theanh9911/agno-console/internal/logging"
)

// Registry guarantees one manager per endpoint URL. Switching to a new
// endpoint closes the previously active connection (close code 1000)
// before the new one opens, since in-flight streaming state is
// meaningless against a different server.
type Registry struct {
	logger *logging.Logger
	opts   []Option

	mu       sync.Mutex
	managers map[string]*Manager
	active   *Manager
}

// NewRegistry creates a registry. opts are applied to every manager it
// constructs.
func NewRegistry(logger *logging.Logger, opts ...Option) *Registry {
	return &Registry{
		logger:   logger,
		opts:     opts,
		managers: make(map[string]*Manager),
	}
}

// Connect returns the connected manager for cfg.Endpoint, reusing an
// existing connection when one is open to the same endpoint.
func (r *Registry) Connect(cfg Config) (*Manager, error) {
	r.mu.Lock()
	if r.active != nil && r.active.Endpoint() != cfg.Endpoint {
		old := r.active
		r.active = nil
		r.mu.Unlock()
		old.Disconnect()
		r.mu.Lock()
	}

	m, ok := r.managers[cfg.Endpoint]
	if !ok {
		m = NewManager(cfg, r.logger, r.opts...)
		r.managers[cfg.Endpoint] = m
	}
	r.active = m
	r.mu.Unlock()

	return m, m.Connect()
}

// Active returns the currently active manager, or nil.
func (r *Registry) Active() *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Shutdown disconnects every managed connection.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	managers := make([]*Manager, 0, len(r.managers))
	for _, m := range r.managers {
		managers = append(managers, m)
	}
	r.active = nil
	r.mu.Unlock()

	for _, m := range managers {
		m.Disconnect()
	}
}
