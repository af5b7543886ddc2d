// Package shutdown coordinates graceful teardown of the daemon on
// SIGINT/SIGTERM.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Manager collects shutdown hooks and runs them in reverse registration
// order once a termination signal arrives.
type Manager struct {
	mu      sync.Mutex
	hooks   []func(context.Context) error
	timeout time.Duration
}

// New creates a shutdown manager with an overall teardown timeout.
func New(timeout time.Duration) *Manager {
	return &Manager{timeout: timeout}
}

// Register adds a shutdown hook. Hooks run LIFO.
func (m *Manager) Register(fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Wait blocks until SIGINT or SIGTERM.
func (m *Manager) Wait() os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	return <-sigChan
}

// Shutdown runs all registered hooks, newest first, under the configured
// timeout. Hook errors are collected and the first one is returned.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	var firstErr error
	for i := len(m.hooks) - 1; i >= 0; i-- {
		if err := m.hooks[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
