package session

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/orrery/internal/logging"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
)

// Manager is a registry of running sessions. Safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]ports.Controller
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]ports.Controller),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add registers c under id. The entry is removed once c stops.
func (m *Manager) Add(id string, c ports.Controller) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; exists {
		return fmt.Errorf("session %q already registered", id)
	}
	m.sessions[id] = c
	m.logger.Info("session registered", "session_id", id)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		<-c.Done()
		m.forget(id, c)
	}()
	return nil
}

func (m *Manager) forget(id string, c ports.Controller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[id]; ok && cur == c {
		delete(m.sessions, id)
		m.logger.Info("session ended", "session_id", id)
	}
}

// Get returns the session registered under id.
func (m *Manager) Get(id string) (ports.Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return c, nil
}

// IDs returns the registered ids in lexical order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns the status of every registered session, ordered by id.
func (m *Manager) List() []domain.Status {
	ids := m.IDs()
	out := make([]domain.Status, 0, len(ids))
	for _, id := range ids {
		c, err := m.Get(id)
		if err != nil {
			continue
		}
		out = append(out, c.Status())
	}
	return out
}

// Remove closes and forgets the session registered under id.
func (m *Manager) Remove(id string) error {
	c, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("close session %s: %w", id, err)
	}
	m.forget(id, c)
	return nil
}

// CloseAll closes every session and waits until they have all been forgotten.
func (m *Manager) CloseAll() {
	for _, id := range m.IDs() {
		if err := m.Remove(id); err != nil {
			m.logger.Warn("failed to close session", "session_id", id, "err", err)
		}
	}
	m.wg.Wait()
}
