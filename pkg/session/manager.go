package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/logging"
)

// ErrSessionNotFound is returned when no form lives under a session ID.
var ErrSessionNotFound = errors.New("session not found")

// Factory builds the form of a new session.
type Factory func(ctx context.Context, sessionID string) (*formwork.Form, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager keeps the forms of live sessions and serializes compound
// operations on each of them.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	factory Factory

	mu    sync.Mutex                // Global lock for both maps
	forms map[string]*formwork.Form // Live sessions
	locks map[string]*lockEntry     // Map of active locks

	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager that builds session forms with factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory: factory,
		forms:   make(map[string]*formwork.Form),
		locks:   make(map[string]*lockEntry),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// locked runs fn while holding the lock of sessionID.
func (m *Manager) locked(sessionID string, fn func() error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()
	return fn()
}

// Create starts a session under a fresh ID.
func (m *Manager) Create(ctx context.Context) (string, *formwork.Form, error) {
	id := uuid.NewString()
	form, err := m.GetOrCreate(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return id, form, nil
}

// GetOrCreate returns the form of sessionID, building it on first use.
// Concurrent callers for the same ID get the same form.
func (m *Manager) GetOrCreate(ctx context.Context, sessionID string) (*formwork.Form, error) {
	var form *formwork.Form
	err := m.locked(sessionID, func() error {
		if f, err := m.Get(sessionID); err == nil {
			form = f
			return nil
		}

		f, err := m.factory(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}

		m.mu.Lock()
		m.forms[sessionID] = f
		m.mu.Unlock()

		m.logger.Info("session created", "session_id", sessionID)
		form = f
		return nil
	})
	return form, err
}

// Get returns the form of sessionID.
func (m *Manager) Get(sessionID string) (*formwork.Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	form, ok := m.forms[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return form, nil
}

// Delete ends a session. Its in-flight validation passes are awaited and
// the fields it parked in the recovery cache are dropped.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context, form *formwork.Form) error {
		form.Wait()
		form.ResetFields(ctx)

		m.mu.Lock()
		delete(m.forms, sessionID)
		m.mu.Unlock()

		m.logger.Info("session deleted", "session_id", sessionID)
		return nil
	})
}

// List returns the live session IDs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.forms))
	for id := range m.forms {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// WithLock executes fn while holding the lock for the session. Operations
// that read and then write a form should go through it.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context, *formwork.Form) error) error {
	return m.locked(sessionID, func() error {
		form, err := m.Get(sessionID)
		if err != nil {
			return err
		}
		return fn(ctx, form)
	})
}
