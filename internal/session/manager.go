package session

import (
	"context"
	"sync"

	"github.com/learnlite/assessment-engine/internal/assessment"
	"github.com/learnlite/assessment-engine/internal/attempt"
)

// Manager holds the active controllers for this process, keyed by
// (user, assessment). At most one non-terminal session may exist per key.
type Manager struct {
	loader   assessment.Loader
	recorder attempt.Recorder
	opts     []Option

	mu     sync.Mutex
	active map[string]*Controller
}

func NewManager(loader assessment.Loader, recorder attempt.Recorder, opts ...Option) *Manager {
	return &Manager{
		loader:   loader,
		recorder: recorder,
		opts:     opts,
		active:   map[string]*Controller{},
	}
}

func sessionKey(userID, assessmentID string) string {
	return userID + "|" + assessmentID
}

// Start creates and starts a controller for the pair. Fails with
// ErrAlreadyInProgress while an earlier session for the same pair has not
// reached a terminal state.
func (m *Manager) Start(ctx context.Context, assessmentID, userID string) (*Controller, error) {
	key := sessionKey(userID, assessmentID)

	m.mu.Lock()
	if existing, ok := m.active[key]; ok {
		switch existing.State() {
		case StateCompleted, StateAbandoned:
			// terminal, replaceable
		default:
			m.mu.Unlock()
			return nil, ErrAlreadyInProgress
		}
	}
	c := NewController(assessmentID, userID, m.loader, m.recorder, m.opts...)
	m.active[key] = c
	m.mu.Unlock()

	if err := c.Start(ctx); err != nil {
		m.mu.Lock()
		if m.active[key] == c {
			delete(m.active, key)
		}
		m.mu.Unlock()
		return nil, err
	}
	return c, nil
}

// Get returns the controller for the pair, if any.
func (m *Manager) Get(assessmentID, userID string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.active[sessionKey(userID, assessmentID)]
	return c, ok
}

// Abandon discards the pair's session without finalizing and frees the slot.
// The slot is freed only when the controller accepts the abandon; a session
// stuck in Submitting stays registered so a manual submit can still retry.
func (m *Manager) Abandon(assessmentID, userID string) error {
	key := sessionKey(userID, assessmentID)
	m.mu.Lock()
	c, ok := m.active[key]
	m.mu.Unlock()
	if !ok {
		return ErrInvalidState
	}
	if err := c.Abandon(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.active[key] == c {
		delete(m.active, key)
	}
	m.mu.Unlock()
	return nil
}

// Release drops a terminal session from the registry. A non-terminal
// session is left in place.
func (m *Manager) Release(assessmentID, userID string) {
	key := sessionKey(userID, assessmentID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.active[key]; ok {
		switch c.State() {
		case StateCompleted, StateAbandoned:
			delete(m.active, key)
		}
	}
}
