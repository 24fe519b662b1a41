package session

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ayusman/handtype/internal/gesture"
	"github.com/ayusman/handtype/internal/text"
)

// Manager keeps independent sessions keyed by id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	defaults Options
	logger   *slog.Logger
}

// NewManager creates a Manager. defaults is the template for new sessions;
// its Config is replaced by SetConfig.
func NewManager(defaults Options) *Manager {
	logger := defaults.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if defaults.Config == (gesture.Config{}) {
		defaults.Config = gesture.DefaultConfig()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		defaults: defaults,
		logger:   logger,
	}
}

// Config returns the tunables given to new sessions.
func (m *Manager) Config() gesture.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaults.Config
}

// SetConfig validates cfg and uses it for sessions created afterwards.
// Running sessions keep their tunables.
func (m *Manager) SetConfig(cfg gesture.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults.Config = cfg
	return nil
}

// Create starts a new session. A nil cfg uses the manager defaults.
func (m *Manager) Create(cfg *gesture.Config) (*Session, error) {
	return m.CreateWith(cfg, nil)
}

// CreateWith starts a new session whose edits also go to sink, in addition
// to the manager's default sink. The local camera session uses this to drive
// the keyboard.
func (m *Manager) CreateWith(cfg *gesture.Config, sink text.Sink) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	opts := m.defaults
	if cfg != nil {
		opts.Config = *cfg
	}
	if sink != nil {
		opts.Sink = text.MultiSink(opts.Sink, sink)
	}
	opts.Logger = m.logger

	s, err := New(uuid.NewString(), opts)
	if err != nil {
		return nil, err
	}
	m.sessions[s.ID()] = s

	m.logger.Info("session created", "session", s.ID(),
		"required", opts.Config.RequiredConsecutive, "cooldown", opts.Config.Cooldown)
	return s, nil
}

// Get returns the session with the given id or ErrNotFound.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// List returns all sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].createdAt.Equal(list[j].createdAt) {
			return list[i].id < list[j].id
		}
		return list[i].createdAt.Before(list[j].createdAt)
	})
	return list
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Delete closes and removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Close()
	m.logger.Info("session closed", "session", id)
	return nil
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
