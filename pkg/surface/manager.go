package surface

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bubblechart/pkg/errors"
)

// Manager tracks the live surface of each target.
// It is safe for concurrent use.
type Manager struct {
	logger *log.Logger

	mu       sync.Mutex
	byTarget map[string]*Surface
	byID     map[string]*Surface
}

// NewManager returns an empty manager. A nil logger discards output.
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Manager{
		logger:   logger,
		byTarget: make(map[string]*Surface),
		byID:     make(map[string]*Surface),
	}
}

// Acquire returns a fresh surface for target, releasing the surface
// previously acquired for it.
func (m *Manager) Acquire(target string, width, height float64) (*Surface, error) {
	if err := errors.ValidatePath(target); err != nil {
		return nil, err
	}
	if err := errors.ValidateDimensions(width, height); err != nil {
		return nil, err
	}

	s := New(target, width, height)

	m.mu.Lock()
	prev := m.byTarget[target]
	if prev != nil {
		delete(m.byID, prev.ID)
	}
	m.byTarget[target] = s
	m.byID[s.ID] = s
	m.mu.Unlock()

	if prev != nil {
		m.logger.Debug("released surface", "target", target, "id", prev.ID)
		prev.Release()
	}
	m.logger.Debug("acquired surface", "target", target, "id", s.ID, "width", width, "height", height)
	return s, nil
}

// Get returns the live surface with the given id.
func (m *Manager) Get(id string) (*Surface, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	return s, ok
}

// Release releases the surface with the given id and forgets it.
func (m *Manager) Release(id string) error {
	m.mu.Lock()
	s, ok := m.byID[id]
	if ok {
		delete(m.byID, id)
		if m.byTarget[s.Target] == s {
			delete(m.byTarget, s.Target)
		}
	}
	m.mu.Unlock()

	if !ok {
		return errors.New(errors.ErrCodeSimulationNotFound, "surface %s not found", id)
	}
	s.Release()
	m.logger.Debug("released surface", "target", s.Target, "id", id)
	return nil
}

// Len returns the number of live surfaces.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// Close releases every surface.
func (m *Manager) Close() {
	m.mu.Lock()
	all := make([]*Surface, 0, len(m.byID))
	for _, s := range m.byID {
		all = append(all, s)
	}
	m.byTarget = make(map[string]*Surface)
	m.byID = make(map[string]*Surface)
	m.mu.Unlock()

	for _, s := range all {
		s.Release()
	}
}
