package worker

import (
	"errors"
	"fmt"
	"time"

	"github.com/OCAP2/aoi/internal/cache"
	"github.com/OCAP2/aoi/internal/influx"
	"github.com/OCAP2/aoi/internal/logging"
	"github.com/OCAP2/aoi/internal/parser"
	"github.com/OCAP2/aoi/internal/session"
	"github.com/OCAP2/aoi/internal/storage"
)

var (
	// ErrUnknownEntity is returned when a command names an id that is not in the scene
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrDuplicateEntity is returned when an enter names an id that is already in the scene
	ErrDuplicateEntity = errors.New("entity already in scene")
)

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Session    *session.Context
	Registry   *cache.EntityRegistry
	Parser     *parser.Parser
	LogManager *logging.SlogManager
	Influx     *influx.Manager    // optional
	Seq        *cache.SafeCounter // optional, shared with other sequence users
}

// Manager applies scene commands and forwards what they changed
type Manager struct {
	deps    Dependencies
	backend storage.Backend
	metrics *metrics
}

// NewManager creates a new worker manager. A nil backend records nothing.
func NewManager(deps Dependencies, backend storage.Backend) (*Manager, error) {
	if deps.Registry == nil {
		deps.Registry = cache.NewEntityRegistry()
	}
	if deps.Seq == nil {
		deps.Seq = &cache.SafeCounter{}
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if backend == nil {
		backend = &storage.Nop{}
	}

	met, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("creating worker metrics: %w", err)
	}

	return &Manager{
		deps:    deps,
		backend: backend,
		metrics: met,
	}, nil
}

// Backend returns the storage backend the manager records to.
func (m *Manager) Backend() storage.Backend {
	return m.backend
}

// LastWriteDuration returns the duration of the last backend write cycle.
// Returns 0 if the backend doesn't track it.
func (m *Manager) LastWriteDuration() time.Duration {
	if p, ok := m.backend.(storage.Monitored); ok {
		return p.LastWriteDuration()
	}
	return 0
}

// QueueLength returns the number of rows waiting in the backend.
func (m *Manager) QueueLength() int {
	if p, ok := m.backend.(storage.Monitored); ok {
		return p.QueueLength()
	}
	return 0
}
