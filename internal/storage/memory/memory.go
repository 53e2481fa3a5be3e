// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync"

	"github.com/OCAP2/aoi/internal/config"
	"github.com/OCAP2/aoi/pkg/core"
)

// ErrNoSession is returned when a session operation runs before StartSession.
var ErrNoSession = errors.New("memory: no session started")

// EntityRecord groups all events recorded for one entity id
type EntityRecord struct {
	EntityID string
	Enters   []core.EnterEvent
	Moves    []core.MoveEvent
	Leaves   []core.LeaveEvent
}

// Backend stores the session journal in memory and exports it to JSON
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session

	entities    map[string]*EntityRecord
	transitions []core.Transition
	maxSeq      uint64

	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:      cfg,
		entities: make(map[string]*EntityRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	s.ID = b.idCounter
	b.session = s

	b.entities = make(map[string]*EntityRecord)
	b.transitions = nil
	b.maxSeq = 0

	return nil
}

// EndSession finalizes and exports the session journal
func (b *Backend) EndSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	if s != nil && !s.EndTime.IsZero() {
		b.session.EndTime = s.EndTime
	}
	return b.exportJSON()
}

func (b *Backend) record(id string, seq uint64, ts []core.Transition) *EntityRecord {
	rec, ok := b.entities[id]
	if !ok {
		rec = &EntityRecord{EntityID: id}
		b.entities[id] = rec
	}
	if seq > b.maxSeq {
		b.maxSeq = seq
	}
	b.transitions = append(b.transitions, ts...)
	return rec
}

// RecordEnter appends an enter to the entity's record
func (b *Backend) RecordEnter(e *core.EnterEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.record(e.EntityID, e.Seq, e.Transitions())
	rec.Enters = append(rec.Enters, *e)
	return nil
}

// RecordMove appends a move or radius change to the entity's record
func (b *Backend) RecordMove(e *core.MoveEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.record(e.EntityID, e.Seq, e.Transitions())
	rec.Moves = append(rec.Moves, *e)
	return nil
}

// RecordLeave appends a leave to the entity's record
func (b *Backend) RecordLeave(e *core.LeaveEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.record(e.EntityID, e.Seq, e.Transitions())
	rec.Leaves = append(rec.Leaves, *e)
	return nil
}

// Entity returns a copy of the record for id
func (b *Backend) Entity(id string) (EntityRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.entities[id]
	if !ok {
		return EntityRecord{}, false
	}
	return EntityRecord{
		EntityID: rec.EntityID,
		Enters:   append([]core.EnterEvent(nil), rec.Enters...),
		Moves:    append([]core.MoveEvent(nil), rec.Moves...),
		Leaves:   append([]core.LeaveEvent(nil), rec.Leaves...),
	}, true
}

// Transitions returns a copy of every recorded visibility transition
func (b *Backend) Transitions() []core.Transition {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Transition(nil), b.transitions...)
}

// GetExportedFilePath returns the path of the last export
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
