// Package gormstorage implements the storage.Backend interface on top of any
// GORM dialect, with internal queues and a background DB writer goroutine.
package gormstorage

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/aoi/internal/database"
	"github.com/OCAP2/aoi/internal/logging"
	"github.com/OCAP2/aoi/internal/model"
	"github.com/OCAP2/aoi/internal/model/convert"
	"github.com/OCAP2/aoi/internal/queue"
	"github.com/OCAP2/aoi/pkg/core"
	"github.com/rs/zerolog"

	"gorm.io/gorm"
)

const (
	defaultFlushInterval = 2 * time.Second
	defaultBatchSize     = 1000
)

// Dependencies holds all dependencies for the GORM storage backend.
// With a nil DB the backend only queues, which is what the unit tests use.
type Dependencies struct {
	DB            *gorm.DB
	LogManager    *logging.SlogManager
	DBLogger      zerolog.Logger
	FlushInterval time.Duration
	BatchSize     int
}

// queues holds the write queues for batch DB insertion.
type queues struct {
	EntityEvents *queue.Queue[model.EntityEvent]
	Transitions  *queue.Queue[model.VisibilityTransition]
}

func newQueues() *queues {
	return &queues{
		EntityEvents: queue.New[model.EntityEvent](),
		Transitions:  queue.New[model.VisibilityTransition](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	queues    *queues
	sessionID atomic.Uint64

	writeMu   sync.Mutex
	lastWrite atomic.Int64

	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = defaultBatchSize
	}
	return &Backend{
		deps:   deps,
		queues: newQueues(),
	}
}

// DB returns the underlying connection, nil in queue-only mode.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	if b.deps.DB == nil {
		close(b.done)
		return nil
	}

	if err := database.Setup(b.deps.DB, b.deps.DBLogger); err != nil {
		close(b.done)
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	go b.writerLoop()
	return nil
}

// Close stops the writer goroutine and flushes whatever is still queued.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if b.stopChan == nil {
			return
		}
		close(b.stopChan)
		<-b.done
		err = b.Flush()
	})
	return err
}

// StartSession inserts the session row and remembers its ID for stamping.
func (b *Backend) StartSession(s *core.Session) error {
	if b.deps.DB == nil {
		return nil
	}

	row := convert.CoreToSession(*s)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	s.ID = row.ID
	b.sessionID.Store(uint64(row.ID))
	return nil
}

// EndSession flushes the queues and stamps the session end time.
func (b *Backend) EndSession(s *core.Session) error {
	if err := b.Flush(); err != nil {
		return err
	}
	if b.deps.DB == nil {
		return nil
	}
	if s.EndTime.IsZero() {
		s.EndTime = time.Now()
	}
	err := b.deps.DB.Model(&model.Session{}).
		Where("id = ?", s.ID).
		Update("end_time", s.EndTime).Error
	if err != nil {
		return fmt.Errorf("failed to close session %d: %w", s.ID, err)
	}
	return nil
}

// SetSessionID overrides the session id stamped on queued rows.
func (b *Backend) SetSessionID(id uint) {
	b.sessionID.Store(uint64(id))
}

func (b *Backend) push(row model.EntityEvent, ts []core.Transition) {
	sid := uint(b.sessionID.Load())
	row.SessionID = sid
	b.queues.EntityEvents.Push(row)

	rows := convert.CoreToTransitions(ts)
	for i := range rows {
		rows[i].SessionID = sid
	}
	b.queues.Transitions.Push(rows...)
}

// RecordEnter converts and queues an enter.
func (b *Backend) RecordEnter(e *core.EnterEvent) error {
	row, err := convert.CoreToEnterEvent(*e)
	if err != nil {
		return err
	}
	b.push(row, e.Transitions())
	return nil
}

// RecordMove converts and queues a move or radius change.
func (b *Backend) RecordMove(e *core.MoveEvent) error {
	row, err := convert.CoreToMoveEvent(*e)
	if err != nil {
		return err
	}
	b.push(row, e.Transitions())
	return nil
}

// RecordLeave converts and queues a leave.
func (b *Backend) RecordLeave(e *core.LeaveEvent) error {
	row, err := convert.CoreToLeaveEvent(*e)
	if err != nil {
		return err
	}
	b.push(row, e.Transitions())
	return nil
}

// QueueLength returns the number of rows waiting to be written.
func (b *Backend) QueueLength() int {
	return b.queues.EntityEvents.Len() + b.queues.Transitions.Len()
}

// LastWriteDuration returns how long the most recent flush took.
func (b *Backend) LastWriteDuration() time.Duration {
	return time.Duration(b.lastWrite.Load())
}

// Flush writes every queued row now. It is a no-op without a DB.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return nil
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	start := time.Now()
	defer func() { b.lastWrite.Store(int64(time.Since(start))) }()

	log := b.deps.LogManager.WriteLog
	for !b.queues.EntityEvents.Empty() {
		if err := writeQueue(b.deps.DB, b.queues.EntityEvents, "entity events", b.deps.BatchSize, log); err != nil {
			return err
		}
	}
	for !b.queues.Transitions.Empty() {
		if err := writeQueue(b.deps.DB, b.queues.Transitions, "visibility transitions", b.deps.BatchSize, log); err != nil {
			return err
		}
	}
	return nil
}

// writeQueue writes up to batch items from a queue to the database in a
// transaction. On failure the items are pushed back.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, batch int, log func(string, string, string)) error {
	items := q.Drain(batch)
	if len(items) == 0 {
		return nil
	}

	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		log(":DB:WRITER:", fmt.Sprintf("Error creating %s: %v", name, err), "ERROR")
		tx.Rollback()
		q.Push(items...)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tx.Commit().Error; err != nil {
		q.Push(items...)
		return fmt.Errorf("committing %s: %w", name, err)
	}
	return nil
}

// writerLoop periodically drains the queues into the DB.
func (b *Backend) writerLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.deps.LogManager.WriteLog(":DB:WRITER:", err.Error(), "WARN")
			}
		}
	}
}
