// internal/storage/storage.go
package storage

import (
	"time"

	"github.com/OCAP2/aoi/pkg/core"
)

// Backend is the interface all journal implementations must satisfy.
// A backend records what the scene reported; it never feeds back into it.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management (StartSession assigns the session ID)
	StartSession(s *core.Session) error
	EndSession(s *core.Session) error

	// Scene operations
	RecordEnter(e *core.EnterEvent) error
	RecordMove(e *core.MoveEvent) error
	RecordLeave(e *core.LeaveEvent) error
}

// Exportable is an optional interface for backends that write a journal
// file when a session ends.
type Exportable interface {
	GetExportedFilePath() string
}

// Monitored is an optional interface for backends with write queues.
type Monitored interface {
	QueueLength() int
	LastWriteDuration() time.Duration
}
