package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/OCAP2/aoi/internal/cache"
	"github.com/OCAP2/aoi/internal/dispatcher"
	"github.com/OCAP2/aoi/internal/influx"
	"github.com/OCAP2/aoi/internal/logging"
	"github.com/OCAP2/aoi/internal/session"
	"github.com/OCAP2/aoi/internal/storage"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	CommandStatus = ":STATUS:"
	commandTick   = ":MONITOR:TICK:"

	defaultInterval = time.Second
)

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Session    *session.Context
	Registry   *cache.EntityRegistry
	Backend    storage.Backend
	Influx     *influx.Manager // optional
	LogManager *logging.SlogManager
	StatusFile string        // rewritten every tick when set
	Interval   time.Duration // tick interval, default 1s
}

// Status is a point-in-time view of the service
type Status struct {
	Time           time.Time `json:"time"`
	Session        string    `json:"session"`
	SessionUUID    string    `json:"sessionUuid,omitempty"`
	Active         bool      `json:"active"`
	Population     int       `json:"population"`
	Registered     int       `json:"registered"`
	MaxRange       float64   `json:"maxRange,omitempty"`
	QueueLength    int       `json:"queueLength"`
	LastWriteMs    float64   `json:"lastWriteMs"`
	StructureOK    bool      `json:"structureOk"`
	StructureError string    `json:"structureError,omitempty"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = defaultInterval
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Service{
		deps: deps,
	}
}

// RegisterHandlers registers :STATUS: and the internal tick command. Both
// read the scene, so both run on the serial goroutine.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CommandStatus, s.handleStatus, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(commandTick, s.handleTick, dispatcher.Serialized())
}

// Snapshot collects the current status. It reads the scene and must run on
// the dispatcher's serial goroutine.
func (s *Service) Snapshot() Status {
	st := Status{
		Time:        time.Now(),
		StructureOK: true,
	}

	if sess := s.deps.Session.Session(); sess != nil {
		st.Active = true
		st.Session = sess.Name
		st.SessionUUID = sess.UUID
		st.MaxRange = sess.MaxRange
	}
	if scene, err := s.deps.Session.Scene(); err == nil {
		st.Population = scene.Len()
		if err := scene.Check(); err != nil {
			st.StructureOK = false
			st.StructureError = err.Error()
		}
	}
	if s.deps.Registry != nil {
		st.Registered = s.deps.Registry.Len()
	}
	if m, ok := s.deps.Backend.(storage.Monitored); ok {
		st.QueueLength = m.QueueLength()
		st.LastWriteMs = float64(m.LastWriteDuration().Microseconds()) / 1000
	}

	return st
}

// JSON returns the indented JSON form of a status.
func (st Status) JSON() string {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(b)
}

// Point converts a status into an InfluxDB point.
func (st Status) Point() *influxdb2_write.Point {
	return influxdb2_write.NewPoint(
		influx.MeasurementStatus,
		map[string]string{
			"session": st.Session,
		},
		map[string]interface{}{
			"population":   st.Population,
			"registered":   st.Registered,
			"queue_length": st.QueueLength,
			"last_write":   st.LastWriteMs,
			"structure_ok": st.StructureOK,
		},
		st.Time,
	)
}

func (s *Service) handleStatus(e dispatcher.Event) (any, error) {
	st := s.Snapshot()
	if !st.StructureOK {
		s.deps.LogManager.WriteLog(CommandStatus, "scene structure check failed: "+st.StructureError, "ERROR")
	}
	return st.JSON(), nil
}

// handleTick writes the status file and, during a session, an InfluxDB point.
func (s *Service) handleTick(e dispatcher.Event) (any, error) {
	st := s.Snapshot()

	if s.deps.StatusFile != "" {
		if err := os.WriteFile(s.deps.StatusFile, []byte(st.JSON()+"\n"), 0644); err != nil {
			return nil, fmt.Errorf("error writing status file: %w", err)
		}
	}

	if !st.StructureOK {
		s.deps.LogManager.WriteLog("monitor", "scene structure check failed: "+st.StructureError, "ERROR")
	}

	if st.Active && s.deps.Influx.Enabled() {
		if err := s.deps.Influx.WritePoint(context.Background(), influx.BucketPerformance, st.Point()); err != nil {
			return nil, fmt.Errorf("error writing status point: %w", err)
		}
	}
	return st, nil
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Start starts the status monitor goroutine. Ticks go through d so they
// serialize with scene commands.
func (s *Service) Start(d *dispatcher.Dispatcher) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "function", "monitor.Start")

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if _, err := d.Dispatch(dispatcher.Event{Command: commandTick, Timestamp: time.Now()}); err != nil {
					if errors.Is(err, dispatcher.ErrClosed) {
						return
					}
					logger.Error("Status tick failed", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.isRunning = false
	s.mu.Unlock()
	<-done
}
