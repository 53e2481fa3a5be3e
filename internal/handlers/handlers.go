package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/OCAP2/aoi/internal/cache"
	"github.com/OCAP2/aoi/internal/dispatcher"
	"github.com/OCAP2/aoi/internal/influx"
	"github.com/OCAP2/aoi/internal/logging"
	"github.com/OCAP2/aoi/internal/parser"
	"github.com/OCAP2/aoi/internal/session"
	"github.com/OCAP2/aoi/internal/storage"
	"github.com/OCAP2/aoi/pkg/core"
)

// Lifecycle and utility commands
const (
	CommandInitSession = ":INIT:SESSION:"
	CommandEndSession  = ":END:SESSION:"
	CommandVersion     = ":VERSION:"
	CommandLog         = ":LOG:"
	CommandMetric      = ":METRIC:"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Session          *session.Context
	Registry         *cache.EntityRegistry
	Parser           *parser.Parser
	LogManager       *logging.SlogManager
	Influx           *influx.Manager    // optional
	Seq              *cache.SafeCounter // shared with the worker
	ExtensionName    string
	ExtensionVersion string
}

// Service handles session lifecycle and driver utility commands
type Service struct {
	deps         Dependencies
	writeLogFunc func(functionName, data, level string)
	backend      storage.Backend
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Registry == nil {
		deps.Registry = cache.NewEntityRegistry()
	}
	if deps.Seq == nil {
		deps.Seq = &cache.SafeCounter{}
	}
	s := &Service{
		deps:    deps,
		backend: &storage.Nop{},
	}
	s.writeLogFunc = func(functionName, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(functionName, data, level)
		}
	}
	return s
}

// SetBackend sets the storage backend for session start/end handling
func (s *Service) SetBackend(b storage.Backend) {
	if b == nil {
		b = &storage.Nop{}
	}
	s.backend = b
}

func (s *Service) writeLog(functionName, data, level string) {
	s.writeLogFunc(functionName, data, level)
}

// RegisterHandlers registers lifecycle and utility commands.
// Session commands run on the serial goroutine so they never interleave
// with scene commands.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CommandInitSession, s.handleInitSession, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(CommandEndSession, s.handleEndSession, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(CommandVersion, s.handleVersion)
	d.Register(CommandLog, s.handleLog, dispatcher.Buffered(500))
	d.Register(CommandMetric, s.handleMetric, dispatcher.Buffered(1000))
}

// StartSession ends any running session, then installs s with a fresh scene.
func (s *Service) StartSession(sess *core.Session) error {
	if s.deps.Session.Active() {
		s.writeLog(CommandInitSession, "Session still running, ending it first", "WARN")
		if _, err := s.EndSession(); err != nil {
			return fmt.Errorf("failed to end previous session: %w", err)
		}
	}

	// the scene settles MaxRange before the backend stores it
	s.deps.Session.Start(sess)
	if err := s.backend.StartSession(sess); err != nil {
		s.deps.Session.End()
		return fmt.Errorf("failed to start session in backend: %w", err)
	}

	s.deps.Registry.Reset()
	s.deps.Seq.Set(0)
	s.deps.Parser.SetSession(sess)

	s.writeLog(CommandInitSession, fmt.Sprintf("Session %q started (id %d, uuid %s, max range %v)",
		sess.Name, sess.ID, sess.UUID, sess.MaxRange), "INFO")
	return nil
}

// EndSession closes the running session and returns the export path, if any.
func (s *Service) EndSession() (string, error) {
	sess := s.deps.Session.End()
	if sess == nil {
		return "", session.ErrNoSession
	}

	sess.EndTime = time.Now()
	s.deps.Registry.Reset()
	s.deps.Parser.SetSession(nil)

	if err := s.backend.EndSession(sess); err != nil {
		return "", fmt.Errorf("failed to end session in backend: %w", err)
	}

	var path string
	if exp, ok := s.backend.(storage.Exportable); ok {
		path = exp.GetExportedFilePath()
	}

	s.writeLog(CommandEndSession, fmt.Sprintf("Session %q ended after %d operations",
		sess.Name, s.deps.Seq.Value()), "INFO")
	return path, nil
}

func (s *Service) handleInitSession(e dispatcher.Event) (any, error) {
	sess, err := s.deps.Parser.ParseSession(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if !e.Timestamp.IsZero() {
		sess.StartTime = e.Timestamp
	}
	if err := s.StartSession(&sess); err != nil {
		return nil, err
	}
	return sess.UUID, nil
}

func (s *Service) handleEndSession(e dispatcher.Event) (any, error) {
	return s.EndSession()
}

func (s *Service) handleVersion(e dispatcher.Event) (any, error) {
	return fmt.Sprintf("%s %s", s.deps.ExtensionName, s.deps.ExtensionVersion), nil
}

func (s *Service) handleLog(e dispatcher.Event) (any, error) {
	cmd, err := s.deps.Parser.ParseLog(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log: %w", err)
	}
	s.writeLog(cmd.Function, cmd.Data, cmd.Level)
	return nil, nil
}

func (s *Service) handleMetric(e dispatcher.Event) (any, error) {
	if !s.deps.Influx.Enabled() {
		return nil, nil
	}
	bucket, point, err := influx.ProcessMetricData(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metric: %w", err)
	}
	if err := s.deps.Influx.WritePoint(context.Background(), bucket, point); err != nil {
		return nil, fmt.Errorf("failed to write metric: %w", err)
	}
	return nil, nil
}
