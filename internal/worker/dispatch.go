package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/OCAP2/aoi/internal/dispatcher"
	"github.com/OCAP2/aoi/internal/influx"
	"github.com/OCAP2/aoi/pkg/aoi"
	"github.com/OCAP2/aoi/pkg/core"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Scene commands
const (
	CommandEnter  = ":AOI:ENTER:"
	CommandMove   = ":AOI:MOVE:"
	CommandLeave  = ":AOI:LEAVE:"
	CommandQuery  = ":AOI:QUERY:"
	CommandRadius = ":AOI:RADIUS:"
)

// Delta is the result of a scene command. Enter, leave and query fill
// Watchers/Observers; move and radius fill the four transition lists.
type Delta struct {
	Seq            uint64   `json:"seq"`
	Kind           string   `json:"kind"`
	EntityID       string   `json:"entity"`
	Watchers       []string `json:"watchers,omitempty"`
	Observers      []string `json:"observers,omitempty"`
	LeaveWatchers  []string `json:"leaveWatchers,omitempty"`
	LeaveObservers []string `json:"leaveObservers,omitempty"`
	EnterWatchers  []string `json:"enterWatchers,omitempty"`
	EnterObservers []string `json:"enterObservers,omitempty"`
}

// String returns the JSON form sent back to the driver.
func (d Delta) String() string {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(b)
}

// RegisterHandlers registers the scene commands with the dispatcher.
// All of them share the dispatcher's serial goroutine since the scene is
// single-threaded.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CommandEnter, m.handleEnter, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(CommandMove, m.handleMove, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(CommandLeave, m.handleLeave, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(CommandQuery, m.handleQuery, dispatcher.Serialized(), dispatcher.Logged())
	d.Register(CommandRadius, m.handleRadius, dispatcher.Serialized(), dispatcher.Logged())
}

func eventTime(e dispatcher.Event) time.Time {
	if e.Timestamp.IsZero() {
		return time.Now()
	}
	return e.Timestamp
}

// lookup returns the registered entity for id.
func (m *Manager) lookup(id string) (*aoi.Entity[string], error) {
	ent, ok := m.deps.Registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	return ent, nil
}

func (m *Manager) handleEnter(e dispatcher.Event) (any, error) {
	scene, err := m.deps.Session.Scene()
	if err != nil {
		return nil, err
	}

	cmd, err := m.deps.Parser.ParseEnter(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse enter: %w", err)
	}
	if _, ok := m.deps.Registry.Get(cmd.EntityID); ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, cmd.EntityID)
	}
	if cmd.AOI > scene.MaxRange() {
		m.deps.LogManager.WriteLog(CommandEnter,
			fmt.Sprintf("aoi %v of %s exceeds max range %v, sight is capped", cmd.AOI, cmd.EntityID, scene.MaxRange()),
			"WARN")
	}

	start := time.Now()
	ent, watchers, observers := scene.Enter(cmd.EntityID, cmd.Position.X, cmd.Position.Y, cmd.AOI)
	took := time.Since(start)
	m.deps.Registry.Add(ent)

	ev := core.EnterEvent{
		Seq:       m.deps.Seq.Next(),
		Time:      eventTime(e),
		EntityID:  cmd.EntityID,
		Position:  cmd.Position,
		AOI:       cmd.AOI,
		Watchers:  watchers,
		Observers: observers,
	}
	if err := m.backend.RecordEnter(&ev); err != nil {
		m.deps.LogManager.WriteLog(CommandEnter, fmt.Sprintf("failed to record enter: %v", err), "ERROR")
	}

	m.observe(core.KindEnter, cmd.EntityID, len(watchers)+len(observers), 0, took, ev.Time)
	m.metrics.population.Add(context.Background(), 1)

	return Delta{
		Seq:       ev.Seq,
		Kind:      string(core.KindEnter),
		EntityID:  cmd.EntityID,
		Watchers:  watchers,
		Observers: observers,
	}, nil
}

func (m *Manager) handleMove(e dispatcher.Event) (any, error) {
	scene, err := m.deps.Session.Scene()
	if err != nil {
		return nil, err
	}

	cmd, err := m.deps.Parser.ParseMove(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse move: %w", err)
	}
	ent, err := m.lookup(cmd.EntityID)
	if err != nil {
		return nil, err
	}

	fromX, fromY := scene.Position(ent)

	start := time.Now()
	lw, lo, ew, eo := scene.Move(ent, cmd.Position.X, cmd.Position.Y)
	took := time.Since(start)

	ev := core.MoveEvent{
		Seq:            m.deps.Seq.Next(),
		Time:           eventTime(e),
		Kind:           core.KindMove,
		EntityID:       cmd.EntityID,
		From:           core.Position2D{X: fromX, Y: fromY},
		To:             cmd.Position,
		AOI:            ent.AOI(),
		LeaveWatchers:  lw,
		LeaveObservers: lo,
		EnterWatchers:  ew,
		EnterObservers: eo,
	}
	if err := m.backend.RecordMove(&ev); err != nil {
		m.deps.LogManager.WriteLog(CommandMove, fmt.Sprintf("failed to record move: %v", err), "ERROR")
	}

	m.observe(core.KindMove, cmd.EntityID, len(ew)+len(eo), len(lw)+len(lo), took, ev.Time)

	return moveDelta(ev), nil
}

func (m *Manager) handleRadius(e dispatcher.Event) (any, error) {
	scene, err := m.deps.Session.Scene()
	if err != nil {
		return nil, err
	}

	cmd, err := m.deps.Parser.ParseRadius(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse radius: %w", err)
	}
	ent, err := m.lookup(cmd.EntityID)
	if err != nil {
		return nil, err
	}
	if cmd.AOI > scene.MaxRange() {
		m.deps.LogManager.WriteLog(CommandRadius,
			fmt.Sprintf("aoi %v of %s exceeds max range %v, sight is capped", cmd.AOI, cmd.EntityID, scene.MaxRange()),
			"WARN")
	}

	x, y := scene.Position(ent)

	start := time.Now()
	lw, lo, ew, eo := scene.SetAOI(ent, cmd.AOI)
	took := time.Since(start)

	pos := core.Position2D{X: x, Y: y}
	ev := core.MoveEvent{
		Seq:            m.deps.Seq.Next(),
		Time:           eventTime(e),
		Kind:           core.KindRadius,
		EntityID:       cmd.EntityID,
		From:           pos,
		To:             pos,
		AOI:            cmd.AOI,
		LeaveWatchers:  lw,
		LeaveObservers: lo,
		EnterWatchers:  ew,
		EnterObservers: eo,
	}
	if err := m.backend.RecordMove(&ev); err != nil {
		m.deps.LogManager.WriteLog(CommandRadius, fmt.Sprintf("failed to record radius change: %v", err), "ERROR")
	}

	m.observe(core.KindRadius, cmd.EntityID, len(ew)+len(eo), len(lw)+len(lo), took, ev.Time)

	return moveDelta(ev), nil
}

func (m *Manager) handleLeave(e dispatcher.Event) (any, error) {
	scene, err := m.deps.Session.Scene()
	if err != nil {
		return nil, err
	}

	id, err := m.deps.Parser.ParseLeave(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse leave: %w", err)
	}
	ent, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	x, y := scene.Position(ent)

	start := time.Now()
	watchers, observers := scene.Leave(ent)
	took := time.Since(start)
	m.deps.Registry.Delete(id)

	ev := core.LeaveEvent{
		Seq:       m.deps.Seq.Next(),
		Time:      eventTime(e),
		EntityID:  id,
		Position:  core.Position2D{X: x, Y: y},
		AOI:       ent.AOI(),
		Watchers:  watchers,
		Observers: observers,
	}
	if err := m.backend.RecordLeave(&ev); err != nil {
		m.deps.LogManager.WriteLog(CommandLeave, fmt.Sprintf("failed to record leave: %v", err), "ERROR")
	}

	m.observe(core.KindLeave, id, 0, len(watchers)+len(observers), took, ev.Time)
	m.metrics.population.Add(context.Background(), -1)

	return Delta{
		Seq:       ev.Seq,
		Kind:      string(core.KindLeave),
		EntityID:  id,
		Watchers:  watchers,
		Observers: observers,
	}, nil
}

// handleQuery reads the current sets; it changes nothing and is not journaled.
func (m *Manager) handleQuery(e dispatcher.Event) (any, error) {
	scene, err := m.deps.Session.Scene()
	if err != nil {
		return nil, err
	}

	id, err := m.deps.Parser.ParseQuery(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}
	ent, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	watchers, observers := scene.Query(ent)
	return Delta{
		Seq:       m.deps.Seq.Value(),
		Kind:      "query",
		EntityID:  id,
		Watchers:  watchers,
		Observers: observers,
	}, nil
}

func moveDelta(ev core.MoveEvent) Delta {
	return Delta{
		Seq:            ev.Seq,
		Kind:           string(ev.Kind),
		EntityID:       ev.EntityID,
		LeaveWatchers:  ev.LeaveWatchers,
		LeaveObservers: ev.LeaveObservers,
		EnterWatchers:  ev.EnterWatchers,
		EnterObservers: ev.EnterObservers,
	}
}

// observe records OTel metrics and an InfluxDB point for one operation.
func (m *Manager) observe(kind core.EventKind, id string, gained, lost int, took time.Duration, at time.Time) {
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("kind", string(kind)))

	m.metrics.operations.Add(ctx, 1, attrs)
	m.metrics.transitions.Add(ctx, int64(gained+lost), attrs)
	m.metrics.duration.Record(ctx, float64(took.Microseconds())/1000, attrs)

	if !m.deps.Influx.Enabled() {
		return
	}
	p := influx.OperationPoint(m.deps.Session.Name(), string(kind), id, gained, lost, took, at)
	if err := m.deps.Influx.WritePoint(ctx, influx.BucketEvents, p); err != nil {
		m.deps.LogManager.WriteLog("worker:observe", fmt.Sprintf("failed to write influx point: %v", err), "WARN")
	}
}
