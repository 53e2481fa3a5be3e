package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/aoi/internal/cache"
	"github.com/OCAP2/aoi/internal/dispatcher"
	"github.com/OCAP2/aoi/internal/influx"
	"github.com/OCAP2/aoi/internal/session"
	"github.com/OCAP2/aoi/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// monitoredBackend implements storage.Backend and storage.Monitored
type monitoredBackend struct{}

func (monitoredBackend) Init() error                        { return nil }
func (monitoredBackend) Close() error                       { return nil }
func (monitoredBackend) StartSession(*core.Session) error   { return nil }
func (monitoredBackend) EndSession(*core.Session) error     { return nil }
func (monitoredBackend) RecordEnter(*core.EnterEvent) error { return nil }
func (monitoredBackend) RecordMove(*core.MoveEvent) error   { return nil }
func (monitoredBackend) RecordLeave(*core.LeaveEvent) error { return nil }
func (monitoredBackend) QueueLength() int                   { return 12 }
func (monitoredBackend) LastWriteDuration() time.Duration   { return 2500 * time.Microsecond }

func newTestService(t *testing.T, deps Dependencies) (*Service, *dispatcher.Dispatcher) {
	t.Helper()
	d, err := dispatcher.New(nopLogger{})
	require.NoError(t, err)
	t.Cleanup(d.Close)

	if deps.Session == nil {
		deps.Session = session.NewContext()
	}
	svc := NewService(deps)
	svc.RegisterHandlers(d)
	return svc, d
}

func TestSnapshot_Idle(t *testing.T) {
	svc, _ := newTestService(t, Dependencies{})

	st := svc.Snapshot()
	assert.False(t, st.Active)
	assert.Equal(t, 0, st.Population)
	assert.True(t, st.StructureOK)
	assert.Empty(t, st.Session)
}

func TestSnapshot_ActiveSession(t *testing.T) {
	ctx := session.NewContext()
	scene := ctx.Start(&core.Session{Name: "watch", UUID: "u-1", MaxRange: 50})
	reg := cache.NewEntityRegistry()
	for i, id := range []string{"a", "b", "c"} {
		e, _, _ := scene.Enter(id, float64(i), 0, 5)
		reg.Add(e)
	}

	svc, _ := newTestService(t, Dependencies{
		Session:  ctx,
		Registry: reg,
		Backend:  monitoredBackend{},
	})

	st := svc.Snapshot()
	assert.True(t, st.Active)
	assert.Equal(t, "watch", st.Session)
	assert.Equal(t, "u-1", st.SessionUUID)
	assert.Equal(t, 3, st.Population)
	assert.Equal(t, 3, st.Registered)
	assert.Equal(t, 50.0, st.MaxRange)
	assert.Equal(t, 12, st.QueueLength)
	assert.InDelta(t, 2.5, st.LastWriteMs, 1e-9)
	assert.True(t, st.StructureOK)
}

func TestStatusCommand(t *testing.T) {
	ctx := session.NewContext()
	ctx.Start(&core.Session{Name: "cmd"})
	_, d := newTestService(t, Dependencies{Session: ctx})

	res, err := d.Dispatch(dispatcher.Event{Command: CommandStatus})
	require.NoError(t, err)

	out, ok := res.(string)
	require.True(t, ok)
	var st Status
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, "cmd", st.Session)
	assert.True(t, st.Active)
}

func TestTick_WritesStatusFileAndPoint(t *testing.T) {
	dir := t.TempDir()
	statusPath := filepath.Join(dir, "status.json")

	im := influx.NewManager(zerolog.Nop(), filepath.Join(dir, "status.lp.gz"))
	require.NoError(t, im.OpenBackup())
	defer im.Close()

	ctx := session.NewContext()
	ctx.Start(&core.Session{Name: "tick"})
	_, d := newTestService(t, Dependencies{
		Session:    ctx,
		Influx:     im,
		StatusFile: statusPath,
	})

	res, err := d.Dispatch(dispatcher.Event{Command: commandTick})
	require.NoError(t, err)
	assert.IsType(t, Status{}, res)

	data, err := os.ReadFile(statusPath)
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, "tick", st.Session)
}

func TestStatusPoint(t *testing.T) {
	st := Status{Time: time.Unix(1700000000, 0), Session: "p", Population: 4, StructureOK: true}
	p := st.Point()
	assert.Equal(t, influx.MeasurementStatus, p.Name())
}

func TestStartStop(t *testing.T) {
	statusPath := filepath.Join(t.TempDir(), "status.json")
	svc, d := newTestService(t, Dependencies{
		StatusFile: statusPath,
		Interval:   10 * time.Millisecond,
	})

	require.NoError(t, svc.Start(d))
	assert.True(t, svc.IsRunning())
	// second start is a no-op
	require.NoError(t, svc.Start(d))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(statusPath)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	svc.Stop()
	assert.False(t, svc.IsRunning())
	svc.Stop()
}
