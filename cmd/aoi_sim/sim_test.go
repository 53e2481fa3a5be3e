package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/OCAP2/aoi/internal/config"
	"github.com/OCAP2/aoi/internal/dispatcher"
	"github.com/OCAP2/aoi/internal/handlers"
	"github.com/OCAP2/aoi/internal/logging"
	"github.com/OCAP2/aoi/internal/monitor"
	"github.com/OCAP2/aoi/internal/storage/memory"
	"github.com/OCAP2/aoi/internal/worker"
	"github.com/OCAP2/aoi/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSim = config.SimConfig{
	Entities:    4,
	Ticks:       25,
	SpawnExtent: 20,
	MinAOI:      5,
	MaxAOI:      10,
	MaxStep:     2,
}

func newTestApp(t *testing.T) (*app, *memory.Backend) {
	t.Helper()
	a, backend, _ := newTestAppWithStatus(t)
	return a, backend
}

func newTestAppWithStatus(t *testing.T) (*app, *memory.Backend, string) {
	t.Helper()
	statusFile := filepath.Join(t.TempDir(), "status.json")
	backend := memory.New(config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, backend.Init())

	a, err := newApp(appDeps{
		LogManager: logging.NewSlogManager(),
		DBLogger:   zerolog.Nop(),
		Backend:    backend,
		Scene:      config.SceneConfig{MaxRange: 100},
		StatusFile: statusFile,
	})
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a, backend, statusFile
}

func TestNewApp_RegistersCommands(t *testing.T) {
	a, _ := newTestApp(t)
	for _, cmd := range []string{
		handlers.CommandInitSession, handlers.CommandEndSession, handlers.CommandVersion,
		":AOI:ENTER:", ":AOI:MOVE:", ":AOI:LEAVE:", ":AOI:QUERY:", ":AOI:RADIUS:",
		monitor.CommandStatus,
	} {
		assert.True(t, a.dispatcher.HasHandler(cmd), cmd)
	}

	v, err := a.dispatcher.Dispatch(dispatcher.Event{Command: handlers.CommandVersion})
	require.NoError(t, err)
	assert.Equal(t, "aoi_sim 0.0.1", v)
}

func TestWalker_Run(t *testing.T) {
	a, backend := newTestApp(t)
	lm := logging.NewSlogManager()

	w := newWalker(a.dispatcher, testSim, 42, lm.Logger())
	require.NoError(t, w.run(context.Background(), "walk test"))

	assert.Zero(t, a.registry.Len())
	assert.Len(t, w.ids, testSim.Entities)

	path := backend.GetExportedFilePath()
	require.NotEmpty(t, path)
	assert.FileExists(t, path)

	for _, id := range w.ids {
		rec, ok := backend.Entity(id)
		require.True(t, ok, id)
		assert.Len(t, rec.Enters, 1)
		assert.Len(t, rec.Leaves, 1)
	}

	// every pair that became visible was torn down again by the leaves
	visible := make(map[[2]string]bool)
	for _, tr := range backend.Transitions() {
		visible[[2]string{tr.Watcher, tr.Target}] = tr.Visible
	}
	for pair, v := range visible {
		assert.False(t, v, "%v still visible", pair)
	}
}

func TestWalker_SameSeedSamePath(t *testing.T) {
	walk := func() map[string]core.Position2D {
		a, _ := newTestApp(t)
		w := newWalker(a.dispatcher, testSim, 7, logging.NewSlogManager().Logger())
		require.NoError(t, w.run(context.Background(), "seeded"))
		return w.positions
	}
	assert.Equal(t, walk(), walk())
}

func TestWalker_CancelledStillEndsSession(t *testing.T) {
	a, backend := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testSim
	cfg.Ticks = 1_000_000
	w := newWalker(a.dispatcher, cfg, 1, logging.NewSlogManager().Logger())
	require.NoError(t, w.run(ctx, "cancelled"))

	assert.FileExists(t, backend.GetExportedFilePath())
}

func TestWalker_FailedStepStillEndsSession(t *testing.T) {
	a, backend := newTestApp(t)
	errRejected := errors.New("rejected")
	reject := func(dispatcher.Event) (any, error) { return nil, errRejected }
	a.dispatcher.Register(worker.CommandMove, reject)
	a.dispatcher.Register(worker.CommandRadius, reject)

	w := newWalker(a.dispatcher, testSim, 5, logging.NewSlogManager().Logger())
	err := w.run(context.Background(), "failing")
	require.ErrorIs(t, err, errRejected)

	path := backend.GetExportedFilePath()
	require.NotEmpty(t, path)
	assert.FileExists(t, path)

	_, err = w.dispatch(handlers.CommandEndSession)
	assert.Error(t, err, "session should already be closed")
}

func TestStatusFileWrittenOnTick(t *testing.T) {
	a, _, statusFile := newTestAppWithStatus(t)
	w := newWalker(a.dispatcher, testSim, 3, logging.NewSlogManager().Logger())
	_, err := w.dispatch(handlers.CommandInitSession, "status")
	require.NoError(t, err)
	require.NoError(t, w.spawn())

	_, err = a.dispatcher.Dispatch(dispatcher.Event{Command: ":MONITOR:TICK:"})
	require.NoError(t, err)

	b, err := os.ReadFile(statusFile)
	require.NoError(t, err)
	var st monitor.Status
	require.NoError(t, json.Unmarshal(b, &st))
	assert.Equal(t, "status", st.Session)
	assert.Equal(t, testSim.Entities, st.Population)
	assert.True(t, st.StructureOK)
}

func TestFormatPosition(t *testing.T) {
	assert.Equal(t, "[1,-2.5]", formatPosition(core.Position2D{X: 1, Y: -2.5}))
}
