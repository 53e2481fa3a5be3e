package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/aoi/internal/database"
	"github.com/OCAP2/aoi/internal/journal"
	gormstorage "github.com/OCAP2/aoi/internal/storage/gorm"
	"github.com/OCAP2/aoi/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedJournal(t *testing.T) (*journal.Reader, *core.Session) {
	t.Helper()
	db, err := database.GetSqliteDBStandalone("")
	require.NoError(t, err)

	b := gormstorage.New(gormstorage.Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	s := &core.Session{UUID: "cli-1", Name: "cli", MaxRange: 100, StartTime: time.Now()}
	require.NoError(t, b.StartSession(s))
	require.NoError(t, b.RecordEnter(&core.EnterEvent{Seq: 1, EntityID: "a", AOI: 10}))
	require.NoError(t, b.RecordEnter(&core.EnterEvent{
		Seq: 2, EntityID: "b", Position: core.Position2D{X: 5, Y: 5}, AOI: 10,
		Watchers: []string{"a"}, Observers: []string{"a"},
	}))
	require.NoError(t, b.EndSession(s))

	return journal.NewReader(db), s
}

func TestRunCommand_Sessions(t *testing.T) {
	r, _ := seedJournal(t)
	var out bytes.Buffer
	require.NoError(t, runCommand(context.Background(), r, []string{"sessions"}, &out))

	var got []core.Session
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "cli-1", got[0].UUID)
}

func TestRunCommand_Events(t *testing.T) {
	r, _ := seedJournal(t)
	var out bytes.Buffer
	require.NoError(t, runCommand(context.Background(), r, []string{"EVENTS", "cli-1"}, &out))

	var got []core.MoveEvent
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].EntityID)
}

func TestRunCommand_Replay(t *testing.T) {
	r, _ := seedJournal(t)

	var out bytes.Buffer
	require.NoError(t, runCommand(context.Background(), r, []string{"replay", "cli-1"}, &out))
	var got []journal.Pair
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, []journal.Pair{{Watcher: "a", Target: "b"}, {Watcher: "b", Target: "a"}}, got)

	out.Reset()
	require.NoError(t, runCommand(context.Background(), r, []string{"replay", "cli-1", "1"}, &out))
	got = nil
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Empty(t, got)
}

func TestRunCommand_Errors(t *testing.T) {
	r, _ := seedJournal(t)
	ctx := context.Background()
	var out bytes.Buffer

	assert.ErrorIs(t, runCommand(ctx, r, nil, &out), errUsage)
	assert.ErrorIs(t, runCommand(ctx, r, []string{"events"}, &out), errUsage)
	assert.ErrorIs(t, runCommand(ctx, r, []string{"bogus"}, &out), errUsage)
	assert.Error(t, runCommand(ctx, r, []string{"replay", "cli-1", "x"}, &out))

	err := runCommand(ctx, r, []string{"replay", "nope"}, &out)
	assert.True(t, errors.Is(err, journal.ErrSessionNotFound))
}

func TestConnect_MissingSqliteFile(t *testing.T) {
	_, err := connect(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}
