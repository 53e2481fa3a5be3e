package convert

import (
	"math"
	"testing"
	"time"

	"github.com/OCAP2/aoi/internal/geo"
	"github.com/OCAP2/aoi/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSessionRoundTrip(t *testing.T) {
	s := core.Session{
		ID:               4,
		UUID:             "0b9c3b2a-1111-2222-3333-444455556666",
		Name:             "patrol",
		MaxRange:         100,
		Projection:       "4326",
		StartTime:        t0,
		ExtensionVersion: "1.0.0",
	}

	m := CoreToSession(s)
	assert.Equal(t, uint(4), m.ID)
	assert.False(t, m.EndTime.Valid, "open session has no end time")

	s.EndTime = t0.Add(time.Hour)
	m = CoreToSession(s)
	require.True(t, m.EndTime.Valid)

	assert.Equal(t, s, SessionToCore(m))
}

func TestCoreToEnterEvent(t *testing.T) {
	e := core.EnterEvent{
		Seq:       1,
		Time:      t0,
		EntityID:  "a",
		Position:  core.Position2D{X: 5, Y: 5},
		AOI:       10,
		Watchers:  []string{"b"},
		Observers: []string{"b", "c"},
	}

	row, err := CoreToEnterEvent(e)
	require.NoError(t, err)
	assert.Equal(t, "enter", row.Kind)
	assert.Equal(t, "a", row.EntityID)
	assert.JSONEq(t, `["b"]`, string(row.Watchers))
	assert.JSONEq(t, `["b","c"]`, string(row.Observers))
	assert.JSONEq(t, `[]`, string(row.LostWatchers))
	assert.True(t, row.FromPosition.IsEmpty())
	assert.False(t, row.Area.IsEmpty())

	pos := pointToPosition2D(row.Position)
	assert.Equal(t, e.Position, pos)
}

func TestCoreToMoveEvent_RoundTrip(t *testing.T) {
	e := core.MoveEvent{
		Seq:            9,
		Time:           t0,
		Kind:           core.KindMove,
		EntityID:       "b",
		From:           core.Position2D{X: 5, Y: 5},
		To:             core.Position2D{X: 60, Y: 60},
		AOI:            10,
		LeaveWatchers:  []string{"a"},
		LeaveObservers: []string{"a"},
		EnterWatchers:  []string{"c"},
		EnterObservers: []string{"c"},
	}

	row, err := CoreToMoveEvent(e)
	require.NoError(t, err)
	assert.Equal(t, "move", row.Kind)
	assert.Equal(t, e, EntityEventToMove(row))
}

func TestCoreToMoveEvent_DefaultsKind(t *testing.T) {
	row, err := CoreToMoveEvent(core.MoveEvent{EntityID: "x"})
	require.NoError(t, err)
	assert.Equal(t, "move", row.Kind)
}

func TestCoreToLeaveEvent(t *testing.T) {
	e := core.LeaveEvent{
		Seq:       3,
		Time:      t0,
		EntityID:  "c",
		Position:  core.Position2D{X: 50, Y: 50},
		AOI:       10,
		Watchers:  []string{"b"},
		Observers: []string{"b"},
	}

	row, err := CoreToLeaveEvent(e)
	require.NoError(t, err)
	assert.Equal(t, "leave", row.Kind)
	assert.JSONEq(t, `[]`, string(row.Watchers))
	assert.JSONEq(t, `["b"]`, string(row.LostWatchers))

	back := EntityEventToMove(row)
	assert.Equal(t, e.Position, back.From, "leave rows have no from position")
	assert.Equal(t, []string{"b"}, back.LeaveObservers)
	assert.Nil(t, back.EnterObservers)
}

func TestCoreToEvents_ZeroRadius(t *testing.T) {
	pos := core.Position2D{X: 7, Y: -3}

	enter, err := CoreToEnterEvent(core.EnterEvent{EntityID: "blind", Position: pos})
	require.NoError(t, err)
	assert.True(t, enter.Area.IsEmpty())
	assert.Equal(t, pos, pointToPosition2D(enter.Position))

	move, err := CoreToMoveEvent(core.MoveEvent{Kind: core.KindRadius, EntityID: "blind", From: pos, To: pos})
	require.NoError(t, err)
	assert.Equal(t, "radius", move.Kind)
	assert.True(t, move.Area.IsEmpty())

	leave, err := CoreToLeaveEvent(core.LeaveEvent{EntityID: "blind", Position: pos})
	require.NoError(t, err)
	assert.True(t, leave.Area.IsEmpty())
}

func TestCoreToEvents_NonFinitePosition(t *testing.T) {
	bad := core.Position2D{X: math.NaN(), Y: 0}

	_, err := CoreToEnterEvent(core.EnterEvent{EntityID: "a", Position: bad, AOI: 5})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
	assert.ErrorContains(t, err, `enter "a"`)

	_, err = CoreToMoveEvent(core.MoveEvent{EntityID: "a", From: bad, To: core.Position2D{}, AOI: 5})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)

	_, err = CoreToLeaveEvent(core.LeaveEvent{EntityID: "a", Position: bad})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
}

func TestCoreToTransitions(t *testing.T) {
	assert.Nil(t, CoreToTransitions(nil))

	ts := []core.Transition{
		{Seq: 1, Time: t0, Watcher: "a", Target: "b", Visible: true},
		{Seq: 2, Time: t0, Watcher: "b", Target: "a", Visible: false},
	}
	rows := CoreToTransitions(ts)
	require.Len(t, rows, 2)
	for i := range ts {
		assert.Equal(t, ts[i], TransitionToCore(rows[i]))
	}
}

func TestJSONToIDs_Malformed(t *testing.T) {
	assert.Nil(t, jsonToIDs(nil))
	assert.Nil(t, jsonToIDs([]byte(`{"not":"a list"}`)))
	assert.Nil(t, jsonToIDs([]byte(`[]`)))
	assert.Equal(t, []string{"x"}, jsonToIDs([]byte(`["x"]`)))
}
