package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnterEvent_Transitions(t *testing.T) {
	now := time.Now()
	e := EnterEvent{Seq: 3, Time: now, EntityID: "a", Watchers: []string{"b"}, Observers: []string{"b", "c"}}

	assert.Equal(t, []Transition{
		{Seq: 3, Time: now, Watcher: "a", Target: "b", Visible: true},
		{Seq: 3, Time: now, Watcher: "b", Target: "a", Visible: true},
		{Seq: 3, Time: now, Watcher: "c", Target: "a", Visible: true},
	}, e.Transitions())
}

func TestMoveEvent_Transitions(t *testing.T) {
	e := MoveEvent{
		Seq:            9,
		EntityID:       "m",
		LeaveWatchers:  []string{"x"},
		LeaveObservers: []string{"y"},
		EnterWatchers:  []string{"z"},
		EnterObservers: []string{"z"},
	}

	got := e.Transitions()

	assert.Len(t, got, 4)
	assert.Equal(t, Transition{Seq: 9, Watcher: "m", Target: "x", Visible: false}, got[0])
	assert.Equal(t, Transition{Seq: 9, Watcher: "y", Target: "m", Visible: false}, got[1])
	assert.Equal(t, Transition{Seq: 9, Watcher: "m", Target: "z", Visible: true}, got[2])
	assert.Equal(t, Transition{Seq: 9, Watcher: "z", Target: "m", Visible: true}, got[3])
}

func TestLeaveEvent_Transitions(t *testing.T) {
	e := LeaveEvent{EntityID: "gone", Watchers: []string{"a"}, Observers: nil}

	got := e.Transitions()

	assert.Equal(t, []Transition{{Watcher: "gone", Target: "a", Visible: false}}, got)
}

func TestTransitions_EmptyEvent(t *testing.T) {
	assert.Empty(t, EnterEvent{}.Transitions())
	assert.Empty(t, MoveEvent{}.Transitions())
	assert.Empty(t, LeaveEvent{}.Transitions())
}
