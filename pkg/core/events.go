// pkg/core/events.go
package core

import (
	"time"
)

// EventKind names the scene operation that produced an event.
type EventKind string

const (
	KindEnter  EventKind = "enter"
	KindMove   EventKind = "move"
	KindRadius EventKind = "radius"
	KindLeave  EventKind = "leave"
)

// EnterEvent records an entity joining the scene.
// Watchers are the entities it can see, Observers the entities that see it.
type EnterEvent struct {
	Seq       uint64
	Time      time.Time
	EntityID  string
	Position  Position2D
	AOI       float64
	Watchers  []string
	Observers []string
}

// MoveEvent records a position or radius change and the visibility
// transitions it caused. For KindRadius, From and To are equal.
type MoveEvent struct {
	Seq            uint64
	Time           time.Time
	Kind           EventKind
	EntityID       string
	From           Position2D
	To             Position2D
	AOI            float64
	LeaveWatchers  []string
	LeaveObservers []string
	EnterWatchers  []string
	EnterObservers []string
}

// LeaveEvent records an entity leaving the scene with the visibility sets
// it had just before removal.
type LeaveEvent struct {
	Seq       uint64
	Time      time.Time
	EntityID  string
	Position  Position2D
	AOI       float64
	Watchers  []string
	Observers []string
}

// Transition is one directed visibility change: Watcher started or stopped
// seeing Target.
type Transition struct {
	Seq     uint64
	Time    time.Time
	Watcher string
	Target  string
	Visible bool
}

// Transitions expands the event into directed pair changes.
func (e EnterEvent) Transitions() []Transition {
	out := make([]Transition, 0, len(e.Watchers)+len(e.Observers))
	out = appendSees(out, e.Seq, e.Time, e.EntityID, e.Watchers, true)
	out = appendSeen(out, e.Seq, e.Time, e.EntityID, e.Observers, true)
	return out
}

// Transitions expands the event into directed pair changes.
func (e MoveEvent) Transitions() []Transition {
	out := make([]Transition, 0, len(e.LeaveWatchers)+len(e.LeaveObservers)+len(e.EnterWatchers)+len(e.EnterObservers))
	out = appendSees(out, e.Seq, e.Time, e.EntityID, e.LeaveWatchers, false)
	out = appendSeen(out, e.Seq, e.Time, e.EntityID, e.LeaveObservers, false)
	out = appendSees(out, e.Seq, e.Time, e.EntityID, e.EnterWatchers, true)
	out = appendSeen(out, e.Seq, e.Time, e.EntityID, e.EnterObservers, true)
	return out
}

// Transitions expands the event into directed pair changes.
func (e LeaveEvent) Transitions() []Transition {
	out := make([]Transition, 0, len(e.Watchers)+len(e.Observers))
	out = appendSees(out, e.Seq, e.Time, e.EntityID, e.Watchers, false)
	out = appendSeen(out, e.Seq, e.Time, e.EntityID, e.Observers, false)
	return out
}

// appendSees adds subject -> target rows.
func appendSees(out []Transition, seq uint64, t time.Time, subject string, targets []string, visible bool) []Transition {
	for _, target := range targets {
		out = append(out, Transition{Seq: seq, Time: t, Watcher: subject, Target: target, Visible: visible})
	}
	return out
}

// appendSeen adds watcher -> subject rows.
func appendSeen(out []Transition, seq uint64, t time.Time, subject string, watchers []string, visible bool) []Transition {
	for _, watcher := range watchers {
		out = append(out, Transition{Seq: seq, Time: t, Watcher: watcher, Target: subject, Visible: visible})
	}
	return out
}
