package convert

import (
	"encoding/json"

	"github.com/OCAP2/aoi/internal/model"
	"github.com/OCAP2/aoi/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// pointToPosition2D converts a geom.Point to core.Position2D. Empty points
// map to the zero position.
func pointToPosition2D(p geom.Point) core.Position2D {
	xy, ok := p.XY()
	if !ok {
		return core.Position2D{}
	}
	return core.Position2D{X: xy.X, Y: xy.Y}
}

// jsonToIDs decodes a datatypes.JSON id list. Malformed input yields nil.
func jsonToIDs(j datatypes.JSON) []string {
	if len(j) == 0 {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(j, &ids); err != nil || len(ids) == 0 {
		return nil
	}
	return ids
}

// SessionToCore converts a GORM model.Session to core.Session.
func SessionToCore(s model.Session) core.Session {
	out := core.Session{
		ID:               s.ID,
		UUID:             s.UUID,
		Name:             s.Name,
		MaxRange:         s.MaxRange,
		Projection:       s.Projection,
		StartTime:        s.StartTime,
		ExtensionVersion: s.ExtensionVersion,
	}
	if s.EndTime.Valid {
		out.EndTime = s.EndTime.Time
	}
	return out
}

// EntityEventToMove rebuilds the movement view of any journal row. Enter rows
// come back with only gained sets, leave rows with only lost sets.
func EntityEventToMove(e model.EntityEvent) core.MoveEvent {
	to := pointToPosition2D(e.Position)
	from := to
	if !e.FromPosition.IsEmpty() {
		from = pointToPosition2D(e.FromPosition)
	}
	return core.MoveEvent{
		Seq:            e.Seq,
		Time:           e.Time,
		Kind:           core.EventKind(e.Kind),
		EntityID:       e.EntityID,
		From:           from,
		To:             to,
		AOI:            e.AOI,
		LeaveWatchers:  jsonToIDs(e.LostWatchers),
		LeaveObservers: jsonToIDs(e.LostObservers),
		EnterWatchers:  jsonToIDs(e.Watchers),
		EnterObservers: jsonToIDs(e.Observers),
	}
}

// TransitionToCore converts a GORM row back to core.Transition.
func TransitionToCore(t model.VisibilityTransition) core.Transition {
	return core.Transition{
		Seq:     t.Seq,
		Time:    t.Time,
		Watcher: t.Watcher,
		Target:  t.Target,
		Visible: t.Visible,
	}
}
