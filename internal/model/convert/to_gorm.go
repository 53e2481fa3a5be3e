// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/OCAP2/aoi/internal/geo"
	"github.com/OCAP2/aoi/internal/model"
	"github.com/OCAP2/aoi/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// idsToJSON converts a []string to datatypes.JSON for DB storage.
func idsToJSON(ids []string) datatypes.JSON {
	if len(ids) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(ids)
	return datatypes.JSON(data)
}

// CoreToSession converts a core.Session to a GORM model.Session.
func CoreToSession(s core.Session) model.Session {
	out := model.Session{
		UUID:             s.UUID,
		Name:             s.Name,
		MaxRange:         s.MaxRange,
		Projection:       s.Projection,
		StartTime:        s.StartTime,
		ExtensionVersion: s.ExtensionVersion,
	}
	out.ID = s.ID
	if !s.EndTime.IsZero() {
		out.EndTime = sql.NullTime{Time: s.EndTime, Valid: true}
	}
	return out
}

// positionRow builds the spatial columns shared by every journal row.
func positionRow(pos core.Position2D, aoi float64) (geom.Point, geom.Polygon, error) {
	pt, err := geo.Point(pos)
	if err != nil {
		return geom.Point{}, geom.Polygon{}, err
	}
	area, err := geo.AOIArea(pos, aoi)
	if err != nil {
		return geom.Point{}, geom.Polygon{}, err
	}
	return pt, area, nil
}

// CoreToEnterEvent converts an enter into a journal row.
func CoreToEnterEvent(e core.EnterEvent) (model.EntityEvent, error) {
	pt, area, err := positionRow(e.Position, e.AOI)
	if err != nil {
		return model.EntityEvent{}, fmt.Errorf("enter %q: %w", e.EntityID, err)
	}
	return model.EntityEvent{
		Time:          e.Time,
		Seq:           e.Seq,
		Kind:          string(core.KindEnter),
		EntityID:      e.EntityID,
		Position:      pt,
		FromPosition:  geom.NewEmptyPoint(geom.DimXY),
		AOI:           e.AOI,
		Area:          area,
		Watchers:      idsToJSON(e.Watchers),
		Observers:     idsToJSON(e.Observers),
		LostWatchers:  idsToJSON(nil),
		LostObservers: idsToJSON(nil),
	}, nil
}

// CoreToMoveEvent converts a move or radius change into a journal row.
func CoreToMoveEvent(e core.MoveEvent) (model.EntityEvent, error) {
	kind := e.Kind
	if kind == "" {
		kind = core.KindMove
	}
	pt, area, err := positionRow(e.To, e.AOI)
	if err != nil {
		return model.EntityEvent{}, fmt.Errorf("%s %q: %w", kind, e.EntityID, err)
	}
	from, err := geo.Point(e.From)
	if err != nil {
		return model.EntityEvent{}, fmt.Errorf("%s %q: %w", kind, e.EntityID, err)
	}
	return model.EntityEvent{
		Time:          e.Time,
		Seq:           e.Seq,
		Kind:          string(kind),
		EntityID:      e.EntityID,
		Position:      pt,
		FromPosition:  from,
		AOI:           e.AOI,
		Area:          area,
		Watchers:      idsToJSON(e.EnterWatchers),
		Observers:     idsToJSON(e.EnterObservers),
		LostWatchers:  idsToJSON(e.LeaveWatchers),
		LostObservers: idsToJSON(e.LeaveObservers),
	}, nil
}

// CoreToLeaveEvent converts a leave into a journal row.
func CoreToLeaveEvent(e core.LeaveEvent) (model.EntityEvent, error) {
	pt, area, err := positionRow(e.Position, e.AOI)
	if err != nil {
		return model.EntityEvent{}, fmt.Errorf("leave %q: %w", e.EntityID, err)
	}
	return model.EntityEvent{
		Time:          e.Time,
		Seq:           e.Seq,
		Kind:          string(core.KindLeave),
		EntityID:      e.EntityID,
		Position:      pt,
		FromPosition:  geom.NewEmptyPoint(geom.DimXY),
		AOI:           e.AOI,
		Area:          area,
		Watchers:      idsToJSON(nil),
		Observers:     idsToJSON(nil),
		LostWatchers:  idsToJSON(e.Watchers),
		LostObservers: idsToJSON(e.Observers),
	}, nil
}

// CoreToTransitions converts directed visibility changes into rows.
func CoreToTransitions(ts []core.Transition) []model.VisibilityTransition {
	if len(ts) == 0 {
		return nil
	}
	out := make([]model.VisibilityTransition, len(ts))
	for i, t := range ts {
		out[i] = model.VisibilityTransition{
			Time:    t.Time,
			Seq:     t.Seq,
			Watcher: t.Watcher,
			Target:  t.Target,
			Visible: t.Visible,
		}
	}
	return out
}
