package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&ServiceInfo{},
	&Session{},
	&EntityEvent{},
	&VisibilityTransition{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// ServiceInfo describes the deployment that owns this journal
type ServiceInfo struct {
	gorm.Model
	Name        string `json:"name" gorm:"size:127"`
	Description string `json:"description" gorm:"size:255"`
}

func (*ServiceInfo) TableName() string {
	return "service_infos"
}

////////////////////////
// JOURNAL MODELS
////////////////////////

// Session is one scene lifetime
type Session struct {
	gorm.Model
	UUID             string       `json:"uuid" gorm:"size:36;uniqueIndex"`
	Name             string       `json:"name" gorm:"size:200"`
	MaxRange         float64      `json:"maxRange"`
	Projection       string       `json:"projection" gorm:"size:16"`
	StartTime        time.Time    `json:"startTime" gorm:"index:idx_session_start"`
	EndTime          sql.NullTime `json:"endTime"`
	ExtensionVersion string       `json:"extensionVersion" gorm:"size:64"`

	EntityEvents []EntityEvent
}

func (*Session) TableName() string {
	return "sessions"
}

// EntityEvent is one scene operation on one entity.
//
// Enter/leave rows carry the visibility sets at that moment in Watchers and
// Observers. Move/radius rows carry the gained sets there and the lost sets
// in LostWatchers and LostObservers.
type EntityEvent struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time `json:"time" gorm:"index:idx_entityevent_time"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_entityevent_session_id"`
	Session   Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Seq       uint64    `json:"seq" gorm:"index:idx_entityevent_seq"`
	Kind      string    `json:"kind" gorm:"size:16"`
	EntityID  string    `json:"entityId" gorm:"size:64;index:idx_entityevent_entity_id"`

	Position     geom.Point   `json:"position"`     // position after the operation
	FromPosition geom.Point   `json:"fromPosition"` // previous position, moves only
	AOI          float64      `json:"aoi"`
	Area         geom.Polygon `json:"area"` // watched square after the operation

	Watchers      datatypes.JSON `json:"watchers"`
	Observers     datatypes.JSON `json:"observers"`
	LostWatchers  datatypes.JSON `json:"lostWatchers"`
	LostObservers datatypes.JSON `json:"lostObservers"`
}

func (*EntityEvent) TableName() string {
	return "entity_events"
}

// VisibilityTransition is one directed visibility change
type VisibilityTransition struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time `json:"time"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_transition_session_id"`
	Session   Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Seq       uint64    `json:"seq" gorm:"index:idx_transition_seq"`
	Watcher   string    `json:"watcher" gorm:"size:64;index:idx_transition_watcher"`
	Target    string    `json:"target" gorm:"size:64;index:idx_transition_target"`
	Visible   bool      `json:"visible"`
}

func (*VisibilityTransition) TableName() string {
	return "visibility_transitions"
}
