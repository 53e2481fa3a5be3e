// pkg/core/session.go
package core

import "time"

// Position2D is a scene coordinate.
type Position2D struct {
	X float64
	Y float64
}

// Session represents one scene lifetime, from :INIT:SESSION: to :END:SESSION:
type Session struct {
	ID               uint
	UUID             string
	Name             string
	MaxRange         float64
	Projection       string // "" for planar coordinates, "4326" for lon/lat projected to 3857
	StartTime        time.Time
	EndTime          time.Time
	ExtensionVersion string
}
