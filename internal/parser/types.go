package parser

import "github.com/OCAP2/aoi/pkg/core"

// EnterCommand is a parsed :AOI:ENTER: call.
type EnterCommand struct {
	EntityID string
	Position core.Position2D
	AOI      float64
}

// MoveCommand is a parsed :AOI:MOVE: call.
type MoveCommand struct {
	EntityID string
	Position core.Position2D
}

// RadiusCommand is a parsed :AOI:RADIUS: call.
type RadiusCommand struct {
	EntityID string
	AOI      float64
}

// LogCommand is a parsed :LOG: call from the driver.
type LogCommand struct {
	Function string
	Data     string
	Level    string
}
