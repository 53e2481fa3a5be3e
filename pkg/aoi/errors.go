package aoi

import "errors"

// Precondition violations. The scene panics with one of these values; they
// signal a defect in the caller, not a runtime condition to recover from.
var (
	ErrMarkerLinked      = errors.New("aoi: marker is already linked")
	ErrMarkerUnlinked    = errors.New("aoi: marker is not linked")
	ErrForeignEntity     = errors.New("aoi: entity belongs to another scene")
	ErrInvalidCoordinate = errors.New("aoi: invalid coordinate or radius")
)
