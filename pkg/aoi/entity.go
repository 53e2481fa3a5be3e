package aoi

// Entity is a scene member. It owns one marker per axis; the markers hold the
// only copy of its position.
type Entity[K comparable] struct {
	id    K
	aoi   float64
	x     handle
	y     handle
	scene *Scene[K]
}

// ID returns the caller-supplied key.
func (e *Entity[K]) ID() K {
	return e.id
}

// AOI returns the visibility radius.
func (e *Entity[K]) AOI() float64 {
	return e.aoi
}

// InScene reports whether the entity is still linked into a scene.
func (e *Entity[K]) InScene() bool {
	return e.scene != nil
}
