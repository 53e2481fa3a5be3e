// Package aoi tracks area-of-interest visibility between moving 2D entities.
//
// A Scene keeps one sorted list of markers per axis. Visibility between two
// entities is decided per axis and the per-axis candidate sets are
// intersected, so the test is a square (Chebyshev) range rather than a circle.
// Only markers closer than Config.MaxRange are scanned; an entity whose radius
// exceeds MaxRange does not see past it.
//
// A Scene is not safe for concurrent use.
package aoi

import (
	"fmt"
	"math"
)

// DefaultMaxRange is the scan ceiling used when Config.MaxRange is unset.
const DefaultMaxRange = 100.0

// Config holds scene settings.
type Config struct {
	// MaxRange bounds every axis scan. Neighbours at or beyond this distance
	// on either axis are never reported, whatever their radius.
	MaxRange float64
}

// Scene is the composition root owning the X and Y axis lists.
type Scene[K comparable] struct {
	cfg        Config
	xs         *axisList[K]
	ys         *axisList[K]
	population int
}

// NewScene creates an empty scene.
func NewScene[K comparable](cfg Config) *Scene[K] {
	if !(cfg.MaxRange > 0) {
		cfg.MaxRange = DefaultMaxRange
	}
	return &Scene[K]{
		cfg: cfg,
		xs:  newAxisList[K](),
		ys:  newAxisList[K](),
	}
}

// MaxRange returns the effective scan ceiling.
func (s *Scene[K]) MaxRange() float64 {
	return s.cfg.MaxRange
}

// Len returns the number of entities in the scene.
func (s *Scene[K]) Len() int {
	return s.population
}

// Enter adds an entity at (x, y) and returns the entities it can see and the
// entities that can see it.
func (s *Scene[K]) Enter(id K, x, y, aoi float64) (e *Entity[K], watchers, observers []K) {
	validPosition(x, y)
	validRadius(aoi)

	e = &Entity[K]{
		id:    id,
		aoi:   aoi,
		x:     s.xs.alloc(id, x, aoi),
		y:     s.ys.alloc(id, y, aoi),
		scene: s,
	}
	s.link(e)
	s.population++

	watchers, observers = s.query(e)
	return e, watchers, observers
}

// Leave removes the entity. The returned lists are the visibility sets just
// before removal. The entity must not be used with the scene afterwards.
func (s *Scene[K]) Leave(e *Entity[K]) (watchers, observers []K) {
	s.own(e)

	watchers, observers = s.query(e)
	s.unlink(e)
	s.xs.release(e.x)
	s.ys.release(e.y)
	e.scene = nil
	s.population--

	return watchers, observers
}

// Move relocates the entity and returns the visibility transitions it caused:
// entities that left its sight, entities that stopped seeing it, entities
// that entered its sight and entities that started seeing it.
func (s *Scene[K]) Move(e *Entity[K], x, y float64) (leaveWatchers, leaveObservers, enterWatchers, enterObservers []K) {
	s.own(e)
	validPosition(x, y)

	oldWatchers, oldObservers := s.query(e)

	s.unlink(e)
	s.xs.nodes[e.x].pos = x
	s.ys.nodes[e.y].pos = y
	s.link(e)

	newWatchers, newObservers := s.query(e)

	return difference(oldWatchers, newWatchers),
		difference(oldObservers, newObservers),
		difference(newWatchers, oldWatchers),
		difference(newObservers, oldObservers)
}

// SetAOI changes the entity's radius in place and returns the transitions in
// the same order as Move. Only the watcher lists can change.
func (s *Scene[K]) SetAOI(e *Entity[K], aoi float64) (leaveWatchers, leaveObservers, enterWatchers, enterObservers []K) {
	s.own(e)
	validRadius(aoi)

	oldWatchers, oldObservers := s.query(e)

	e.aoi = aoi
	s.xs.nodes[e.x].radius = aoi
	s.ys.nodes[e.y].radius = aoi

	newWatchers, newObservers := s.query(e)

	return difference(oldWatchers, newWatchers),
		difference(oldObservers, newObservers),
		difference(newWatchers, oldWatchers),
		difference(newObservers, oldObservers)
}

// Query returns the current visibility sets without changing the scene.
func (s *Scene[K]) Query(e *Entity[K]) (watchers, observers []K) {
	s.own(e)
	return s.query(e)
}

// Position returns the entity's current coordinates.
func (s *Scene[K]) Position(e *Entity[K]) (x, y float64) {
	s.own(e)
	return s.xs.nodes[e.x].pos, s.ys.nodes[e.y].pos
}

// Check verifies the links and ordering of both axis lists.
func (s *Scene[K]) Check() error {
	if err := s.xs.check(); err != nil {
		return fmt.Errorf("x axis: %w", err)
	}
	if err := s.ys.check(); err != nil {
		return fmt.Errorf("y axis: %w", err)
	}
	if s.xs.size != s.population || s.ys.size != s.population {
		return fmt.Errorf("axis sizes %d/%d do not match population %d", s.xs.size, s.ys.size, s.population)
	}
	return nil
}

func (s *Scene[K]) query(e *Entity[K]) (watchers, observers []K) {
	xWatchers, xObservers := s.xs.neighborsWithin(e.x, s.cfg.MaxRange)
	yWatchers, yObservers := s.ys.neighborsWithin(e.y, s.cfg.MaxRange)
	return intersection(xWatchers, yWatchers), intersection(xObservers, yObservers)
}

func (s *Scene[K]) link(e *Entity[K]) {
	s.xs.add(e.x)
	s.ys.add(e.y)
}

func (s *Scene[K]) unlink(e *Entity[K]) {
	s.xs.remove(e.x)
	s.ys.remove(e.y)
}

func (s *Scene[K]) own(e *Entity[K]) {
	switch {
	case e == nil || e.scene == nil:
		panic(ErrMarkerUnlinked)
	case e.scene != s:
		panic(ErrForeignEntity)
	}
}

func validPosition(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		panic(fmt.Errorf("%w: position (%v, %v)", ErrInvalidCoordinate, x, y))
	}
}

func validRadius(aoi float64) {
	if math.IsNaN(aoi) || aoi < 0 {
		panic(fmt.Errorf("%w: radius %v", ErrInvalidCoordinate, aoi))
	}
}
