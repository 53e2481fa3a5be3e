package cache

import (
	"slices"
	"sync"

	"github.com/OCAP2/aoi/pkg/aoi"
)

// EntityRegistry maps driver-supplied ids to live scene entities for the
// current session. The scene itself is keyed by handle; the registry is how
// string ids from commands reach those handles.
type EntityRegistry struct {
	mu       sync.RWMutex
	entities map[string]*aoi.Entity[string]
}

func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{
		entities: make(map[string]*aoi.Entity[string]),
	}
}

// Add registers e under its id. It returns false and leaves the registry
// unchanged when the id is already taken.
func (c *EntityRegistry) Add(e *aoi.Entity[string]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entities[e.ID()]; ok {
		return false
	}
	c.entities[e.ID()] = e
	return true
}

func (c *EntityRegistry) Get(id string) (*aoi.Entity[string], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entities[id]
	return e, ok
}

func (c *EntityRegistry) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entities, id)
}

func (c *EntityRegistry) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entities)
}

// IDs returns the registered ids in sorted order.
func (c *EntityRegistry) IDs() []string {
	c.mu.RLock()
	ids := make([]string, 0, len(c.entities))
	for id := range c.entities {
		ids = append(ids, id)
	}
	c.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func (c *EntityRegistry) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entities = make(map[string]*aoi.Entity[string])
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  uint64
}

func (c *SafeCounter) Value() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v uint64) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

// Next increments the counter and returns the new value.
func (c *SafeCounter) Next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v++
	return c.v
}
