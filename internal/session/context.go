package session

import (
	"errors"
	"sync"

	"github.com/OCAP2/aoi/pkg/aoi"
	"github.com/OCAP2/aoi/pkg/core"
)

// ErrNoSession is returned when a scene command arrives outside a session.
var ErrNoSession = errors.New("no active session")

// Context holds the active session and the scene it owns. Reads are safe
// from any goroutine; the scene itself must only be driven from the
// dispatcher's serial goroutine.
type Context struct {
	mu      sync.RWMutex
	session *core.Session
	scene   *aoi.Scene[string]
}

// NewContext creates a Context with no session loaded.
func NewContext() *Context {
	return &Context{}
}

// Start installs a new session and a fresh scene sized by its MaxRange.
// Any previous session is replaced.
func (c *Context) Start(s *core.Session) *aoi.Scene[string] {
	scene := aoi.NewScene[string](aoi.Config{MaxRange: s.MaxRange})
	// record the effective ceiling after defaulting
	s.MaxRange = scene.MaxRange()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
	c.scene = scene
	return scene
}

// End clears the active session and returns it, or nil if none was active.
func (c *Context) End() *core.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	c.session = nil
	c.scene = nil
	return s
}

// Session returns the active session, or nil.
func (c *Context) Session() *core.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Scene returns the active scene or ErrNoSession.
func (c *Context) Scene() (*aoi.Scene[string], error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.scene == nil {
		return nil, ErrNoSession
	}
	return c.scene, nil
}

// Active reports whether a session is running.
func (c *Context) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session != nil
}

// Name returns the active session name or "" when idle.
func (c *Context) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.Name
}
