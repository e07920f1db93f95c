// Package physics declares the boundary between the scene graph and a rigid
// body simulation. The scene owns a World and forwards body lifecycle to it;
// simulation itself is provided by an implementation outside this module.
package physics

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Body is a simulated rigid body attached to a node.
type Body interface {
	// Position returns the simulated world position.
	Position() mgl32.Vec3

	// Orientation returns the simulated world orientation.
	Orientation() mgl32.Quat

	// Clone returns an independent body with the same state, not registered
	// with any world.
	Clone() Body
}

// World owns rigid bodies and advances their simulation.
type World interface {
	// AddBody registers a body with the simulation. Adding a body twice is a no-op.
	//
	// Parameters:
	//   - b: the body to add
	AddBody(b Body)

	// RemoveBody unregisters a body. Removing an unknown body is a no-op.
	//
	// Parameters:
	//   - b: the body to remove
	RemoveBody(b Body)

	// Step advances the simulation.
	//
	// Parameters:
	//   - dt: the elapsed time in seconds
	Step(dt float32)

	// Len returns the number of registered bodies.
	Len() int

	// Close releases the world and every body it still holds.
	Close()
}

// NullWorld tracks bodies without simulating them.
type NullWorld struct {
	mu     sync.Mutex
	bodies map[Body]struct{}
	steps  int
	closed bool
}

var _ World = &NullWorld{}

// NewNullWorld creates an empty NullWorld.
func NewNullWorld() *NullWorld {
	return &NullWorld{bodies: make(map[Body]struct{})}
}

func (w *NullWorld) AddBody(b Body) {
	if b == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.bodies[b] = struct{}{}
}

func (w *NullWorld) RemoveBody(b Body) {
	if b == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.bodies, b)
}

func (w *NullWorld) Step(dt float32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.steps++
}

// Steps returns how many times Step was called.
func (w *NullWorld) Steps() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.steps
}

// Contains reports whether b is registered.
func (w *NullWorld) Contains(b Body) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.bodies[b]
	return ok
}

func (w *NullWorld) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.bodies)
}

func (w *NullWorld) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	clear(w.bodies)
	w.closed = true
}

// StaticBody is a Body that never moves.
type StaticBody struct {
	Pos mgl32.Vec3
	Rot mgl32.Quat
}

func (b *StaticBody) Position() mgl32.Vec3 { return b.Pos }

func (b *StaticBody) Orientation() mgl32.Quat { return b.Rot }

func (b *StaticBody) Clone() Body {
	c := *b
	return &c
}
