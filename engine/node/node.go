// Package node defines the drawable entities stored in a scene graph.
//
// Concrete node types embed Base for their transform and implement the
// remaining Node methods to describe how they are drawn.
package node

import (
	"weak"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-scene/engine/batch"
	"github.com/Carmen-Shannon/oxy-scene/engine/physics"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

// Error types returned by this package.
const (
	ErrTypeDecode = "node_decode_error"
	ErrTypeCycle  = "node_parent_cycle"
)

// Node is a drawable, optionally simulated, scene entity.
type Node interface {
	// Transform returns the node's transform state. The pointer is the node's
	// identity within a scene graph.
	//
	// Returns:
	//   - *Base: the embedded transform
	Transform() *Base

	// Position returns the node's position relative to its parent.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// SetPosition moves the node relative to its parent. Grids bucket nodes by
	// world position and do not re-bucket on their own; use the graph's
	// UpdateNode with the old and new world positions when the node, or one of
	// its ancestors, may have changed cells. Nodes with a parent are exempt
	// from cell culling.
	//
	// Parameters:
	//   - p: the new position
	SetPosition(p mgl32.Vec3)

	// Orientation returns the node's rotation relative to its parent.
	//
	// Returns:
	//   - mgl32.Quat: a unit quaternion
	Orientation() mgl32.Quat

	// SetOrientation rotates the node. The quaternion is normalized.
	//
	// Parameters:
	//   - q: the new orientation
	SetOrientation(q mgl32.Quat)

	// Scale returns the node's per-axis scale.
	//
	// Returns:
	//   - mgl32.Vec3: the scale
	Scale() mgl32.Vec3

	// SetScale rescales the node.
	//
	// Parameters:
	//   - s: the new scale
	SetScale(s mgl32.Vec3)

	// Model returns the world matrix: the parent's world matrix multiplied by
	// this node's local translation * rotation * scale.
	//
	// Returns:
	//   - mgl32.Mat4: the world matrix
	Model() mgl32.Mat4

	// Shader returns the shader used to render draw state i.
	//
	// Parameters:
	//   - i: the draw state index
	//
	// Returns:
	//   - renderer.Shader: the shader, or nil
	Shader(i int) renderer.Shader

	// DrawStates returns the meshes and textures the node renders with, in order.
	//
	// Returns:
	//   - []batch.DrawState: the draw states
	DrawStates() []batch.DrawState

	// RigidBody returns the node's physics body.
	//
	// Returns:
	//   - physics.Body: the body, or nil for nodes without simulation
	RigidBody() physics.Body

	// Clone returns a deep copy of the node. The copy keeps the original's
	// parent; a scene graph clone remaps parents onto the cloned nodes.
	//
	// Returns:
	//   - Node: the copy
	Clone() Node
}

// Same reports whether a and b are the same node instance.
func Same(a, b Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Transform() == b.Transform()
}

// Keys returns the batch key of every draw state of n, in draw state order.
func Keys(n Node) []batch.Key {
	states := n.DrawStates()
	keys := make([]batch.Key, len(states))
	for i, ds := range states {
		keys[i] = batch.NewKey(n.Shader(i), ds)
	}
	return keys
}

// Base holds position, orientation and scale, and caches the local matrix
// until one of them changes. Use MakeBase to initialize it.
type Base struct {
	position    mgl32.Vec3
	orientation mgl32.Quat
	scale       mgl32.Vec3

	local mgl32.Mat4
	dirty bool

	parent weak.Pointer[Base]
	body   physics.Body
}

// MakeBase returns a Base at the origin with identity orientation and unit scale.
func MakeBase() Base {
	return Base{
		orientation: mgl32.QuatIdent(),
		scale:       mgl32.Vec3{1, 1, 1},
		dirty:       true,
	}
}

func (b *Base) Transform() *Base {
	return b
}

func (b *Base) Position() mgl32.Vec3 {
	return b.position
}

func (b *Base) SetPosition(p mgl32.Vec3) {
	b.position = p
	b.dirty = true
}

func (b *Base) Orientation() mgl32.Quat {
	return b.orientation
}

func (b *Base) SetOrientation(q mgl32.Quat) {
	if q.Len() == 0 {
		q = mgl32.QuatIdent()
	}
	b.orientation = q.Normalize()
	b.dirty = true
}

func (b *Base) Scale() mgl32.Vec3 {
	return b.scale
}

func (b *Base) SetScale(s mgl32.Vec3) {
	b.scale = s
	b.dirty = true
}

// Dirty reports whether the cached local matrix is stale.
func (b *Base) Dirty() bool {
	return b.dirty
}

// Local returns translation * rotation * scale, recomputing it if a setter
// ran since the last call.
func (b *Base) Local() mgl32.Mat4 {
	if b.dirty {
		b.local = mgl32.Translate3D(b.position[0], b.position[1], b.position[2]).
			Mul4(b.orientation.Mat4()).
			Mul4(mgl32.Scale3D(b.scale[0], b.scale[1], b.scale[2]))
		b.dirty = false
	}
	return b.local
}

func (b *Base) Model() mgl32.Mat4 {
	local := b.Local()
	if p := b.Parent(); p != nil {
		return p.Model().Mul4(local)
	}
	return local
}

// WorldPosition returns the node origin in world space.
func (b *Base) WorldPosition() mgl32.Vec3 {
	return b.Model().Col(3).Vec3()
}

// Parent returns the parent transform, or nil when the node has none or the
// parent is no longer reachable.
func (b *Base) Parent() *Base {
	return b.parent.Value()
}

// SetParent links b under p for model matrix composition. The link does not
// keep p alive. Passing nil detaches b.
//
// Parameters:
//   - p: the new parent, or nil
//
// Returns:
//   - error: an ErrTypeCycle error if p is b or a descendant of b
func (b *Base) SetParent(p *Base) error {
	if p == nil {
		b.parent = weak.Pointer[Base]{}
		return nil
	}
	for a := p; a != nil; a = a.Parent() {
		if a == b {
			return errors.New("parent would create a cycle").WithType(ErrTypeCycle)
		}
	}
	b.parent = weak.Make(p)
	return nil
}

// clone copies the transform and clones its body, so the copy never shares
// simulation state with b.
func (b *Base) clone() Base {
	c := *b
	if b.body != nil {
		c.body = b.body.Clone()
	}
	return c
}

func (b *Base) RigidBody() physics.Body {
	return b.body
}

// SetRigidBody attaches a physics body. Pass nil to detach.
func (b *Base) SetRigidBody(body physics.Body) {
	b.body = body
}

// SyncBody copies the rigid body's simulated position and orientation into
// the transform.
//
// Returns:
//   - bool: false when the node has no body
func (b *Base) SyncBody() bool {
	if b.body == nil {
		return false
	}
	b.SetPosition(b.body.Position())
	b.SetOrientation(b.body.Orientation())
	return true
}
