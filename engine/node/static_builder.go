package node

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-scene/engine/batch"
	"github.com/Carmen-Shannon/oxy-scene/engine/physics"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

// StaticBuilderOption is a functional option for configuring a Static node during construction.
type StaticBuilderOption func(*Static)

// WithPosition sets the initial position of the node.
//
// Parameters:
//   - x: the x position
//   - y: the y position
//   - z: the z position
//
// Returns:
//   - StaticBuilderOption: functional option to set the position
func WithPosition(x, y, z float32) StaticBuilderOption {
	return func(s *Static) {
		s.SetPosition(mgl32.Vec3{x, y, z})
	}
}

// WithOrientation sets the initial orientation of the node.
//
// Parameters:
//   - q: the orientation, normalized on assignment
//
// Returns:
//   - StaticBuilderOption: functional option to set the orientation
func WithOrientation(q mgl32.Quat) StaticBuilderOption {
	return func(s *Static) {
		s.SetOrientation(q)
	}
}

// WithScale sets the initial scale of the node.
//
// Parameters:
//   - x: the x scale factor
//   - y: the y scale factor
//   - z: the z scale factor
//
// Returns:
//   - StaticBuilderOption: functional option to set the scale
func WithScale(x, y, z float32) StaticBuilderOption {
	return func(s *Static) {
		s.SetScale(mgl32.Vec3{x, y, z})
	}
}

// WithShaders sets the shaders used to render the node's draw states.
func WithShaders(shaders ...renderer.Shader) StaticBuilderOption {
	return func(s *Static) {
		s.shaders = shaders
	}
}

// WithDrawStates sets the node's draw states.
func WithDrawStates(states ...batch.DrawState) StaticBuilderOption {
	return func(s *Static) {
		s.states = states
	}
}

// WithRigidBody attaches a physics body to the node.
func WithRigidBody(b physics.Body) StaticBuilderOption {
	return func(s *Static) {
		s.body = b
	}
}
