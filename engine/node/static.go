package node

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/engine/batch"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

// Static is a general purpose node with a fixed list of shaders and draw
// states. Shader i renders draw state i; when there are fewer shaders than
// draw states the last shader is reused.
type Static struct {
	Base
	shaders []renderer.Shader
	states  []batch.DrawState
}

var _ Node = &Static{}

// NewStatic creates a new Static node configured with the given options.
//
// Parameters:
//   - options: functional options to configure the node
//
// Returns:
//   - *Static: the newly created node
func NewStatic(options ...StaticBuilderOption) *Static {
	s := &Static{Base: MakeBase()}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Static) Shader(i int) renderer.Shader {
	if len(s.shaders) == 0 {
		return nil
	}
	return s.shaders[min(i, len(s.shaders)-1)]
}

func (s *Static) DrawStates() []batch.DrawState {
	return s.states
}

// SetDrawStates replaces the node's draw states. A scene graph holding the
// node must be reindexed afterwards.
func (s *Static) SetDrawStates(states ...batch.DrawState) {
	s.states = states
}

// SetShaders replaces the node's shaders. A scene graph holding the node must
// be reindexed afterwards.
func (s *Static) SetShaders(shaders ...renderer.Shader) {
	s.shaders = shaders
}

func (s *Static) Clone() Node {
	c := &Static{
		Base:    s.Base.clone(),
		shaders: slices.Clone(s.shaders),
		states:  make([]batch.DrawState, len(s.states)),
	}
	for i, ds := range s.states {
		ds.Textures = slices.Clone(ds.Textures)
		c.states[i] = ds
	}
	return c
}
