// Package batch orders draw work by the GPU state it needs. A Key identifies
// one combination of shader, mesh and texture set; an Index maps keys to the
// storages holding nodes that draw with them.
package batch

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

// MaxTextures is the number of texture units a single draw state may bind.
const MaxTextures = 8

// DrawState is one mesh drawn with a set of textures. A node exposes an
// ordered list of draw states; draw state i is rendered with the node's
// shader i.
type DrawState struct {
	Mesh     renderer.Mesh
	Textures []renderer.Texture
	Cull     bool
}

// Key is the comparable identity of the GPU state a draw state requires.
// Textures holds the sorted texture IDs in its first NumTextures slots.
type Key struct {
	Shader      uint32
	Mesh        uint32
	NumTextures uint8
	Textures    [MaxTextures]uint32
	Cull        bool
}

// NewKey builds the Key for drawing ds with shader s. Textures past
// MaxTextures are ignored; registration reports them once through Dropped.
//
// Parameters:
//   - s: the shader the draw state renders with, may be nil
//   - ds: the draw state
//
// Returns:
//   - Key: the batch key
func NewKey(s renderer.Shader, ds DrawState) Key {
	var k Key
	if s != nil {
		k.Shader = s.ID()
	}
	if ds.Mesh != nil {
		k.Mesh = ds.Mesh.ID()
	}
	k.Cull = ds.Cull

	n := min(len(ds.Textures), MaxTextures)
	for i := 0; i < n; i++ {
		if ds.Textures[i] != nil {
			k.Textures[k.NumTextures] = ds.Textures[i].ID()
			k.NumTextures++
		}
	}
	slices.Sort(k.Textures[:k.NumTextures])
	return k
}

// Dropped returns how many of ds's textures exceed MaxTextures.
func (ds DrawState) Dropped() int {
	return max(len(ds.Textures)-MaxTextures, 0)
}

// FirstTexture returns the lowest texture ID, or 0 when the key has none.
func (k Key) FirstTexture() uint32 {
	if k.NumTextures == 0 {
		return 0
	}
	return k.Textures[0]
}

// TextureIDs returns the sorted texture IDs of the key.
func (k Key) TextureIDs() []uint32 {
	return k.Textures[:k.NumTextures:k.NumTextures]
}

// Compare orders keys by shader, then first texture, then mesh. Remaining
// textures and the cull flag break ties so that Compare is zero only for
// equal keys.
//
// Parameters:
//   - o: the key to compare against
//
// Returns:
//   - int: negative when k sorts before o, zero when equal, positive otherwise
func (k Key) Compare(o Key) int {
	if c := cmp.Compare(k.Shader, o.Shader); c != 0 {
		return c
	}
	if c := cmp.Compare(k.FirstTexture(), o.FirstTexture()); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Mesh, o.Mesh); c != 0 {
		return c
	}
	if c := slices.Compare(k.TextureIDs(), o.TextureIDs()); c != 0 {
		return c
	}
	switch {
	case k.Cull == o.Cull:
		return 0
	case !k.Cull:
		return -1
	default:
		return 1
	}
}

// Less reports whether k sorts before o.
func (k Key) Less(o Key) bool {
	return k.Compare(o) < 0
}

// Binding is the set of handles needed to make a Key's state current.
type Binding struct {
	Shader   renderer.Shader
	Mesh     renderer.Mesh
	Textures []renderer.Texture
}

// NewBinding returns the handles that NewKey(s, ds) identifies, with textures
// in key order.
func NewBinding(s renderer.Shader, ds DrawState) Binding {
	b := Binding{Shader: s, Mesh: ds.Mesh}
	for _, t := range ds.Textures[:min(len(ds.Textures), MaxTextures)] {
		if t != nil {
			b.Textures = append(b.Textures, t)
		}
	}
	slices.SortFunc(b.Textures, func(a, c renderer.Texture) int {
		return cmp.Compare(a.ID(), c.ID())
	})
	return b
}

// Bind makes the binding's state current.
func (b Binding) Bind() {
	if b.Shader != nil {
		b.Shader.Use()
	}
	for unit, t := range b.Textures {
		t.Bind(unit)
	}
	if b.Mesh != nil {
		b.Mesh.Bind()
	}
}

// Unbind releases the state made current by Bind.
func (b Binding) Unbind() {
	if b.Mesh != nil {
		b.Mesh.Unbind()
	}
	for unit, t := range b.Textures {
		t.Unbind(unit)
	}
}
