package batch

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

type handles struct {
	r        *renderer.Recorder
	shaders  []renderer.Shader
	meshes   []renderer.Mesh
	textures []renderer.Texture
}

func newHandles(t *testing.T) handles {
	h := handles{r: renderer.NewRecorder()}
	for range 2 {
		s, err := h.r.NewShader(renderer.ShaderSource{Vertex: "v"})
		require.NoError(t, err)
		h.shaders = append(h.shaders, s)
		m, err := h.r.NewMesh(renderer.MeshData{})
		require.NoError(t, err)
		h.meshes = append(h.meshes, m)
	}
	for range 3 {
		tex, err := h.r.NewTexture(renderer.TextureData{})
		require.NoError(t, err)
		h.textures = append(h.textures, tex)
	}
	return h
}

func TestNewKeySortsTextures(t *testing.T) {
	h := newHandles(t)

	a := NewKey(h.shaders[0], DrawState{Mesh: h.meshes[0], Textures: []renderer.Texture{h.textures[2], h.textures[0]}})
	b := NewKey(h.shaders[0], DrawState{Mesh: h.meshes[0], Textures: []renderer.Texture{h.textures[0], h.textures[2]}})

	require.Equal(t, a, b)
	require.Zero(t, a.Compare(b))
	require.True(t, slices.IsSorted(a.TextureIDs()))
	require.Equal(t, h.textures[0].ID(), a.FirstTexture())
}

func TestNewKeyTruncatesTextures(t *testing.T) {
	h := newHandles(t)
	many := make([]renderer.Texture, 0, MaxTextures+2)
	for range MaxTextures + 2 {
		many = append(many, h.textures[0])
	}

	k := NewKey(h.shaders[0], DrawState{Mesh: h.meshes[0], Textures: many})
	require.Equal(t, uint8(MaxTextures), k.NumTextures)
	require.Len(t, NewBinding(h.shaders[0], DrawState{Textures: many}).Textures, MaxTextures)
	require.Equal(t, 2, DrawState{Textures: many}.Dropped())
	require.Zero(t, DrawState{Textures: many[:MaxTextures]}.Dropped())
}

func TestKeyCompareOrder(t *testing.T) {
	h := newHandles(t)
	s0, s1 := h.shaders[0], h.shaders[1]
	m0, m1 := h.meshes[0], h.meshes[1]
	t0, t1 := h.textures[0], h.textures[1]

	tests := []struct {
		name string
		a, b Key
	}{
		{"shader first", NewKey(s0, DrawState{Mesh: m1, Textures: []renderer.Texture{t1}}), NewKey(s1, DrawState{Mesh: m0, Textures: []renderer.Texture{t0}})},
		{"then first texture", NewKey(s0, DrawState{Mesh: m1, Textures: []renderer.Texture{t0}}), NewKey(s0, DrawState{Mesh: m0, Textures: []renderer.Texture{t1}})},
		{"then mesh", NewKey(s0, DrawState{Mesh: m0, Textures: []renderer.Texture{t0}}), NewKey(s0, DrawState{Mesh: m1, Textures: []renderer.Texture{t0}})},
		{"then remaining textures", NewKey(s0, DrawState{Mesh: m0, Textures: []renderer.Texture{t0}}), NewKey(s0, DrawState{Mesh: m0, Textures: []renderer.Texture{t0, t1}})},
		{"then cull", NewKey(s0, DrawState{Mesh: m0}), NewKey(s0, DrawState{Mesh: m0, Cull: true})},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.True(t, test.a.Less(test.b))
			require.False(t, test.b.Less(test.a))
			require.Positive(t, test.b.Compare(test.a))
		})
	}
}

func TestBindingBindsInKeyOrder(t *testing.T) {
	h := newHandles(t)
	h.r.Reset()

	ds := DrawState{Mesh: h.meshes[0], Textures: []renderer.Texture{h.textures[1], h.textures[0]}}
	b := NewBinding(h.shaders[0], ds)
	require.Equal(t, h.textures[0].ID(), b.Textures[0].ID())

	b.Bind()
	b.Unbind()
	require.Equal(t, 1, h.r.Count(renderer.OpUse))
	require.Equal(t, 2, h.r.Count(renderer.OpTexBind))
	require.Equal(t, 1, h.r.Count(renderer.OpMeshBind))
	require.Equal(t, 1, h.r.Count(renderer.OpMeshUnbind))
}

func TestIndexInsertDeduplicates(t *testing.T) {
	var x Index[string]
	k := Key{Shader: 1, Mesh: 1}

	require.True(t, x.Insert(k, "rocks"))
	require.False(t, x.Insert(k, "rocks"))
	require.Equal(t, 1, x.Count(k))

	require.True(t, x.Insert(k, "trees"))
	require.Equal(t, []string{"rocks", "trees"}, x.EqualRange(k))
	require.True(t, x.Contains(k, "trees"))
	require.False(t, x.Contains(Key{Shader: 2}, "trees"))
}

func TestIndexGroupsAscending(t *testing.T) {
	var x Index[int]
	keys := []Key{{Shader: 3}, {Shader: 1}, {Shader: 2}, {Shader: 1, Mesh: 4}}
	for i, k := range keys {
		x.Insert(k, i)
	}
	x.Insert(Key{Shader: 1}, 10)

	var got []Key
	var sizes []int
	for k, vals := range x.Groups() {
		got = append(got, k)
		sizes = append(sizes, len(vals))
	}
	require.Equal(t, []Key{{Shader: 1}, {Shader: 1, Mesh: 4}, {Shader: 2}, {Shader: 3}}, got)
	require.Equal(t, []int{2, 1, 1, 1}, sizes)
	require.Equal(t, 4, x.Distinct())
	require.Equal(t, 5, x.Len())
}

func TestIndexRemove(t *testing.T) {
	var x Index[int]
	a, b := Key{Shader: 1}, Key{Shader: 2}
	x.Insert(a, 1)
	x.Insert(a, 2)
	x.Insert(b, 1)

	require.True(t, x.Remove(a, 2))
	require.False(t, x.Remove(a, 2))
	require.Equal(t, 2, x.RemoveValue(1))
	require.Zero(t, x.Len())

	x.Insert(a, 5)
	x.Clear()
	require.Zero(t, x.Distinct())
}
