package grid

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/batch"
	"github.com/Carmen-Shannon/oxy-scene/engine/node"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

type rock struct {
	node.Static
}

func (r *rock) Clone() node.Node {
	return &rock{Static: *r.Static.Clone().(*node.Static)}
}

type tree struct {
	node.Static
}

func (t *tree) Clone() node.Node {
	return &tree{Static: *t.Static.Clone().(*node.Static)}
}

type fixture struct {
	r      *renderer.Recorder
	shader renderer.Shader
	meshes []renderer.Mesh
}

func newFixture(t *testing.T) fixture {
	f := fixture{r: renderer.NewRecorder()}
	s, err := f.r.NewShader(renderer.ShaderSource{Label: "basic", Vertex: "v"})
	require.NoError(t, err)
	f.shader = s
	for range 3 {
		m, err := f.r.NewMesh(renderer.MeshData{})
		require.NoError(t, err)
		f.meshes = append(f.meshes, m)
	}
	return f
}

func (f fixture) rock(x, z float32, mesh int, cull bool) *rock {
	return &rock{Static: *node.NewStatic(
		node.WithPosition(x, 0, z),
		node.WithShaders(f.shader),
		node.WithDrawStates(batch.DrawState{Mesh: f.meshes[mesh], Cull: cull}),
	)}
}

func (f fixture) key(mesh int, cull bool) batch.Key {
	return batch.NewKey(f.shader, batch.DrawState{Mesh: f.meshes[mesh], Cull: cull})
}

func collect(s Storage) []node.Node {
	var out []node.Node
	for it := s.Begin(); !it.Equal(s.End()); it.Next() {
		out = append(out, it.Node())
	}
	return out
}

func TestGridRockScenario(t *testing.T) {
	f := newFixture(t)
	g := NewGrid[*rock](WithCellSize(64))

	a := f.rock(0, 0, 0, false)
	b := f.rock(70, 0, 0, false)
	c := f.rock(0, 70, 0, false)
	for _, r := range []*rock{a, b, c} {
		g.Add(r)
	}

	require.Equal(t, 3, g.Len())
	require.ElementsMatch(t, []PackedKey{CellKey(0, 0), CellKey(1, 0), CellKey(0, 1)}, g.CellKeys())

	require.Same(t, a, g.Find(5, 5).Node())
	require.Same(t, b, g.Find(65, 5).Node())
	require.True(t, g.Find(500, 500).IsEnd())

	require.True(t, g.UpdateNode(a, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{65, 0, 5}))
	a.SetPosition(mgl32.Vec3{65, 0, 5})

	require.True(t, g.Find(5, 5).Equal(g.End()))
	require.Equal(t, 2, g.CellLen(CellKey(1, 0)))
	require.Equal(t, 3, g.Len())

	found := g.FindNode(a)
	require.False(t, found.IsEnd())
	require.Same(t, a, found.Node())
}

func TestGridUpdateNodeMisses(t *testing.T) {
	f := newFixture(t)
	g := NewGrid[*rock]()
	a := f.rock(0, 0, 0, false)
	g.Add(a)

	require.False(t, g.UpdateNode(a, mgl32.Vec3{200, 0, 200}, mgl32.Vec3{0, 0, 0}))
	require.False(t, g.UpdateNode(f.rock(0, 0, 0, false), mgl32.Vec3{}, mgl32.Vec3{100, 0, 0}))
	require.True(t, g.UpdateNode(a, mgl32.Vec3{1, 0, 1}, mgl32.Vec3{2, 0, 2}))
	require.Equal(t, 1, g.Cells())
}

func TestGridInsertRejectsOtherTypes(t *testing.T) {
	g := NewGrid[*rock]()
	it, ok := g.Insert(&tree{Static: *node.NewStatic()})
	require.False(t, ok)
	require.True(t, it.IsEnd())
	require.Zero(t, g.Len())

	it, ok = g.Insert(&rock{Static: *node.NewStatic()})
	require.True(t, ok)
	require.False(t, it.IsEnd())
}

func TestGridDelTraversalCompleteness(t *testing.T) {
	f := newFixture(t)
	g := NewGrid[*rock](WithCellSize(10))

	var all []*rock
	for i := range 50 {
		r := f.rock(float32(i%7)*10, float32(i/7)*3, 0, false)
		all = append(all, r)
		g.Add(r)
	}

	deleted := map[*node.Base]bool{}
	for _, i := range []int{0, 3, 7, 8, 21, 49, 48, 30} {
		it := g.FindNode(all[i])
		require.False(t, it.IsEnd())
		g.Del(&it)
		deleted[all[i].Transform()] = true
	}

	seen := map[*node.Base]int{}
	for _, n := range collect(g) {
		seen[n.Transform()]++
	}
	require.Len(t, seen, 50-len(deleted))
	require.Equal(t, 50-len(deleted), g.Len())
	for _, r := range all {
		if deleted[r.Transform()] {
			require.Zero(t, seen[r.Transform()])
			continue
		}
		require.Equal(t, 1, seen[r.Transform()])
	}
}

func TestGridDelAdvancesIterator(t *testing.T) {
	f := newFixture(t)
	g := NewGrid[*rock]()
	a := f.rock(0, 0, 0, false)
	b := f.rock(1, 1, 0, false)
	c := f.rock(100, 0, 0, false)
	g.Add(a)
	g.Add(b)
	g.Add(c)

	it := g.Begin()
	require.Same(t, a, it.Node())
	g.Del(&it)
	require.Same(t, b, it.Node())
	g.Del(&it)
	require.Same(t, c, it.Node())
	g.Del(&it)
	require.True(t, it.Equal(g.End()))
	g.Del(&it)
	require.Zero(t, g.Len())
	require.True(t, g.Begin().IsEnd())

	other := NewGrid[*rock]()
	other.Add(f.rock(0, 0, 0, false))
	foreign := other.Begin()
	g.Del(&foreign)
	require.Equal(t, 1, other.Len())
}

func TestGridEndIsPerStorage(t *testing.T) {
	a, b := NewGrid[*rock](), NewGrid[*rock]()
	require.True(t, a.End().Equal(a.End()))
	require.False(t, a.End().Equal(b.End()))
	require.True(t, a.Begin().Equal(a.End()))
}

func TestGridFindBatch(t *testing.T) {
	f := newFixture(t)
	g := NewGrid[*rock]()
	g.Add(f.rock(1, 1, 0, false))
	target := f.rock(2, 2, 1, false)
	g.Add(target)

	require.Same(t, target, g.FindBatch(f.key(1, false), 5, 5).Node())
	require.True(t, g.FindBatch(f.key(2, false), 5, 5).IsEnd())
	require.True(t, g.FindBatch(f.key(1, false), 500, 5).IsEnd())
}

func TestGridDrawMatchesKey(t *testing.T) {
	f := newFixture(t)
	g := NewGrid[*rock]()
	for i := range 10 {
		g.Add(f.rock(float32(i*30), 0, i%2, false))
	}
	f.r.Reset()

	res := g.Draw(DrawPass{Key: f.key(0, false), Shader: f.shader})
	require.Equal(t, 5, res.Nodes)
	require.Equal(t, 5, f.r.Count(renderer.OpDraw))
	require.Equal(t, 5, f.r.Count(renderer.OpSet))

	v, ok := f.r.Uniform(f.shader.ID(), "model")
	require.True(t, ok)
	require.IsType(t, mgl32.Mat4{}, v)
}

func TestGridDrawCullsCells(t *testing.T) {
	f := newFixture(t)
	g := NewGrid[*rock](WithCellSize(10), WithVerticalExtent(-1, 1))
	g.Add(f.rock(0, -20, 0, true))
	g.Add(f.rock(0, 40, 0, true))
	g.Add(f.rock(0, 40, 1, false))

	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 1000)
	view := mgl32.LookAtV(mgl32.Vec3{5, 0, 0}, mgl32.Vec3{5, 0, -1}, mgl32.Vec3{0, 1, 0})
	frustum := common.ExtractFrustum(proj.Mul4(view))

	res := g.Draw(DrawPass{Key: f.key(0, true), Shader: f.shader, Frustum: &frustum})
	require.Equal(t, 1, res.Nodes)
	require.Equal(t, 1, res.Culled)

	res = g.Draw(DrawPass{Key: f.key(1, false), Shader: f.shader, Frustum: &frustum})
	require.Equal(t, 1, res.Nodes)
	require.Zero(t, res.Culled)
}

func TestGridCloneIsDeep(t *testing.T) {
	f := newFixture(t)
	g := NewGrid[*rock]()
	for i := range 5 {
		g.Add(f.rock(float32(i*100), 0, 0, false))
	}

	c := g.Clone()
	require.Equal(t, g.Len(), c.Len())
	orig, cloned := collect(g), collect(c)
	require.Len(t, cloned, len(orig))
	for i := range orig {
		require.False(t, node.Same(orig[i], cloned[i]))
		require.Equal(t, orig[i].Position(), cloned[i].Position())
	}

	c.Clear()
	require.Zero(t, c.Len())
	require.Equal(t, 5, g.Len())
}

func TestNewGridPanicsOnBadCellSize(t *testing.T) {
	require.Panics(t, func() { NewGrid[*rock](WithCellSize(0)) })
}
