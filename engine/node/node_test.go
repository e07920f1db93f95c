package node

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-scene/engine/batch"
	"github.com/Carmen-Shannon/oxy-scene/engine/physics"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

func TestBaseCachesLocalMatrix(t *testing.T) {
	n := NewStatic(WithPosition(1, 2, 3), WithScale(2, 2, 2))
	require.True(t, n.Dirty())

	m := n.Local()
	require.False(t, n.Dirty())
	require.Equal(t, mgl32.Vec4{1, 2, 3, 1}, m.Col(3))
	require.InDelta(t, 2, m.At(0, 0), 1e-6)

	n.SetPosition(mgl32.Vec3{4, 5, 6})
	require.True(t, n.Dirty())
	require.Equal(t, mgl32.Vec3{4, 5, 6}, n.WorldPosition())
}

func TestModelComposesParent(t *testing.T) {
	parent := NewStatic(WithPosition(10, 0, 0))
	child := NewStatic(WithPosition(0, 0, 5))
	require.NoError(t, child.SetParent(parent.Transform()))

	requireVec3(t, mgl32.Vec3{10, 0, 5}, child.WorldPosition())

	parent.SetOrientation(mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}))
	requireVec3(t, mgl32.Vec3{15, 0, 0}, child.WorldPosition())

	require.NoError(t, child.SetParent(nil))
	require.Nil(t, child.Parent())
	require.Equal(t, mgl32.Vec3{0, 0, 5}, child.WorldPosition())
}

func TestSetParentRejectsCycles(t *testing.T) {
	a, b, c := NewStatic(), NewStatic(), NewStatic()
	require.NoError(t, b.SetParent(a.Transform()))
	require.NoError(t, c.SetParent(b.Transform()))

	err := a.SetParent(c.Transform())
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeCycle))
	require.Error(t, a.SetParent(a.Transform()))
	require.Nil(t, a.Parent())
}

func TestSetOrientationNormalizes(t *testing.T) {
	n := NewStatic(WithOrientation(mgl32.Quat{W: 2}))
	require.InDelta(t, 1, n.Orientation().W, 1e-6)

	n.SetOrientation(mgl32.Quat{})
	require.Equal(t, mgl32.QuatIdent(), n.Orientation())
}

func TestStaticShadersAndClone(t *testing.T) {
	r := renderer.NewRecorder()
	s, _ := r.NewShader(renderer.ShaderSource{Vertex: "v"})
	m1, _ := r.NewMesh(renderer.MeshData{})
	m2, _ := r.NewMesh(renderer.MeshData{})
	tex, _ := r.NewTexture(renderer.TextureData{})
	body := &physics.StaticBody{}

	n := NewStatic(
		WithPosition(1, 0, 1),
		WithShaders(s),
		WithDrawStates(
			batch.DrawState{Mesh: m1, Textures: []renderer.Texture{tex}},
			batch.DrawState{Mesh: m2, Cull: true},
		),
		WithRigidBody(body),
	)
	require.Equal(t, s, n.Shader(0))
	require.Equal(t, s, n.Shader(1))
	require.Len(t, Keys(n), 2)
	require.Equal(t, m2.ID(), Keys(n)[1].Mesh)

	c := n.Clone()
	require.False(t, Same(n, c))
	require.True(t, Same(n, n))
	require.Equal(t, n.Position(), c.Position())
	require.Equal(t, Keys(n), Keys(c))
	require.Equal(t, physics.Body(body), c.RigidBody())
	require.NotSame(t, body, c.RigidBody())

	c.SetPosition(mgl32.Vec3{9, 9, 9})
	c.DrawStates()[0].Textures[0] = nil
	require.Equal(t, mgl32.Vec3{1, 0, 1}, n.Position())
	require.NotNil(t, n.DrawStates()[0].Textures[0])

	require.Nil(t, NewStatic().Shader(0))
}

func TestSyncBody(t *testing.T) {
	body := &physics.StaticBody{Pos: mgl32.Vec3{3, 4, 5}, Rot: mgl32.QuatIdent()}
	n := NewStatic(WithRigidBody(body))
	require.True(t, n.SyncBody())
	require.Equal(t, mgl32.Vec3{3, 4, 5}, n.Position())
	require.False(t, NewStatic().SyncBody())
}

func requireVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		require.InDelta(t, want[i], got[i], 1e-5, "component %d of %v", i, got)
	}
}
