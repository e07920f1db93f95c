package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestNullWorldTracksBodies(t *testing.T) {
	w := NewNullWorld()
	a := &StaticBody{Pos: mgl32.Vec3{1, 2, 3}}
	b := &StaticBody{}

	w.AddBody(a)
	w.AddBody(a)
	w.AddBody(b)
	w.AddBody(nil)
	require.Equal(t, 2, w.Len())
	require.True(t, w.Contains(a))

	w.RemoveBody(a)
	w.RemoveBody(a)
	require.Equal(t, 1, w.Len())
	require.False(t, w.Contains(a))

	w.Step(0.016)
	w.Step(0.016)
	require.Equal(t, 2, w.Steps())

	w.Close()
	require.Zero(t, w.Len())
	w.AddBody(a)
	require.Zero(t, w.Len())
}

func TestStaticBodyClone(t *testing.T) {
	b := &StaticBody{Pos: mgl32.Vec3{1, 2, 3}, Rot: mgl32.QuatIdent()}
	c := b.Clone()
	require.NotSame(t, b, c)
	require.Equal(t, b.Position(), c.Position())

	c.(*StaticBody).Pos = mgl32.Vec3{9, 9, 9}
	require.Equal(t, mgl32.Vec3{1, 2, 3}, b.Position())
}
