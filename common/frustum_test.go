package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func testFrustum() Frustum {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	return ExtractFrustum(proj.Mul4(view))
}

func TestFrustumContainsPoint(t *testing.T) {
	f := testFrustum()

	require.True(t, f.ContainsPoint(mgl32.Vec3{0, 0, -10}))
	require.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, 10}))
	require.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, -200}))
	require.False(t, f.ContainsPoint(mgl32.Vec3{100, 0, -10}))
}

func TestFrustumIntersectsAABB(t *testing.T) {
	f := testFrustum()

	tests := []struct {
		name string
		box  AABB
		want bool
	}{
		{"in front", AABB{Min: mgl32.Vec3{-1, -1, -11}, Max: mgl32.Vec3{1, 1, -9}}, true},
		{"behind", AABB{Min: mgl32.Vec3{-1, -1, 5}, Max: mgl32.Vec3{1, 1, 7}}, false},
		{"straddles near plane", AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}, true},
		{"far right", AABB{Min: mgl32.Vec3{500, -1, -11}, Max: mgl32.Vec3{501, 1, -9}}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, f.IntersectsAABB(test.box))
		})
	}
}

func TestAABBGrow(t *testing.T) {
	b := AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}.Grow(2)
	require.Equal(t, mgl32.Vec3{-2, -2, -2}, b.Min)
	require.Equal(t, mgl32.Vec3{3, 3, 3}, b.Max)
}

func TestClampAndCoalesce(t *testing.T) {
	require.Equal(t, 5, Clamp(9, 0, 5))
	require.Equal(t, 0, Clamp(-3, 0, 5))
	require.Equal(t, "b", Coalesce("", "b", "c"))
	require.Equal(t, 0, Coalesce(0, 0))
}
