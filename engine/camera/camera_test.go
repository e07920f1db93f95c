package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestCameraWithoutController(t *testing.T) {
	c := NewCamera()
	f := c.Frustum()
	require.True(t, f.ContainsPoint(mgl32.Vec3{0, 0, -10}))
	require.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, 10}))
	require.Equal(t, c.Projection().Mul4(c.View()), c.ViewProjection())
}

func TestCameraFollowsController(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(10), WithAngles(0, 0.05), WithTarget(0, 0, 0))
	c := NewCamera(WithController(ctrl), WithClip(0.1, 100))

	require.InDelta(t, 10, ctrl.Position().Len(), 1e-4)
	f := c.Frustum()
	require.True(t, f.ContainsPoint(mgl32.Vec3{0, 0, 0}))

	ctrl.SetTarget(mgl32.Vec3{500, 0, 0})
	f = c.Frustum()
	require.True(t, f.ContainsPoint(mgl32.Vec3{0, 0, 0}))
	c.Update()
	f = c.Frustum()
	require.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, 0}))
	f = c.Frustum()
	require.True(t, f.ContainsPoint(mgl32.Vec3{500, 0, 0}))
}

func TestOrbitControllerClamps(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(10), WithRadiusBounds(5, 20), WithSpeeds(1, 1, 1))

	ctrl.Zoom(100)
	require.Equal(t, float32(5), ctrl.Radius())
	ctrl.Zoom(-100)
	require.Equal(t, float32(20), ctrl.Radius())

	ctrl.Orbit(0, 100)
	require.Less(t, ctrl.Position()[1], float32(20))

	before := ctrl.Target()
	ctrl.Pan(3, 0)
	require.InDelta(t, 3, ctrl.Target().Sub(before).Len(), 1e-5)
}

func TestSetAspectIgnoresInvalid(t *testing.T) {
	c := NewCamera(WithAspect(2))
	c.SetAspect(0)
	require.Equal(t, float32(2), c.Aspect())
	c.SetAspect(1.5)
	require.Equal(t, float32(1.5), c.Aspect())
}
