package camera

import "github.com/go-gl/mathgl/mgl32"

// ControllerOption is a functional option for configuring an orbit Controller.
type ControllerOption func(*orbitController)

// WithRadius sets the initial distance from the target.
//
// Parameters:
//   - radius: the orbit radius
//
// Returns:
//   - ControllerOption: option function to apply
func WithRadius(radius float32) ControllerOption {
	return func(cc *orbitController) {
		cc.radius = radius
	}
}

// WithAngles sets the initial azimuth and elevation in radians.
//
// Parameters:
//   - azimuth: the horizontal angle around the y axis
//   - elevation: the angle above the ground plane
//
// Returns:
//   - ControllerOption: option function to apply
func WithAngles(azimuth, elevation float32) ControllerOption {
	return func(cc *orbitController) {
		cc.azimuth = azimuth
		cc.elevation = elevation
	}
}

// WithTarget sets the initial look-at point.
//
// Parameters:
//   - x, y, z: world-space target
//
// Returns:
//   - ControllerOption: option function to apply
func WithTarget(x, y, z float32) ControllerOption {
	return func(cc *orbitController) {
		cc.target = mgl32.Vec3{x, y, z}
	}
}

// WithRadiusBounds clamps the orbit radius.
func WithRadiusBounds(lo, hi float32) ControllerOption {
	return func(cc *orbitController) {
		cc.minRadius, cc.maxRadius = lo, hi
	}
}

// WithElevationBounds clamps the orbit elevation in radians.
func WithElevationBounds(lo, hi float32) ControllerOption {
	return func(cc *orbitController) {
		cc.minElevation, cc.maxElevation = lo, hi
	}
}

// WithSpeeds sets the orbit, zoom and pan step multipliers.
func WithSpeeds(orbit, zoom, pan float32) ControllerOption {
	return func(cc *orbitController) {
		cc.orbitSpeed, cc.zoomSpeed, cc.panSpeed = orbit, zoom, pan
	}
}
