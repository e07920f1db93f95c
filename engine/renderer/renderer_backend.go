package renderer

import (
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// BackendType identifies the GPU backend implementation used by the Renderer.
type BackendType int

const (
	// BackendTypeGL selects the OpenGL 4.1 core backend.
	BackendTypeGL BackendType = iota

	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU

	// BackendTypeRecorder selects the headless Recorder.
	BackendTypeRecorder
)

// String returns the configuration name of the backend.
func (b BackendType) String() string {
	switch b {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeRecorder:
		return "headless"
	default:
		return "gl"
	}
}

// ErrTypeBackend is the error type returned for unknown backend names.
const ErrTypeBackend = "renderer_backend_error"

// ParseBackendType parses a backend name as written in configuration files.
//
// Parameters:
//   - s: one of "gl", "wgpu" or "headless", case insensitive
//
// Returns:
//   - BackendType: the parsed backend
//   - error: an error if the name is unknown
func ParseBackendType(s string) (BackendType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gl", "opengl":
		return BackendTypeGL, nil
	case "wgpu", "webgpu":
		return BackendTypeWGPU, nil
	case "headless", "recorder", "none":
		return BackendTypeRecorder, nil
	}
	return BackendTypeGL, errors.New("unknown renderer backend").
		WithType(ErrTypeBackend).
		WithTag("backend", s)
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)
