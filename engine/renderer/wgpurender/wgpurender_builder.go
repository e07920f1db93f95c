package wgpurender

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

// RendererBuilderOption is a functional option for configuring a Renderer.
type RendererBuilderOption func(r *Renderer)

// WithPresentMode sets how frames are delivered to the display.
//
// Parameters:
//   - mode: VSync maps to FIFO, Uncapped to Immediate
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithPresentMode(mode renderer.PresentMode) RendererBuilderOption {
	return func(r *Renderer) {
		r.presentMode = presentMode(mode)
	}
}

// WithForceFallbackAdapter requests the software adapter.
func WithForceFallbackAdapter(force bool) RendererBuilderOption {
	return func(r *Renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithClearColor sets the color the frame is cleared to.
func WithClearColor(red, green, blue float64) RendererBuilderOption {
	return func(r *Renderer) {
		r.clearColor = wgpu.Color{R: red, G: green, B: blue, A: 1.0}
	}
}

func presentMode(mode renderer.PresentMode) wgpu.PresentMode {
	switch mode {
	case renderer.PresentModeUncapped:
		return wgpu.PresentModeImmediate
	default:
		return wgpu.PresentModeFifo
	}
}
