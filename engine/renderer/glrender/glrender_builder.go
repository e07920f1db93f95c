package glrender

// RendererBuilderOption is a functional option for configuring a Renderer.
type RendererBuilderOption func(r *Renderer)

// WithSwap sets the function Present calls to show the frame, usually the
// window's buffer swap.
//
// Parameters:
//   - swap: the buffer swap function
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithSwap(swap func()) RendererBuilderOption {
	return func(r *Renderer) {
		r.swap = swap
	}
}

// WithClearColor sets the color the frame is cleared to.
func WithClearColor(red, green, blue float32) RendererBuilderOption {
	return func(r *Renderer) {
		r.clearColor = [4]float32{red, green, blue, 1.0}
	}
}
