// Package glrender implements renderer.Renderer on OpenGL 4.1 core.
//
// The GL context must be current on the calling thread before New is
// called, and every method must be called from that thread. Shaders receive
// the per-node matrix as the "model" uniform and their textures on units
// 0..n-1, exposed to GLSL as the samplers texture0, texture1 and so on.
package glrender

import (
	"fmt"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

const (
	// ErrTypeInit is the error type returned when GL cannot be loaded.
	ErrTypeInit = "gl_init_error"
	// ErrTypeLink is the error type returned when a program does not link.
	ErrTypeLink = "gl_link_error"
	// ErrTypeUpload is the error type returned for invalid mesh or texture data.
	ErrTypeUpload = "gl_upload_error"
)

// Renderer is an OpenGL renderer.Renderer.
type Renderer struct {
	width, height int
	clearColor    [4]float32
	swap          func()
	maxUnits      int32
	warned        map[string]bool
}

var _ renderer.Renderer = &Renderer{}

// New loads the GL entry points for the current context.
//
// Parameters:
//   - width: the framebuffer width in pixels
//   - height: the framebuffer height in pixels
//   - options: functional options to configure the renderer
//
// Returns:
//   - *Renderer: the renderer
//   - error: an ErrTypeInit error if GL cannot be loaded
func New(width, height int, options ...RendererBuilderOption) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, errors.New("loading OpenGL failed").WithType(ErrTypeInit).Wrap(err)
	}
	r := &Renderer{
		width:      width,
		height:     height,
		clearColor: [4]float32{0.1, 0.1, 0.1, 1.0},
		warned:     make(map[string]bool),
	}
	for _, option := range options {
		option(r)
	}

	gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &r.maxUnits)
	logs.WithTag("renderer", "gl").
		WithTag("version", gl.GoStr(gl.GetString(gl.VERSION))).
		WithTag("texture_units", r.maxUnits).
		Info("OpenGL initialized")

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.Viewport(0, 0, int32(width), int32(height))
	return r, nil
}

func (r *Renderer) Backend() renderer.BackendType {
	return renderer.BackendTypeGL
}

func (r *Renderer) BeginFrame() error {
	c := r.clearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	return nil
}

func (r *Renderer) EndFrame() {
	gl.UseProgram(0)
	gl.BindVertexArray(0)
}

func (r *Renderer) Present() {
	if r.swap != nil {
		r.swap()
	}
}

func (r *Renderer) Resize(width, height int) {
	r.width, r.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (r *Renderer) Close() {}

func (r *Renderer) warnOnce(key, msg string) {
	if r.warned[key] {
		return
	}
	r.warned[key] = true
	logs.WithTag("renderer", "gl").WithTag("key", key).Warn(msg)
}

// cstr returns s NUL terminated for the GL string entry points.
func cstr(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func primitive(mode renderer.RenderMode) uint32 {
	switch mode {
	case renderer.RenderLines:
		return gl.LINES
	case renderer.RenderPoints:
		return gl.POINTS
	default:
		return gl.TRIANGLES
	}
}

func samplerName(unit int) string {
	return fmt.Sprintf("texture%d", unit)
}
