package renderer

import "github.com/go-gl/mathgl/mgl32"

// RenderMode selects the primitive assembly used by a mesh draw call.
type RenderMode int

const (
	// RenderTriangles draws indexed triangle lists. This is the default.
	RenderTriangles RenderMode = iota

	// RenderLines draws indexed line lists, useful for wireframe debugging.
	RenderLines

	// RenderPoints draws one point per vertex.
	RenderPoints
)

// String returns the lowercase name of the render mode.
func (m RenderMode) String() string {
	switch m {
	case RenderLines:
		return "lines"
	case RenderPoints:
		return "points"
	default:
		return "triangles"
	}
}

// Shader is a compiled GPU program. Shaders are owned by the Renderer that
// created them; nodes only hold references.
type Shader interface {
	// ID returns the identity of the shader used for batch ordering.
	//
	// Returns:
	//   - uint32: a non-zero identifier unique within the creating Renderer
	ID() uint32

	// Use makes the shader the active program for subsequent draws.
	Use()

	// Set assigns a named uniform. Supported value types are mgl32.Mat4,
	// mgl32.Vec3, mgl32.Vec4, float32 and int32. Unknown names are logged once
	// and ignored.
	//
	// Parameters:
	//   - name: the uniform name as declared in the shader source
	//   - value: the value to assign
	Set(name string, value any)
}

// Mesh is an uploaded vertex and index buffer pair.
type Mesh interface {
	// ID returns the identity of the mesh used for batch ordering.
	//
	// Returns:
	//   - uint32: a non-zero identifier unique within the creating Renderer
	ID() uint32

	// Bind makes the mesh buffers current.
	Bind()

	// Unbind releases the binding made by Bind.
	Unbind()

	// Draw issues the draw call for the bound mesh using the active shader state.
	//
	// Parameters:
	//   - mode: the primitive assembly mode
	Draw(mode RenderMode)
}

// Texture is an uploaded 2D image.
type Texture interface {
	// ID returns the identity of the texture used for batch ordering.
	//
	// Returns:
	//   - uint32: a non-zero identifier unique within the creating Renderer
	ID() uint32

	// Bind attaches the texture to a texture unit.
	//
	// Parameters:
	//   - unit: the zero based texture unit
	Bind(unit int)

	// Unbind detaches the texture from a texture unit.
	//
	// Parameters:
	//   - unit: the zero based texture unit
	Unbind(unit int)
}

// ShaderSource holds the program text for one shader. OpenGL backends read
// GLSL from Vertex and Fragment. WebGPU backends read one WGSL module from
// Vertex with entry points vs_main and fs_main; a non-empty Fragment is
// compiled as a separate module for fs_main.
type ShaderSource struct {
	Label    string
	Vertex   string
	Fragment string
}

// MeshData is interleaved vertex data with stride VertexStride floats:
// position (3), normal (3), uv (2).
type MeshData struct {
	Label    string
	Vertices []float32
	Indices  []uint32
}

// VertexStride is the number of float32 values per vertex in MeshData.
const VertexStride = 8

// TextureData is a tightly packed RGBA8 image.
type TextureData struct {
	Label  string
	Width  int
	Height int
	Pixels []byte
}

// Camera is the view state a Renderer needs to draw a frame.
type Camera interface {
	View() mgl32.Mat4
	Projection() mgl32.Mat4
	ViewProjection() mgl32.Mat4
}

// Renderer is a GPU backend: it creates collaborator handles and brackets
// frames. All methods must be called from the thread that owns the graphics
// context.
type Renderer interface {
	// Backend reports which implementation is in use.
	//
	// Returns:
	//   - BackendType: the backend type
	Backend() BackendType

	// NewShader compiles and links a shader program.
	//
	// Parameters:
	//   - src: the shader program text
	//
	// Returns:
	//   - Shader: the compiled shader
	//   - error: a compile or link error
	NewShader(src ShaderSource) (Shader, error)

	// NewMesh uploads vertex and index data.
	//
	// Parameters:
	//   - data: the vertex and index data
	//
	// Returns:
	//   - Mesh: the uploaded mesh
	//   - error: an upload error
	NewMesh(data MeshData) (Mesh, error)

	// NewTexture uploads an RGBA8 image.
	//
	// Parameters:
	//   - data: the image
	//
	// Returns:
	//   - Texture: the uploaded texture
	//   - error: an upload error
	NewTexture(data TextureData) (Texture, error)

	// BeginFrame starts recording a frame and clears the render target.
	//
	// Returns:
	//   - error: an error if the frame could not be started
	BeginFrame() error

	// EndFrame finishes recording and submits the frame.
	EndFrame()

	// Present shows the submitted frame.
	Present()

	// Resize reconfigures the render target.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Close releases every GPU object owned by the renderer.
	Close()
}
