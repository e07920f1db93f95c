package glrender

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

type mesh struct {
	vao, vbo, ebo uint32
	vertexCount   int32
	indexCount    int32
}

// NewMesh uploads interleaved position, normal and uv vertices, with
// optional indices, into a vertex array object.
func (r *Renderer) NewMesh(data renderer.MeshData) (renderer.Mesh, error) {
	if len(data.Vertices) == 0 || len(data.Vertices)%renderer.VertexStride != 0 {
		return nil, errors.Newf("vertex data length %d is not a positive multiple of %d", len(data.Vertices), renderer.VertexStride).
			WithType(ErrTypeUpload).
			WithTag("mesh", data.Label)
	}

	m := &mesh{
		vertexCount: int32(len(data.Vertices) / renderer.VertexStride),
		indexCount:  int32(len(data.Indices)),
	}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data.Vertices)*4, gl.Ptr(data.Vertices), gl.STATIC_DRAW)

	stride := int32(renderer.VertexStride * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, gl.PtrOffset(6*4))

	if len(data.Indices) > 0 {
		gl.GenBuffers(1, &m.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, gl.Ptr(data.Indices), gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return m, nil
}

func (m *mesh) ID() uint32 {
	return m.vao
}

func (m *mesh) Bind() {
	gl.BindVertexArray(m.vao)
}

func (m *mesh) Unbind() {
	gl.BindVertexArray(0)
}

func (m *mesh) Draw(mode renderer.RenderMode) {
	if m.ebo != 0 {
		gl.DrawElements(primitive(mode), m.indexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
		return
	}
	gl.DrawArrays(primitive(mode), 0, m.vertexCount)
}

type texture struct {
	r      *Renderer
	handle uint32
}

// NewTexture uploads RGBA8 pixels as a mipmapped 2D texture.
func (r *Renderer) NewTexture(data renderer.TextureData) (renderer.Texture, error) {
	if data.Width <= 0 || data.Height <= 0 || len(data.Pixels) != data.Width*data.Height*4 {
		return nil, errors.New("texture data does not match its size").
			WithType(ErrTypeUpload).
			WithTag("texture", data.Label).
			WithTag("width", data.Width).
			WithTag("height", data.Height)
	}

	t := &texture{r: r}
	gl.GenTextures(1, &t.handle)
	gl.BindTexture(gl.TEXTURE_2D, t.handle)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.SRGB8_ALPHA8, int32(data.Width), int32(data.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(data.Pixels))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return t, nil
}

func (t *texture) ID() uint32 {
	return t.handle
}

func (t *texture) Bind(unit int) {
	if !t.r.validUnit(unit) {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, t.handle)
}

func (t *texture) Unbind(unit int) {
	if !t.r.validUnit(unit) {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (r *Renderer) validUnit(unit int) bool {
	if unit < 0 || int32(unit) >= r.maxUnits {
		r.warnOnce("texture.unit", "texture unit exceeds the hardware limit")
		return false
	}
	return true
}
