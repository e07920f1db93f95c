package wgpurender

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

var vertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: renderer.VertexStride * 4,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
	},
}

type shader struct {
	r     *Renderer
	id    uint32
	label string
	vs    *wgpu.ShaderModule
	fs    *wgpu.ShaderModule

	pipelines [3]*wgpu.RenderPipeline
	model     mgl32.Mat4
}

// NewShader compiles src.Vertex as a WGSL module with entry points vs_main
// and fs_main. A non-empty src.Fragment is compiled as a separate module
// providing fs_main.
func (r *Renderer) NewShader(src renderer.ShaderSource) (renderer.Shader, error) {
	if src.Vertex == "" {
		return nil, errors.New("shader has no vertex stage").
			WithType(renderer.ErrTypeCompile).
			WithTag("shader", src.Label)
	}

	vs, err := r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          src.Label + " Vertex",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Vertex},
	})
	if err != nil {
		return nil, errors.New("compiling vertex module failed").
			WithType(renderer.ErrTypeCompile).
			WithTag("shader", src.Label).
			Wrap(err)
	}
	fs := vs
	if src.Fragment != "" {
		fs, err = r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
			Label:          src.Label + " Fragment",
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Fragment},
		})
		if err != nil {
			vs.Release()
			return nil, errors.New("compiling fragment module failed").
				WithType(renderer.ErrTypeCompile).
				WithTag("shader", src.Label).
				Wrap(err)
		}
	}

	s := &shader{r: r, id: r.id(), label: src.Label, vs: vs, fs: fs, model: mgl32.Ident4()}
	if _, err := s.pipeline(renderer.RenderTriangles); err != nil {
		return nil, err
	}
	return s, nil
}

// pipeline returns the render pipeline for mode, creating it on first use.
func (s *shader) pipeline(mode renderer.RenderMode) (*wgpu.RenderPipeline, error) {
	i := int(mode)
	if i < 0 || i >= len(s.pipelines) {
		i = int(renderer.RenderTriangles)
	}
	if p := s.pipelines[i]; p != nil {
		return p, nil
	}

	p, err := s.r.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  s.label + " " + mode.String() + " Pipeline",
		Layout: s.r.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     s.vs,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     s.fs,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    s.r.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology(mode),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return nil, errors.New("creating render pipeline failed").
			WithType(renderer.ErrTypeCompile).
			WithTag("shader", s.label).
			WithTag("mode", mode).
			Wrap(err)
	}
	s.pipelines[i] = p
	return p, nil
}

func (s *shader) ID() uint32 {
	return s.id
}

func (s *shader) Use() {
	s.r.current = s
	s.model = mgl32.Ident4()
}

// Set stores the frame matrices "view", "projection" and "viewProjection"
// and the per-node "model" matrix. Other uniforms are not supported.
func (s *shader) Set(name string, value any) {
	m, ok := value.(mgl32.Mat4)
	if !ok {
		s.r.warnOnce(s.label+"."+name, "unsupported uniform value type")
		return
	}
	switch name {
	case "model":
		s.model = m
	case "view":
		s.r.frameUniforms[0] = m
	case "projection":
		s.r.frameUniforms[1] = m
	case "viewProjection":
		s.r.frameUniforms[2] = m
	default:
		s.r.warnOnce(s.label+"."+name, "unknown uniform")
	}
}

type mesh struct {
	r           *Renderer
	id          uint32
	label       string
	vertices    *wgpu.Buffer
	indices     *wgpu.Buffer
	vertexCount uint32
	indexCount  uint32

	first int
	mode  renderer.RenderMode
	bound bool
}

// NewMesh uploads an interleaved position, normal, uv vertex buffer and an
// optional uint32 index buffer.
func (r *Renderer) NewMesh(data renderer.MeshData) (renderer.Mesh, error) {
	if len(data.Vertices)%renderer.VertexStride != 0 {
		return nil, errors.Newf("vertex data length %d is not a multiple of %d", len(data.Vertices), renderer.VertexStride).
			WithType(ErrTypeDevice).
			WithTag("mesh", data.Label)
	}

	m := &mesh{
		r:           r,
		id:          r.id(),
		label:       data.Label,
		vertexCount: uint32(len(data.Vertices) / renderer.VertexStride),
		indexCount:  uint32(len(data.Indices)),
	}
	if len(data.Vertices) > 0 {
		vertexData := appendFloats(nil, data.Vertices)
		buf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: data.Label + " Vertex Buffer",
			Size:  uint64(len(vertexData)),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, deviceError("creating vertex buffer failed", err)
		}
		r.queue.WriteBuffer(buf, 0, vertexData)
		m.vertices = buf
	}
	if len(data.Indices) > 0 {
		indexData := appendUints(nil, data.Indices)
		buf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: data.Label + " Index Buffer",
			Size:  uint64(len(indexData)),
			Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, deviceError("creating index buffer failed", err)
		}
		r.queue.WriteBuffer(buf, 0, indexData)
		m.indices = buf
	}
	return m, nil
}

func (m *mesh) ID() uint32 {
	return m.id
}

func (m *mesh) Bind() {
	pass := m.r.framePass
	if pass == nil {
		m.r.warnOnce("mesh.bind", "mesh bound outside a frame")
		return
	}
	if m.vertices != nil {
		pass.SetVertexBuffer(0, m.vertices, 0, wgpu.WholeSize)
	}
	if m.indices != nil {
		pass.SetIndexBuffer(m.indices, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	}
	m.first = len(m.r.instances)
	m.bound = true
}

// Draw queues one instance using the current shader's model matrix. The
// instances are drawn together by Unbind.
func (m *mesh) Draw(mode renderer.RenderMode) {
	if !m.bound {
		return
	}
	model := mgl32.Ident4()
	if m.r.current != nil {
		model = m.r.current.model
	}
	m.r.instances = append(m.r.instances, model)
	m.mode = mode
}

func (m *mesh) Unbind() {
	if !m.bound {
		return
	}
	m.bound = false

	r := m.r
	count := len(r.instances) - m.first
	if count == 0 || m.vertices == nil {
		return
	}
	if r.current == nil {
		r.warnOnce("mesh.unbind", "mesh drawn without a shader")
		return
	}
	p, err := r.current.pipeline(m.mode)
	if err != nil {
		logs.Error(err)
		return
	}
	if len(r.instances) > r.instanceCap {
		if err := r.growInstances(len(r.instances)); err != nil {
			logs.Error(err)
			return
		}
	}
	r.queue.WriteBuffer(r.instanceBuffer, uint64(m.first*mat4Size), appendMat4(nil, r.instances[m.first:]...))

	pass := r.framePass
	pass.SetPipeline(p)
	pass.SetBindGroup(0, r.frameGroup, nil)
	if !r.textureBound {
		pass.SetBindGroup(1, r.white.group, nil)
	}
	if m.indices != nil {
		pass.DrawIndexed(m.indexCount, uint32(count), 0, 0, uint32(m.first))
	} else {
		pass.Draw(m.vertexCount, uint32(count), 0, uint32(m.first))
	}
}

type texture struct {
	r     *Renderer
	id    uint32
	tex   *wgpu.Texture
	view  *wgpu.TextureView
	group *wgpu.BindGroup
}

// NewTexture uploads RGBA8 pixels as an sRGB texture.
func (r *Renderer) NewTexture(data renderer.TextureData) (renderer.Texture, error) {
	return r.newTexture(data)
}

func (r *Renderer) newTexture(data renderer.TextureData) (*texture, error) {
	if data.Width <= 0 || data.Height <= 0 || len(data.Pixels) != data.Width*data.Height*4 {
		return nil, errors.New("texture data does not match its size").
			WithType(ErrTypeDevice).
			WithTag("texture", data.Label).
			WithTag("width", data.Width).
			WithTag("height", data.Height)
	}

	size := wgpu.Extent3D{Width: uint32(data.Width), Height: uint32(data.Height), DepthOrArrayLayers: 1}
	tex, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         data.Label + " Texture",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, deviceError("creating texture failed", err)
	}
	r.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(data.Width) * 4,
			RowsPerImage: uint32(data.Height),
		},
		&size,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, deviceError("creating texture view failed", err)
	}
	group, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  data.Label + " Bind Group",
		Layout: r.textureLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: r.sampler},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, deviceError("creating texture bind group failed", err)
	}
	return &texture{r: r, id: r.id(), tex: tex, view: view, group: group}, nil
}

func (t *texture) ID() uint32 {
	return t.id
}

// Bind makes t the albedo texture. Only unit 0 is backed by a binding.
func (t *texture) Bind(unit int) {
	if unit != 0 {
		t.r.warnOnce("texture.unit", "texture units above 0 are not bound")
		return
	}
	if t.r.framePass == nil {
		return
	}
	t.r.framePass.SetBindGroup(1, t.group, nil)
	t.r.textureBound = true
}

func (t *texture) Unbind(unit int) {
	if unit == 0 {
		t.r.textureBound = false
	}
}

func (t *texture) release() {
	t.group.Release()
	t.view.Release()
	t.tex.Release()
}
