package main

import (
	"math/rand/v2"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-scene/engine/batch"
	"github.com/Carmen-Shannon/oxy-scene/engine/node"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

const glslVertex = `#version 410 core
layout(location = 0) in vec3 position;
layout(location = 1) in vec3 normal;
layout(location = 2) in vec2 uv;

uniform mat4 model;
uniform mat4 viewProjection;

out vec3 vNormal;
out vec2 vUV;

void main() {
	gl_Position = viewProjection * model * vec4(position, 1.0);
	vNormal = mat3(model) * normal;
	vUV = uv;
}
`

const glslFragment = `#version 410 core
in vec3 vNormal;
in vec2 vUV;

uniform sampler2D texture0;

out vec4 color;

void main() {
	float light = max(dot(normalize(vNormal), normalize(vec3(0.4, 1.0, 0.3))), 0.2);
	color = vec4(texture(texture0, vUV).rgb * light, 1.0);
}
`

const wgsl = `struct Frame {
	view: mat4x4<f32>,
	projection: mat4x4<f32>,
	viewProjection: mat4x4<f32>,
};

@group(0) @binding(0) var<uniform> frame: Frame;
@group(0) @binding(1) var<storage, read> models: array<mat4x4<f32>>;
@group(1) @binding(0) var albedo: texture_2d<f32>;
@group(1) @binding(1) var albedoSampler: sampler;

struct VertexOut {
	@builtin(position) position: vec4<f32>,
	@location(0) normal: vec3<f32>,
	@location(1) uv: vec2<f32>,
};

@vertex
fn vs_main(
	@location(0) position: vec3<f32>,
	@location(1) normal: vec3<f32>,
	@location(2) uv: vec2<f32>,
	@builtin(instance_index) instance: u32,
) -> VertexOut {
	let model = models[instance];
	var out: VertexOut;
	out.position = frame.viewProjection * model * vec4<f32>(position, 1.0);
	out.normal = (model * vec4<f32>(normal, 0.0)).xyz;
	out.uv = uv;
	return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
	let light = max(dot(normalize(in.normal), normalize(vec3<f32>(0.4, 1.0, 0.3))), 0.2);
	return vec4<f32>(textureSample(albedo, albedoSampler, in.uv).rgb * light, 1.0);
}
`

// prop is the node type scene files are loaded into.
type prop struct {
	node.Static
}

func (p *prop) Clone() node.Node {
	return &prop{Static: *p.Static.Clone().(*node.Static)}
}

// assets holds the GPU handles props draw with.
type assets struct {
	shader renderer.Shader
	cube   batch.DrawState
	tile   batch.DrawState
	count  int
}

func newAssets(r renderer.Renderer) (*assets, error) {
	src := renderer.ShaderSource{Label: "prop", Vertex: glslVertex, Fragment: glslFragment}
	if r.Backend() == renderer.BackendTypeWGPU {
		src = renderer.ShaderSource{Label: "prop", Vertex: wgsl}
	}
	shader, err := r.NewShader(src)
	if err != nil {
		return nil, errors.New("creating prop shader failed").Wrap(err)
	}

	cube, err := r.NewMesh(cubeMesh())
	if err != nil {
		return nil, errors.New("creating cube mesh failed").Wrap(err)
	}
	tile, err := r.NewMesh(tileMesh())
	if err != nil {
		return nil, errors.New("creating tile mesh failed").Wrap(err)
	}
	checker, err := r.NewTexture(checkerTexture(8, 32))
	if err != nil {
		return nil, errors.New("creating checker texture failed").Wrap(err)
	}
	grass, err := r.NewTexture(solidTexture(64, 140, 60))
	if err != nil {
		return nil, errors.New("creating grass texture failed").Wrap(err)
	}

	return &assets{
		shader: shader,
		cube:   batch.DrawState{Mesh: cube, Textures: []renderer.Texture{checker}, Cull: true},
		tile:   batch.DrawState{Mesh: tile, Textures: []renderer.Texture{grass}, Cull: true},
	}, nil
}

// newProp returns an untransformed prop. Props alternate between cubes and
// tiles; every fifth one is a cube standing on a tile.
func (a *assets) newProp() *prop {
	a.count++
	states := []batch.DrawState{a.cube}
	switch {
	case a.count%5 == 0:
		states = append(states, a.tile)
	case a.count%2 == 0:
		states = []batch.DrawState{a.tile}
	}
	return &prop{Static: *node.NewStatic(
		node.WithShaders(a.shader),
		node.WithDrawStates(states...),
	)}
}

// generate adds n randomly placed props within spread of the origin.
func generate(g scene.Graph, a *assets, n int, spread float32, seed uint64) {
	rnd := rand.New(rand.NewPCG(seed, seed))
	for range n {
		p := a.newProp()
		s := 0.5 + 1.5*rnd.Float32()
		p.SetPosition(mgl32.Vec3{(rnd.Float32()*2 - 1) * spread, 0, (rnd.Float32()*2 - 1) * spread})
		p.SetOrientation(mgl32.QuatRotate(rnd.Float32()*2*mgl32.Pi, mgl32.Vec3{0, 1, 0}))
		p.SetScale(mgl32.Vec3{s, s, s})
		scene.Add(g, p)
	}
}

type face struct {
	normal, u, v mgl32.Vec3
}

func cubeMesh() renderer.MeshData {
	faces := []face{
		{normal: mgl32.Vec3{0, 0, 1}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
		{normal: mgl32.Vec3{0, 0, -1}, u: mgl32.Vec3{-1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
		{normal: mgl32.Vec3{1, 0, 0}, u: mgl32.Vec3{0, 0, -1}, v: mgl32.Vec3{0, 1, 0}},
		{normal: mgl32.Vec3{-1, 0, 0}, u: mgl32.Vec3{0, 0, 1}, v: mgl32.Vec3{0, 1, 0}},
		{normal: mgl32.Vec3{0, 1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, -1}},
		{normal: mgl32.Vec3{0, -1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, 1}},
	}
	data := renderer.MeshData{Label: "cube"}
	for _, f := range faces {
		appendQuad(&data, f, f.normal.Mul(0.5).Add(mgl32.Vec3{0, 0.5, 0}), 0.5)
	}
	return data
}

func tileMesh() renderer.MeshData {
	data := renderer.MeshData{Label: "tile"}
	appendQuad(&data, face{normal: mgl32.Vec3{0, 1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, -1}}, mgl32.Vec3{}, 2)
	return data
}

// appendQuad appends a counter-clockwise quad centred on c with half size h.
func appendQuad(data *renderer.MeshData, f face, c mgl32.Vec3, h float32) {
	base := uint32(len(data.Vertices) / renderer.VertexStride)
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, k := range corners {
		p := c.Add(f.u.Mul(k[0] * h)).Add(f.v.Mul(k[1] * h))
		data.Vertices = append(data.Vertices,
			p[0], p[1], p[2],
			f.normal[0], f.normal[1], f.normal[2],
			(k[0]+1)/2, (1-k[1])/2,
		)
	}
	data.Indices = append(data.Indices, base, base+1, base+2, base, base+2, base+3)
}

func checkerTexture(cells, cellSize int) renderer.TextureData {
	size := cells * cellSize
	tex := renderer.TextureData{Label: "checker", Width: size, Height: size, Pixels: make([]byte, 0, size*size*4)}
	for y := range size {
		for x := range size {
			var v byte = 70
			if (x/cellSize+y/cellSize)%2 == 0 {
				v = 220
			}
			tex.Pixels = append(tex.Pixels, v, v, v, 255)
		}
	}
	return tex
}

func solidTexture(r, g, b byte) renderer.TextureData {
	return renderer.TextureData{Label: "solid", Width: 1, Height: 1, Pixels: []byte{r, g, b, 255}}
}
