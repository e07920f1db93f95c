// Package wgpurender implements renderer.Renderer on WebGPU.
//
// Nodes drawn between a mesh's Bind and Unbind are collected into one
// instanced draw. Shaders are WGSL modules that declare:
//
//	struct Frame { view: mat4x4<f32>, projection: mat4x4<f32>, viewProjection: mat4x4<f32> };
//	@group(0) @binding(0) var<uniform> frame: Frame;
//	@group(0) @binding(1) var<storage, read> models: array<mat4x4<f32>>;
//	@group(1) @binding(0) var albedo: texture_2d<f32>;
//	@group(1) @binding(1) var albedoSampler: sampler;
//
// with vertex inputs position, normal and uv at locations 0, 1 and 2, and
// entry points vs_main and fs_main. The model matrix of an instance is
// models[instance_index].
package wgpurender

import (
	"encoding/binary"
	"math"
	"runtime"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

// ErrTypeDevice is the error type returned when the GPU device or one of its
// resources cannot be created.
const ErrTypeDevice = "wgpu_device_error"

const (
	mat4Size         = 64
	frameUniformSize = 3 * mat4Size
	minInstances     = 256
)

// Renderer is a WebGPU renderer.Renderer. It is not safe for concurrent use
// except for Resize.
type Renderer struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat        wgpu.TextureFormat
	presentMode          wgpu.PresentMode
	forceFallbackAdapter bool
	clearColor           wgpu.Color
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	frameLayout    *wgpu.BindGroupLayout
	textureLayout  *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	frameBuffer    *wgpu.Buffer
	frameGroup     *wgpu.BindGroup
	instanceBuffer *wgpu.Buffer
	instanceCap    int
	sampler        *wgpu.Sampler
	white          *texture

	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	frameUniforms [3]mgl32.Mat4
	instances     []mgl32.Mat4
	retired       []releaser

	current      *shader
	textureBound bool
	nextID       uint32
	warned       map[string]bool
}

type releaser interface {
	Release()
}

var _ renderer.Renderer = &Renderer{}

// New creates a WebGPU renderer drawing to the surface described by
// surfaceDescriptor, configured at width x height pixels.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, usually from window.Window.SurfaceDescriptor
//   - width: the surface width in pixels
//   - height: the surface height in pixels
//   - options: functional options to configure the renderer
//
// Returns:
//   - *Renderer: the renderer
//   - error: an ErrTypeDevice error if the adapter, device or a shared resource cannot be created
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...RendererBuilderOption) (*Renderer, error) {
	runtime.LockOSThread()
	r := &Renderer{
		mu:          &sync.Mutex{},
		presentMode: wgpu.PresentModeFifo,
		clearColor:  wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		warned:      make(map[string]bool),
	}
	for _, option := range options {
		option(r)
	}

	r.instance = wgpu.CreateInstance(nil)
	r.surface = r.instance.CreateSurface(surfaceDescriptor)

	a, err := r.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: r.forceFallbackAdapter,
		CompatibleSurface:    r.surface,
	})
	if err != nil {
		return nil, deviceError("requesting adapter failed", err)
	}
	r.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{Label: "Scene Device"})
	if err != nil {
		return nil, deviceError("requesting device failed", err)
	}
	r.device = d
	r.queue = d.GetQueue()

	if err := r.initShared(); err != nil {
		return nil, err
	}
	if err := r.configureSurface(width, height); err != nil {
		return nil, err
	}
	return r, nil
}

func deviceError(msg string, err error) error {
	return errors.New(msg).WithType(ErrTypeDevice).Wrap(err)
}

// initShared creates the bind group layouts, pipeline layout, frame uniform
// buffer, sampler and the default white texture shared by every shader.
func (r *Renderer) initShared() error {
	uniform := wgpu.BindGroupLayoutEntry{Binding: 0, Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment}
	uniform.Buffer.Type = wgpu.BufferBindingTypeUniform
	uniform.Buffer.MinBindingSize = frameUniformSize
	models := wgpu.BindGroupLayoutEntry{Binding: 1, Visibility: wgpu.ShaderStageVertex}
	models.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage

	var err error
	r.frameLayout, err = r.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Frame Layout",
		Entries: []wgpu.BindGroupLayoutEntry{uniform, models},
	})
	if err != nil {
		return deviceError("creating frame layout failed", err)
	}

	albedo := wgpu.BindGroupLayoutEntry{Binding: 0, Visibility: wgpu.ShaderStageFragment}
	albedo.Texture.SampleType = wgpu.TextureSampleTypeFloat
	albedo.Texture.ViewDimension = wgpu.TextureViewDimension2D
	samp := wgpu.BindGroupLayoutEntry{Binding: 1, Visibility: wgpu.ShaderStageFragment}
	samp.Sampler.Type = wgpu.SamplerBindingTypeFiltering

	r.textureLayout, err = r.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Texture Layout",
		Entries: []wgpu.BindGroupLayoutEntry{albedo, samp},
	})
	if err != nil {
		return deviceError("creating texture layout failed", err)
	}

	r.pipelineLayout, err = r.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Scene Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.frameLayout, r.textureLayout},
	})
	if err != nil {
		return deviceError("creating pipeline layout failed", err)
	}

	r.frameBuffer, err = r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Frame Uniforms",
		Size:  frameUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return deviceError("creating frame buffer failed", err)
	}
	if err := r.growInstances(minInstances); err != nil {
		return err
	}

	r.sampler, err = r.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Scene Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return deviceError("creating sampler failed", err)
	}

	white, err := r.newTexture(renderer.TextureData{Label: "White", Width: 1, Height: 1, Pixels: []byte{255, 255, 255, 255}})
	if err != nil {
		return err
	}
	r.white = white
	return nil
}

// growInstances replaces the instance buffer with one holding at least n
// matrices. The previous buffer and bind group are released after the
// current frame is submitted, since draws already recorded reference them.
func (r *Renderer) growInstances(n int) error {
	capacity := max(r.instanceCap, minInstances)
	for capacity < n {
		capacity *= 2
	}

	buf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Instance Models",
		Size:  uint64(capacity * mat4Size),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return deviceError("creating instance buffer failed", err)
	}
	group, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Frame Bind Group",
		Layout: r.frameLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.frameBuffer, Offset: 0, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: buf, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		buf.Release()
		return deviceError("creating frame bind group failed", err)
	}

	if r.instanceBuffer != nil {
		r.retired = append(r.retired, r.instanceBuffer, r.frameGroup)
	}
	r.instanceBuffer, r.frameGroup, r.instanceCap = buf, group, capacity
	return nil
}

func (r *Renderer) configureSurface(width, height int) error {
	width, height = max(width, 1), max(height, 1)
	capabilities := r.surface.GetCapabilities(r.adapter)
	r.surfaceFormat = capabilities.Formats[0]

	r.surface.Configure(r.adapter, r.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      r.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: r.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	depthTexture, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return deviceError("creating depth texture failed", err)
	}
	view, err := depthTexture.CreateView(nil)
	if err != nil {
		return deviceError("creating depth view failed", err)
	}
	if r.depthTextureView != nil {
		r.depthTextureView.Release()
	}
	r.depthTextureView = view

	r.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: r.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
	return nil
}

func (r *Renderer) Backend() renderer.BackendType {
	return renderer.BackendTypeWGPU
}

func (r *Renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.configureSurface(width, height); err != nil {
		logs.Error(err)
	}
}

func (r *Renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frameSurface != nil {
		return errors.New("previous frame surface not yet presented").WithType(ErrTypeDevice)
	}

	surfaceTexture, err := r.surface.GetCurrentTexture()
	if err != nil {
		return deviceError("acquiring surface texture failed", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return deviceError("creating surface view failed", err)
	}
	encoder, err := r.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return deviceError("creating command encoder failed", err)
	}

	r.renderPassDescriptor.ColorAttachments[0].View = view
	r.framePass = encoder.BeginRenderPass(r.renderPassDescriptor)
	r.frameEncoder = encoder
	r.frameSurface = surfaceTexture
	r.frameView = view
	r.instances = r.instances[:0]
	r.current = nil
	r.textureBound = false
	return nil
}

func (r *Renderer) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.framePass == nil {
		return
	}
	r.framePass.End()
	r.queue.WriteBuffer(r.frameBuffer, 0, appendMat4(nil, r.frameUniforms[:]...))

	commandBuffer, err := r.frameEncoder.Finish(nil)
	if err != nil {
		logs.Error(deviceError("finishing frame failed", err))
	} else {
		r.queue.Submit(commandBuffer)
		commandBuffer.Release()
	}
	r.frameEncoder.Release()
	r.frameEncoder = nil
	r.framePass = nil

	for _, res := range r.retired {
		res.Release()
	}
	r.retired = r.retired[:0]
}

func (r *Renderer) Present() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frameSurface == nil {
		return
	}
	r.surface.Present()
	if r.frameView != nil {
		r.frameView.Release()
		r.frameView = nil
	}
	r.frameSurface.Release()
	r.frameSurface = nil
}

func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.white != nil {
		r.white.release()
	}
	if r.frameGroup != nil {
		r.frameGroup.Release()
		r.instanceBuffer.Release()
	}
	if r.frameBuffer != nil {
		r.frameBuffer.Release()
	}
	if r.sampler != nil {
		r.sampler.Release()
	}
	if r.depthTextureView != nil {
		r.depthTextureView.Release()
	}
	if r.pipelineLayout != nil {
		r.pipelineLayout.Release()
	}
	if r.device != nil {
		r.device.Release()
	}
	if r.surface != nil {
		r.surface.Release()
	}
	if r.adapter != nil {
		r.adapter.Release()
	}
	if r.instance != nil {
		r.instance.Release()
	}
}

func (r *Renderer) id() uint32 {
	r.nextID++
	return r.nextID
}

func (r *Renderer) warnOnce(key, msg string) {
	if r.warned[key] {
		return
	}
	r.warned[key] = true
	logs.WithTag("renderer", "wgpu").WithTag("key", key).Warn(msg)
}

// appendMat4 appends the column-major little-endian bytes of ms to dst.
func appendMat4(dst []byte, ms ...mgl32.Mat4) []byte {
	for _, m := range ms {
		for _, v := range m {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
		}
	}
	return dst
}

func appendFloats(dst []byte, fs []float32) []byte {
	for _, v := range fs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

func appendUints(dst []byte, us []uint32) []byte {
	for _, v := range us {
		dst = binary.LittleEndian.AppendUint32(dst, v)
	}
	return dst
}

func topology(mode renderer.RenderMode) wgpu.PrimitiveTopology {
	switch mode {
	case renderer.RenderLines:
		return wgpu.PrimitiveTopologyLineList
	case renderer.RenderPoints:
		return wgpu.PrimitiveTopologyPointList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}
