package wgpurender

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

func TestAppendMat4(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3)
	b := appendMat4(nil, m, mgl32.Ident4())
	require.Len(t, b, 2*mat4Size)
	require.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(b[12*4:])))
	require.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(b[14*4:])))
	require.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(b[mat4Size:])))
}

func TestAppendBuffers(t *testing.T) {
	require.Len(t, appendFloats(nil, make([]float32, renderer.VertexStride)), renderer.VertexStride*4)
	b := appendUints(nil, []uint32{7, 9})
	require.Equal(t, uint32(9), binary.LittleEndian.Uint32(b[4:]))
}

func TestModeMapping(t *testing.T) {
	require.Equal(t, wgpu.PrimitiveTopologyTriangleList, topology(renderer.RenderTriangles))
	require.Equal(t, wgpu.PrimitiveTopologyLineList, topology(renderer.RenderLines))
	require.Equal(t, wgpu.PrimitiveTopologyPointList, topology(renderer.RenderPoints))
	require.Equal(t, wgpu.PresentModeFifo, presentMode(renderer.PresentModeVSync))
	require.Equal(t, wgpu.PresentModeImmediate, presentMode(renderer.PresentModeUncapped))
}
