package glrender

import (
	"testing"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

func TestPrimitive(t *testing.T) {
	require.Equal(t, uint32(gl.TRIANGLES), primitive(renderer.RenderTriangles))
	require.Equal(t, uint32(gl.LINES), primitive(renderer.RenderLines))
	require.Equal(t, uint32(gl.POINTS), primitive(renderer.RenderPoints))
}

func TestCStr(t *testing.T) {
	require.Equal(t, "model\x00", cstr("model"))
	require.Equal(t, "model\x00", cstr("model\x00"))
	require.Equal(t, "texture3", samplerName(3))
}

func TestValidUnitWarnsOnce(t *testing.T) {
	r := &Renderer{maxUnits: 2, warned: make(map[string]bool)}
	require.True(t, r.validUnit(1))
	require.False(t, r.validUnit(2))
	require.False(t, r.validUnit(-1))
	require.Len(t, r.warned, 1)
}
