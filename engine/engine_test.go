package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-scene/engine/batch"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/node"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
)

func newTestEngine(t *testing.T, options ...EngineBuilderOption) (*engine, *renderer.Recorder) {
	r := renderer.NewRecorder()
	shader, err := r.NewShader(renderer.ShaderSource{Label: "basic", Vertex: "v"})
	require.NoError(t, err)
	mesh, err := r.NewMesh(renderer.MeshData{})
	require.NoError(t, err)

	g := scene.NewGraph(scene.WithCellSize(32))
	for _, x := range []float32{0, 100} {
		scene.Add(g, node.NewStatic(
			node.WithPosition(x, 0, 0),
			node.WithShaders(shader),
			node.WithDrawStates(batch.DrawState{Mesh: mesh}),
		))
	}
	return NewEngine(g, r, options...).(*engine), r
}

func TestRunFrames(t *testing.T) {
	e, r := newTestEngine(t, WithTickRate(1000))

	stats := e.RunFrames(3)
	require.Equal(t, 3, r.Count(renderer.OpBeginFrame))
	require.Equal(t, 3, r.Count(renderer.OpPresent))
	require.Equal(t, 1, stats.Batches)
	require.Equal(t, 2, stats.Nodes)
	require.False(t, e.running)
}

func TestTickAppliesOnFrame(t *testing.T) {
	e, _ := newTestEngine(t, WithPhysics(false))

	var got float32
	var order []string
	e.SetTickCallback(func(g scene.Graph, dt float32) {
		got = dt
		order = append(order, "tick")
		require.Equal(t, 2, g.Len())
	})
	e.SetRenderCallback(func(stats scene.DrawStats, dt float32) {
		order = append(order, "render")
	})

	require.True(t, e.tick(0.5))
	require.Zero(t, got)

	_, err := e.Frame()
	require.NoError(t, err)
	require.Equal(t, float32(0.5), got)
	require.Equal(t, []string{"tick", "render"}, order)
}

func TestProfilerTicks(t *testing.T) {
	e, _ := newTestEngine(t, WithProfiler(profiler.NewProfiler(time.Nanosecond, false)))
	e.EnableProfiler()
	time.Sleep(time.Millisecond)

	_, err := e.Frame()
	require.NoError(t, err)
	require.Equal(t, 2, e.Profiler().Summary().Last.Nodes)

	e.DisableProfiler()
	require.False(t, e.profilingEnabled)
}

func TestInputDrivesController(t *testing.T) {
	ctrl := camera.NewOrbitController(camera.WithRadius(10))
	e, _ := newTestEngine(t, WithCamera(camera.NewCamera(camera.WithController(ctrl))))

	target := ctrl.Target()
	e.onKeyDown(window.KeyD)
	require.NotEqual(t, target, ctrl.Target())

	radius := ctrl.Radius()
	e.onScroll(1)
	require.NotEqual(t, radius, ctrl.Radius())

	e.onKeyDown(window.KeyR)
	require.Equal(t, renderer.RenderLines, e.mode)
}

func TestResizeSetsAspect(t *testing.T) {
	e, _ := newTestEngine(t)
	e.onResize(800, 400)
	require.Equal(t, float32(2), e.Camera().Aspect())

	e.onResize(800, 0)
	require.Equal(t, float32(2), e.Camera().Aspect())
}

func TestRates(t *testing.T) {
	e, _ := newTestEngine(t, WithRenderFrameLimit(50))
	require.Equal(t, 20*time.Millisecond, e.renderFrameLimit)

	e.SetRenderFrameLimit(0)
	require.Zero(t, e.renderFrameLimit)

	e.SetTickRate(0)
	require.Equal(t, time.Second/60, e.engineTickRate)
	e.SetTickRate(100)
	require.Equal(t, 10*time.Millisecond, e.engineTickRate)
}

func TestNewEngineRequiresGraph(t *testing.T) {
	require.Panics(t, func() { NewEngine(nil, renderer.NewRecorder()) })
	require.Panics(t, func() { NewEngine(scene.NewGraph(), nil) })
}
