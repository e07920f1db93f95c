package main

import (
	"path/filepath"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-scene/engine"
	"github.com/Carmen-Shannon/oxy-scene/engine/config"
	"github.com/Carmen-Shannon/oxy-scene/engine/node"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

func newTestAssets(t *testing.T) (*assets, *renderer.Recorder) {
	r := renderer.NewRecorder()
	a, err := newAssets(r)
	require.NoError(t, err)
	return a, r
}

func TestMeshes(t *testing.T) {
	cube := cubeMesh()
	require.Len(t, cube.Vertices, 24*renderer.VertexStride)
	require.Len(t, cube.Indices, 36)

	tile := tileMesh()
	require.Len(t, tile.Vertices, 4*renderer.VertexStride)
	require.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, tile.Indices)

	for i := 0; i < len(cube.Vertices); i += renderer.VertexStride {
		require.GreaterOrEqual(t, cube.Vertices[i+1], float32(0))
		require.LessOrEqual(t, cube.Vertices[i+1], float32(1))
	}
}

func TestTextures(t *testing.T) {
	checker := checkerTexture(2, 4)
	require.Len(t, checker.Pixels, 8*8*4)
	require.Equal(t, byte(220), checker.Pixels[0])
	require.Equal(t, byte(70), checker.Pixels[4*4])
	require.Len(t, solidTexture(1, 2, 3).Pixels, 4)
}

func TestNewPropAlternates(t *testing.T) {
	a, _ := newTestAssets(t)

	var states []int
	for range 5 {
		states = append(states, len(a.newProp().DrawStates()))
	}
	require.Equal(t, []int{1, 1, 1, 1, 2}, states)
}

func TestGenerate(t *testing.T) {
	a, _ := newTestAssets(t)
	g := scene.NewGraph()
	defer g.Close()

	generate(g, a, 100, 50, 7)
	require.Equal(t, 100, g.Len())
	require.Equal(t, 1, g.Storages())
	require.Equal(t, 2, g.Batches())

	for n := range g.All() {
		p := n.Transform().Position()
		require.LessOrEqual(t, p[0], float32(50))
		require.GreaterOrEqual(t, p[2], float32(-50))
	}
}

func TestPopulateAndReload(t *testing.T) {
	a, _ := newTestAssets(t)
	conf := config.Default()
	path := filepath.Join(t.TempDir(), "props.scene")

	src := scene.NewGraph()
	generate(src, a, 10, 100, 1)
	require.NoError(t, scene.SaveFile[*prop](src, path, conf.Format()))

	g := scene.NewGraph()
	defer g.Close()
	opts := options{Files: []string{path}}
	require.NoError(t, populate(g, a, opts, conf))
	require.Equal(t, 10, g.Len())

	reload(g, a, opts.Files, conf)
	require.Equal(t, 10, g.Len())

	opts.Files = append(opts.Files, filepath.Join(t.TempDir(), "missing.scene"))
	err := populate(scene.NewGraph(), a, opts, conf)
	require.True(t, errors.IsType(err, scene.ErrTypeLoad))
}

func TestSettingsOverrides(t *testing.T) {
	conf, err := settings(options{Backend: config.BackendWGPU, Format: "fixed", LogLevel: "debug"})
	require.NoError(t, err)
	require.Equal(t, config.BackendWGPU, conf.Window.Backend)
	require.Equal(t, node.FixedPoint, conf.Format())
	require.Equal(t, "debug", conf.LogLevel)

	_, err = settings(options{Backend: "vulkan"})
	require.True(t, errors.IsType(err, config.ErrTypeConfig))
}

func TestReport(t *testing.T) {
	a, r := newTestAssets(t)
	g := scene.NewGraph()
	generate(g, a, 20, 10, 3)

	e := engine.NewEngine(g, r)
	rep := newReport(g, e, e.RunFrames(1))
	require.Equal(t, g.ID().String(), rep.Graph)
	require.Equal(t, 20, rep.Nodes)
	require.Equal(t, 2, rep.Batches)
	require.LessOrEqual(t, rep.Draw.Nodes, 24)
	require.Nil(t, rep.Profile)
}
