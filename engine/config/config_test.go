package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-scene/engine/node"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	conf, err := Load(strings.NewReader(`
scene:
  cell_size: 32
  format: fixed
window:
  backend: wgpu
engine:
  profile_interval: 5s
`))
	require.NoError(t, err)

	def := Default()
	require.Equal(t, float32(32), conf.Scene.CellSize)
	require.Equal(t, node.FixedPoint, conf.Format())
	require.Equal(t, BackendWGPU, conf.Window.Backend)
	require.Equal(t, 5*time.Second, conf.Engine.ProfileInterval)

	require.Equal(t, def.Scene.CullMaxY, conf.Scene.CullMaxY)
	require.Equal(t, def.Scene.UpdateQueue, conf.Scene.UpdateQueue)
	require.Equal(t, def.Window.Width, conf.Window.Width)
	require.Equal(t, def.Window.Title, conf.Window.Title)
	require.Equal(t, def.Engine.TickRate, conf.Engine.TickRate)
	require.Equal(t, def.LogLevel, conf.LogLevel)
}

func TestLoadEmpty(t *testing.T) {
	conf, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, Default(), conf)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		scenario string
		doc      string
	}{
		{scenario: "malformed", doc: "scene: [1, 2"},
		{scenario: "negative cell size", doc: "scene:\n  cell_size: -4"},
		{scenario: "inverted extent", doc: "scene:\n  cull_min_y: 10\n  cull_max_y: 5"},
		{scenario: "unknown backend", doc: "window:\n  backend: vulkan"},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			_, err := Load(strings.NewReader(test.doc))
			require.Error(t, err)
			require.True(t, errors.IsType(err, ErrTypeConfig))
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))

	conf, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "debug", conf.LogLevel)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.True(t, errors.IsType(err, ErrTypeConfig))
}

func TestGraphOptions(t *testing.T) {
	conf := Default()
	conf.Scene.CellSize = 16
	conf.Scene.PrepareWorkers = 2

	g := scene.NewGraph(conf.GraphOptions()...)
	defer g.Close()

	scene.Add(g, node.NewStatic(node.WithPosition(20, 0, 0)))
	require.Equal(t, 1, scene.GridOf[*node.Static](g).Cells())
	scene.Add(g, node.NewStatic(node.WithPosition(40, 0, 0)))
	require.Equal(t, 2, scene.GridOf[*node.Static](g).Cells())
}
