// Package config loads scene viewer configuration from YAML. Values present
// in a document override Default; absent or zero values keep the default.
package config

import (
	"io"
	"os"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-scene/engine/grid"
	"github.com/Carmen-Shannon/oxy-scene/engine/node"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

// ErrTypeConfig is the error type of unreadable or invalid configuration.
const ErrTypeConfig = "config_error"

// Backend names written by Default. WindowConfig.Backend accepts any name
// renderer.ParseBackendType does.
const (
	BackendGL   = "gl"
	BackendWGPU = "wgpu"
)

// Config is the scene viewer configuration.
type Config struct {
	Scene       SceneConfig  `yaml:"scene"`
	Engine      EngineConfig `yaml:"engine"`
	Window      WindowConfig `yaml:"window"`
	LogLevel    string       `yaml:"log_level"`
	MetricsAddr string       `yaml:"metrics_addr"`
}

// SceneConfig configures the scene graph and its grids.
type SceneConfig struct {
	CellSize         float32 `yaml:"cell_size"`
	CullMinY         float32 `yaml:"cull_min_y"`
	CullMaxY         float32 `yaml:"cull_max_y"`
	CullMargin       float32 `yaml:"cull_margin"`
	Format           string  `yaml:"format"`
	UpdateQueue      int     `yaml:"update_queue"`
	PrepareWorkers   int     `yaml:"prepare_workers"`
	PrepareThreshold int     `yaml:"prepare_threshold"`
}

// EngineConfig configures the tick and render loops.
type EngineConfig struct {
	TickRate        float64       `yaml:"tick_rate"`
	FrameRate       float64       `yaml:"frame_rate"`
	Profiling       bool          `yaml:"profiling"`
	ProfileInterval time.Duration `yaml:"profile_interval"`
}

// WindowConfig configures the optional window.
type WindowConfig struct {
	Title   string `yaml:"title"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Backend string `yaml:"backend"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Scene: SceneConfig{
			CellSize:         grid.DefaultCellSize,
			CullMinY:         -256,
			CullMaxY:         256,
			Format:           node.FullPrecision.String(),
			UpdateQueue:      scene.DefaultUpdateQueue,
			PrepareThreshold: scene.DefaultPrepareThreshold,
		},
		Engine: EngineConfig{
			TickRate:        60,
			ProfileInterval: time.Second,
		},
		Window: WindowConfig{
			Title:   "oxy-scene",
			Width:   1280,
			Height:  720,
			Backend: BackendGL,
		},
		LogLevel:    "info",
		MetricsAddr: ":18190",
	}
}

// Load decodes a YAML document from r and overlays it onto Default.
//
// Parameters:
//   - r: the YAML source
//
// Returns:
//   - Config: the merged configuration
//   - error: an ErrTypeConfig error if the document is malformed or invalid
func Load(r io.Reader) (Config, error) {
	var file Config
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return Config{}, errors.New("decoding config failed").
			WithType(ErrTypeConfig).
			Wrap(err)
	}

	conf := Default()
	if err := copier.CopyWithOption(&conf, &file, copier.Option{IgnoreEmpty: true, DeepCopy: true}); err != nil {
		return Config{}, errors.New("merging config failed").
			WithType(ErrTypeConfig).
			Wrap(err)
	}
	return conf, conf.Validate()
}

// LoadFile is Load over the named file.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.New("opening config failed").
			WithType(ErrTypeConfig).
			WithTag("file", path).
			Wrap(err)
	}
	defer f.Close()

	conf, err := Load(f)
	if err != nil {
		return Config{}, errors.New("loading config failed").
			WithType(ErrTypeConfig).
			WithTag("file", path).
			Wrap(err)
	}
	return conf, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Scene.CellSize <= 0:
		return errors.New("cell size must be positive").
			WithType(ErrTypeConfig).
			WithTag("cell_size", c.Scene.CellSize)
	case c.Scene.CullMinY > c.Scene.CullMaxY:
		return errors.New("cull extent is inverted").
			WithType(ErrTypeConfig).
			WithTag("cull_min_y", c.Scene.CullMinY).
			WithTag("cull_max_y", c.Scene.CullMaxY)
	}
	if _, err := renderer.ParseBackendType(c.Window.Backend); err != nil {
		return errors.New("invalid window backend").
			WithType(ErrTypeConfig).
			Wrap(err)
	}
	return nil
}

// Backend returns the renderer backend the window uses.
func (c Config) Backend() renderer.BackendType {
	b, _ := renderer.ParseBackendType(c.Window.Backend)
	return b
}

// Format returns the scene file format.
func (c Config) Format() node.Format {
	return node.ParseFormat(c.Scene.Format)
}

// GraphOptions returns the scene graph options the configuration selects.
func (c Config) GraphOptions() []scene.GraphBuilderOption {
	options := []scene.GraphBuilderOption{
		scene.WithCellSize(c.Scene.CellSize),
		scene.WithGridOptions(
			grid.WithVerticalExtent(c.Scene.CullMinY, c.Scene.CullMaxY),
			grid.WithCullMargin(c.Scene.CullMargin),
		),
		scene.WithUpdateQueue(c.Scene.UpdateQueue),
	}
	if c.Scene.PrepareWorkers > 0 {
		options = append(options, scene.WithPrepareWorkers(c.Scene.PrepareWorkers, c.Scene.PrepareThreshold))
	}
	return options
}
