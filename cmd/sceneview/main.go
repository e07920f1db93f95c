package main

import (
	"context"
	"net/http"
	"os"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/config"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/glrender"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/wgpurender"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
)

var (
	// The sceneview version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "sceneview_info",
		Help:        "Scene viewer information.",
		ConstLabels: prometheus.Labels{"version": version},
	})

	reloadCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sceneview_reloads_total",
		Help: "Scene file reloads by result.",
	}, []string{"result"})
)

var _ = reflect.TypeOf(options{})

type options struct {
	Config      string   `cli:"" env:"SCENEVIEW_CONFIG"       help:"YAML configuration file."`
	Files       []string `cli:"" env:"SCENEVIEW_FILES"        help:"Comma separated scene files to load."`
	Generate    int      `cli:"" env:"SCENEVIEW_GENERATE"     help:"Number of props to generate when no scene file is given."`
	Spread      float64  `cli:"" env:"SCENEVIEW_SPREAD"       help:"Half extent of the square generated props are placed in."`
	Seed        uint64   `cli:"" env:"SCENEVIEW_SEED"         help:"Seed of the prop generator."`
	Out         string   `cli:"" env:"SCENEVIEW_OUT"          help:"Write the loaded scene to this file."`
	Format      string   `cli:"" env:"SCENEVIEW_FORMAT"       help:"Scene file format (full|fixed). Overrides the config file."`
	Frames      int      `cli:"" env:"SCENEVIEW_FRAMES"       help:"Headless frames to render before reporting."`
	Watch       bool     `cli:"" env:"SCENEVIEW_WATCH"        help:"Reload scene files when they change."`
	Window      bool     `cli:"" env:"SCENEVIEW_WINDOW"       help:"Open a window and render the scene."`
	Backend     string   `cli:"" env:"SCENEVIEW_BACKEND"      help:"Window renderer (gl|wgpu). Overrides the config file."`
	LogLevel    string   `cli:"" env:"SCENEVIEW_LOG_LEVEL"    help:"Log level (debug|info|warning|error). Overrides the config file."`
	LogIndent   bool     `cli:"" env:"SCENEVIEW_LOG_INDENT"   help:"Indent logs."`
	MetricsAddr string   `cli:"" env:"SCENEVIEW_METRICS_ADDR" help:"Metrics listening address. Overrides the config file."`
	Version     bool     `cli:"" env:"-"                      help:"Show version."`
	Help        bool     `cli:"" env:"-"                      help:"Show help."`
}

// report is the JSON document printed after rendering.
type report struct {
	Graph    string            `json:"graph"`
	Nodes    int               `json:"nodes"`
	Storages int               `json:"storages"`
	Cells    int               `json:"cells"`
	Batches  int               `json:"batches"`
	Draw     scene.DrawStats   `json:"draw"`
	Profile  *profiler.Summary `json:"profile,omitempty"`
}

func main() {
	opts := options{
		Generate: 1000,
		Spread:   512,
		Seed:     1,
		Frames:   1,
	}

	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Loads scene files into a scene graph, renders them and reports draw statistics.").
		Options(&opts)
	cli.Load()

	if opts.Version {
		os.Stdout.WriteString(version + "\n")
		os.Exit(0)
	}

	conf, err := settings(opts)
	if err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if opts.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal

	var wg sync.WaitGroup
	if conf.MetricsAddr != "" {
		var admin http.ServeMux
		admin.Handle("/metrics", promhttp.Handler())

		wg.Add(1)
		go func() {
			defer wg.Done()
			listenAndServe(ctx, &http.Server{Addr: conf.MetricsAddr, Handler: &admin})
		}()
	}

	var win window.Window
	var r renderer.Renderer = renderer.NewRecorder()
	if opts.Window {
		if win, r, err = open(conf); err != nil {
			logs.Fatal(err)
		}
	}

	a, err := newAssets(r)
	if err != nil {
		logs.Fatal(err)
	}

	g := scene.NewGraph(conf.GraphOptions()...)
	if err := populate(g, a, opts, conf); err != nil {
		logs.Fatal(err)
	}
	if opts.Out != "" {
		if err := scene.SaveFile[*prop](g, opts.Out, conf.Format()); err != nil {
			logs.Fatal(err)
		}
	}

	spread := float32(opts.Spread)
	cam := camera.NewCamera(
		camera.WithAspect(float32(conf.Window.Width)/float32(conf.Window.Height)),
		camera.WithClip(0.1, 8*spread),
		camera.WithController(camera.NewOrbitController(
			camera.WithRadius(1.5*spread),
			camera.WithRadiusBounds(1, 6*spread),
			camera.WithSpeeds(0.005, spread/20, spread/40),
		)),
	)

	engineOptions := []engine.EngineBuilderOption{
		engine.WithCamera(cam),
		engine.WithTickRate(conf.Engine.TickRate),
		engine.WithRenderFrameLimit(conf.Engine.FrameRate),
		engine.WithProfiling(conf.Engine.Profiling),
		engine.WithProfiler(profiler.NewProfiler(conf.Engine.ProfileInterval, true)),
	}
	if win != nil {
		engineOptions = append(engineOptions, engine.WithWindow(win))
	}
	e := engine.NewEngine(g, r, engineOptions...)

	reloaded := false
	if opts.Watch && len(opts.Files) != 0 {
		err := watch(ctx, opts.Files, func(path string) {
			g.Enqueue(func(g scene.Graph) {
				reload(g, a, opts.Files, conf)
				reloaded = true
			})
		})
		if err != nil {
			logs.Fatal(err)
		}
	}

	logs.WithTag("version", version).
		WithTag("graph", g.ID()).
		WithTag("nodes", g.Len()).
		WithTag("backend", r.Backend()).
		Info("starting scene viewer")

	switch {
	case win != nil:
		go func() {
			<-ctx.Done()
			e.Quit()
		}()
		e.Run()

	case opts.Watch:
		rate := conf.Engine.FrameRate
		if rate <= 0 {
			rate = 30
		}
		ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
		defer ticker.Stop()

		printReport(g, e, e.RunFrames(opts.Frames))
		for ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case <-ticker.C:
				stats, err := e.Frame()
				if err != nil {
					logs.Warn(err)
					continue
				}
				if reloaded {
					reloaded = false
					printReport(g, e, stats)
				}
			}
		}

	default:
		printReport(g, e, e.RunFrames(opts.Frames))
	}

	g.Close()
	r.Close()
	cancel()
	wg.Wait()
}

// settings loads the configuration file and applies the command line overrides.
func settings(opts options) (config.Config, error) {
	conf := config.Default()
	if opts.Config != "" {
		var err error
		if conf, err = config.LoadFile(opts.Config); err != nil {
			return config.Config{}, err
		}
	}

	conf.Scene.Format = common.Coalesce(opts.Format, conf.Scene.Format)
	conf.Window.Backend = common.Coalesce(opts.Backend, conf.Window.Backend)
	conf.LogLevel = common.Coalesce(opts.LogLevel, conf.LogLevel)
	conf.MetricsAddr = common.Coalesce(opts.MetricsAddr, conf.MetricsAddr)
	return conf, conf.Validate()
}

// open creates the window and the renderer the configuration selects.
func open(conf config.Config) (window.Window, renderer.Renderer, error) {
	backend := conf.Backend()
	if backend == renderer.BackendTypeRecorder {
		return nil, nil, errors.New("a window needs a GPU backend").
			WithTag("backend", conf.Window.Backend)
	}

	api := window.ClientAPIOpenGL
	if backend == renderer.BackendTypeWGPU {
		api = window.ClientAPINone
	}

	win, err := window.NewWindow(
		window.WithTitle(conf.Window.Title),
		window.WithSize(conf.Window.Width, conf.Window.Height),
		window.WithClientAPI(api),
	)
	if err != nil {
		return nil, nil, errors.New("opening window failed").Wrap(err)
	}

	var r renderer.Renderer
	switch backend {
	case renderer.BackendTypeWGPU:
		r, err = wgpurender.New(win.SurfaceDescriptor(), win.Width(), win.Height())
	default:
		r, err = glrender.New(win.Width(), win.Height(), glrender.WithSwap(win.SwapBuffers))
	}
	if err != nil {
		win.Close()
		return nil, nil, errors.New("creating renderer failed").
			WithTag("backend", backend).
			Wrap(err)
	}
	return win, r, nil
}

// populate loads the scene files, or generates props when there are none.
func populate(g scene.Graph, a *assets, opts options, conf config.Config) error {
	if len(opts.Files) == 0 {
		generate(g, a, opts.Generate, float32(opts.Spread), opts.Seed)
		logs.WithTag("nodes", g.Len()).Info("scene generated")
		return nil
	}

	for _, f := range opts.Files {
		if _, err := scene.LoadFile(g, f, a.newProp, conf.Format()); err != nil {
			return err
		}
	}
	return nil
}

// reload replaces the graph contents with the scene files. On failure the
// nodes read before the malformed record stay in the graph.
func reload(g scene.Graph, a *assets, files []string, conf config.Config) {
	g.Clear()
	for _, f := range files {
		if _, err := scene.LoadFile(g, f, a.newProp, conf.Format()); err != nil {
			reloadCounter.With(prometheus.Labels{"result": "error"}).Inc()
			return
		}
	}
	reloadCounter.With(prometheus.Labels{"result": "ok"}).Inc()
	logs.WithTag("nodes", g.Len()).Info("scene reloaded")
}

func newReport(g scene.Graph, e engine.Engine, stats scene.DrawStats) report {
	rep := report{
		Graph:    g.ID().String(),
		Nodes:    g.Len(),
		Storages: g.Storages(),
		Batches:  g.Batches(),
		Draw:     stats,
	}
	if grid := scene.GridOf[*prop](g); grid != nil {
		rep.Cells = grid.Cells()
	}
	if summary := e.Profiler().Summary(); summary.FPS > 0 {
		rep.Profile = &summary
	}
	return rep
}

func printReport(g scene.Graph, e engine.Engine, stats scene.DrawStats) {
	b, err := json.MarshalIndent(newReport(g, e, stats), "", "  ")
	if err != nil {
		logs.Warn(errors.New("encoding report failed").Wrap(err))
		return
	}
	os.Stdout.Write(append(b, '\n'))
}

func listenAndServe(ctx context.Context, s *http.Server) {
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(context.Background()); err != nil {
			logs.Warn(errors.New("shutting down the server failed").
				WithTag("addr", s.Addr).
				Wrap(err))
		}
	}()

	logs.WithTag("addr", s.Addr).Info("starting server")
	switch err := s.ListenAndServe(); err {
	case nil, http.ErrServerClosed, context.Canceled:
		logs.WithTag("addr", s.Addr).Info("stopping server")
	default:
		logs.Warn(errors.New("server stopped").
			WithTag("addr", s.Addr).
			Wrap(err))
	}
}
