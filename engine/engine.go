// Package engine runs a scene graph: a fixed-rate tick goroutine feeding
// the graph's update queue, and a render loop on the calling goroutine that
// applies queued updates and draws each frame.
package engine

import (
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"

	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
)

// ErrTypeFrame is the error type of frames that could not be rendered.
const ErrTypeFrame = "engine_frame_error"

type engine struct {
	tickRateChannel chan time.Duration

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	graph    scene.Graph
	renderer renderer.Renderer
	camera   camera.Camera
	window   window.Window
	mode     renderer.RenderMode

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(g scene.Graph, deltaTime float32)
	renderCallback func(stats scene.DrawStats, deltaTime float32)
	physics        bool

	renderFrameLimit time.Duration
	lastRender       time.Time
	frames           int
}

// Engine orchestrates the tick loop, the render loop and the window.
type Engine interface {
	// Graph returns the scene graph being rendered.
	Graph() scene.Graph

	// Renderer returns the renderer frames are drawn with.
	Renderer() renderer.Renderer

	// Camera returns the camera frames are drawn from.
	Camera() camera.Camera

	// Window returns the window, or nil when running headless.
	Window() window.Window

	// Profiler returns the frame profiler.
	Profiler() *profiler.Profiler

	// EnableProfiler enables per-frame profiling.
	EnableProfiler()

	// DisableProfiler disables per-frame profiling.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function run each engine tick. It runs on
	// the render goroutine when the tick's update is flushed, so it may
	// mutate the graph.
	//
	// Parameters:
	//   - callback: function receiving the graph and the tick delta in seconds
	SetTickCallback(callback func(g scene.Graph, deltaTime float32))

	// SetRenderCallback registers the function called after each frame.
	//
	// Parameters:
	//   - callback: function receiving the frame's draw stats and delta time in seconds
	SetRenderCallback(callback func(stats scene.DrawStats, deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// SetRenderMode sets the primitive mode frames are drawn with.
	SetRenderMode(mode renderer.RenderMode)

	// Frame renders one frame on the calling goroutine: flushes queued
	// updates, prepares transforms and draws the graph.
	//
	// Returns:
	//   - scene.DrawStats: the frame's draw stats
	//   - error: an ErrTypeFrame error if the renderer could not begin the frame
	Frame() (scene.DrawStats, error)

	// Run starts the tick goroutine and runs the window message loop,
	// rendering a frame per iteration, until the window closes or Quit is
	// called. It must be called from the main goroutine.
	Run()

	// RunFrames starts the tick goroutine and renders n frames without a
	// window, then stops the engine.
	//
	// Parameters:
	//   - n: the number of frames to render
	//
	// Returns:
	//   - scene.DrawStats: the last frame's draw stats
	RunFrames(n int) scene.DrawStats

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates an Engine drawing g with r.
//
// Parameters:
//   - g: the scene graph
//   - r: the renderer
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(g scene.Graph, r renderer.Renderer, options ...EngineBuilderOption) Engine {
	if g == nil {
		panic("engine: NewEngine requires a non-nil Graph")
	}
	if r == nil {
		panic("engine: NewEngine requires a non-nil Renderer")
	}
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		graph:           g,
		renderer:        r,
		profiler:        profiler.NewProfiler(time.Second, true),
		engineTickRate:  time.Second / 60,
		physics:         true,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.camera == nil {
		e.camera = camera.NewCamera()
	}

	if e.window != nil {
		e.camera.SetAspect(float32(e.window.Width()) / float32(max(e.window.Height(), 1)))
		e.window.SetResizeCallback(e.onResize)
		e.window.SetDragCallback(e.onDrag)
		e.window.SetScrollCallback(e.onScroll)
		e.window.SetKeyDownCallback(e.onKeyDown)
	}

	return e
}

func (e *engine) Graph() scene.Graph {
	return e.graph
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Run() {
	if e.window == nil {
		logs.Warn(errors.New("engine has no window").WithType(ErrTypeFrame))
		return
	}
	e.start()
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			e.window.Close()
			return
		default:
		}
		if _, err := e.Frame(); err != nil {
			logs.Warn(err)
		}
	})
	e.window.ProcessMessages()
	e.signalQuit()
	e.wg.Wait()
}

func (e *engine) RunFrames(n int) scene.DrawStats {
	e.start()
	defer func() {
		e.signalQuit()
		e.wg.Wait()
	}()

	var last scene.DrawStats
	for range n {
		stats, err := e.Frame()
		if err != nil {
			logs.Warn(err)
			continue
		}
		last = stats
	}
	return last
}

func (e *engine) start() {
	e.running = true
	e.lastRender = time.Now()
	e.wg.Add(1)
	go e.handleEngine()
}

// Quit signals all engine goroutines to stop.
func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate tick loop. Each tick enqueues an update
// that the render goroutine applies on its next Flush.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.tick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

func (e *engine) tick(dt float32) bool {
	callback, physics := e.tickCallback, e.physics
	return e.graph.Enqueue(func(g scene.Graph) {
		if callback != nil {
			callback(g, dt)
		}
		if physics {
			g.Step(dt)
		}
	})
}

func (e *engine) Frame() (scene.DrawStats, error) {
	start := time.Now()
	dt := float32(start.Sub(e.lastRender).Seconds())
	e.lastRender = start

	e.graph.Flush()
	e.camera.Update()
	e.graph.Prepare()

	if err := e.renderer.BeginFrame(); err != nil {
		return scene.DrawStats{}, errors.New("beginning frame failed").
			WithType(ErrTypeFrame).
			WithTag("frame", e.frames).
			Wrap(err)
	}
	stats := e.graph.Draw(e.camera, e.mode)
	e.renderer.EndFrame()
	e.renderer.Present()
	e.frames++

	if e.renderCallback != nil {
		e.renderCallback(stats, dt)
	}
	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick(profiler.Frame{
			Duration: time.Since(start),
			Batches:  stats.Batches,
			Storages: stats.Storages,
			Nodes:    stats.Nodes,
			Culled:   stats.Culled,
		})
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
	return stats, nil
}

func (e *engine) onResize(width, height int) {
	e.renderer.Resize(width, height)
	if height > 0 {
		e.camera.SetAspect(float32(width) / float32(height))
	}
}

func (e *engine) onDrag(dx, dy float32) {
	if c := e.camera.Controller(); c != nil {
		c.Orbit(dx, dy)
	}
}

func (e *engine) onScroll(delta float32) {
	if c := e.camera.Controller(); c != nil {
		c.Zoom(delta)
	}
}

func (e *engine) onKeyDown(keyCode uint32) {
	c := e.camera.Controller()
	if c == nil {
		return
	}
	switch keyCode {
	case window.KeyW:
		c.Pan(0, 1)
	case window.KeyS:
		c.Pan(0, -1)
	case window.KeyA:
		c.Pan(-1, 0)
	case window.KeyD:
		c.Pan(1, 0)
	case window.KeyR:
		e.SetRenderMode((e.mode + 1) % (renderer.RenderPoints + 1))
	}
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running {
		e.engineTickRate = newRate
		return
	}
	select {
	case e.tickRateChannel <- newRate:
	default:
		// Replace the pending value.
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(g scene.Graph, deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(stats scene.DrawStats, deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) SetRenderMode(mode renderer.RenderMode) {
	e.mode = mode
}
