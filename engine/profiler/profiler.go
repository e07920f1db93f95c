// Package profiler tracks frame rate, draw work and memory statistics,
// exporting them as Prometheus metrics and periodic log entries.
package profiler

import (
	"runtime"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oxy_scene_frames_total",
		Help: "The number of frames rendered.",
	})

	frameSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oxy_scene_frame_seconds",
		Help:    "The time spent producing a frame.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	fpsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oxy_scene_fps",
		Help: "Frames per second over the last reporting interval.",
	})

	drawGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "oxy_scene_draw",
		Help: "Work done by the last frame's scene draw.",
	}, []string{
		kindLabel,
	})

	heapGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oxy_scene_heap_bytes",
		Help: "Bytes of allocated heap objects.",
	})
)

const kindLabel = "kind"

// Frame is the work done by one frame.
type Frame struct {
	Duration time.Duration
	Batches  int
	Storages int
	Nodes    int
	Culled   int
}

// Summary is the state reported at the end of an interval.
type Summary struct {
	FPS         float64 `json:"fps"`
	HeapMB      float64 `json:"heap_mb"`
	AllocRateMB float64 `json:"alloc_rate_mb"`
	SysMB       float64 `json:"sys_mb"`
	GC          uint32  `json:"gc"`
	MaxPauseUs  uint64  `json:"max_pause_us"`
	Last        Frame   `json:"last_frame"`
}

// Profiler accumulates frames and reports a Summary every interval.
// It is not safe for concurrent use.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	summary        Summary
	logging        bool
}

// NewProfiler creates a Profiler reporting every interval. A non-positive
// interval defaults to one second.
//
// Parameters:
//   - interval: the reporting interval
//   - logging: whether summaries are logged
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration, logging bool) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
		logging:        logging,
	}
}

// Tick records one frame. Draw gauges are updated every frame; FPS and
// memory statistics once per interval.
//
// Parameters:
//   - f: the frame's work
//
// Returns:
//   - bool: true if a summary was produced this tick
func (p *Profiler) Tick(f Frame) bool {
	p.frameCount++
	framesTotal.Inc()
	frameSeconds.Observe(f.Duration.Seconds())
	drawGauge.With(prometheus.Labels{kindLabel: "batches"}).Set(float64(f.Batches))
	drawGauge.With(prometheus.Labels{kindLabel: "storages"}).Set(float64(f.Storages))
	drawGauge.With(prometheus.Labels{kindLabel: "nodes"}).Set(float64(f.Nodes))
	drawGauge.With(prometheus.Labels{kindLabel: "culled"}).Set(float64(f.Culled))

	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	gcCount := p.memStats.NumGC

	// PauseNs is a circular buffer of the last 256 pauses.
	var maxPauseUs uint64
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	p.summary = Summary{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		GC:          gcCount,
		MaxPauseUs:  maxPauseUs,
		Last:        f,
	}
	fpsGauge.Set(p.summary.FPS)
	heapGauge.Set(float64(p.memStats.Alloc))

	if p.logging {
		logs.WithTag("fps", p.summary.FPS).
			WithTag("heap_mb", p.summary.HeapMB).
			WithTag("alloc_rate_mb", p.summary.AllocRateMB).
			WithTag("gc", gcCount).
			WithTag("max_pause_us", maxPauseUs).
			WithTag("batches", f.Batches).
			WithTag("nodes", f.Nodes).
			WithTag("culled", f.Culled).
			Info("frame stats")
	}

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Summary returns the last reported summary.
func (p *Profiler) Summary() Summary {
	return p.summary
}
