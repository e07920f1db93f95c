package profiler

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestProfilerTick(t *testing.T) {
	p := NewProfiler(time.Hour, false)
	before := testutil.ToFloat64(framesTotal)

	require.False(t, p.Tick(Frame{Batches: 3, Nodes: 1000, Culled: 2}))
	require.Equal(t, before+1, testutil.ToFloat64(framesTotal))
	require.Equal(t, float64(3), testutil.ToFloat64(drawGauge.With(prometheus.Labels{kindLabel: "batches"})))
	require.Equal(t, float64(1000), testutil.ToFloat64(drawGauge.With(prometheus.Labels{kindLabel: "nodes"})))
	require.Zero(t, p.Summary().FPS)
}

func TestProfilerSummary(t *testing.T) {
	p := NewProfiler(time.Nanosecond, true)
	time.Sleep(time.Millisecond)

	require.True(t, p.Tick(Frame{Duration: time.Millisecond, Nodes: 5}))
	s := p.Summary()
	require.Positive(t, s.FPS)
	require.Positive(t, s.SysMB)
	require.Equal(t, 5, s.Last.Nodes)
}

func TestNewProfilerDefaultInterval(t *testing.T) {
	require.Equal(t, time.Second, NewProfiler(0, false).updateInterval)
}
