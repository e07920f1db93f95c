package scene

import (
	"time"

	"github.com/google/uuid"

	"github.com/Carmen-Shannon/oxy-scene/engine/grid"
	"github.com/Carmen-Shannon/oxy-scene/engine/physics"
)

const (
	// DefaultUpdateQueue is the update queue capacity used by NewGraph.
	DefaultUpdateQueue = 1024
	// DefaultPrepareThreshold is the dirty node count below which Prepare runs inline.
	DefaultPrepareThreshold = 4096
	// DefaultPrepareIdle is how long an idle prepare worker lives.
	DefaultPrepareIdle = 1 * time.Second
)

// GraphBuilderOption is a functional option for configuring a Graph.
type GraphBuilderOption func(*graph)

// WithCellSize sets the cell edge length of every grid the graph creates.
//
// Parameters:
//   - size: the cell size, must be positive
//
// Returns:
//   - GraphBuilderOption: a function that applies the cell size option
func WithCellSize(size float32) GraphBuilderOption {
	return func(g *graph) {
		g.cellSize = size
		g.gridOptions = append(g.gridOptions, grid.WithCellSize(size))
	}
}

// WithGridOptions appends options passed to every grid the graph creates.
func WithGridOptions(options ...grid.GridBuilderOption) GraphBuilderOption {
	return func(g *graph) {
		g.gridOptions = append(g.gridOptions, options...)
	}
}

// WithWorld sets the physics world. Clones get a world from factory; a nil
// factory keeps the default NullWorld factory.
//
// Parameters:
//   - w: the world for this graph
//   - factory: creates worlds for clones
//
// Returns:
//   - GraphBuilderOption: a function that applies the world option
func WithWorld(w physics.World, factory func() physics.World) GraphBuilderOption {
	return func(g *graph) {
		g.world = w
		if factory != nil {
			g.newWorld = factory
		}
	}
}

// WithUpdateQueue sets the capacity of the Enqueue buffer.
func WithUpdateQueue(capacity int) GraphBuilderOption {
	return func(g *graph) {
		g.updates = make(chan func(Graph), max(capacity, 0))
	}
}

// WithPrepareWorkers sets how many workers Prepare uses and the dirty node
// count at which it stops running inline.
//
// Parameters:
//   - workers: the worker count, 1 disables parallel prepare
//   - threshold: the minimum dirty node count for parallel prepare
//
// Returns:
//   - GraphBuilderOption: a function that applies the prepare option
func WithPrepareWorkers(workers, threshold int) GraphBuilderOption {
	return func(g *graph) {
		g.prepareWorkers = max(workers, 1)
		g.prepareThreshold = max(threshold, 1)
	}
}

// WithID sets the graph ID instead of a random one.
func WithID(id uuid.UUID) GraphBuilderOption {
	return func(g *graph) {
		g.id = id
	}
}
