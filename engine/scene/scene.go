// Package scene holds the retained-mode scene graph: one spatial grid per
// concrete node type, an ordered batch index over the grids, and the draw
// traversal that binds GPU state once per batch key.
package scene

import (
	"iter"
	"reflect"
	"runtime"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/batch"
	"github.com/Carmen-Shannon/oxy-scene/engine/grid"
	"github.com/Carmen-Shannon/oxy-scene/engine/node"
	"github.com/Carmen-Shannon/oxy-scene/engine/physics"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

// Viewer is the camera state needed by Draw.
type Viewer interface {
	renderer.Camera
	Frustum() common.Frustum
}

// DrawStats reports the work done by one Draw call.
type DrawStats struct {
	// Batches is the number of distinct batch keys bound.
	Batches int
	// Storages is the number of storage draw calls made across all batches.
	Storages int
	// Nodes is the number of mesh draw calls issued.
	Nodes int
	// Culled is the number of cells skipped by frustum culling.
	Culled int
}

// Graph is a scene graph over nodes of any number of concrete types.
//
// A Graph is not safe for concurrent use: exactly one goroutine may call its
// methods at a time. Other goroutines submit mutations with Enqueue; the
// owning goroutine applies them with Flush.
type Graph interface {
	// ID returns the graph's identity. Clones get a new ID.
	//
	// Returns:
	//   - uuid.UUID: the graph ID
	ID() uuid.UUID

	// Add inserts n into the grid for its concrete type, creating the grid on
	// first use, and registers each of its draw states in the batch index.
	// The package level Add creates a typed grid; this method creates an
	// interface-typed grid when n's type has not been seen.
	//
	// Parameters:
	//   - n: the node to add
	//
	// Returns:
	//   - Iterator: an iterator at the inserted node
	Add(n node.Node) Iterator

	// Del erases the node at it and advances it to the next node. This is a
	// no-op when it is End.
	//
	// Parameters:
	//   - it: the iterator to erase at
	Del(it *Iterator)

	// Get returns the first node in the cell containing (x, z), probing grids
	// in registration order.
	//
	// Parameters:
	//   - x: the world x coordinate
	//   - z: the world z coordinate
	//
	// Returns:
	//   - Iterator: the first hit, or End
	Get(x, z float32) Iterator

	// GetNode resolves a node instance to its iterator.
	//
	// Parameters:
	//   - n: the node to find
	//
	// Returns:
	//   - Iterator: the node's position, or End
	GetNode(n node.Node) Iterator

	// GetBatch is Get restricted to grids registered under k, returning the
	// first node in the cell with a draw state keyed k.
	//
	// Parameters:
	//   - k: the batch key
	//   - x: the world x coordinate
	//   - z: the world z coordinate
	//
	// Returns:
	//   - Iterator: the first hit, or End
	GetBatch(k batch.Key, x, z float32) Iterator

	// Begin returns an iterator at the first node of the first non-empty grid.
	Begin() Iterator

	// End returns the sentinel iterator.
	End() Iterator

	// All yields every node in iteration order.
	All() iter.Seq[node.Node]

	// Draw renders every node. For each distinct batch key in ascending order
	// the key's shader, camera uniforms, textures and mesh are bound once, then
	// every grid registered under the key draws its matching nodes.
	//
	// Parameters:
	//   - cam: the camera, or nil to skip camera uniforms and culling
	//   - mode: the primitive assembly mode
	//
	// Returns:
	//   - DrawStats: counts of the work done
	Draw(cam Viewer, mode renderer.RenderMode) DrawStats

	// UpdateNode moves n between cells after its world position changed from
	// from to to. Returns true without probing when both positions fall in the
	// same cell. Moving a parent does not re-bucket its children; call
	// UpdateNode for each child with its old and new world positions.
	//
	// Parameters:
	//   - n: the node that moved
	//   - from: its previous position
	//   - to: its new position
	//
	// Returns:
	//   - bool: true if the node is bucketed for to afterwards
	UpdateNode(n node.Node, from, to mgl32.Vec3) bool

	// Reindex rebuilds the batch index from the current draw states of every
	// node. Call it after changing a stored node's shaders or draw states.
	Reindex()

	// Clear removes every node. Grids stay registered.
	Clear()

	// Clone deep-copies every grid and node, rebuilds the batch index, and
	// relinks parents that point at nodes inside the graph onto their copies.
	//
	// Returns:
	//   - Graph: the copy
	Clone() Graph

	// Len returns the number of stored nodes.
	Len() int

	// Storages returns the number of registered grids.
	Storages() int

	// Batches returns the number of distinct batch keys.
	Batches() int

	// BatchEntries returns the number of grids registered under k.
	BatchEntries(k batch.Key) int

	// World returns the physics world bodies are registered with.
	World() physics.World

	// Step advances the physics world, copies body transforms into their nodes
	// and re-buckets nodes that changed cells.
	//
	// Parameters:
	//   - dt: the elapsed time in seconds
	Step(dt float32)

	// Prepare refreshes the cached local matrix of every node, in parallel for
	// large graphs. It does not change grid membership.
	Prepare()

	// Enqueue submits a mutation to be applied by the next Flush. It is safe
	// to call from any goroutine.
	//
	// Parameters:
	//   - fn: the mutation
	//
	// Returns:
	//   - bool: false if the queue is full and fn was dropped
	Enqueue(fn func(Graph)) bool

	// Flush applies the mutations queued when it is called, on the calling
	// goroutine. Mutations enqueued by those updates wait for the next Flush.
	//
	// Returns:
	//   - int: the number of mutations applied
	Flush() int

	// Close clears the graph and closes its physics world.
	Close()

	insert(typ reflect.Type, n node.Node, create func() grid.Storage) Iterator
	storageOf(typ reflect.Type) grid.Storage
}

type ref struct {
	key     batch.Key
	storage grid.Storage
}

type graph struct {
	id uuid.UUID

	gridOptions []grid.GridBuilderOption
	cellSize    float32

	// storages in registration order; types and slots index into it.
	storages []grid.Storage
	types    map[reflect.Type]int
	slots    map[grid.Storage]int

	index    batch.Index[grid.Storage]
	refs     map[ref]int
	bindings map[batch.Key]batch.Binding

	world    physics.World
	newWorld func() physics.World

	updates chan func(Graph)

	prepareWorkers   int
	prepareThreshold int
	preparePool      worker.DynamicWorkerPool
	poolReady        bool
}

var _ Graph = &graph{}

// NewGraph creates an empty Graph configured with the given options.
//
// Parameters:
//   - options: functional options to configure the graph
//
// Returns:
//   - Graph: the new graph
func NewGraph(options ...GraphBuilderOption) Graph {
	g := &graph{
		id:               uuid.New(),
		cellSize:         grid.DefaultCellSize,
		types:            make(map[reflect.Type]int),
		slots:            make(map[grid.Storage]int),
		refs:             make(map[ref]int),
		bindings:         make(map[batch.Key]batch.Binding),
		newWorld:         func() physics.World { return physics.NewNullWorld() },
		updates:          make(chan func(Graph), DefaultUpdateQueue),
		prepareWorkers:   max(runtime.NumCPU()-1, 1),
		prepareThreshold: DefaultPrepareThreshold,
	}
	for _, option := range options {
		option(g)
	}
	if g.world == nil {
		g.world = g.newWorld()
	}
	return g
}

// Add inserts n into the grid.Grid[T] of the graph, creating the grid the
// first time T is seen. See Graph.Add.
//
// Parameters:
//   - g: the graph
//   - n: the node to add
//
// Returns:
//   - Iterator: an iterator at the inserted node
func Add[T node.Node](g Graph, n T) Iterator {
	return g.insert(reflect.TypeOf(n), n, func() grid.Storage {
		return grid.NewGrid[T](gridOptionsOf(g)...)
	})
}

// GridOf returns the typed grid holding nodes of type T, or nil if T has no
// grid or its grid was created by the untyped Graph.Add.
func GridOf[T node.Node](g Graph) *grid.Grid[T] {
	s := g.storageOf(reflect.TypeFor[T]())
	typed, _ := s.(*grid.Grid[T])
	return typed
}

func gridOptionsOf(g Graph) []grid.GridBuilderOption {
	if impl, ok := g.(*graph); ok {
		return impl.gridOptions
	}
	return nil
}

func (g *graph) ID() uuid.UUID {
	return g.id
}

func (g *graph) storageOf(typ reflect.Type) grid.Storage {
	if i, ok := g.types[typ]; ok {
		return g.storages[i]
	}
	return nil
}

func (g *graph) register(typ reflect.Type, s grid.Storage) int {
	g.storages = append(g.storages, s)
	i := len(g.storages) - 1
	g.types[typ] = i
	g.slots[s] = i
	logs.WithTag("graph", g.id).
		WithTag("type", typ.String()).
		Debug("created storage")
	return i
}

func (g *graph) insert(typ reflect.Type, n node.Node, create func() grid.Storage) Iterator {
	if n == nil {
		return g.End()
	}
	i, ok := g.types[typ]
	if !ok {
		i = g.register(typ, create())
	}
	s := g.storages[i]
	inner, ok := s.Insert(n)
	if !ok {
		logs.WithTag("graph", g.id).
			WithTag("type", typ.String()).
			Warn("node rejected by its storage")
		return g.End()
	}
	g.index1(n, s)
	g.world.AddBody(n.RigidBody())
	return Iterator{g: g, idx: i, inner: inner}
}

func (g *graph) Add(n node.Node) Iterator {
	if n == nil {
		return g.End()
	}
	return g.insert(reflect.TypeOf(n), n, func() grid.Storage {
		return grid.NewGrid[node.Node](g.gridOptions...)
	})
}

// distinctKeys returns the keys of n's draw states without duplicates, with
// the index of the first draw state using each.
func distinctKeys(n node.Node) ([]batch.Key, []int) {
	keys := node.Keys(n)
	out, first := keys[:0:0], []int(nil)
	for i, k := range keys {
		seen := false
		for _, o := range out {
			if o == k {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, k)
			first = append(first, i)
		}
	}
	return out, first
}

// index1 registers n's draw states for storage s.
func (g *graph) index1(n node.Node, s grid.Storage) {
	keys, first := distinctKeys(n)
	states := n.DrawStates()
	for j, k := range keys {
		g.refs[ref{key: k, storage: s}]++
		g.index.Insert(k, s)
		if _, ok := g.bindings[k]; !ok {
			i := first[j]
			g.bindings[k] = batch.NewBinding(n.Shader(i), states[i])
		}
	}
	for i, ds := range states {
		if dropped := ds.Dropped(); dropped > 0 {
			logs.WithTag("graph", g.id).
				WithTag("draw_state", i).
				WithTag("dropped", dropped).
				WithTag("max", batch.MaxTextures).
				Warn("draw state exceeds texture unit limit, extra textures ignored")
		}
	}
}

// unindex1 drops n's draw state registrations for storage s.
func (g *graph) unindex1(n node.Node, s grid.Storage) {
	keys, _ := distinctKeys(n)
	for _, k := range keys {
		r := ref{key: k, storage: s}
		c, ok := g.refs[r]
		if !ok {
			continue
		}
		if c > 1 {
			g.refs[r] = c - 1
			continue
		}
		delete(g.refs, r)
		g.index.Remove(k, s)
		if g.index.Count(k) == 0 {
			delete(g.bindings, k)
		}
	}
}

func (g *graph) Del(it *Iterator) {
	if it == nil || it.IsEnd() || it.g != g {
		return
	}
	s := g.storages[it.idx]
	if n := it.inner.Node(); n != nil {
		g.unindex1(n, s)
		g.world.RemoveBody(n.RigidBody())
	}
	s.Del(&it.inner)
	if it.inner.IsEnd() {
		*it = g.firstFrom(it.idx + 1)
	}
}

func (g *graph) firstFrom(idx int) Iterator {
	for i := idx; i < len(g.storages); i++ {
		if inner := g.storages[i].Begin(); !inner.IsEnd() {
			return Iterator{g: g, idx: i, inner: inner}
		}
	}
	return g.End()
}

func (g *graph) Begin() Iterator {
	return g.firstFrom(0)
}

func (g *graph) End() Iterator {
	return Iterator{g: g, idx: len(g.storages)}
}

func (g *graph) wrap(idx int, inner grid.Iterator) Iterator {
	if inner.IsEnd() {
		return g.End()
	}
	return Iterator{g: g, idx: idx, inner: inner}
}

func (g *graph) Get(x, z float32) Iterator {
	for i, s := range g.storages {
		if it := s.Find(x, z); !it.IsEnd() {
			return g.wrap(i, it)
		}
	}
	return g.End()
}

func (g *graph) GetNode(n node.Node) Iterator {
	if n == nil {
		return g.End()
	}
	if i, ok := g.types[reflect.TypeOf(n)]; ok {
		if it := g.storages[i].FindNode(n); !it.IsEnd() {
			return g.wrap(i, it)
		}
	}
	for i, s := range g.storages {
		if it := s.FindNode(n); !it.IsEnd() {
			return g.wrap(i, it)
		}
	}
	return g.End()
}

func (g *graph) GetBatch(k batch.Key, x, z float32) Iterator {
	for _, s := range g.index.EqualRange(k) {
		if it := s.FindBatch(k, x, z); !it.IsEnd() {
			return g.wrap(g.slots[s], it)
		}
	}
	return g.End()
}

func (g *graph) All() iter.Seq[node.Node] {
	return func(yield func(node.Node) bool) {
		for it := g.Begin(); !it.IsEnd(); it.Next() {
			if !yield(it.Node()) {
				return
			}
		}
	}
}

func (g *graph) Draw(cam Viewer, mode renderer.RenderMode) DrawStats {
	var stats DrawStats
	var frustum *common.Frustum
	var view, projection, viewProjection mgl32.Mat4
	if cam != nil {
		f := cam.Frustum()
		frustum = &f
		view, projection, viewProjection = cam.View(), cam.Projection(), cam.ViewProjection()
	}

	for k, storages := range g.index.Groups() {
		b := g.bindings[k]
		b.Bind()
		if b.Shader != nil && cam != nil {
			b.Shader.Set("view", view)
			b.Shader.Set("projection", projection)
			b.Shader.Set("viewProjection", viewProjection)
		}

		var res grid.DrawResult
		for _, s := range storages {
			res.Add(s.Draw(grid.DrawPass{Key: k, Shader: b.Shader, Mode: mode, Frustum: frustum}))
			stats.Storages++
		}
		b.Unbind()

		stats.Batches++
		stats.Nodes += res.Nodes
		stats.Culled += res.Culled
	}
	return stats
}

func (g *graph) UpdateNode(n node.Node, from, to mgl32.Vec3) bool {
	if n == nil {
		return false
	}
	own, ok := g.types[reflect.TypeOf(n)]
	cellSize := g.cellSize
	if ok {
		cellSize = g.storages[own].CellSize()
	}
	if grid.KeyFor(from[0], from[2], cellSize) == grid.KeyFor(to[0], to[2], cellSize) {
		return true
	}
	if ok && g.storages[own].UpdateNode(n, from, to) {
		return true
	}
	for i, s := range g.storages {
		if ok && i == own {
			continue
		}
		if s.UpdateNode(n, from, to) {
			return true
		}
	}
	return false
}

func (g *graph) Reindex() {
	g.index.Clear()
	clear(g.refs)
	clear(g.bindings)
	for _, s := range g.storages {
		s.Each(func(n node.Node) bool {
			g.index1(n, s)
			return true
		})
	}
}

func (g *graph) Clear() {
	for _, s := range g.storages {
		s.Each(func(n node.Node) bool {
			g.world.RemoveBody(n.RigidBody())
			return true
		})
		s.Clear()
	}
	g.index.Clear()
	clear(g.refs)
	clear(g.bindings)
}

func (g *graph) Clone() Graph {
	c := &graph{
		id:               uuid.New(),
		gridOptions:      g.gridOptions,
		cellSize:         g.cellSize,
		storages:         make([]grid.Storage, len(g.storages)),
		types:            make(map[reflect.Type]int, len(g.types)),
		slots:            make(map[grid.Storage]int, len(g.slots)),
		refs:             make(map[ref]int, len(g.refs)),
		bindings:         make(map[batch.Key]batch.Binding, len(g.bindings)),
		newWorld:         g.newWorld,
		world:            g.newWorld(),
		updates:          make(chan func(Graph), cap(g.updates)),
		prepareWorkers:   g.prepareWorkers,
		prepareThreshold: g.prepareThreshold,
	}
	for typ, i := range g.types {
		c.types[typ] = i
	}

	copies := make(map[*node.Base]*node.Base, g.Len())
	var cloned []node.Node
	for i, s := range g.storages {
		cs := s.Clone()
		c.storages[i] = cs
		c.slots[cs] = i

		var orig []node.Node
		s.Each(func(n node.Node) bool {
			orig = append(orig, n)
			return true
		})
		j := 0
		cs.Each(func(n node.Node) bool {
			copies[orig[j].Transform()] = n.Transform()
			cloned = append(cloned, n)
			j++
			return true
		})
	}

	for _, n := range cloned {
		base := n.Transform()
		if p, ok := copies[base.Parent()]; ok && p != nil {
			if err := base.SetParent(p); err != nil {
				logs.Warn(errors.New("relinking cloned parent failed").
					WithTag("graph", c.id).
					Wrap(err))
			}
		}
		c.world.AddBody(n.RigidBody())
	}
	c.Reindex()

	logs.WithTag("graph", g.id).
		WithTag("clone", c.id).
		WithTag("nodes", len(cloned)).
		Debug("cloned graph")
	return c
}

func (g *graph) Len() int {
	total := 0
	for _, s := range g.storages {
		total += s.Len()
	}
	return total
}

func (g *graph) Storages() int {
	return len(g.storages)
}

func (g *graph) Batches() int {
	return g.index.Distinct()
}

func (g *graph) BatchEntries(k batch.Key) int {
	return g.index.Count(k)
}

func (g *graph) World() physics.World {
	return g.world
}

func (g *graph) Step(dt float32) {
	g.world.Step(dt)

	type moved struct {
		n    node.Node
		from mgl32.Vec3
	}
	var pending []moved
	for n := range g.All() {
		if n.RigidBody() != nil {
			pending = append(pending, moved{n: n, from: n.Transform().WorldPosition()})
		}
	}
	for _, m := range pending {
		m.n.Transform().SyncBody()
		g.UpdateNode(m.n, m.from, m.n.Transform().WorldPosition())
	}
}

func (g *graph) Close() {
	g.Clear()
	g.world.Close()
}
