package grid

import (
	"iter"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/batch"
	"github.com/Carmen-Shannon/oxy-scene/engine/node"
)

type bucket[T node.Node] struct {
	key   PackedKey
	nodes []T
}

// Grid stores nodes of type T in cells keyed by PackedKey. Nodes are bucketed
// by the x and z components of Position at insertion time and are only moved
// by UpdateNode; a node whose position changes without UpdateNode is missed by
// spatial lookups.
//
// Cells are iterated in creation order and nodes within a cell in slot order.
// Erasing swaps the last node of the cell into the erased slot, so order
// within a cell is not preserved across deletions.
type Grid[T node.Node] struct {
	settings
	buckets []bucket[T]
	index   map[PackedKey]int
	size    int
}

var _ Storage = &Grid[*node.Static]{}

// NewGrid creates an empty Grid configured with the given options.
//
// Parameters:
//   - options: functional options to configure the grid
//
// Returns:
//   - *Grid[T]: the new grid
func NewGrid[T node.Node](options ...GridBuilderOption) *Grid[T] {
	g := &Grid[T]{
		settings: defaultSettings(),
		index:    make(map[PackedKey]int),
	}
	for _, option := range options {
		option(&g.settings)
	}
	if !(g.cellSize > 0) {
		panic("grid: NewGrid requires a positive cell size")
	}
	return g
}

// Key returns the key of the cell containing (x, z).
func (g *Grid[T]) Key(x, z float32) PackedKey {
	return KeyFor(x, z, g.cellSize)
}

func (g *Grid[T]) keyOf(p mgl32.Vec3) PackedKey {
	return KeyFor(p[0], p[2], g.cellSize)
}

func (g *Grid[T]) bucketFor(k PackedKey) int {
	if i, ok := g.index[k]; ok {
		return i
	}
	g.buckets = append(g.buckets, bucket[T]{key: k})
	g.index[k] = len(g.buckets) - 1
	return len(g.buckets) - 1
}

func (g *Grid[T]) Clone() Storage {
	c := &Grid[T]{
		settings: g.settings,
		buckets:  make([]bucket[T], len(g.buckets)),
		index:    make(map[PackedKey]int, len(g.index)),
		size:     g.size,
	}
	for i, b := range g.buckets {
		nodes := make([]T, len(b.nodes))
		for j, n := range b.nodes {
			nodes[j] = n.Clone().(T)
		}
		c.buckets[i] = bucket[T]{key: b.key, nodes: nodes}
		c.index[b.key] = i
	}
	return c
}

// Add inserts t in the cell containing its world position.
//
// Parameters:
//   - t: the node to add
//
// Returns:
//   - Iterator: an iterator at t
func (g *Grid[T]) Add(t T) Iterator {
	i := g.bucketFor(g.keyOf(t.Transform().WorldPosition()))
	g.buckets[i].nodes = append(g.buckets[i].nodes, t)
	g.size++
	return Iterator{src: g, cell: i, pos: len(g.buckets[i].nodes) - 1}
}

func (g *Grid[T]) Insert(n node.Node) (Iterator, bool) {
	t, ok := n.(T)
	if !ok {
		return g.End(), false
	}
	return g.Add(t), true
}

func (g *Grid[T]) firstFrom(cell int) Iterator {
	for i := cell; i < len(g.buckets); i++ {
		if len(g.buckets[i].nodes) > 0 {
			return Iterator{src: g, cell: i}
		}
	}
	return g.End()
}

func (g *Grid[T]) Begin() Iterator {
	return g.firstFrom(0)
}

func (g *Grid[T]) End() Iterator {
	return endOf(g)
}

func (g *Grid[T]) Find(x, z float32) Iterator {
	i, ok := g.index[g.Key(x, z)]
	if !ok || len(g.buckets[i].nodes) == 0 {
		return g.End()
	}
	return Iterator{src: g, cell: i}
}

func (g *Grid[T]) FindBatch(k batch.Key, x, z float32) Iterator {
	i, ok := g.index[g.Key(x, z)]
	if !ok {
		return g.End()
	}
	for pos, n := range g.buckets[i].nodes {
		if hasKey(n, k) {
			return Iterator{src: g, cell: i, pos: pos}
		}
	}
	return g.End()
}

func hasKey(n node.Node, k batch.Key) bool {
	for i, ds := range n.DrawStates() {
		if batch.NewKey(n.Shader(i), ds) == k {
			return true
		}
	}
	return false
}

func (g *Grid[T]) indexIn(cell int, n node.Node) int {
	for pos, t := range g.buckets[cell].nodes {
		if t.Transform() == n.Transform() {
			return pos
		}
	}
	return -1
}

func (g *Grid[T]) FindNode(n node.Node) Iterator {
	if n == nil {
		return g.End()
	}
	home, ok := g.index[g.keyOf(n.Transform().WorldPosition())]
	if ok {
		if pos := g.indexIn(home, n); pos >= 0 {
			return Iterator{src: g, cell: home, pos: pos}
		}
	}
	for cell := range g.buckets {
		if ok && cell == home {
			continue
		}
		if pos := g.indexIn(cell, n); pos >= 0 {
			return Iterator{src: g, cell: cell, pos: pos}
		}
	}
	return g.End()
}

// removeAt swap-erases the node at (cell, pos) and returns it.
func (g *Grid[T]) removeAt(cell, pos int) T {
	nodes := g.buckets[cell].nodes
	last := len(nodes) - 1
	removed := nodes[pos]
	nodes[pos] = nodes[last]
	var zero T
	nodes[last] = zero
	g.buckets[cell].nodes = nodes[:last]
	g.size--
	return removed
}

func (g *Grid[T]) Del(it *Iterator) {
	if it == nil || it.IsEnd() || it.src != Storage(g) {
		return
	}
	if it.cell >= len(g.buckets) || it.pos >= len(g.buckets[it.cell].nodes) {
		*it = g.End()
		return
	}
	g.removeAt(it.cell, it.pos)
	if it.pos < len(g.buckets[it.cell].nodes) {
		return
	}
	*it = g.firstFrom(it.cell + 1)
}

func (g *Grid[T]) Clear() {
	clear(g.buckets)
	g.buckets = g.buckets[:0]
	clear(g.index)
	g.size = 0
}

// CellBounds returns the box covered by the cell k, using the configured
// vertical extent and cull margin.
func (g *Grid[T]) CellBounds(k PackedKey) common.AABB {
	cx, cz := k.Cell()
	x0, z0 := float32(cx)*g.cellSize, float32(cz)*g.cellSize
	return common.AABB{
		Min: mgl32.Vec3{x0, g.minY, z0},
		Max: mgl32.Vec3{x0 + g.cellSize, g.maxY, z0 + g.cellSize},
	}.Grow(g.margin)
}

func (g *Grid[T]) Draw(pass DrawPass) DrawResult {
	var res DrawResult
	cull := pass.Frustum != nil && pass.Key.Cull
	for _, b := range g.buckets {
		if len(b.nodes) == 0 {
			continue
		}
		culled := cull && !pass.Frustum.IntersectsAABB(g.CellBounds(b.key))
		if culled {
			res.Culled++
		}
		for _, n := range b.nodes {
			// A parent may have carried its child out of the cell it was
			// bucketed in, so parented nodes are never cell culled.
			if culled && n.Transform().Parent() == nil {
				continue
			}
			for i, ds := range n.DrawStates() {
				if ds.Mesh == nil || batch.NewKey(n.Shader(i), ds) != pass.Key {
					continue
				}
				if pass.Shader != nil {
					pass.Shader.Set("model", n.Model())
				}
				ds.Mesh.Draw(pass.Mode)
				res.Nodes++
			}
		}
	}
	return res
}

func (g *Grid[T]) UpdateNode(n node.Node, from, to mgl32.Vec3) bool {
	if n == nil {
		return false
	}
	fk := g.keyOf(from)
	cell, ok := g.index[fk]
	if !ok {
		return false
	}
	pos := g.indexIn(cell, n)
	if pos < 0 {
		return false
	}
	tk := g.keyOf(to)
	if tk == fk {
		return true
	}
	t := g.removeAt(cell, pos)
	dst := g.bucketFor(tk)
	g.buckets[dst].nodes = append(g.buckets[dst].nodes, t)
	g.size++
	return true
}

func (g *Grid[T]) Each(fn func(node.Node) bool) {
	for _, b := range g.buckets {
		for _, n := range b.nodes {
			if !fn(n) {
				return
			}
		}
	}
}

// All yields every node with its concrete type.
func (g *Grid[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, b := range g.buckets {
			for _, n := range b.nodes {
				if !yield(n) {
					return
				}
			}
		}
	}
}

// CellKeys returns the keys of every non-empty cell in iteration order.
func (g *Grid[T]) CellKeys() []PackedKey {
	keys := make([]PackedKey, 0, len(g.buckets))
	for _, b := range g.buckets {
		if len(b.nodes) > 0 {
			keys = append(keys, b.key)
		}
	}
	return keys
}

// CellLen returns the number of nodes in cell k.
func (g *Grid[T]) CellLen(k PackedKey) int {
	if i, ok := g.index[k]; ok {
		return len(g.buckets[i].nodes)
	}
	return 0
}

// Get returns the concrete node at it.
//
// Returns:
//   - T: the node
//   - bool: false if it is End or belongs to another storage
func (g *Grid[T]) Get(it Iterator) (T, bool) {
	var zero T
	if it.IsEnd() || it.src != Storage(g) {
		return zero, false
	}
	return g.buckets[it.cell].nodes[it.pos], true
}

func (g *Grid[T]) Len() int {
	return g.size
}

func (g *Grid[T]) Cells() int {
	return len(g.buckets)
}

func (g *Grid[T]) CellSize() float32 {
	return g.cellSize
}

func (g *Grid[T]) at(cell, pos int) node.Node {
	return g.buckets[cell].nodes[pos]
}

func (g *Grid[T]) next(cell, pos int) (int, int) {
	if pos+1 < len(g.buckets[cell].nodes) {
		return cell, pos + 1
	}
	it := g.firstFrom(cell + 1)
	return it.cell, it.pos
}
