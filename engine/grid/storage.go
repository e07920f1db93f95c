// Package grid implements spatially bucketed node storage.
//
// A Grid[T] stores nodes of one concrete type in square cells on the x/z
// plane. Storage erases the concrete type so a scene graph can hold grids of
// many node types side by side.
package grid

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/batch"
	"github.com/Carmen-Shannon/oxy-scene/engine/node"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

// Storage is a collection of nodes of one concrete type. Lookups that miss
// return End rather than an error.
//
// A Storage is not safe for concurrent use.
type Storage interface {
	// Clone returns a deep copy of the storage with every node cloned.
	//
	// Returns:
	//   - Storage: the copy, with the same bucket and node order
	Clone() Storage

	// Insert adds n to the cell containing its position.
	//
	// Parameters:
	//   - n: the node to add, must be of the storage's concrete type
	//
	// Returns:
	//   - Iterator: an iterator at the inserted node
	//   - bool: false if n is not of the storage's concrete type
	Insert(n node.Node) (Iterator, bool)

	// Begin returns an iterator at the first node, or End when empty.
	Begin() Iterator

	// End returns the sentinel iterator.
	End() Iterator

	// Find returns an iterator at the first node in the cell containing (x, z).
	//
	// Parameters:
	//   - x: the world x coordinate
	//   - z: the world z coordinate
	//
	// Returns:
	//   - Iterator: the first node of the cell, or End if the cell is empty or unmapped
	Find(x, z float32) Iterator

	// FindBatch is Find restricted to nodes with a draw state whose key is k.
	//
	// Parameters:
	//   - k: the batch key to match
	//   - x: the world x coordinate
	//   - z: the world z coordinate
	//
	// Returns:
	//   - Iterator: the first matching node of the cell, or End
	FindBatch(k batch.Key, x, z float32) Iterator

	// FindNode returns an iterator at node n by identity. The node's current
	// cell is searched first, then every cell.
	//
	// Parameters:
	//   - n: the node to locate
	//
	// Returns:
	//   - Iterator: the node's position, or End if it is not stored here
	FindNode(n node.Node) Iterator

	// Del erases the node at it. Afterwards it refers to the node moved into
	// the erased slot, the first node of the next non-empty cell, or End.
	// Deleting with End or an iterator from another storage is a no-op.
	//
	// Parameters:
	//   - it: the iterator to erase at and advance
	Del(it *Iterator)

	// Clear removes every node.
	Clear()

	// Draw renders every node with a draw state whose key is pass.Key. State
	// binding is the caller's responsibility.
	//
	// Parameters:
	//   - pass: the key, shader, mode and optional frustum of the batch
	//
	// Returns:
	//   - DrawResult: counts of drawn nodes and culled cells
	Draw(pass DrawPass) DrawResult

	// UpdateNode moves n from the cell containing from to the cell containing
	// to, if n currently lives in from's cell.
	//
	// Parameters:
	//   - n: the node to move
	//   - from: the position n was bucketed at
	//   - to: the new position
	//
	// Returns:
	//   - bool: true if n was found in from's cell and moved
	UpdateNode(n node.Node, from, to mgl32.Vec3) bool

	// Each calls fn for every node until fn returns false.
	Each(fn func(node.Node) bool)

	// Len returns the number of stored nodes.
	Len() int

	// Cells returns the number of allocated cells, including empty ones.
	Cells() int

	// CellSize returns the edge length of a cell.
	CellSize() float32

	at(cell, pos int) node.Node
	next(cell, pos int) (int, int)
}

// DrawPass describes one batch for Storage.Draw.
type DrawPass struct {
	Key    batch.Key
	Shader renderer.Shader
	Mode   renderer.RenderMode

	// Frustum, when set, lets storages skip cells outside the view for keys
	// with the culling flag.
	Frustum *common.Frustum
}

// DrawResult reports the work done by Storage.Draw.
type DrawResult struct {
	Nodes  int
	Culled int
}

// Add accumulates o into r.
func (r *DrawResult) Add(o DrawResult) {
	r.Nodes += o.Nodes
	r.Culled += o.Culled
}

// Iterator is a forward iterator over one Storage. Iterators are values:
// copying one yields an independent position. An iterator is invalidated by
// any insertion or deletion other than Del through itself.
type Iterator struct {
	src  Storage
	cell int
	pos  int
}

const endCell = -1

func endOf(s Storage) Iterator {
	return Iterator{src: s, cell: endCell}
}

// IsEnd reports whether it is past the last node.
func (it Iterator) IsEnd() bool {
	return it.src == nil || it.cell == endCell
}

// Node returns the node at it, or nil at End.
func (it Iterator) Node() node.Node {
	if it.IsEnd() {
		return nil
	}
	return it.src.at(it.cell, it.pos)
}

// Next advances it to the following node or End.
func (it *Iterator) Next() {
	if it.IsEnd() {
		return
	}
	it.cell, it.pos = it.src.next(it.cell, it.pos)
}

// Storage returns the storage it iterates.
func (it Iterator) Storage() Storage {
	return it.src
}

// Equal reports whether both iterators refer to the same position of the
// same storage. Two End iterators are equal only if they belong to the same
// storage.
func (it Iterator) Equal(o Iterator) bool {
	return it == o
}
