package scene

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/grid"
	"github.com/Carmen-Shannon/oxy-scene/engine/node"
)

// Iterator walks every node of a Graph, one grid after another in
// registration order. Any Add or Del other than Del through the iterator
// itself invalidates it.
type Iterator struct {
	g     *graph
	idx   int
	inner grid.Iterator
}

// IsEnd reports whether it is past the last node of the graph.
func (it Iterator) IsEnd() bool {
	return it.g == nil || it.idx >= len(it.g.storages) || it.inner.IsEnd()
}

// Node returns the node at it, or nil at End.
func (it Iterator) Node() node.Node {
	if it.IsEnd() {
		return nil
	}
	return it.inner.Node()
}

// Storage returns the grid holding the current node, or nil at End.
func (it Iterator) Storage() grid.Storage {
	if it.IsEnd() {
		return nil
	}
	return it.inner.Storage()
}

// Next advances it to the following node, crossing into the next non-empty
// grid when the current one is exhausted.
func (it *Iterator) Next() {
	if it.IsEnd() {
		return
	}
	it.inner.Next()
	if it.inner.IsEnd() {
		*it = it.g.firstFrom(it.idx + 1)
	}
}

// Equal reports whether both iterators are at the same node, or both are the
// End of the same graph.
func (it Iterator) Equal(o Iterator) bool {
	if it.IsEnd() || o.IsEnd() {
		return it.IsEnd() && o.IsEnd() && it.g == o.g
	}
	return it.g == o.g && it.idx == o.idx && it.inner.Equal(o.inner)
}
