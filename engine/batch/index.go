package batch

import (
	"iter"
	"sort"
)

type entry[S comparable] struct {
	key Key
	val S
}

// Index is an ordered multimap from Key to values of type S. Entries with
// equal keys are adjacent and keep insertion order. A (key, value) pair is
// stored at most once.
//
// The zero Index is empty and ready to use.
type Index[S comparable] struct {
	entries []entry[S]
}

// lowerBound returns the first position whose key is not less than k.
func (x *Index[S]) lowerBound(k Key) int {
	return sort.Search(len(x.entries), func(i int) bool {
		return x.entries[i].key.Compare(k) >= 0
	})
}

// upperBound returns the first position whose key is greater than k.
func (x *Index[S]) upperBound(k Key) int {
	return sort.Search(len(x.entries), func(i int) bool {
		return x.entries[i].key.Compare(k) > 0
	})
}

// Insert adds the pair (k, v) unless it is already present.
//
// Parameters:
//   - k: the batch key
//   - v: the value to associate with k
//
// Returns:
//   - bool: true if the pair was added, false if it was already present
func (x *Index[S]) Insert(k Key, v S) bool {
	lo, hi := x.lowerBound(k), x.upperBound(k)
	for i := lo; i < hi; i++ {
		if x.entries[i].val == v {
			return false
		}
	}
	x.entries = append(x.entries, entry[S]{})
	copy(x.entries[hi+1:], x.entries[hi:])
	x.entries[hi] = entry[S]{key: k, val: v}
	return true
}

// Remove deletes the pair (k, v).
//
// Returns:
//   - bool: true if the pair was present
func (x *Index[S]) Remove(k Key, v S) bool {
	lo, hi := x.lowerBound(k), x.upperBound(k)
	for i := lo; i < hi; i++ {
		if x.entries[i].val == v {
			x.entries = append(x.entries[:i], x.entries[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveValue deletes every pair whose value is v.
//
// Returns:
//   - int: the number of pairs removed
func (x *Index[S]) RemoveValue(v S) int {
	n := 0
	kept := x.entries[:0]
	for _, e := range x.entries {
		if e.val == v {
			n++
			continue
		}
		kept = append(kept, e)
	}
	clear(x.entries[len(kept):])
	x.entries = kept
	return n
}

// Contains reports whether the pair (k, v) is present.
func (x *Index[S]) Contains(k Key, v S) bool {
	for _, s := range x.EqualRange(k) {
		if s == v {
			return true
		}
	}
	return false
}

// Count returns the number of values stored under k.
func (x *Index[S]) Count(k Key) int {
	return x.upperBound(k) - x.lowerBound(k)
}

// EqualRange returns the values stored under k in insertion order. The slice
// is newly allocated.
func (x *Index[S]) EqualRange(k Key) []S {
	lo, hi := x.lowerBound(k), x.upperBound(k)
	out := make([]S, 0, hi-lo)
	for _, e := range x.entries[lo:hi] {
		out = append(out, e.val)
	}
	return out
}

// Keys yields each distinct key once in ascending order.
func (x *Index[S]) Keys() iter.Seq[Key] {
	return func(yield func(Key) bool) {
		for i, e := range x.entries {
			if i > 0 && x.entries[i-1].key == e.key {
				continue
			}
			if !yield(e.key) {
				return
			}
		}
	}
}

// Groups yields each distinct key in ascending order with the values stored
// under it. The yielded slice is only valid until the next iteration step.
func (x *Index[S]) Groups() iter.Seq2[Key, []S] {
	return func(yield func(Key, []S) bool) {
		var vals []S
		for i := 0; i < len(x.entries); {
			k := x.entries[i].key
			vals = vals[:0]
			j := i
			for ; j < len(x.entries) && x.entries[j].key == k; j++ {
				vals = append(vals, x.entries[j].val)
			}
			if !yield(k, vals) {
				return
			}
			i = j
		}
	}
}

// Len returns the number of pairs in the index.
func (x *Index[S]) Len() int {
	return len(x.entries)
}

// Distinct returns the number of distinct keys in the index.
func (x *Index[S]) Distinct() int {
	n := 0
	for range x.Keys() {
		n++
	}
	return n
}

// Clear removes every pair.
func (x *Index[S]) Clear() {
	clear(x.entries)
	x.entries = x.entries[:0]
}
