package grid

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-scene/common"
)

// MaxFirst is the base of the PackedKey encoding. The first component of a
// key is always below MaxFirst.
const MaxFirst = 1 << 16

// CellBias maps signed cell coordinates onto unsigned key components. Cells
// outside [-CellBias, CellBias) are clamped to the border.
const CellBias = MaxFirst / 2

// PackedKey stores two bounded integers in one comparable scalar:
// first + second*MaxFirst.
type PackedKey uint64

// Pack combines a and b into a PackedKey.
//
// Parameters:
//   - a: the first component, must be below MaxFirst
//   - b: the second component
//
// Returns:
//   - PackedKey: the packed key
func Pack(a, b uint32) PackedKey {
	if a >= MaxFirst {
		panic(fmt.Sprintf("grid: Pack first component %d out of range [0, %d)", a, MaxFirst))
	}
	return PackedKey(uint64(a) + uint64(b)*MaxFirst)
}

// Unpack returns both components of k.
func (k PackedKey) Unpack() (a, b uint32) {
	return k.First(), k.Second()
}

// First returns the first component.
func (k PackedKey) First() uint32 {
	return uint32(k % MaxFirst)
}

// Second returns the second component.
func (k PackedKey) Second() uint32 {
	return uint32(k / MaxFirst)
}

// SetFirst replaces the first component and keeps the second.
func (k *PackedKey) SetFirst(a uint32) {
	*k = Pack(a, k.Second())
}

// SetSecond replaces the second component and keeps the first.
func (k *PackedKey) SetSecond(b uint32) {
	*k = Pack(k.First(), b)
}

// CellKey packs signed cell coordinates.
func CellKey(cx, cz int32) PackedKey {
	return Pack(bias(cx), bias(cz))
}

// Cell returns the signed cell coordinates encoded by a key built with
// CellKey or KeyFor.
func (k PackedKey) Cell() (cx, cz int32) {
	return int32(k.First()) - CellBias, int32(k.Second()) - CellBias
}

// String formats the key as its signed cell coordinates.
func (k PackedKey) String() string {
	cx, cz := k.Cell()
	return fmt.Sprintf("(%d,%d)", cx, cz)
}

// CellOf returns the signed cell containing world coordinates (x, z).
//
// Parameters:
//   - x: the world x coordinate
//   - z: the world z coordinate
//   - cellSize: the edge length of a cell, must be positive
//
// Returns:
//   - cx, cz: floor(x/cellSize), floor(z/cellSize), clamped to the key range
func CellOf(x, z, cellSize float32) (cx, cz int32) {
	return cellCoord(x, cellSize), cellCoord(z, cellSize)
}

// KeyFor returns the key of the cell containing world coordinates (x, z).
func KeyFor(x, z, cellSize float32) PackedKey {
	return CellKey(CellOf(x, z, cellSize))
}

func cellCoord(v, cellSize float32) int32 {
	c := math32.Floor(v / cellSize)
	if math32.IsNaN(c) {
		return 0
	}
	return int32(common.Clamp(c, -CellBias, CellBias-1))
}

func bias(c int32) uint32 {
	return uint32(common.Clamp(c, -CellBias, CellBias-1) + CellBias)
}
