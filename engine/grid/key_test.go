package grid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackRoundTrip(t *testing.T) {
	for _, a := range []uint32{0, 1, 255, MaxFirst / 2, MaxFirst - 1} {
		for _, b := range []uint32{0, 1, 77, MaxFirst, 1 << 30} {
			k := Pack(a, b)
			gotA, gotB := k.Unpack()
			require.Equal(t, a, gotA)
			require.Equal(t, b, gotB)
		}
	}
}

func TestPackPanicsOnOverflow(t *testing.T) {
	require.Panics(t, func() { Pack(MaxFirst, 0) })
}

func TestSetFirstAndSecond(t *testing.T) {
	k := Pack(3, 9)
	k.SetFirst(12)
	require.Equal(t, Pack(12, 9), k)
	k.SetSecond(40)
	require.Equal(t, Pack(12, 40), k)
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		x, z   float32
		cx, cz int32
	}{
		{0, 0, 0, 0},
		{63.9, 5, 0, 0},
		{64, 0, 1, 0},
		{70, 0, 1, 0},
		{0, 70, 0, 1},
		{-0.5, -64, -1, -1},
		{-64.1, 0, -2, 0},
		{1e12, -1e12, CellBias - 1, -CellBias},
	}
	for _, test := range tests {
		cx, cz := KeyFor(test.x, test.z, 64).Cell()
		require.Equal(t, test.cx, cx, "x=%v", test.x)
		require.Equal(t, test.cz, cz, "z=%v", test.z)
	}
	require.Equal(t, "(1,-2)", CellKey(1, -2).String())
}
