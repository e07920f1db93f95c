package node

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	q := mgl32.QuatRotate(0.7, mgl32.Vec3{0, 1, 0})
	src := NewStatic(WithPosition(12.345678, -0.5, 1e-3), WithOrientation(q), WithScale(1, 2.5, 3))

	tests := []struct {
		format Format
		tol    float64
	}{
		{FullPrecision, 0},
		{FixedPoint, 1.0 / FixedPointScale},
	}
	for _, test := range tests {
		t.Run(test.format.String(), func(t *testing.T) {
			line := AppendRecord(nil, src, test.format)
			require.Equal(t, byte('\n'), line[len(line)-1])

			dst := NewStatic()
			require.NoError(t, ParseRecord(string(line[:len(line)-1]), dst, test.format))

			for i := range 3 {
				require.InDelta(t, src.Position()[i], dst.Position()[i], test.tol)
				require.InDelta(t, src.Scale()[i], dst.Scale()[i], test.tol)
			}
			require.InDelta(t, src.Orientation().W, dst.Orientation().W, test.tol)
			if test.format == FullPrecision {
				require.Equal(t, src.Position(), dst.Position())
			}
		})
	}
}

func TestParseRecordFixedPointLegacyLine(t *testing.T) {
	n := NewStatic()
	require.NoError(t, ParseRecord("100 250 -300 0 0 0 100", n, FixedPoint))
	require.Equal(t, mgl32.Vec3{1, 2.5, -3}, n.Position())
	require.Equal(t, mgl32.Vec3{1, 1, 1}, n.Scale())
	require.Equal(t, mgl32.QuatIdent(), n.Orientation())
}

func TestParseRecordErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "1 2 3"},
		{"eight fields", "0 0 0 0 0 0 1 1"},
		{"not a number", "0 0 x 0 0 0 1"},
		{"zero quaternion", "0 0 0 0 0 0 0"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			n := NewStatic(WithPosition(7, 7, 7))
			err := ParseRecord(test.line, n, FullPrecision)
			require.Error(t, err)
			require.True(t, errors.IsType(err, ErrTypeDecode))
			require.Equal(t, mgl32.Vec3{7, 7, 7}, n.Position())
		})
	}
}

func TestParseFormat(t *testing.T) {
	require.Equal(t, FixedPoint, ParseFormat("Fixed"))
	require.Equal(t, FullPrecision, ParseFormat("full"))
	require.Equal(t, FullPrecision, ParseFormat(""))
}
