package node

import (
	"math"
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl32"
)

// Format selects how transforms are written as text.
type Format int

const (
	// FullPrecision writes each field as the shortest decimal that reads back
	// to the same float32.
	FullPrecision Format = iota

	// FixedPoint writes each field multiplied by FixedPointScale and rounded to
	// an integer. This is the legacy scene file format; values are quantized
	// to 1/FixedPointScale.
	FixedPoint
)

// FixedPointScale is the quantization factor of the FixedPoint format.
const FixedPointScale = 100

// String returns the configuration name of the format.
func (f Format) String() string {
	if f == FixedPoint {
		return "fixed"
	}
	return "full"
}

// ParseFormat parses "full" or "fixed". Any other value selects FullPrecision.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "fixed") {
		return FixedPoint
	}
	return FullPrecision
}

// Record field counts accepted by ParseRecord.
const (
	fieldsNoScale   = 7
	fieldsWithScale = 10
)

// AppendRecord appends the text record of n's transform to dst, terminated
// by a newline. The field order is: x y z qx qy qz qw sx sy sz.
//
// Parameters:
//   - dst: the buffer to append to
//   - n: the node to encode
//   - f: the number format
//
// Returns:
//   - []byte: the extended buffer
func AppendRecord(dst []byte, n Node, f Format) []byte {
	p, q, s := n.Position(), n.Orientation(), n.Scale()
	fields := [fieldsWithScale]float32{p[0], p[1], p[2], q.V[0], q.V[1], q.V[2], q.W, s[0], s[1], s[2]}
	for i, v := range fields {
		if i > 0 {
			dst = append(dst, ' ')
		}
		if f == FixedPoint {
			dst = strconv.AppendInt(dst, int64(math.Round(float64(v)*FixedPointScale)), 10)
		} else {
			dst = strconv.AppendFloat(dst, float64(v), 'g', -1, 32)
		}
	}
	return append(dst, '\n')
}

// ParseRecord decodes one text record into n's transform. Records hold 7
// fields (position and orientation, unit scale) or 10 fields (with scale).
//
// Parameters:
//   - line: the record without its trailing newline
//   - n: the node to update
//   - f: the number format
//
// Returns:
//   - error: an ErrTypeDecode error if the record is malformed; n is left unchanged
func ParseRecord(line string, n Node, f Format) error {
	fields := strings.Fields(line)
	if len(fields) != fieldsNoScale && len(fields) != fieldsWithScale {
		return errors.Newf("transform record has %d fields, want %d or %d", len(fields), fieldsNoScale, fieldsWithScale).
			WithType(ErrTypeDecode)
	}

	vals := [fieldsWithScale]float32{7: 1, 8: 1, 9: 1}
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return errors.New("invalid transform field").
				WithType(ErrTypeDecode).
				WithTag("field", i).
				WithTag("value", field).
				Wrap(err)
		}
		if f == FixedPoint {
			v /= FixedPointScale
		}
		vals[i] = float32(v)
	}

	q := mgl32.Quat{W: vals[6], V: mgl32.Vec3{vals[3], vals[4], vals[5]}}
	if q.Len() == 0 {
		return errors.New("transform orientation is a zero quaternion").WithType(ErrTypeDecode)
	}

	n.SetPosition(mgl32.Vec3{vals[0], vals[1], vals[2]})
	n.SetOrientation(q)
	n.SetScale(mgl32.Vec3{vals[7], vals[8], vals[9]})
	return nil
}
