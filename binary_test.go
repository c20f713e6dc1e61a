package wire

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryDialectRoundtrip(t *testing.T) {
	body := Mapping(
		MapEntry{Name: "count", Value: Int32(17)},
		MapEntry{Name: "name", Value: Text("bark")},
		MapEntry{Name: "price", Value: Float64Value(3.14)},
		MapEntry{Name: "tags", Value: Sequence(Int8(1), Int8(2))},
	)

	w := newBinaryWire()
	out, err := w.Dump(body)
	require.NoError(t, err)

	got, err := w.Parse(out)
	require.NoError(t, err)
	assert.True(t, body.Equal(got))
}

// TestBinaryDialectLittleEndian covers spec §6.4's explicit requirement
// that the binary dialect's multi-byte integers are little-endian.
func TestBinaryDialectLittleEndian(t *testing.T) {
	w := newBinaryWire()
	out, err := w.Dump(Int32(0x01020304))
	require.NoError(t, err)

	require.Len(t, out, 5) // 1 tag byte + 4 payload bytes
	assert.Equal(t, byte(tagInt32), out[0])
	assert.EqualValues(t, 0x01020304, binary.LittleEndian.Uint32(out[1:]))
}

func TestBinaryDialectMethodIDEntry(t *testing.T) {
	body := Mapping(MapEntry{ID: 42, HasID: true, Value: Text("p")})
	w := newBinaryWire()
	out, err := w.Dump(body)
	require.NoError(t, err)

	got, err := w.Parse(out)
	require.NoError(t, err)
	entry := got.FieldByID(42)
	require.NotNil(t, entry)
	assert.Equal(t, "p", entry.Text)
}

func TestBinaryDialectPadding(t *testing.T) {
	w := newBinaryWire()
	w.UsePadding(true)
	out, err := w.Dump(Int8(1))
	require.NoError(t, err)
	assert.Zero(t, len(out)%4)
}

func TestBinaryDialectFloatRoundtrip(t *testing.T) {
	w := newBinaryWire()
	for _, f := range []float64{0, -1.5, 3.14159, 1e300} {
		out, err := w.Dump(Float64Value(f))
		require.NoError(t, err)
		got, err := w.Parse(out)
		require.NoError(t, err)
		assert.Equal(t, f, got.Float)
	}
}
