package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWriteReadRoundtrip(t *testing.T) {
	b := NewBuffer()
	b.AppendString("hello")
	assert.EqualValues(t, 5, b.WritePosition())

	got, err := b.ReadUtf8()
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestBufferPeekUnsignedByte(t *testing.T) {
	b := NewBufferFromBytes([]byte{0x10, 0x20, 0x30})
	v, ok := b.PeekUnsignedByte(1)
	require.True(t, ok)
	assert.EqualValues(t, 0x20, v)

	_, ok = b.PeekUnsignedByte(99)
	assert.False(t, ok)

	// Peeking never moves the read cursor.
	assert.EqualValues(t, 0, b.ReadPosition())
}

func TestBufferPutAndPeekUint32At(t *testing.T) {
	b := NewBuffer()
	b.SetWritePosition(8)
	b.PutUint32At(2, 0xAABBCCDD)

	v, ok := b.PeekUint32At(2)
	require.True(t, ok)
	assert.EqualValues(t, 0xAABBCCDD, v)
}

func TestBufferPutBytesAtGrowsBackingArray(t *testing.T) {
	b := NewBuffer()
	b.PutBytesAt(4, []byte{1, 2, 3, 4})
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, b.buf)
}

func TestBufferClear(t *testing.T) {
	b := NewBufferFromBytes([]byte{1, 2, 3})
	b.SetReadPosition(2)
	b.Clear()
	assert.EqualValues(t, 0, b.ReadPosition())
	assert.EqualValues(t, 0, b.WritePosition())
	assert.EqualValues(t, 0, len(b.Bytes()))
}

func TestBufferReadRemainingRespectsReadLimit(t *testing.T) {
	b := NewBufferFromBytes([]byte{1, 2, 3, 4, 5})
	b.SetReadLimit(3)
	assert.EqualValues(t, 3, b.ReadRemaining())
}
