package wire

import (
	"encoding/binary"
	"io"
	"unicode/utf8"
)

// Bytes is the external collaborator contract of spec §6.1: a growable,
// random-access byte sequence with independent read and write cursors.
// It is deliberately narrow — this module only borrows a Bytes, it never
// takes ownership, matching how _examples/oy3o-codec's BytesReader and
// BytesWriter each only ever manage a single cursor over a slice they do
// not own.
type Bytes interface {
	io.Reader
	io.Writer
	io.ByteReader
	io.ByteWriter

	ReadPosition() int64
	SetReadPosition(pos int64)
	WritePosition() int64
	SetWritePosition(pos int64)
	ReadLimit() int64
	SetReadLimit(limit int64)
	ReadRemaining() int64

	Clear()
	AppendString(s string)
	PeekUnsignedByte(abs int64) (byte, bool)
	ReadUtf8() (string, error)
	WriteUtf8(s string)
	Release()
	Bytes() []byte
}

// Buffer is the module's in-memory Bytes implementation, merging the
// read-cursor and write-cursor halves that _examples/oy3o-codec keeps
// separate (BytesReader, BytesWriter) into a single growable sequence —
// the document framer (document.go) needs both cursors on the same
// backing array so it can patch an already-written header after later
// documents have been appended.
type Buffer struct {
	buf       []byte
	readPos   int64
	writePos  int64
	readLimit int64 // -1 means "track writePos"
}

var _ Bytes = (*Buffer)(nil)

// NewBuffer creates an empty, growable Buffer.
func NewBuffer() *Buffer {
	return &Buffer{readLimit: -1}
}

// NewBufferFromBytes wraps an existing slice as the Buffer's initial
// content; writePos starts at len(b) and readPos at 0.
func NewBufferFromBytes(b []byte) *Buffer {
	return &Buffer{buf: b, writePos: int64(len(b)), readLimit: -1}
}

func (b *Buffer) ReadPosition() int64       { return b.readPos }
func (b *Buffer) SetReadPosition(pos int64) { b.readPos = pos }
func (b *Buffer) WritePosition() int64      { return b.writePos }
func (b *Buffer) SetWritePosition(pos int64) {
	b.writePos = pos
	if int64(len(b.buf)) < pos {
		grown := make([]byte, pos)
		copy(grown, b.buf)
		b.buf = grown
	}
}

func (b *Buffer) ReadLimit() int64 {
	if b.readLimit >= 0 && b.readLimit < b.writePos {
		return b.readLimit
	}
	return b.writePos
}

func (b *Buffer) SetReadLimit(limit int64) { b.readLimit = limit }

func (b *Buffer) ReadRemaining() int64 {
	n := b.ReadLimit() - b.readPos
	if n < 0 {
		return 0
	}
	return n
}

func (b *Buffer) Clear() {
	b.buf = b.buf[:0]
	b.readPos = 0
	b.writePos = 0
	b.readLimit = -1
}

// Release discards the backing array. After Release the Buffer behaves as
// a fresh, empty one; this mirrors the external collaborator's
// no-ownership-transfer contract (spec §6.1) without actually returning
// memory to a pool, since pooling is outside this module's scope.
func (b *Buffer) Release() { b.Clear(); b.buf = nil }

func (b *Buffer) Bytes() []byte { return b.buf[:b.writePos] }

func (b *Buffer) grow(n int64) {
	need := b.writePos + n
	if int64(len(b.buf)) >= need {
		return
	}
	grown := make([]byte, need, need*2+16)
	copy(grown, b.buf)
	b.buf = grown
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.grow(int64(len(p)))
	copy(b.buf[b.writePos:], p)
	b.writePos += int64(len(p))
	return len(p), nil
}

func (b *Buffer) WriteByte(c byte) error {
	b.grow(1)
	b.buf[b.writePos] = c
	b.writePos++
	return nil
}

func (b *Buffer) AppendString(s string) {
	b.grow(int64(len(s)))
	copy(b.buf[b.writePos:], s)
	b.writePos += int64(len(s))
}

func (b *Buffer) WriteUtf8(s string) { b.AppendString(s) }

func (b *Buffer) Read(p []byte) (int, error) {
	remaining := b.ReadRemaining()
	if remaining <= 0 {
		return 0, io.EOF
	}
	n := copy(p, b.buf[b.readPos:b.readPos+remaining])
	b.readPos += int64(n)
	return n, nil
}

func (b *Buffer) ReadByte() (byte, error) {
	if b.ReadRemaining() <= 0 {
		return 0, io.EOF
	}
	c := b.buf[b.readPos]
	b.readPos++
	return c, nil
}

// ReadUtf8 reads the remainder of the readable region as a UTF-8 string,
// validating it along the way (spec §4.1 "text is valid UTF-8").
func (b *Buffer) ReadUtf8() (string, error) {
	remaining := b.ReadRemaining()
	if remaining <= 0 {
		return "", nil
	}
	s := b.buf[b.readPos : b.readPos+remaining]
	if !utf8.Valid(s) {
		return "", ErrProtocolViolation
	}
	b.readPos += remaining
	return string(s), nil
}

// PeekUnsignedByte reads a single byte at an absolute position without
// moving either cursor (spec §6.1 "peekUnsignedByte(abs)").
func (b *Buffer) PeekUnsignedByte(abs int64) (byte, bool) {
	if abs < 0 || abs >= int64(len(b.buf)) {
		return 0, false
	}
	return b.buf[abs], true
}

// PutUint32At patches a 4-byte big-endian value at an absolute position,
// used by the document framer to fill in the length+flags header after a
// document's body has been written (spec §4.2).
func (b *Buffer) PutUint32At(abs int64, v uint32) {
	if int64(len(b.buf)) < abs+4 {
		grown := make([]byte, abs+4)
		copy(grown, b.buf)
		b.buf = grown
	}
	binary.BigEndian.PutUint32(b.buf[abs:abs+4], v)
}

// PutBytesAt patches raw bytes at an absolute position, growing the backing
// array if needed. Used by the document framer to place a header encoded by
// a Fixed[uint32] Codec (fixed.go) rather than calling binary.BigEndian
// directly at the call site.
func (b *Buffer) PutBytesAt(abs int64, p []byte) {
	need := abs + int64(len(p))
	if int64(len(b.buf)) < need {
		grown := make([]byte, need)
		copy(grown, b.buf)
		b.buf = grown
	}
	copy(b.buf[abs:], p)
}

// PeekUint32At reads a 4-byte big-endian value at an absolute position
// without moving either cursor, used by the framer to inspect the next
// document's header before deciding whether it is ready (spec §4.2).
func (b *Buffer) PeekUint32At(abs int64) (uint32, bool) {
	if abs < 0 || abs+4 > int64(len(b.buf)) {
		return 0, false
	}
	return binary.BigEndian.Uint32(b.buf[abs : abs+4]), true
}
