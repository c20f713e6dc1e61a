package wire

import (
	"context"
	"runtime"
	"sync"
)

// header bit layout (spec §4.2): 30-bit length, 1 bit meta, 1 bit ready,
// packed into a single big-endian uint32 as length<<2 | meta<<1 | ready.
const (
	headerReadyBit    = uint32(1) << 0
	headerMetaBit     = uint32(1) << 1
	headerLengthShift = 2
	maxDocumentLength = uint32(1)<<30 - 1
)

// Pauser mediates the busy wait spec §5 describes for document
// acquisition: "There is no implicit suspension — the blocking is a busy
// wait mediated by a configurable pauser."
type Pauser interface {
	Pause()
}

// BusyPauser yields the current goroutine's timeslice without blocking on
// a channel; the default Pauser for Framer.
type BusyPauser struct{}

func (BusyPauser) Pause() { runtime.Gosched() }

// Framer implements the document framer of spec §4.2 over a Bytes
// collaborator. A Framer's write side serializes access to a single
// in-flight writing document with a mutex standing in for spec §5's
// "callers must not hold two open contexts on one wire" rule.
type Framer struct {
	bytes  Bytes
	pauser Pauser

	writeMu    sync.Mutex
	writeIndex int64

	readIndex int64
}

// NewFramer wraps b with document framing. The Bytes is borrowed, not
// owned (spec §6.1).
func NewFramer(b Bytes) *Framer {
	return &Framer{bytes: b, pauser: BusyPauser{}}
}

// WithPauser overrides the default busy-wait pauser, returning the
// Framer for chaining in the teacher's WithByteOrder idiom
// (_examples/oy3o-codec/writer.go).
func (f *Framer) WithPauser(p Pauser) *Framer {
	f.pauser = p
	return f
}

// WritingContext is the scoped writer handle returned by
// AcquireWritingDocument (spec §4.2).
type WritingContext struct {
	f          *Framer
	headerPos  int64
	meta       bool
	rolledBack bool
	closed     bool
}

// AcquireWritingDocument opens a framed region for writing. It blocks
// (busy-waiting via the Framer's Pauser) until any other in-flight
// writing document on this Framer is closed, or ctx is done, in which
// case it returns ErrUnrecoverableTimeout (spec §5, §7).
func (f *Framer) AcquireWritingDocument(ctx context.Context, meta bool) (*WritingContext, error) {
	for !f.writeMu.TryLock() {
		select {
		case <-ctx.Done():
			return nil, ErrUnrecoverableTimeout
		default:
			f.pauser.Pause()
		}
	}

	pos := f.bytes.WritePosition()
	var zero [4]byte
	if _, err := f.bytes.Write(zero[:]); err != nil {
		f.writeMu.Unlock()
		return nil, ErrTransientIO
	}
	return &WritingContext{f: f, headerPos: pos, meta: meta}, nil
}

// Bytes exposes the framer's underlying byte sink so a dialect can write
// the document body. Callers must only write between headerPos+4 and the
// current write position.
func (c *WritingContext) Bytes() Bytes { return c.f.bytes }

// RollbackOnClose marks the document to be discarded, rather than
// committed, when Close is called (spec §4.2 "rollbackOnClose").
func (c *WritingContext) RollbackOnClose() { c.rolledBack = true }

// Close finalizes the document: on the normal path it patches the
// header's length and ready bit and advances the framer's write cursor
// past the body (already advanced by direct writes); on a rollback it
// rewinds the write cursor to the header position and leaves the header
// zeroed, matching spec §4.2's state machine.
func (c *WritingContext) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	defer c.f.writeMu.Unlock()

	if c.rolledBack {
		c.f.bytes.SetWritePosition(c.headerPos)
		return nil
	}

	end := c.f.bytes.WritePosition()
	length := uint32(end - c.headerPos - 4)
	if length > maxDocumentLength {
		return ErrProtocolViolation
	}
	header := length<<headerLengthShift | headerReadyBit
	if c.meta {
		header |= headerMetaBit
	}
	buf, ok := c.f.bytes.(*Buffer)
	if !ok {
		return ErrTransientIO
	}
	// The 4-byte header word is encoded through the fixed-size Codec
	// wrapper rather than a hand-rolled binary.BigEndian call, the same
	// wrapper _examples/oy3o-codec/fixed.go uses for any fixed-shape
	// payload.
	hdr := Fixed[uint32]{Payload: header}
	encoded, err := hdr.MarshalBinary()
	if err != nil {
		return err
	}
	buf.PutBytesAt(c.headerPos, encoded)
	c.f.writeIndex++
	return nil
}

// ReadingContext is the scoped reader handle returned by ReadingDocument
// (spec §4.2).
type ReadingContext struct {
	f         *Framer
	present   bool
	meta      bool
	index     int64
	bodyStart int64
	bodyEnd   int64
	closed    bool
}

// IsPresent reports whether a ready document was found.
func (c *ReadingContext) IsPresent() bool { return c.present }

// IsMetaData reports whether the document is tagged meta rather than data.
func (c *ReadingContext) IsMetaData() bool { return c.meta }

// Index returns the framer's monotone read index for this document.
func (c *ReadingContext) Index() int64 { return c.index }

// BodyRange returns the absolute [start, end) byte range of the
// document's payload within the underlying Bytes.
func (c *ReadingContext) BodyRange() (int64, int64) { return c.bodyStart, c.bodyEnd }

// ReadingDocument attempts to open the next document for reading.
// isPresent is false when the next header is not-ready or absent (spec
// §4.2). The framer's read cursor only advances once the returned
// context's Close is called.
func (f *Framer) ReadingDocument() (*ReadingContext, error) {
	buf, ok := f.bytes.(*Buffer)
	if !ok {
		return nil, ErrTransientIO
	}
	pos := f.bytes.ReadPosition()
	if f.bytes.ReadRemaining() < 4 {
		return &ReadingContext{present: false}, nil
	}
	header, ok := buf.PeekUint32At(pos)
	if !ok {
		return &ReadingContext{present: false}, nil
	}
	if header&headerReadyBit == 0 {
		return &ReadingContext{present: false}, nil
	}
	meta := header&headerMetaBit != 0
	length := header >> headerLengthShift
	bodyStart := pos + 4
	bodyEnd := bodyStart + int64(length)
	if bodyEnd > f.bytes.ReadLimit()+4 {
		return nil, ErrProtocolViolation
	}
	f.bytes.SetReadPosition(bodyStart)
	return &ReadingContext{
		f:         f,
		present:   true,
		meta:      meta,
		index:     f.readIndex,
		bodyStart: bodyStart,
		bodyEnd:   bodyEnd,
	}, nil
}

// Close advances the framer's read cursor past this document's body and
// increments the read index, ready for the next ReadingDocument call.
func (c *ReadingContext) Close() error {
	if c.closed || !c.present {
		return nil
	}
	c.closed = true
	c.f.bytes.SetReadPosition(c.bodyEnd)
	c.f.readIndex++
	return nil
}
