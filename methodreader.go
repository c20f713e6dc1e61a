package wire

import "context"

// MethodBinding is one event a MethodReader dispatches, the read-side
// counterpart of MethodDescriptor (spec §4.6 is framed around the writer;
// the reader side is the event parser of §4.5 applied to method-shaped
// events specifically).
type MethodBinding struct {
	Name    string
	ID      int64
	HasID   bool
	Handler Handler
}

// MethodReader pulls framed documents off a Framer, decodes them in the
// given dialect, and dispatches each event to its bound handler via a
// Parser — the read-side half of the hand-written-adapter pattern
// described in methodwriter.go: callers bind method names to closures
// that unpack a ValueIn's arguments and call their own interface's
// methods directly, rather than the library invoking them via reflection.
type MethodReader struct {
	framer  *Framer
	dialect Dialect
	parser  *Parser
}

// NewMethodReader builds a reader dispatching bindings, plus an optional
// default handler for unrecognized events (spec §4.5's fallback handler).
// A "history" binding is always installed ahead of the caller's bindings so
// that a history meta-entry written by RecordHistory (spec §4.6 "History")
// updates the process-wide MessageHistory instead of reaching the default
// handler as an unrecognized event.
func NewMethodReader(framer *Framer, dialect Dialect, def Handler, bindings []MethodBinding) *MethodReader {
	p := NewParser(def)
	p.Register("history", func(in *ValueIn) error {
		h := &MessageHistory{}
		if sid, err := in.Field("sourceId").Int64(); err == nil {
			h.SourceID = uint64(sid)
		}
		n := in.Field("timings").SequenceLen()
		for i := 0; i < n; i++ {
			if t, err := in.Field("timings").SequenceItem(i).Int64(); err == nil {
				h.Timings = append(h.Timings, t)
			}
		}
		SetMessageHistory(h)
		return nil
	})
	for _, b := range bindings {
		if b.HasID {
			p.RegisterID(b.ID, b.Name, b.Handler)
		} else {
			p.Register(b.Name, b.Handler)
		}
	}
	return &MethodReader{framer: framer, dialect: dialect, parser: p}
}

// ReadOne reads and dispatches the next available document's events. ok is
// false when no ready document is currently available (spec §4.2
// "not-ready documents are invisible to readers").
func (r *MethodReader) ReadOne(ctx context.Context) (ok bool, err error) {
	rc, err := r.framer.ReadingDocument()
	if err != nil {
		return false, err
	}
	if !rc.IsPresent() {
		return false, nil
	}
	defer rc.Close()

	buf, isBuf := r.framer.bytes.(*Buffer)
	if !isBuf {
		return false, ErrTransientIO
	}
	start, end := rc.BodyRange()
	raw := buf.Bytes()
	if end > int64(len(raw)) {
		return false, ErrProtocolViolation
	}
	body := raw[start:end]

	wr := NewWire(r.dialect)
	tree, err := wr.Parse(body)
	if err != nil {
		return false, err
	}
	wr.ResetReading(tree)

	if err := r.parser.Accept(wr); err != nil {
		return false, err
	}
	return true, nil
}

// Drain calls ReadOne until no document is available or ctx is done.
func (r *MethodReader) Drain(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		ok, err := r.ReadOne(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}
