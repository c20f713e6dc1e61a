package wire

import "context"

// Dialect identifies a concrete physical encoding (spec §2 component D).
type Dialect uint8

const (
	DialectText Dialect = iota
	DialectJSON
	DialectBinary
)

func (d Dialect) String() string {
	switch d {
	case DialectText:
		return "text"
	case DialectJSON:
		return "json"
	case DialectBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Wire is the shared contract of spec §4.3: a codec pairing a value model
// with a specific physical encoding bound to a Bytes buffer. Each of
// text.go, json.go and binary.go implements Wire for its dialect.
type Wire interface {
	Dialect() Dialect
	IsBinary() bool

	// ValueOut gives a cursor for writing a bare value outside of any event
	// (used by tests of §8's roundtrip property directly); ValueIn returns
	// the body tree last installed by ResetReading.
	ValueOut() *ValueOut
	ValueIn() *Value

	WriteEventName(name string) *ValueOut
	WriteEventId(id int64) *ValueOut

	// ReadEventName/ReadEventId return the next event's key and a cursor
	// over its value. ok is false once the document's events are
	// exhausted.
	ReadEventName() (name string, in *ValueIn, ok bool)
	ReadEventId() (id int64, in *ValueIn, ok bool)

	// SetIDNames installs the reader's id->name table (spec §4.3):
	// ReadEventName resolves an id-keyed entry through it before falling
	// back to a synthetic placeholder. A Parser installs its own
	// registrations here before calling Accept.
	SetIDNames(names map[int64]string)

	StartEvent()
	IsEndEvent() bool
	EndEvent()
	ConsumePadding()

	Reset(doc *WritingContext, body *Value)
	ResetReading(body *Value)

	Aliases() *AliasRegistry
	SetAliases(*AliasRegistry)

	UsePadding(bool)
	SetVerboseTypes(bool)

	// Dump renders body (the whole value tree of one document) in this
	// dialect's on-the-wire textual or binary shape (spec §6.2–§6.4).
	Dump(body *Value) ([]byte, error)
	// Parse is the converse of Dump.
	Parse(data []byte) (*Value, error)
}

// baseWire holds the state shared by every dialect implementation:
// the in-progress mapping being written/read, a cursor over its entries,
// and the configured options of spec §6.5.
type baseWire struct {
	dialect Dialect

	writeDoc  *WritingContext
	writeBody *Value // the top-level mapping for the currently open document

	readBody  *Value
	readIndex int
	idNames   map[int64]string

	aliases      *AliasRegistry
	usePadding   bool
	verboseTypes bool

	writeErr error
}

func newBaseWire(d Dialect) baseWire {
	return baseWire{dialect: d, aliases: DefaultAliases}
}

func (w *baseWire) Dialect() Dialect   { return w.dialect }
func (w *baseWire) IsBinary() bool     { return w.dialect == DialectBinary }
func (w *baseWire) Aliases() *AliasRegistry { return w.aliases }
func (w *baseWire) SetAliases(r *AliasRegistry) { w.aliases = r }
func (w *baseWire) UsePadding(v bool)      { w.usePadding = v }
func (w *baseWire) SetVerboseTypes(v bool) { w.verboseTypes = v }

func (w *baseWire) Reset(doc *WritingContext, body *Value) {
	w.writeDoc = doc
	if body == nil {
		body = &Value{Kind: KindMapping}
	}
	w.writeBody = body
}

func (w *baseWire) ResetReading(body *Value) {
	w.readBody = body
	w.readIndex = 0
}

func (w *baseWire) SetIDNames(names map[int64]string) { w.idNames = names }

func (w *baseWire) ValueIn() *Value { return w.readBody }

// ValueOut returns a cursor over the whole document body, for writing a
// bare value outside of any named event (used directly by the harness and
// by tests of the roundtrip property).
func (w *baseWire) ValueOut() *ValueOut {
	if w.writeBody == nil {
		w.writeBody = &Value{}
	}
	return &ValueOut{target: w.writeBody, aliases: w.aliases, binary: w.dialect == DialectBinary, verbose: w.verboseTypes, err: &w.writeErr}
}

func (w *baseWire) WriteEventName(name string) *ValueOut {
	val := &Value{}
	w.writeBody.SetField(name, val)
	return &ValueOut{target: val, aliases: w.aliases, binary: w.dialect == DialectBinary, verbose: w.verboseTypes, err: &w.writeErr}
}

func (w *baseWire) WriteEventId(id int64) *ValueOut {
	val := &Value{}
	w.writeBody.SetFieldID(id, val)
	return &ValueOut{target: val, aliases: w.aliases, binary: w.dialect == DialectBinary, verbose: w.verboseTypes, err: &w.writeErr}
}

func (w *baseWire) ReadEventName() (string, *ValueIn, bool) {
	if w.readBody == nil || w.readIndex >= len(w.readBody.Mapping) {
		return "", nil, false
	}
	entry := w.readBody.Mapping[w.readIndex]
	w.readIndex++
	name := entry.Name
	if entry.HasID {
		if resolved, ok := w.idNames[entry.ID]; ok {
			name = resolved
		} else {
			name = idFallbackName(entry.ID)
		}
	}
	return name, &ValueIn{source: entry.Value, aliases: w.aliases}, true
}

func (w *baseWire) ReadEventId() (int64, *ValueIn, bool) {
	if w.readBody == nil || w.readIndex >= len(w.readBody.Mapping) {
		return 0, nil, false
	}
	entry := w.readBody.Mapping[w.readIndex]
	w.readIndex++
	return entry.ID, &ValueIn{source: entry.Value, aliases: w.aliases}, true
}

func idFallbackName(id int64) string {
	// In text/JSON dialects an id request falls back to its registered
	// name (spec §4.3); when no registered name is known the numeric id
	// itself is surfaced so the default handler can still report it.
	return "#" + itoa(id)
}

func (w *baseWire) StartEvent()      {}
func (w *baseWire) IsEndEvent() bool { return w.readBody == nil || w.readIndex >= len(w.readBody.Mapping) }
func (w *baseWire) EndEvent()        {}
func (w *baseWire) ConsumePadding()  {}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// NewWire constructs an unbound Wire of the given dialect. Callers bind it
// with Reset (for writing) or ResetReading (for reading); exactly one of
// the two is used by a given caller, mirroring spec §4.3's single Wire
// instance per document.
func NewWire(d Dialect) Wire {
	switch d {
	case DialectJSON:
		return newJSONWire()
	case DialectBinary:
		return newBinaryWire()
	default:
		return newTextWire()
	}
}

// acquireDocumentWire opens a writing document on a Framer and binds a
// fresh Wire of the requested dialect to it in one step. The method-event
// writer and the harness do not call it; MethodWriter.begin does the same
// steps itself.
func acquireDocumentWire(ctx context.Context, f *Framer, d Dialect, meta bool) (Wire, *WritingContext, error) {
	doc, err := f.AcquireWritingDocument(ctx, meta)
	if err != nil {
		return nil, nil, err
	}
	w := NewWire(d)
	w.Reset(doc, nil)
	return w, doc, nil
}
