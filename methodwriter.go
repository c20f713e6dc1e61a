package wire

import (
	"context"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// WriterOptions is the enumerated configuration of spec §6.5.
type WriterOptions struct {
	MetaData          bool
	UseMethodID       bool
	RecordHistory     bool
	GenericEvent      string
	UpdateInterceptor func(methodName string, lastArg any) bool
	VerboseTypes      bool
	UsePadding        bool
}

// WriterOption follows _examples/oy3o-codec's WithByteOrder functional-
// option idiom.
type WriterOption func(*WriterOptions)

func WithMetaData() WriterOption            { return func(o *WriterOptions) { o.MetaData = true } }
func WithUseMethodID() WriterOption         { return func(o *WriterOptions) { o.UseMethodID = true } }
func WithRecordHistory() WriterOption       { return func(o *WriterOptions) { o.RecordHistory = true } }
func WithVerboseTypes() WriterOption        { return func(o *WriterOptions) { o.VerboseTypes = true } }
func WithPadding() WriterOption             { return func(o *WriterOptions) { o.UsePadding = true } }
func WithGenericEvent(name string) WriterOption {
	return func(o *WriterOptions) { o.GenericEvent = name }
}
func WithUpdateInterceptor(f func(methodName string, lastArg any) bool) WriterOption {
	return func(o *WriterOptions) { o.UpdateInterceptor = f }
}

// MethodDescriptor is one registered event's binding to an optional
// numeric id (spec §3 "Method descriptor").
type MethodDescriptor struct {
	Name  string
	ID    int64
	HasID bool
}

// descriptorSets is a concurrent map keyed by interface-set name, the same
// xsync.Map shape as _examples/oy3o-codec/fixed.go's sizeCache. Nothing in
// this package stores into or reads from it; id collisions are checked per
// writer instance by RegisterMethod.
var descriptorSets = xsync.NewMap[string, bool]()

// MethodWriter is the runtime, no-codegen implementation of the
// method-event writer (spec §4.6). Per DESIGN NOTES §9, Go has no
// equivalent of Java's Proxy.newProxyInstance — a named type's method set
// is fixed at compile time and cannot be synthesized from an arbitrary
// interface at runtime. This module therefore implements the design
// note's explicitly offered fallback, "a tagged-variant dispatcher for
// untyped inputs": callers write a small hand-written adapter type per
// interface (a handful of one-line methods, see methodwriter_test.go)
// whose methods each forward to Emit/EmitChained/EmitSub/EmitDocument
// below, rather than the library synthesizing the interface's method set
// itself. The dispatch algorithm — interceptor veto, event-key selection,
// argument-count-based payload shape, history stamping, id-vs-name
// selection, rollback-on-error — is otherwise the exact algorithm of
// AbstractMethodWriterInvocationHandler.java.
type MethodWriter struct {
	framer  *Framer
	dialect Dialect
	opts    WriterOptions

	descriptors map[string]MethodDescriptor
	usedIDs     map[int64]string

	chainMu  sync.Mutex
	openDoc  *WritingContext
	openWire Wire

	subs map[string]*MethodWriter
}

// NewMethodWriter creates a writer over framer using dialect, configured
// per spec §6.5.
func NewMethodWriter(framer *Framer, dialect Dialect, opts ...WriterOption) *MethodWriter {
	var o WriterOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &MethodWriter{
		framer:      framer,
		dialect:     dialect,
		opts:        o,
		descriptors: make(map[string]MethodDescriptor),
		usedIDs:     make(map[int64]string),
		subs:        make(map[string]*MethodWriter),
	}
}

// RegisterMethod binds name to an optional numeric id, detecting id
// collisions at registration time (spec §4.6 "Duplicate id detection" —
// this module's analogue of the writer-construction-time validation,
// since there is no interface-set to scan reflectively without codegen).
func (w *MethodWriter) RegisterMethod(name string, id int64, hasID bool) error {
	if hasID {
		if existing, ok := w.usedIDs[id]; ok && existing != name {
			return fmt.Errorf("%w: method id %d claimed by both %q and %q", ErrMethodWriterValidation, id, existing, name)
		}
		w.usedIDs[id] = name
	}
	w.descriptors[name] = MethodDescriptor{Name: name, ID: id, HasID: hasID}
	return nil
}

// SubWriter returns a cached MethodWriter for a nested interface (spec
// §4.6 item 2, "another interface → a lazily built... sub-writer for that
// interface sharing the same output supplier"). It shares this writer's
// framer and dialect; chaining onto the same open document happens
// naturally through EmitSub, which reuses the parent's open document
// rather than acquiring a new one.
func (w *MethodWriter) SubWriter(name string, opts ...WriterOption) *MethodWriter {
	if sub, ok := w.subs[name]; ok {
		return sub
	}
	o := w.opts
	for _, fn := range opts {
		fn(&o)
	}
	sub := &MethodWriter{
		framer:      w.framer,
		dialect:     w.dialect,
		opts:        o,
		descriptors: make(map[string]MethodDescriptor),
		usedIDs:     make(map[int64]string),
		subs:        make(map[string]*MethodWriter),
	}
	w.subs[name] = sub
	return sub
}

// begin acquires (or reuses an already-open) document for this writer,
// serialized by chainMu across independent call chains on this instance —
// this module's substitute for the "per-sub-interface thread-local"
// supplier spec §5 describes, since Go has no goroutine-local storage.
func (w *MethodWriter) begin(ctx context.Context) (Wire, error) {
	if w.openDoc != nil {
		return w.openWire, nil
	}
	w.chainMu.Lock()
	doc, err := w.framer.AcquireWritingDocument(ctx, w.opts.MetaData)
	if err != nil {
		w.chainMu.Unlock()
		return nil, err
	}
	wr := NewWire(w.dialect)
	wr.Reset(doc, nil)
	wr.SetVerboseTypes(w.opts.VerboseTypes)
	wr.UsePadding(w.opts.UsePadding)
	w.openDoc, w.openWire = doc, wr
	return wr, nil
}

// commit closes the currently open document, rolling back on werr, and
// releases chainMu (spec §4.6 item 3, "the outermost scope commits").
func (w *MethodWriter) commit(werr error) error {
	doc, wr := w.openDoc, w.openWire
	w.openDoc, w.openWire = nil, nil
	defer w.chainMu.Unlock()
	if werr != nil {
		doc.RollbackOnClose()
		_ = doc.Close()
		return werr
	}
	body := wr.ValueOut().target
	rendered, err := wr.Dump(body)
	if err != nil {
		doc.RollbackOnClose()
		_ = doc.Close()
		return err
	}
	if _, err := doc.Bytes().Write(rendered); err != nil {
		doc.RollbackOnClose()
		_ = doc.Close()
		return err
	}
	return doc.Close()
}

func (w *MethodWriter) writeHistory(wr Wire) {
	h := CurrentMessageHistory()
	entry := wr.WriteEventName("history")
	entry.Field("sourceId").Int64(int64(h.SourceID))
	entry.Field("timings").SequenceAny(int64SliceToAny(h.Timings), func(o *ValueOut, v any) {
		o.Int64(v.(int64))
	})
}

func int64SliceToAny(s []int64) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// invoke runs the shared algorithm of AbstractMethodWriterInvocationHandler
// §4.6 item 1: interceptor veto, document acquisition, history stamping,
// event-key selection, and argument-count-based payload serialization. veto
// reports whether the update interceptor suppressed the write; when true no
// document is touched.
func (w *MethodWriter) invoke(ctx context.Context, methodName string, args []any) (wr Wire, veto bool, err error) {
	if w.opts.UpdateInterceptor != nil {
		var last any
		if len(args) > 0 {
			last = args[len(args)-1]
		}
		if !w.opts.UpdateInterceptor(methodName, last) {
			return nil, true, nil
		}
	}

	wr, err = w.begin(ctx)
	if err != nil {
		return nil, false, err
	}

	if w.opts.RecordHistory {
		w.writeHistory(wr)
	}

	key := methodName
	payload := args
	if w.opts.GenericEvent != "" && methodName == w.opts.GenericEvent && len(args) > 0 {
		key = fmt.Sprint(args[0])
		payload = args[1:]
	}

	desc, hasDesc := w.descriptors[key]
	useID := w.opts.UseMethodID && w.dialect == DialectBinary && hasDesc && desc.HasID

	var out *ValueOut
	if useID {
		out = wr.WriteEventId(desc.ID)
	} else {
		out = wr.WriteEventName(key)
	}

	switch len(payload) {
	case 0:
		out.Text("")
	case 1:
		if raw, ok := payload[0].(Raw); ok && !wr.IsBinary() {
			out.RawText(string(raw))
		} else {
			out.Object(nil, payload[0])
		}
	default:
		out.SequenceAny(payload, func(o *ValueOut, item any) { o.Object(nil, item) })
	}

	if werr := out.Err(); werr != nil {
		return wr, false, werr
	}
	return wr, false, nil
}

// Emit writes a void-returning event and ends the chain, committing the
// document (spec §4.6 item 2 "void → nothing").
func (w *MethodWriter) Emit(ctx context.Context, methodName string, args ...any) error {
	_, veto, err := w.invoke(ctx, methodName, args)
	if veto {
		return nil
	}
	if err != nil {
		_ = w.commit(err)
		return err
	}
	return w.commit(nil)
}

// EmitChained writes an event whose method returns a type assignable to
// the writer itself, keeping the document open for the next chained call
// on the same instance (spec §4.6 items 2–3, "self-assignable to this →
// return this").
func (w *MethodWriter) EmitChained(ctx context.Context, methodName string, args ...any) (*MethodWriter, error) {
	_, veto, err := w.invoke(ctx, methodName, args)
	if veto {
		return w, nil
	}
	if err != nil {
		_ = w.commit(err)
		return nil, err
	}
	return w, nil
}

// EmitSub writes an event whose method returns a different interface,
// returning the shared sub-writer bound to name (call SubWriter first, or
// use EmitSub directly which looks it up). The sub-writer's chainMu is
// what actually holds the shared document open across the switch to the
// nested interface's calls.
func (w *MethodWriter) EmitSub(ctx context.Context, methodName, subName string, args ...any) (*MethodWriter, error) {
	sub := w.SubWriter(subName)
	_, veto, err := w.invoke(ctx, methodName, args)
	if veto {
		return sub, nil
	}
	if err != nil {
		_ = w.commit(err)
		return nil, err
	}
	sub.chainMu.Lock()
	sub.openDoc, sub.openWire = w.openDoc, w.openWire
	w.openDoc, w.openWire = nil, nil
	w.chainMu.Unlock()
	return sub, nil
}

// EmitDocument writes an event whose method returns a DocumentContext:
// the caller receives the still-open WritingContext and is responsible
// for calling Close (spec §4.6 item 2, "DocumentContext → the open
// document handle").
func (w *MethodWriter) EmitDocument(ctx context.Context, methodName string, args ...any) (*WritingContext, error) {
	wr, veto, err := w.invoke(ctx, methodName, args)
	if veto {
		return nil, nil
	}
	if err != nil {
		_ = w.commit(err)
		return nil, err
	}
	doc := w.openDoc
	w.openDoc, w.openWire = nil, nil

	// The event just recorded lives in wr's in-memory value tree; it must
	// be rendered and appended to the document's bytes now, since the
	// caller receives the still-open context rather than going through
	// commit's Dump-then-write step.
	rendered, err := wr.Dump(wr.ValueOut().target)
	if err != nil {
		doc.RollbackOnClose()
		_ = doc.Close()
		w.chainMu.Unlock()
		return nil, err
	}
	if _, err := doc.Bytes().Write(rendered); err != nil {
		doc.RollbackOnClose()
		_ = doc.Close()
		w.chainMu.Unlock()
		return nil, err
	}

	w.chainMu.Unlock()
	return doc, nil
}
