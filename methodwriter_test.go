package wire

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// animalSounds is the kind of caller-defined interface the design notes in
// methodwriter.go describe: Go cannot synthesize an implementation of this
// at runtime, so callers write a small adapter (below) that forwards each
// method to the four Emit* calls instead.
type animalSounds interface {
	Bark(times int) error
}

type animalSoundsAdapter struct{ w *MethodWriter }

func (a animalSoundsAdapter) Bark(times int) error {
	return a.w.Emit(context.Background(), "bark", times)
}

var _ animalSounds = animalSoundsAdapter{}

func readSoleDocument(t *testing.T, framer *Framer, dialect Dialect) *Value {
	t.Helper()
	rc, err := framer.ReadingDocument()
	require.NoError(t, err)
	require.True(t, rc.IsPresent())
	defer rc.Close()

	buf, ok := framer.bytes.(*Buffer)
	require.True(t, ok)
	start, end := rc.BodyRange()
	body := buf.Bytes()[start:end]

	wr := NewWire(dialect)
	tree, err := wr.Parse(body)
	require.NoError(t, err)
	return tree
}

func TestMethodWriterAdapterPattern(t *testing.T) {
	framer := NewFramer(NewBuffer())
	mw := NewMethodWriter(framer, DialectText)
	adapter := animalSoundsAdapter{w: mw}

	require.NoError(t, adapter.Bark(3))

	tree := readSoleDocument(t, framer, DialectText)
	field := tree.Field("bark")
	require.NotNil(t, field)
	n, err := (&ValueIn{source: field}).Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

// TestMethodWriterChainInvariant covers the universal property that a call
// chain a().b().c() on one writer instance produces exactly three events in
// a single frame, not three separate documents.
func TestMethodWriterChainInvariant(t *testing.T) {
	framer := NewFramer(NewBuffer())
	mw := NewMethodWriter(framer, DialectText)
	ctx := context.Background()

	w1, err := mw.EmitChained(ctx, "a")
	require.NoError(t, err)
	require.Same(t, mw, w1)

	w2, err := mw.EmitChained(ctx, "b")
	require.NoError(t, err)
	require.Same(t, mw, w2)

	require.NoError(t, mw.Emit(ctx, "c"))

	tree := readSoleDocument(t, framer, DialectText)
	require.Len(t, tree.Mapping, 3)

	rc2, err := framer.ReadingDocument()
	require.NoError(t, err)
	assert.False(t, rc2.IsPresent(), "the chain must have produced exactly one document")
}

// TestMethodWriterGenericEventRoundtrip covers spec §8 end-to-end scenario
// 4: a single "generic" method whose first argument selects the effective
// event key.
func TestMethodWriterGenericEventRoundtrip(t *testing.T) {
	framer := NewFramer(NewBuffer())
	mw := NewMethodWriter(framer, DialectText, WithGenericEvent("event"))
	ctx := context.Background()

	require.NoError(t, mw.Emit(ctx, "event", "priceUpdate", 42))

	tree := readSoleDocument(t, framer, DialectText)
	field := tree.Field("priceUpdate")
	require.NotNil(t, field, "the generic call's first argument must become the event key")
	n, err := (&ValueIn{source: field}).Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
}

// TestMethodWriterUpdateInterceptorVeto covers spec §8 end-to-end scenario
// 5: an update interceptor returning false suppresses the write entirely,
// leaving no document behind.
func TestMethodWriterUpdateInterceptorVeto(t *testing.T) {
	framer := NewFramer(NewBuffer())
	mw := NewMethodWriter(framer, DialectText, WithUpdateInterceptor(
		func(methodName string, lastArg any) bool { return methodName != "suppressed" },
	))
	ctx := context.Background()

	require.NoError(t, mw.Emit(ctx, "suppressed", 1))

	rc, err := framer.ReadingDocument()
	require.NoError(t, err)
	assert.False(t, rc.IsPresent(), "a vetoed call must not open or commit any document")
}

// TestMethodWriterMethodIDBinarySwitch covers spec §8 end-to-end scenario 6:
// the same registered method emits its numeric id in the binary dialect but
// falls back to its textual name in the text dialect.
func TestMethodWriterMethodIDBinarySwitch(t *testing.T) {
	ctx := context.Background()

	textFramer := NewFramer(NewBuffer())
	textWriter := NewMethodWriter(textFramer, DialectText, WithUseMethodID())
	require.NoError(t, textWriter.RegisterMethod("price", 42, true))
	require.NoError(t, textWriter.Emit(ctx, "price", 1))
	textTree := readSoleDocument(t, textFramer, DialectText)
	require.NotNil(t, textTree.Field("price"), "text dialect keeps the name even when UseMethodID is set")

	binFramer := NewFramer(NewBuffer())
	binWriter := NewMethodWriter(binFramer, DialectBinary, WithUseMethodID())
	require.NoError(t, binWriter.RegisterMethod("price", 42, true))
	require.NoError(t, binWriter.Emit(ctx, "price", 1))
	binTree := readSoleDocument(t, binFramer, DialectBinary)
	entry := binTree.FieldByID(42)
	require.NotNil(t, entry, "binary dialect with UseMethodID must key the event by its numeric id")
}

func TestMethodWriterDuplicateIDFails(t *testing.T) {
	framer := NewFramer(NewBuffer())
	mw := NewMethodWriter(framer, DialectBinary)
	require.NoError(t, mw.RegisterMethod("price", 42, true))
	err := mw.RegisterMethod("cost", 42, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMethodWriterValidation)
}

func TestMethodWriterEmitDocumentLeavesContextOpenForCaller(t *testing.T) {
	framer := NewFramer(NewBuffer())
	mw := NewMethodWriter(framer, DialectText)
	ctx := context.Background()

	doc, err := mw.EmitDocument(ctx, "beginBatch")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.NoError(t, doc.Close())

	tree := readSoleDocument(t, framer, DialectText)
	assert.NotNil(t, tree.Field("beginBatch"))
}
