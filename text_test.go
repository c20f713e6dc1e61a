package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTextDialectDumpScalarEvents covers the shape of spec §8 end-to-end
// scenario 1: a document whose events carry an int, a string, and a double.
func TestTextDialectDumpScalarEvents(t *testing.T) {
	w := newTextWire()
	w.Reset(nil, nil)

	w.WriteEventName("count").Int64(17)
	w.WriteEventName("name").Text("bark")
	w.WriteEventName("price").Float64(3.14)

	out, err := w.Dump(w.ValueOut().target)
	require.NoError(t, err)
	text := string(out)

	assert.True(t, strings.HasPrefix(text, "--- !!data\n"))
	assert.True(t, strings.HasSuffix(text, "...\n"))
	assert.Contains(t, text, "17")
	assert.Contains(t, text, "bark")
	assert.Contains(t, text, "3.14")
}

func TestTextDialectMetaDocumentUsesMetaDataTag(t *testing.T) {
	w := newTextWire()
	w.Reset(&WritingContext{meta: true}, nil)

	out, err := w.Dump(w.ValueOut().target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "--- !!meta-data\n"))
}

func TestTextDialectRoundtrip(t *testing.T) {
	body := Mapping(
		MapEntry{Name: "count", Value: Int64(17)},
		MapEntry{Name: "name", Value: Text("bark")},
		MapEntry{Name: "price", Value: Float64Value(3.14)},
	)

	w := newTextWire()
	w.Reset(nil, nil)
	out, err := w.Dump(body)
	require.NoError(t, err)

	got, err := w.Parse(out)
	require.NoError(t, err)

	assert.EqualValues(t, 17, got.Field("count").Int)
	assert.Equal(t, "bark", got.Field("name").Text)
	assert.InDelta(t, 3.14, got.Field("price").Float, 0.0001)
}

func TestTextDialectTypedObjectTag(t *testing.T) {
	body := TypedObject("Dog", Mapping(MapEntry{Name: "age", Value: Int64(4)}))
	w := newTextWire()
	out, err := w.Dump(body)
	require.NoError(t, err)
	assert.Contains(t, string(out), "!Dog")

	got, err := w.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, KindTypedObject, got.Kind)
	assert.Equal(t, "Dog", got.TypeAlias)
}
