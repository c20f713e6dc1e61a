package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONDialectRoundtrip(t *testing.T) {
	body := Mapping(
		MapEntry{Name: "count", Value: Int64(17)},
		MapEntry{Name: "name", Value: Text("bark")},
		MapEntry{Name: "price", Value: Float64Value(3.14)},
		MapEntry{Name: "tags", Value: Sequence(Text("a"), Text("b"))},
	)

	w := newJSONWire()
	out, err := w.Dump(body)
	require.NoError(t, err)

	got, err := w.Parse(out)
	require.NoError(t, err)

	assert.EqualValues(t, 17, got.Field("count").Int)
	assert.Equal(t, "bark", got.Field("name").Text)
	assert.InDelta(t, 3.14, got.Field("price").Float, 0.0001)
	assert.Len(t, got.Field("tags").Sequence, 2)
}

func TestJSONDialectTypeMember(t *testing.T) {
	body := TypedObject("Dog", Mapping(MapEntry{Name: "age", Value: Int64(4)}))
	w := newJSONWire()
	out, err := w.Dump(body)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"@type":"Dog"`)

	got, err := w.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, KindTypedObject, got.Kind)
	assert.Equal(t, "Dog", got.TypeAlias)
	assert.EqualValues(t, 4, got.Inner.Field("age").Int)
}

func TestJSONDialectPreservesMemberOrder(t *testing.T) {
	body := Mapping(
		MapEntry{Name: "z", Value: Int64(1)},
		MapEntry{Name: "a", Value: Int64(2)},
	)
	w := newJSONWire()
	out, err := w.Dump(body)
	require.NoError(t, err)
	assert.Regexp(t, `"z":1.*"a":2`, string(out))
}

func TestJSONDialectNull(t *testing.T) {
	w := newJSONWire()
	out, err := w.Dump(Null())
	require.NoError(t, err)
	assert.Equal(t, "null\n", string(out))

	got, err := w.Parse(out)
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}
