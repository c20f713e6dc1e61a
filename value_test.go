package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueConstructorsAndKind(t *testing.T) {
	assert.Equal(t, KindNull, Null().Kind)
	assert.Equal(t, KindBool, Bool(true).Kind)
	assert.True(t, Bool(true).Bool)
	assert.Equal(t, KindInt, Int32(7).Kind)
	assert.EqualValues(t, 7, Int32(7).Int)
	assert.Equal(t, Width32, Int32(7).IntWidth)
	assert.Equal(t, KindFloat, Float64Value(3.14).Kind)
	assert.Equal(t, KindText, Text("bark").Kind)
	assert.Equal(t, "bark", Text("bark").Text)
	assert.Equal(t, KindBlob, Blob([]byte{1, 2, 3}).Kind)
}

func TestValueFieldLookupByNameAndID(t *testing.T) {
	m := Mapping(
		MapEntry{Name: "a", Value: Int32(1)},
		MapEntry{ID: 2, HasID: true, Value: Int32(2)},
	)
	a := m.Field("a")
	assert.NotNil(t, a)
	assert.EqualValues(t, 1, a.Int)

	b := m.FieldByID(2)
	assert.NotNil(t, b)
	assert.EqualValues(t, 2, b.Int)

	assert.Nil(t, m.Field("missing"))
}

func TestValueSetField(t *testing.T) {
	m := Mapping()
	m.SetField("x", Int32(9))
	assert.EqualValues(t, 9, m.Field("x").Int)

	// Setting an existing field replaces its value rather than appending.
	m.SetField("x", Int32(10))
	assert.Len(t, m.Mapping, 1)
	assert.EqualValues(t, 10, m.Field("x").Int)
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Int32(1).Equal(Int32(1)))
	assert.False(t, Int32(1).Equal(Int32(2)))
	assert.True(t, Null().Equal(Null()))
	assert.True(t, Float64Value(1.0).Equal(Float64Value(1.0)))

	nan1 := Float64Value(nanValue())
	nan2 := Float64Value(nanValue())
	assert.True(t, nan1.Equal(nan2), "NaN payloads compare equal bitwise")
}

func nanValue() float64 {
	var f float64
	return f / f
}

func TestValueIsNull(t *testing.T) {
	assert.True(t, Null().IsNull())
	assert.False(t, Int32(0).IsNull())
}
