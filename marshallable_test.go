package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engine struct {
	electric bool
}

func (e *engine) WireFields() []FieldDescriptor {
	return []FieldDescriptor{
		{Name: "electric", Get: func() any { return e.electric }, Set: func(v any) error { e.electric = v.(bool); return nil }},
	}
}

func (e *engine) ResetToDefault() { e.electric = false }

type boat struct {
	engine *engine
}

func (b *boat) WireFields() []FieldDescriptor {
	return []FieldDescriptor{
		{Name: "engine", Get: func() any { return b.engine }, Set: func(v any) error {
			m, ok := v.(*engine)
			if !ok {
				return nil
			}
			b.engine = m
			return nil
		}},
	}
}

// TestMarshallableRoundtrip covers a basic write-then-read cycle preserving
// declared field values.
func TestMarshallableRoundtrip(t *testing.T) {
	e := &engine{electric: true}
	root := &Value{}
	out := &ValueOut{target: root, err: new(error)}
	out.Marshallable(e)
	require.NoError(t, out.Err())

	got := &engine{}
	in := &ValueIn{source: root}
	require.NoError(t, in.Marshallable(got))
	assert.True(t, got.electric)
}

// TestMarshallableResetOnRead covers spec §8 end-to-end scenario 3: decoding
// into an existing, non-default object resets its Resettable fields to their
// defaults before population, so absent incoming fields don't retain a
// stale value.
func TestMarshallableResetOnRead(t *testing.T) {
	// Simulate decoding {"engine":{}} into an existing Boat{engine: {electric:true}}.
	emptyEngineDoc := Mapping(MapEntry{Name: "engine", Value: Mapping()})
	dst := &boat{engine: &engine{electric: true}}

	in := &ValueIn{source: emptyEngineDoc}
	require.NoError(t, in.Marshallable(dst))

	require.NotNil(t, dst.engine)
	assert.False(t, dst.engine.electric, "engine.electric must reset to its default before the (empty) document populates it")
}

type accountID struct {
	value int64
}

func (a *accountID) WireFields() []FieldDescriptor {
	return []FieldDescriptor{
		{
			Name: "id",
			Get:  func() any { return a.value },
			Set:  func(v any) error { a.value = v.(int64); return nil },
			Long: BigConverter{},
		},
	}
}

func TestMarshallableLongConversionRoundtrip(t *testing.T) {
	src := &accountID{value: 123456789}
	root := &Value{}
	out := &ValueOut{target: root, err: new(error)}
	out.Marshallable(src)
	require.NoError(t, out.Err())

	field := root.Field("id")
	require.NotNil(t, field)
	assert.Equal(t, KindRawText, field.Kind)

	dst := &accountID{}
	in := &ValueIn{source: root}
	require.NoError(t, in.Marshallable(dst))
	assert.Equal(t, src.value, dst.value)
}

type requiredOnly struct {
	name *string
}

func (r *requiredOnly) WireFields() []FieldDescriptor {
	return []FieldDescriptor{
		{Name: "name", Get: func() any { return r.name }, Set: func(v any) error { return nil }, Required: true},
	}
}

func TestMarshallableRequiredFieldMissingFailsRead(t *testing.T) {
	dst := &requiredOnly{}
	in := &ValueIn{source: Mapping()}
	err := in.Marshallable(dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMarshallable)
}

func TestMarshallableRequiredNilFieldFailsWrite(t *testing.T) {
	src := &requiredOnly{name: nil}
	root := &Value{}
	sharedErr := new(error)
	out := &ValueOut{target: root, err: sharedErr}
	out.Marshallable(src)
	require.Error(t, out.Err())
	assert.ErrorIs(t, out.Err(), ErrInvalidMarshallable)
}

func TestBigConverterBijection(t *testing.T) {
	c := BigConverter{}
	for _, v := range []int64{0, 1, 63, 64, 123456789, 1 << 40} {
		s := c.Append(v)
		got, err := c.Parse(s)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
